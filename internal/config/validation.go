// Package config provides configuration management for the squares EV service.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/squares-ev/internal/grid"
	"github.com/yourusername/squares-ev/internal/names"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("cron", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Pool.WeightA == 0 && cfg.Pool.WeightB == 0 {
		return fmt.Errorf("pool weight_a and weight_b cannot both be zero")
	}

	home, away := cfg.Pool.HomePlaceholder, cfg.Pool.AwayPlaceholder
	if home == "" {
		home = grid.DefaultHomePlaceholder
	}
	if away == "" {
		away = grid.DefaultAwayPlaceholder
	}
	if home == away {
		return fmt.Errorf("pool home_placeholder and away_placeholder must differ")
	}

	if cfg.Refresh.Enabled && !cfg.OddsFeed.Enabled {
		return fmt.Errorf("refresh requires odds_feed to be enabled")
	}

	if cfg.Refresh.Enabled && cfg.OddsFeed.EventID == "" {
		return fmt.Errorf("refresh requires odds_feed.event_id")
	}

	if cfg.OddsFeed.Enabled && cfg.OddsFeed.MarketA == cfg.OddsFeed.MarketB {
		return fmt.Errorf("odds_feed market_a and market_b must be different markets")
	}

	if _, err := names.NewNormalizer(cfg.Names.Rules); err != nil {
		return fmt.Errorf("invalid names configuration: %w", err)
	}

	if cfg.IsProduction() && cfg.OddsFeed.Enabled && cfg.OddsFeed.APIKey == "" {
		return fmt.Errorf("production environment requires odds_feed.api_key")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "cron":
			fmt.Fprintf(&b, "- Field '%s' must be a standard cron expression, got '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
