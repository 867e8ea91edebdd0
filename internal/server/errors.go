package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/oddsfeed"
	"github.com/yourusername/squares-ev/internal/service"
)

// Error codes produced by the API layer itself.
const (
	codeBadRequest     = "bad_request"
	codeInvalidRequest = "invalid_request"
	codeNoBoard        = "no_board"
	codeNoOdds         = "no_odds"
	codePending        = "analysis_pending"
	codeFeedDisabled   = "odds_feed_disabled"
	codeInternal       = "internal"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// classify maps an error to its HTTP status and code.
func classify(err error) (int, string) {
	var (
		feedErr  *oddsfeed.FeedError
		validErr validator.ValidationErrors
	)
	switch {
	case errors.Is(err, service.ErrNoBoard):
		return http.StatusConflict, codeNoBoard
	case errors.Is(err, service.ErrNoOdds):
		return http.StatusConflict, codeNoOdds
	case errors.Is(err, service.ErrAnalysisPending):
		return http.StatusConflict, codePending
	case errors.Is(err, service.ErrOddsFeedDisabled):
		return http.StatusServiceUnavailable, codeFeedDisabled
	case models.IsInputError(err):
		return http.StatusUnprocessableEntity, models.ErrorCode(err)
	case errors.As(err, &feedErr):
		return http.StatusBadGateway, feedErr.Code
	case errors.As(err, &validErr):
		return http.StatusBadRequest, codeInvalidRequest
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
