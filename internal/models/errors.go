package models

import (
	"errors"
	"fmt"
	"strings"
)

// Input validation errors. All of them are deterministic: the same input
// always fails the same way, so callers should never retry on them.
var (
	ErrInvalidOdds               = errors.New("invalid odds quotation")
	ErrMalformedDigitAxis        = errors.New("malformed digit axis")
	ErrMalformedBoardShape       = errors.New("malformed board shape")
	ErrIncompleteOddsCoverage    = errors.New("incomplete odds coverage")
	ErrDegenerateProbabilityMass = errors.New("degenerate probability mass")
	ErrIncompleteOwnershipGrid   = errors.New("incomplete ownership grid")
	ErrUnderfilledPastedInput    = errors.New("underfilled pasted input")
)

// MaxReportedPairs caps how many missing pairs are spelled out in an
// IncompleteOddsCoverageError message.
const MaxReportedPairs = 12

// DigitPair identifies one board outcome by digit value.
type DigitPair struct {
	Away int `json:"away"`
	Home int `json:"home"`
}

func (p DigitPair) String() string {
	return fmt.Sprintf("(%d, %d)", p.Away, p.Home)
}

// IncompleteOddsCoverageError lists the digit pairs missing from each market.
type IncompleteOddsCoverageError struct {
	Missing map[string][]DigitPair
	Markets []string
}

func (e *IncompleteOddsCoverageError) Error() string {
	var b strings.Builder
	b.WriteString(ErrIncompleteOddsCoverage.Error())
	for i, market := range e.Markets {
		pairs := e.Missing[market]
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "market %s missing %d of 100 (away, home) pairs: ", market, len(pairs))
		shown := pairs
		if len(shown) > MaxReportedPairs {
			shown = shown[:MaxReportedPairs]
		}
		for j, p := range shown {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		if extra := len(pairs) - len(shown); extra > 0 {
			fmt.Fprintf(&b, " and %d more", extra)
		}
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrIncompleteOddsCoverage.
func (e *IncompleteOddsCoverageError) Unwrap() error {
	return ErrIncompleteOddsCoverage
}

// ErrorCode maps a core error to a stable snake_case code for API responses.
// Unknown errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidOdds):
		return "invalid_odds"
	case errors.Is(err, ErrMalformedDigitAxis):
		return "malformed_digit_axis"
	case errors.Is(err, ErrMalformedBoardShape):
		return "malformed_board_shape"
	case errors.Is(err, ErrIncompleteOddsCoverage):
		return "incomplete_odds_coverage"
	case errors.Is(err, ErrDegenerateProbabilityMass):
		return "degenerate_probability_mass"
	case errors.Is(err, ErrIncompleteOwnershipGrid):
		return "incomplete_ownership_grid"
	case errors.Is(err, ErrUnderfilledPastedInput):
		return "underfilled_pasted_input"
	default:
		return "internal"
	}
}

// IsInputError reports whether err is one of the deterministic validation
// failures above.
func IsInputError(err error) bool {
	code := ErrorCode(err)
	return code != "" && code != "internal"
}
