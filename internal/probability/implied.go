// Package probability converts American odds quotations into win likelihoods.
package probability

import (
	"fmt"
	"math"

	"github.com/yourusername/squares-ev/internal/models"
)

// ImpliedProbability converts an American odds quotation into its raw,
// non-normalized implied probability.
// Example: -150 → 0.6, +150 → 0.4
func ImpliedProbability(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: quotation must be non-zero", models.ErrInvalidOdds)
	}
	if odds > 0 {
		// Underdog: 100 / (odds + 100)
		return 100.0 / (float64(odds) + 100.0), nil
	}
	// Favorite: |odds| / (|odds| + 100)
	abs := math.Abs(float64(odds))
	return abs / (abs + 100.0), nil
}

// RawSurface converts a complete matrix into raw probabilities keyed by digit
// value. Missing entries are reported as coverage errors.
func RawSurface(m *models.OddsMatrix) (models.Surface, error) {
	var s models.Surface
	if missing := m.Missing(); len(missing) > 0 {
		return s, &models.IncompleteOddsCoverageError{
			Markets: []string{"odds"},
			Missing: map[string][]models.DigitPair{"odds": missing},
		}
	}
	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			odds, _ := m.Get(away, home)
			p, err := ImpliedProbability(odds)
			if err != nil {
				return s, fmt.Errorf("(%d, %d): %w", away, home, err)
			}
			s[away][home] = p
		}
	}
	return s, nil
}

// Overround returns the bookmaker margin baked into a complete matrix: the
// sum of its raw probabilities minus one.
func Overround(m *models.OddsMatrix) (float64, error) {
	s, err := RawSurface(m)
	if err != nil {
		return 0, err
	}
	return s.Sum() - 1.0, nil
}
