// Package report composes board extraction and EV aggregation into a single
// analysis call.
package report

import (
	"fmt"
	"strings"

	"github.com/yourusername/squares-ev/internal/ev"
	"github.com/yourusername/squares-ev/internal/grid"
	"github.com/yourusername/squares-ev/internal/models"
)

// Input is everything one analysis needs. Exactly one of Text and Board is
// used; Board wins when both are set.
type Input struct {
	Text           string
	Board          *models.Board
	MarketA        *models.OddsMatrix
	MarketB        *models.OddsMatrix
	PricePerSquare float64
	Weights        models.Weights
}

// Builder threads input through the extractor and the aggregator.
type Builder struct {
	extractor *grid.Extractor
}

// NewBuilder creates a builder. A nil extractor uses grid defaults.
func NewBuilder(extractor *grid.Extractor) *Builder {
	if extractor == nil {
		extractor = grid.NewExtractor(grid.Config{})
	}
	return &Builder{extractor: extractor}
}

// Build returns the analysis and the board it was computed for.
func (b *Builder) Build(in Input) (*models.AnalysisResult, *models.Board, error) {
	board := in.Board
	if board == nil {
		if strings.TrimSpace(in.Text) == "" {
			return nil, nil, fmt.Errorf("%w: no board text supplied", models.ErrUnderfilledPastedInput)
		}
		var err error
		board, err = b.extractor.Extract(in.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("extract board: %w", err)
		}
	}

	result, err := ev.ComputeAnalysis(board, in.MarketA, in.MarketB, in.PricePerSquare, in.Weights)
	if err != nil {
		return nil, board, fmt.Errorf("compute analysis: %w", err)
	}
	return result, board, nil
}

// Extract parses board text without computing an analysis.
func (b *Builder) Extract(text string) (*models.Board, error) {
	return b.extractor.Extract(text)
}
