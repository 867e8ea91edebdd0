package ev

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/squares-ev/internal/models"
)

const tolerance = 1e-9

func testBoard() *models.Board {
	ownership := make(models.OwnershipGrid, models.GridSize)
	names := []string{"Alice", "Bob", "Carol", "Dave", ""}
	for r := range ownership {
		ownership[r] = make([]string, models.GridSize)
		for c := range ownership[r] {
			ownership[r][c] = names[(r*models.GridSize+c)%len(names)]
		}
	}
	return &models.Board{
		HomeLabel:  "Home",
		AwayLabel:  "Away",
		HomeDigits: models.DigitPermutation{3, 1, 4, 0, 5, 9, 2, 6, 8, 7},
		AwayDigits: models.DigitPermutation{7, 2, 9, 0, 8, 1, 6, 3, 5, 4},
		Ownership:  ownership,
	}
}

// skewedOdds gives every digit pair a distinct quotation.
func skewedOdds(base int) models.OddsMatrix {
	var m models.OddsMatrix
	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			m.Set(away, home, base+away*37+home*11)
		}
	}
	return m
}

func TestComputeAnalysisNormalizes(t *testing.T) {
	a := skewedOdds(400)
	b := skewedOdds(650)
	result, err := ComputeAnalysis(testBoard(), &a, &b, 25, models.Weights{A: 0.7, B: 0.3})
	require.NoError(t, err)

	assert.Equal(t, 2500.0, result.TotalPool)
	assert.InDelta(t, 1.0, result.ProbabilitySurface.Sum(), tolerance)
	assert.InDelta(t, result.TotalPool, result.SumEV, tolerance)
	assert.InDelta(t, result.TotalPool, result.EVSurface.Sum(), tolerance)
}

func TestComputeAnalysisUniformOdds(t *testing.T) {
	a := models.UniformOdds(-110)
	b := models.UniformOdds(-110)
	price := 10.0
	result, err := ComputeAnalysis(testBoard(), &a, &b, price, models.Weights{A: 0.8, B: 0.2})
	require.NoError(t, err)

	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			assert.InDelta(t, 0.01, result.ProbabilitySurface[away][home], 1e-12)
			assert.InDelta(t, 0.01*price*100, result.EVSurface[away][home], 1e-9)
		}
	}
	for _, cell := range result.RankedCells {
		assert.InDelta(t, 10.0, cell.EV, 1e-9)
	}
}

func TestComputeAnalysisIdempotent(t *testing.T) {
	a := skewedOdds(300)
	b := skewedOdds(-120)
	board := testBoard()
	first, err := ComputeAnalysis(board, &a, &b, 5, models.Weights{A: 1, B: 2})
	require.NoError(t, err)
	second, err := ComputeAnalysis(board, &a, &b, 5, models.Weights{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeAnalysisBoardOrder(t *testing.T) {
	a := skewedOdds(200)
	b := skewedOdds(200)
	board := testBoard()
	result, err := ComputeAnalysis(board, &a, &b, 1, models.Weights{A: 0.5, B: 0.5})
	require.NoError(t, err)

	for row, away := range board.AwayDigits {
		for col, home := range board.HomeDigits {
			assert.Equal(t, result.EVSurface[away][home], result.BoardEV[row][col])
		}
	}
}

func TestComputeAnalysisRollups(t *testing.T) {
	a := skewedOdds(250)
	b := skewedOdds(900)
	board := testBoard()
	result, err := ComputeAnalysis(board, &a, &b, 20, models.Weights{A: 0.6, B: 0.4})
	require.NoError(t, err)

	require.Len(t, result.Rollups, 4)
	assert.Len(t, result.RankedCells, board.Ownership.Occupied())

	total := 0.0
	squares := 0
	for i, r := range result.Rollups {
		assert.Equal(t, 20, r.SquareCount, r.Name)
		assert.InDelta(t, r.TotalEV/float64(r.SquareCount), r.EVPerSquare, tolerance)
		assert.GreaterOrEqual(t, r.BestSquareEV, r.EVPerSquare)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Rollups[i-1].TotalEV, r.TotalEV)
		}
		total += r.TotalEV
		squares += r.SquareCount
	}
	assert.Equal(t, 80, squares)

	cellTotal := 0.0
	for i, c := range result.RankedCells {
		if i > 0 {
			assert.GreaterOrEqual(t, result.RankedCells[i-1].EV, c.EV)
		}
		assert.InDelta(t, result.EVSurface[c.AwayDigit][c.HomeDigit], c.EV, tolerance)
		assert.InDelta(t, result.ProbabilitySurface[c.AwayDigit][c.HomeDigit], c.Probability, tolerance)
		cellTotal += c.EV
	}
	assert.InDelta(t, total, cellTotal, 1e-6)
}

func TestComputeAnalysisSkipsBlankOwners(t *testing.T) {
	board := testBoard()
	board.Ownership[0][0] = "   "
	a := models.UniformOdds(500)
	b := models.UniformOdds(500)
	result, err := ComputeAnalysis(board, &a, &b, 1, models.Weights{A: 1})
	require.NoError(t, err)

	for _, c := range result.RankedCells {
		assert.NotEmpty(t, c.Name)
	}
	assert.Len(t, result.RankedCells, board.Ownership.Occupied())
}

func TestComputeAnalysisMalformedAxis(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *models.Board)
	}{
		{"Repeated home digit", func(b *models.Board) { b.HomeDigits[0] = b.HomeDigits[1] }},
		{"Short away axis", func(b *models.Board) { b.AwayDigits = b.AwayDigits[:9] }},
		{"Out of range digit", func(b *models.Board) { b.AwayDigits[4] = 10 }},
	}
	a := models.UniformOdds(500)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := testBoard()
			tt.mutate(board)
			_, err := ComputeAnalysis(board, &a, &a, 1, models.Weights{A: 1, B: 1})
			assert.True(t, errors.Is(err, models.ErrMalformedDigitAxis), "got %v", err)
		})
	}
}

func TestComputeAnalysisMalformedShape(t *testing.T) {
	a := models.UniformOdds(500)

	board := testBoard()
	board.Ownership = board.Ownership[:9]
	_, err := ComputeAnalysis(board, &a, &a, 1, models.Weights{A: 1, B: 1})
	assert.True(t, errors.Is(err, models.ErrMalformedBoardShape))

	board = testBoard()
	board.Ownership[5] = append(board.Ownership[5], "extra")
	_, err = ComputeAnalysis(board, &a, &a, 1, models.Weights{A: 1, B: 1})
	assert.True(t, errors.Is(err, models.ErrMalformedBoardShape))
}

func TestComputeAnalysisMissingPair(t *testing.T) {
	a := models.UniformOdds(500)
	b := models.UniformOdds(500)
	b[6][2] = nil

	_, err := ComputeAnalysis(testBoard(), &a, &b, 1, models.Weights{A: 1, B: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIncompleteOddsCoverage))

	var coverage *models.IncompleteOddsCoverageError
	require.True(t, errors.As(err, &coverage))
	assert.Equal(t, []string{MarketB}, coverage.Markets)
	assert.Equal(t, []models.DigitPair{{Away: 6, Home: 2}}, coverage.Missing[MarketB])
	assert.Contains(t, err.Error(), "(6, 2)")
}

func TestComputeAnalysisMissingMessageCapped(t *testing.T) {
	var empty models.OddsMatrix
	b := models.UniformOdds(500)

	_, err := ComputeAnalysis(testBoard(), &empty, &b, 1, models.Weights{A: 1, B: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 100 of 100")
	assert.Contains(t, err.Error(), fmt.Sprintf("and %d more", 100-models.MaxReportedPairs))
}

func TestComputeAnalysisZeroQuotation(t *testing.T) {
	a := models.UniformOdds(500)
	a.Set(1, 1, 0)
	b := models.UniformOdds(500)

	_, err := ComputeAnalysis(testBoard(), &a, &b, 1, models.Weights{A: 1, B: 1})
	assert.True(t, errors.Is(err, models.ErrInvalidOdds))
}

func TestComputeAnalysisDegenerateMass(t *testing.T) {
	a := models.UniformOdds(500)
	_, err := ComputeAnalysis(testBoard(), &a, &a, 1, models.Weights{})
	assert.True(t, errors.Is(err, models.ErrDegenerateProbabilityMass))

	_, err = ComputeAnalysis(testBoard(), &a, &a, 1, models.Weights{A: math.NaN(), B: 1})
	assert.True(t, errors.Is(err, models.ErrDegenerateProbabilityMass))
}
