// Package ev blends two odds markets into a normalized probability surface
// and rolls the resulting expected values up per participant and per cell.
package ev

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/probability"
)

// Market names used in coverage errors.
const (
	MarketA = "A"
	MarketB = "B"
)

// ComputeAnalysis produces the EV report for a board given two markets.
// It is a pure function of its inputs.
func ComputeAnalysis(board *models.Board, marketA, marketB *models.OddsMatrix, pricePerSquare float64, weights models.Weights) (*models.AnalysisResult, error) {
	if err := validateBoard(board); err != nil {
		return nil, err
	}
	if err := validateCoverage(marketA, marketB); err != nil {
		return nil, err
	}

	probs, err := blend(marketA, marketB, weights)
	if err != nil {
		return nil, err
	}

	totalPool := pricePerSquare * models.GridSize * models.GridSize
	result := &models.AnalysisResult{
		TotalPool:          totalPool,
		ProbabilitySurface: probs,
	}
	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			result.EVSurface[away][home] = probs[away][home] * totalPool
		}
	}

	for row, away := range board.AwayDigits {
		for col, home := range board.HomeDigits {
			result.BoardEV[row][col] = result.EVSurface[away][home]
		}
	}
	result.SumEV = result.BoardEV.Sum()

	result.Rollups, result.RankedCells = rollup(board, &result.BoardEV, &probs)
	return result, nil
}

func validateBoard(board *models.Board) error {
	if board == nil {
		return fmt.Errorf("%w: board is nil", models.ErrMalformedBoardShape)
	}
	if !board.HomeDigits.Valid() {
		return fmt.Errorf("%w: home digits %v are not a permutation of 0-9", models.ErrMalformedDigitAxis, []int(board.HomeDigits))
	}
	if !board.AwayDigits.Valid() {
		return fmt.Errorf("%w: away digits %v are not a permutation of 0-9", models.ErrMalformedDigitAxis, []int(board.AwayDigits))
	}
	if !board.Ownership.WellFormed() {
		return fmt.Errorf("%w: ownership grid must be %dx%d", models.ErrMalformedBoardShape, models.GridSize, models.GridSize)
	}
	return nil
}

func validateCoverage(marketA, marketB *models.OddsMatrix) error {
	coverage := &models.IncompleteOddsCoverageError{Missing: make(map[string][]models.DigitPair)}
	for _, m := range []struct {
		name   string
		matrix *models.OddsMatrix
	}{{MarketA, marketA}, {MarketB, marketB}} {
		var missing []models.DigitPair
		if m.matrix == nil {
			missing = (&models.OddsMatrix{}).Missing()
		} else {
			missing = m.matrix.Missing()
		}
		if len(missing) > 0 {
			coverage.Markets = append(coverage.Markets, m.name)
			coverage.Missing[m.name] = missing
		}
	}
	if len(coverage.Markets) > 0 {
		return coverage
	}
	return nil
}

// blend combines both markets' raw probabilities and normalizes the result
// so the 100 cells sum to one.
func blend(marketA, marketB *models.OddsMatrix, weights models.Weights) (models.Surface, error) {
	var combined models.Surface
	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			oddsA, _ := marketA.Get(away, home)
			rawA, err := probability.ImpliedProbability(oddsA)
			if err != nil {
				return combined, fmt.Errorf("market %s (%d, %d): %w", MarketA, away, home, err)
			}
			oddsB, _ := marketB.Get(away, home)
			rawB, err := probability.ImpliedProbability(oddsB)
			if err != nil {
				return combined, fmt.Errorf("market %s (%d, %d): %w", MarketB, away, home, err)
			}
			combined[away][home] = weights.A*rawA + weights.B*rawB
		}
	}

	z := combined.Sum()
	if !(z > 0) {
		return combined, fmt.Errorf("%w: normalization constant %g with weights %g/%g", models.ErrDegenerateProbabilityMass, z, weights.A, weights.B)
	}
	for away := 0; away < models.GridSize; away++ {
		for home := 0; home < models.GridSize; home++ {
			combined[away][home] /= z
		}
	}
	return combined, nil
}

func rollup(board *models.Board, boardEV, probs *models.Surface) ([]models.ParticipantRollup, []models.RankedCell) {
	index := make(map[string]int)
	rollups := make([]models.ParticipantRollup, 0)
	cells := make([]models.RankedCell, 0, models.GridSize*models.GridSize)

	for row, owners := range board.Ownership {
		away := board.AwayDigits[row]
		for col, owner := range owners {
			name := strings.TrimSpace(owner)
			if name == "" {
				continue
			}
			home := board.HomeDigits[col]
			value := boardEV[row][col]

			i, ok := index[name]
			if !ok {
				i = len(rollups)
				index[name] = i
				rollups = append(rollups, models.ParticipantRollup{Name: name, BestSquareEV: value})
			}
			r := &rollups[i]
			r.SquareCount++
			r.TotalEV += value
			if value > r.BestSquareEV {
				r.BestSquareEV = value
			}

			cells = append(cells, models.RankedCell{
				Name:        name,
				HomeDigit:   home,
				AwayDigit:   away,
				EV:          value,
				Probability: probs[away][home],
			})
		}
	}

	for i := range rollups {
		rollups[i].EVPerSquare = rollups[i].TotalEV / float64(rollups[i].SquareCount)
	}
	sort.SliceStable(rollups, func(i, j int) bool { return rollups[i].TotalEV > rollups[j].TotalEV })
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].EV > cells[j].EV })
	return rollups, cells
}
