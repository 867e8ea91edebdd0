// Package view projects an AnalysisResult into dashboard and CLI shapes.
// Projections copy what they need and never modify the result.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/yourusername/squares-ev/internal/models"
)

// SortKey selects the leaderboard ordering column.
type SortKey string

const (
	SortTotalEV     SortKey = "total_ev"
	SortEVPerSquare SortKey = "ev_per_square"
	SortSquares     SortKey = "squares"
	SortBestSquare  SortKey = "best_square"
	SortName        SortKey = "name"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// LeaderboardOptions controls the leaderboard projection. Zero values mean
// total_ev, descending, unfiltered and unlimited.
type LeaderboardOptions struct {
	SortBy SortKey `json:"sort" validate:"omitempty,oneof=total_ev ev_per_square squares best_square name"`
	Order  string  `json:"order" validate:"omitempty,oneof=asc desc"`
	Filter string  `json:"filter" validate:"max=64"`
	Top    int     `json:"top" validate:"gte=0,lte=100"`
}

// LeaderboardRow is one participant, formatted for display.
type LeaderboardRow struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	Squares      int     `json:"squares"`
	TotalEV      string  `json:"total_ev"`
	EVPerSquare  string  `json:"ev_per_square"`
	BestSquareEV string  `json:"best_square_ev"`
	Cost         string  `json:"cost"`
	Edge         string  `json:"edge"`
	ShareOfPool  string  `json:"share_of_pool"`
	RawTotalEV   float64 `json:"raw_total_ev"`
}

// CellRow is one ranked cell, formatted for display.
type CellRow struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"name"`
	Score       string  `json:"score"`
	EV          string  `json:"ev"`
	Probability string  `json:"probability"`
	RawEV       float64 `json:"raw_ev"`
}

// HeatCell is one board square in board order.
type HeatCell struct {
	Owner     string  `json:"owner"`
	EV        string  `json:"ev"`
	Intensity float64 `json:"intensity"`
}

// Heatmap lays the board EV out in the same order as the pasted board.
type Heatmap struct {
	HomeLabel  string       `json:"home_label"`
	AwayLabel  string       `json:"away_label"`
	HomeDigits []int        `json:"home_digits"`
	AwayDigits []int        `json:"away_digits"`
	Rows       [][]HeatCell `json:"rows"`
}

// Summary is the headline numbers of an analysis.
type Summary struct {
	TotalPool    string `json:"total_pool"`
	SumEV        string `json:"sum_ev"`
	Participants int    `json:"participants"`
	Occupied     int    `json:"occupied_squares"`
	Leader       string `json:"leader,omitempty"`
	LeaderEV     string `json:"leader_ev,omitempty"`
}

// Dashboard bundles every projection the live view renders.
type Dashboard struct {
	Summary     Summary          `json:"summary"`
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	TopCells    []CellRow        `json:"top_cells"`
	Heatmap     Heatmap          `json:"heatmap"`
}

// FormatMoney renders v with two decimals, rounding half away from zero.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPercent renders a probability in [0, 1] as a percentage.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).Shift(2).StringFixed(2) + "%"
}

// Leaderboard returns participant rows ordered and filtered per opts.
func Leaderboard(result *models.AnalysisResult, opts LeaderboardOptions) []LeaderboardRow {
	price := result.TotalPool / float64(models.GridSize*models.GridSize)
	needle := strings.ToLower(strings.TrimSpace(opts.Filter))

	rollups := lo.Filter(result.Rollups, func(r models.ParticipantRollup, _ int) bool {
		return needle == "" || strings.Contains(strings.ToLower(r.Name), needle)
	})

	less := rollupLess(opts.SortBy)
	desc := opts.Order != OrderAsc
	sort.SliceStable(rollups, func(i, j int) bool {
		if desc {
			return less(rollups[j], rollups[i])
		}
		return less(rollups[i], rollups[j])
	})

	if opts.Top > 0 && len(rollups) > opts.Top {
		rollups = rollups[:opts.Top]
	}

	return lo.Map(rollups, func(r models.ParticipantRollup, i int) LeaderboardRow {
		cost := price * float64(r.SquareCount)
		share := 0.0
		if result.TotalPool > 0 {
			share = r.TotalEV / result.TotalPool
		}
		return LeaderboardRow{
			Rank:         i + 1,
			Name:         r.Name,
			Squares:      r.SquareCount,
			TotalEV:      FormatMoney(r.TotalEV),
			EVPerSquare:  FormatMoney(r.EVPerSquare),
			BestSquareEV: FormatMoney(r.BestSquareEV),
			Cost:         FormatMoney(cost),
			Edge:         FormatMoney(r.TotalEV - cost),
			ShareOfPool:  FormatPercent(share),
			RawTotalEV:   r.TotalEV,
		}
	})
}

func rollupLess(key SortKey) func(a, b models.ParticipantRollup) bool {
	switch key {
	case SortEVPerSquare:
		return func(a, b models.ParticipantRollup) bool { return a.EVPerSquare < b.EVPerSquare }
	case SortSquares:
		return func(a, b models.ParticipantRollup) bool { return a.SquareCount < b.SquareCount }
	case SortBestSquare:
		return func(a, b models.ParticipantRollup) bool { return a.BestSquareEV < b.BestSquareEV }
	case SortName:
		return func(a, b models.ParticipantRollup) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return func(a, b models.ParticipantRollup) bool { return a.TotalEV < b.TotalEV }
	}
}

// TopCells returns the n highest-EV occupied cells. n <= 0 returns all.
func TopCells(result *models.AnalysisResult, n int) []CellRow {
	cells := result.RankedCells
	if n > 0 && len(cells) > n {
		cells = cells[:n]
	}
	return lo.Map(cells, func(c models.RankedCell, i int) CellRow {
		return CellRow{
			Rank:        i + 1,
			Name:        c.Name,
			Score:       fmt.Sprintf("%d-%d", c.HomeDigit, c.AwayDigit),
			EV:          FormatMoney(c.EV),
			Probability: FormatPercent(c.Probability),
			RawEV:       c.EV,
		}
	})
}

// BuildHeatmap pairs each board square with its EV. Intensity is EV scaled
// by the largest square EV on the board.
func BuildHeatmap(board *models.Board, result *models.AnalysisResult) Heatmap {
	maxEV := 0.0
	for _, row := range result.BoardEV {
		maxEV = max(maxEV, lo.Max(row[:]))
	}

	rows := make([][]HeatCell, models.GridSize)
	for r := 0; r < models.GridSize; r++ {
		rows[r] = make([]HeatCell, models.GridSize)
		for c := 0; c < models.GridSize; c++ {
			ev := result.BoardEV[r][c]
			cell := HeatCell{EV: FormatMoney(ev)}
			if r < len(board.Ownership) && c < len(board.Ownership[r]) {
				cell.Owner = board.Ownership[r][c]
			}
			if maxEV > 0 {
				cell.Intensity = ev / maxEV
			}
			rows[r][c] = cell
		}
	}

	return Heatmap{
		HomeLabel:  board.HomeLabel,
		AwayLabel:  board.AwayLabel,
		HomeDigits: append([]int(nil), board.HomeDigits...),
		AwayDigits: append([]int(nil), board.AwayDigits...),
		Rows:       rows,
	}
}

// Summarize returns the headline numbers.
func Summarize(result *models.AnalysisResult) Summary {
	s := Summary{
		TotalPool:    FormatMoney(result.TotalPool),
		SumEV:        FormatMoney(result.SumEV),
		Participants: len(result.Rollups),
		Occupied:     len(result.RankedCells),
	}
	if len(result.Rollups) > 0 {
		s.Leader = result.Rollups[0].Name
		s.LeaderEV = FormatMoney(result.Rollups[0].TotalEV)
	}
	return s
}

// BuildDashboard assembles every projection for one analysis.
func BuildDashboard(board *models.Board, result *models.AnalysisResult, opts LeaderboardOptions, topCells int) Dashboard {
	return Dashboard{
		Summary:     Summarize(result),
		Leaderboard: Leaderboard(result, opts),
		TopCells:    TopCells(result, topCells),
		Heatmap:     BuildHeatmap(board, result),
	}
}
