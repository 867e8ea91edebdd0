package models

// Surface is a 10x10 grid of derived values. Indexed [awayDigit][homeDigit]
// when keyed by digit value, or [row][col] when in board order.
type Surface [GridSize][GridSize]float64

// Sum adds up every entry.
func (s *Surface) Sum() float64 {
	total := 0.0
	for _, row := range s {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Weights are the blend coefficients applied to the two markets' raw
// probabilities. They need not sum to one.
type Weights struct {
	A float64 `json:"weight_a" validate:"gte=0"`
	B float64 `json:"weight_b" validate:"gte=0"`
}

// ParticipantRollup aggregates every square one participant owns.
type ParticipantRollup struct {
	Name         string  `json:"name"`
	SquareCount  int     `json:"square_count"`
	TotalEV      float64 `json:"total_ev"`
	EVPerSquare  float64 `json:"ev_per_square"`
	BestSquareEV float64 `json:"best_square_ev"`
}

// RankedCell is one occupied board cell with its probability and EV.
type RankedCell struct {
	Name        string  `json:"name"`
	HomeDigit   int     `json:"home_digit"`
	AwayDigit   int     `json:"away_digit"`
	EV          float64 `json:"ev"`
	Probability float64 `json:"probability"`
}

// AnalysisResult is the full EV report for one board and odds pair.
type AnalysisResult struct {
	TotalPool          float64             `json:"total_pool"`
	SumEV              float64             `json:"sum_ev"`
	EVSurface          Surface             `json:"ev_surface"`
	ProbabilitySurface Surface             `json:"probability_surface"`
	BoardEV            Surface             `json:"board_ev"`
	Rollups            []ParticipantRollup `json:"rollups"`
	RankedCells        []RankedCell        `json:"ranked_cells"`
}
