package oddsfeed

import (
	"fmt"
	"time"

	"github.com/yourusername/squares-ev/internal/models"
)

// SquaresResponse is the feed's JSON body for one market.
type SquaresResponse struct {
	EventID   string        `json:"event_id"`
	Market    string        `json:"market"`
	HomeTeam  string        `json:"home_team"`
	AwayTeam  string        `json:"away_team"`
	UpdatedAt time.Time     `json:"updated_at"`
	Prices    []SquarePrice `json:"prices"`
}

// SquarePrice is a single (home, away) quotation.
type SquarePrice struct {
	HomeDigit *int `json:"home_digit"`
	AwayDigit *int `json:"away_digit"`
	Price     *int `json:"price"`
}

// toMarketOdds validates each quotation and fills the matrix. Coverage is
// not checked here; a partial matrix is a valid market.
func (r *SquaresResponse) toMarketOdds() (*models.MarketOdds, error) {
	out := &models.MarketOdds{
		EventID:   r.EventID,
		Market:    r.Market,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		UpdatedAt: r.UpdatedAt,
	}

	for i, p := range r.Prices {
		if p.HomeDigit == nil || p.AwayDigit == nil || p.Price == nil {
			return nil, fmt.Errorf("price %d: home_digit, away_digit and price are required", i)
		}
		home, away := *p.HomeDigit, *p.AwayDigit
		if !validDigit(home) || !validDigit(away) {
			return nil, fmt.Errorf("price %d: digits must be 0-9, got (%d, %d)", i, away, home)
		}
		if _, dup := out.Matrix.Get(away, home); dup {
			return nil, fmt.Errorf("price %d: duplicate quotation for %s", i, models.DigitPair{Away: away, Home: home})
		}
		out.Matrix.Set(away, home, *p.Price)
	}

	return out, nil
}

func validDigit(d int) bool {
	return d >= 0 && d < models.GridSize
}
