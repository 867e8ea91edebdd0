package models

import "time"

// OddsMatrix holds American odds quotations indexed [awayDigit][homeDigit]
// by digit value. A nil entry is a missing quotation.
type OddsMatrix [GridSize][GridSize]*int

// Set stores a quotation for the given digit pair.
func (m *OddsMatrix) Set(away, home, odds int) {
	v := odds
	m[away][home] = &v
}

// Get returns the quotation for a digit pair and whether it is present.
func (m *OddsMatrix) Get(away, home int) (int, bool) {
	if away < 0 || away >= GridSize || home < 0 || home >= GridSize {
		return 0, false
	}
	p := m[away][home]
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Missing returns the digit pairs with no quotation, away-major.
func (m *OddsMatrix) Missing() []DigitPair {
	var missing []DigitPair
	for away := 0; away < GridSize; away++ {
		for home := 0; home < GridSize; home++ {
			if m[away][home] == nil {
				missing = append(missing, DigitPair{Away: away, Home: home})
			}
		}
	}
	return missing
}

// UniformOdds returns a complete matrix with the same quotation everywhere.
func UniformOdds(odds int) OddsMatrix {
	var m OddsMatrix
	for away := 0; away < GridSize; away++ {
		for home := 0; home < GridSize; home++ {
			m.Set(away, home, odds)
		}
	}
	return m
}

// MarketOdds is one market's matrix as delivered by the odds feed.
type MarketOdds struct {
	EventID   string     `json:"event_id"`
	Market    string     `json:"market"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	UpdatedAt time.Time  `json:"updated_at"`
	Matrix    OddsMatrix `json:"matrix"`
}

// OddsPair is the two markets blended into one analysis.
type OddsPair struct {
	A         MarketOdds `json:"market_a"`
	B         MarketOdds `json:"market_b"`
	FetchedAt time.Time  `json:"fetched_at"`
}
