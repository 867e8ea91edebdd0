package models

import "strings"

// GridSize is the number of rows and columns on a squares board.
const GridSize = 10

// DigitPermutation is an ordering of the digits 0-9 labelling one board axis.
type DigitPermutation []int

// NaturalOrder returns the permutation 0,1,...,9.
func NaturalOrder() DigitPermutation {
	p := make(DigitPermutation, GridSize)
	for i := range p {
		p[i] = i
	}
	return p
}

// Valid reports whether p holds each digit 0-9 exactly once.
func (p DigitPermutation) Valid() bool {
	if len(p) != GridSize {
		return false
	}
	var seen [GridSize]bool
	for _, d := range p {
		if d < 0 || d >= GridSize || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}

// Clone returns a copy of p.
func (p DigitPermutation) Clone() DigitPermutation {
	if p == nil {
		return nil
	}
	out := make(DigitPermutation, len(p))
	copy(out, p)
	return out
}

// OwnershipGrid maps board cells to participant names. Rows follow the away
// axis order, columns the home axis order. An empty name is an unclaimed cell.
type OwnershipGrid [][]string

// WellFormed reports whether the grid is exactly GridSize x GridSize.
func (g OwnershipGrid) WellFormed() bool {
	if len(g) != GridSize {
		return false
	}
	for _, row := range g {
		if len(row) != GridSize {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of g.
func (g OwnershipGrid) Clone() OwnershipGrid {
	if g == nil {
		return nil
	}
	out := make(OwnershipGrid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Occupied returns the number of cells with a non-blank owner.
func (g OwnershipGrid) Occupied() int {
	n := 0
	for _, row := range g {
		for _, name := range row {
			if strings.TrimSpace(name) != "" {
				n++
			}
		}
	}
	return n
}

// BoardMeta records how a Board was recovered from pasted text.
type BoardMeta struct {
	Delimiter          string `json:"delimiter"`
	HeaderRow          int    `json:"header_row"`
	StartCol           int    `json:"start_col"`
	HomeAxisDefaulted  bool   `json:"home_axis_defaulted"`
	AwayAxisDefaulted  bool   `json:"away_axis_defaulted"`
	HomeLabelDefaulted bool   `json:"home_label_defaulted"`
	AwayLabelDefaulted bool   `json:"away_label_defaulted"`
	ReassembledRows    int    `json:"reassembled_rows"`
	NormalizedNames    int    `json:"normalized_names"`
}

// Board is a parsed squares board. Treat it as immutable once built.
type Board struct {
	HomeLabel  string           `json:"home_label"`
	AwayLabel  string           `json:"away_label"`
	HomeDigits DigitPermutation `json:"home_digits"`
	AwayDigits DigitPermutation `json:"away_digits"`
	Ownership  OwnershipGrid    `json:"ownership"`
	Meta       BoardMeta        `json:"meta"`
}

// Participants returns the distinct non-blank owner names in board order.
func (b *Board) Participants() []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range b.Ownership {
		for _, cell := range row {
			name := strings.TrimSpace(cell)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
