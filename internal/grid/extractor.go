// Package grid recovers a squares board from loosely formatted pasted
// spreadsheet text.
package grid

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/names"
)

// Default label placeholders used when no team label can be recovered.
const (
	DefaultHomePlaceholder = "Home"
	DefaultAwayPlaceholder = "Away"
)

// Config holds extractor settings.
type Config struct {
	Normalizer      *names.Normalizer
	HomePlaceholder string
	AwayPlaceholder string
}

// Extractor turns pasted text into a Board. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	normalizer      *names.Normalizer
	homePlaceholder string
	awayPlaceholder string
}

// NewExtractor creates an extractor, filling unset placeholders with defaults.
func NewExtractor(cfg Config) *Extractor {
	e := &Extractor{
		normalizer:      cfg.Normalizer,
		homePlaceholder: cfg.HomePlaceholder,
		awayPlaceholder: cfg.AwayPlaceholder,
	}
	if e.homePlaceholder == "" {
		e.homePlaceholder = DefaultHomePlaceholder
	}
	if e.awayPlaceholder == "" {
		e.awayPlaceholder = DefaultAwayPlaceholder
	}
	return e
}

// Extract parses raw text with default settings and no name rules.
func Extract(raw string) (*models.Board, error) {
	return NewExtractor(Config{}).Extract(raw)
}

// Extract parses raw pasted text into a Board.
func (e *Extractor) Extract(raw string) (*models.Board, error) {
	t := tokenize(unwrap(raw))
	if len(t.rows) < models.GridSize {
		return nil, fmt.Errorf("%w: found %d non-blank rows, need at least %d", models.ErrUnderfilledPastedInput, len(t.rows), models.GridSize)
	}

	board := &models.Board{
		Meta: models.BoardMeta{
			Delimiter:       t.delimiter,
			HeaderRow:       -1,
			ReassembledRows: t.reassembled,
		},
	}

	headerRow, startCol, homeDigits := findHeader(t.rows)
	if headerRow < 0 {
		board.HomeDigits = models.NaturalOrder()
		board.Meta.HomeAxisDefaulted = true
	} else {
		board.HomeDigits = homeDigits
	}
	board.Meta.HeaderRow = headerRow
	board.Meta.StartCol = startCol

	blockRows, err := e.collectOwnership(t.rows, headerRow+1, startCol, board)
	if err != nil {
		return nil, err
	}

	e.applyLabels(board, t.rows, headerRow, startCol, blockRows[0])
	return board, nil
}

// findHeader returns the first row holding ten consecutive cells that cover
// the digits 0-9 exactly once, the column where that window starts, and the
// digits in order. headerRow is -1 when no row qualifies.
func findHeader(rows [][]string) (headerRow, startCol int, digits models.DigitPermutation) {
	for r, row := range rows {
		for off := 0; off+models.GridSize <= len(row); off++ {
			if p, ok := digitWindow(row[off : off+models.GridSize]); ok {
				return r, off, p
			}
		}
	}
	return -1, 0, nil
}

func digitWindow(cells []string) (models.DigitPermutation, bool) {
	p := make(models.DigitPermutation, 0, len(cells))
	for _, cell := range cells {
		d, ok := parseDigit(cell)
		if !ok {
			return nil, false
		}
		p = append(p, d)
	}
	return p, p.Valid()
}

// collectOwnership gathers the ten ownership rows starting at from. It fills
// board.Ownership and board.AwayDigits and returns the row indexes used.
func (e *Extractor) collectOwnership(rows [][]string, from, startCol int, board *models.Board) ([]int, error) {
	var (
		used      []int
		away      = make(models.DigitPermutation, 0, models.GridSize)
		ownership = make(models.OwnershipGrid, 0, models.GridSize)
		fallback  bool
	)
	for r := from; r < len(rows) && len(used) < models.GridSize; r++ {
		row := rows[r]
		if len(row) < startCol+models.GridSize {
			continue
		}
		slice := row[startCol : startCol+models.GridSize]
		if blankRow(slice) {
			continue
		}

		digit, ok := -1, false
		if startCol > 0 {
			digit, ok = parseDigit(row[startCol-1])
		}
		if !ok {
			digit = len(used)
			fallback = true
		}
		away = append(away, digit)

		cells := make([]string, models.GridSize)
		for c, cell := range slice {
			name, changed := e.normalizer.Normalize(cell)
			if changed {
				board.Meta.NormalizedNames++
			}
			cells[c] = name
		}
		ownership = append(ownership, cells)
		used = append(used, r)
	}

	if len(used) < models.GridSize {
		return nil, fmt.Errorf("%w: found %d usable rows below the header, need %d", models.ErrIncompleteOwnershipGrid, len(used), models.GridSize)
	}

	if !away.Valid() {
		away = models.NaturalOrder()
		fallback = true
	}
	board.AwayDigits = away
	board.Meta.AwayAxisDefaulted = fallback
	board.Ownership = ownership
	return used, nil
}

// applyLabels guesses team labels from the cells around the grid. It never
// fails; unusable candidates fall back to the placeholders.
func (e *Extractor) applyLabels(board *models.Board, rows [][]string, headerRow, startCol, firstOwnerRow int) {
	board.HomeLabel = e.homePlaceholder
	board.AwayLabel = e.awayPlaceholder
	board.Meta.HomeLabelDefaulted = true
	board.Meta.AwayLabelDefaulted = true

	if headerRow > 0 {
		if label, ok := labelAt(rows[headerRow-1], startCol); ok {
			board.HomeLabel = label
			board.Meta.HomeLabelDefaulted = false
		}
	}
	if startCol > 1 {
		if label, ok := labelAt(rows[firstOwnerRow], startCol-2); ok {
			board.AwayLabel = label
			board.Meta.AwayLabelDefaulted = false
		}
	}
}

func labelAt(row []string, col int) (string, bool) {
	if col < 0 || col >= len(row) {
		return "", false
	}
	label := names.CollapseSpace(row[col])
	if label == "" || digitLike(label) {
		return "", false
	}
	return label, true
}

// parseDigit reports whether a cell holds an integer in 0-9.
func parseDigit(cell string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil || n < 0 || n >= models.GridSize {
		return 0, false
	}
	return n, true
}

func digitLike(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
