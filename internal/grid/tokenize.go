package grid

import (
	"strings"
)

// Delimiter names recorded in board metadata.
const (
	DelimiterTab       = "tab"
	DelimiterComma     = "comma"
	DelimiterSemicolon = "semicolon"
	DelimiterNone      = "none"
)

// table is pasted text split into rows of raw cells.
type table struct {
	rows        [][]string
	delimiter   string
	reassembled int
}

// tokenize splits text into rows of cells, auto-detecting the delimiter.
// Tabs win outright; otherwise commas or semicolons, whichever appears on
// more lines (ties favor comma); otherwise each line is one cell.
func tokenize(text string) table {
	lines := strings.Split(text, "\n")

	var split func(string) []string
	t := table{delimiter: DelimiterNone}
	switch commas, semis, tabs := countLines(lines); {
	case tabs > 0:
		t.delimiter = DelimiterTab
		split = func(line string) []string { return strings.Split(line, "\t") }
	case commas > 0 || semis > 0:
		sep := ','
		t.delimiter = DelimiterComma
		if semis > commas {
			sep = ';'
			t.delimiter = DelimiterSemicolon
		}
		split = func(line string) []string { return splitQuoted(line, sep) }
	default:
		split = func(line string) []string { return []string{line} }
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		row := split(line)
		if blankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	if t.delimiter == DelimiterNone {
		t.rows = rows
		return t
	}

	r := newReassembler(modalWidth(rows))
	for _, row := range rows {
		r.feed(row)
	}
	t.rows = r.finish()
	t.reassembled = r.merged
	return t
}

func countLines(lines []string) (commas, semis, tabs int) {
	for _, line := range lines {
		if strings.Contains(line, "\t") {
			tabs++
		}
		if strings.Contains(line, ",") {
			commas++
		}
		if strings.Contains(line, ";") {
			semis++
		}
	}
	return commas, semis, tabs
}

// splitQuoted splits one line on sep. A double quote toggles quoting, a
// doubled quote inside quotes is a literal quote, and sep only separates
// fields outside quotes.
func splitQuoted(line string, sep rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			field.WriteRune('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}
	return append(fields, field.String())
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// modalWidth returns the most common row width. Ties go to the wider width.
func modalWidth(rows [][]string) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, row := range rows {
		w := len(row)
		counts[w]++
		if c := counts[w]; c > bestCount || (c == bestCount && w > best) {
			best, bestCount = w, c
		}
	}
	return best
}

// reassembler rebuilds rows that a soft line break split during copying.
// Rows of the modal width pass straight through. Consecutive ragged rows are
// concatenated in a pending buffer until it reaches the modal width.
type reassembler struct {
	width   int
	pending []string
	parts   int
	out     [][]string
	merged  int
}

func newReassembler(width int) *reassembler {
	return &reassembler{width: width}
}

func (r *reassembler) feed(row []string) {
	if len(row) == r.width {
		r.flush()
		r.out = append(r.out, row)
		return
	}
	r.pending = append(r.pending, row...)
	r.parts++
	if len(r.pending) >= r.width {
		r.flush()
	}
}

// flush emits the pending buffer as one row, whatever its width.
func (r *reassembler) flush() {
	if r.parts == 0 {
		return
	}
	if r.parts > 1 {
		r.merged++
	}
	r.out = append(r.out, r.pending)
	r.pending = nil
	r.parts = 0
}

func (r *reassembler) finish() [][]string {
	r.flush()
	return r.out
}
