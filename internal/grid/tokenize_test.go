package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "a\tb\nc\td", "a\tb\nc\td"},
		{"Leading tab kept", "\n\n\ta\tb\n\tc\n\n", "\ta\tb\n\tc"},
		{"Fence", "```\na,b\nc,d\n```", "a,b\nc,d"},
		{"Fence with language", "```csv\na,b\n```", "a,b"},
		{"Straight quotes", "\"a\tb\nc\"", "a\tb\nc"},
		{"Interior quote kept", "\"a\",\"b\"", "\"a\",\"b\""},
		{"Single quotes", "'x\ny'", "x\ny"},
		{"Curly quotes", "“x\ny”", "x\ny"},
		{"Parentheses", "(x\n(y))", "x\n(y)"},
		{"Unbalanced parentheses", "(x) y (z)", "(x) y (z)"},
		{"Windows newlines", "a,b\r\nc,d\r\n", "a,b\nc,d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unwrap(tt.in))
		})
	}
}

func TestSplitQuoted(t *testing.T) {
	tests := []struct {
		name string
		line string
		sep  rune
		want []string
	}{
		{"Simple", "a,b,c", ',', []string{"a", "b", "c"}},
		{"Empty fields", ",a,,", ',', []string{"", "a", "", ""}},
		{"Quoted delimiter", `"a,b",c`, ',', []string{"a,b", "c"}},
		{"Escaped quote", `"say ""hi""";x`, ';', []string{`say "hi"`, "x"}},
		{"Comma inside semicolon split", "a,b;c", ';', []string{"a,b", "c"}},
		{"Unterminated quote", `a,"b,c`, ',', []string{"a", "b,c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitQuoted(tt.line, tt.sep))
		})
	}
}

func TestTokenizeDelimiterPriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"Tab beats comma", "a,b\tc\nd,e", DelimiterTab},
		{"Semicolon majority", "a;b\nc;d\ne,f", DelimiterSemicolon},
		{"Comma majority", "a,b\nc,d\ne;f", DelimiterComma},
		{"Tie favors comma", "a,b\nc;d", DelimiterComma},
		{"Free text", "alpha\nbeta", DelimiterNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.text).delimiter)
		})
	}
}

func TestTokenizeDropsBlankRows(t *testing.T) {
	tab := tokenize("a\tb\n\t \n\nc\td")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, tab.rows)

	free := tokenize("alpha\n   \nbeta")
	assert.Equal(t, [][]string{{"alpha"}, {"beta"}}, free.rows)
}

func TestModalWidth(t *testing.T) {
	assert.Equal(t, 3, modalWidth([][]string{{"a", "b", "c"}, {"a"}, {"a", "b", "c"}}))
	assert.Equal(t, 2, modalWidth([][]string{{"a"}, {"a", "b"}}))
	assert.Equal(t, 0, modalWidth(nil))
}

func TestReassembler(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		rows   [][]string
		want   [][]string
		merged int
	}{
		{
			name:  "Full rows pass through",
			width: 2,
			rows:  [][]string{{"a", "b"}, {"c", "d"}},
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:   "Split row rejoined",
			width:  3,
			rows:   [][]string{{"a"}, {"b", "c"}, {"d", "e", "f"}},
			want:   [][]string{{"a", "b", "c"}, {"d", "e", "f"}},
			merged: 1,
		},
		{
			name:   "Three fragments",
			width:  4,
			rows:   [][]string{{"a"}, {"b"}, {"c", "d"}},
			want:   [][]string{{"a", "b", "c", "d"}},
			merged: 1,
		},
		{
			name:   "Overshoot flushed as is",
			width:  3,
			rows:   [][]string{{"a", "b"}, {"c", "d"}},
			want:   [][]string{{"a", "b", "c", "d"}},
			merged: 1,
		},
		{
			name:  "Full row interrupts pending",
			width: 3,
			rows:  [][]string{{"x"}, {"a", "b", "c"}},
			want:  [][]string{{"x"}, {"a", "b", "c"}},
		},
		{
			name:  "Trailing pending flushed",
			width: 3,
			rows:  [][]string{{"a", "b", "c"}, {"z"}},
			want:  [][]string{{"a", "b", "c"}, {"z"}},
		},
		{
			name:  "Wide row alone",
			width: 2,
			rows:  [][]string{{"a", "b", "c"}, {"d", "e"}},
			want:  [][]string{{"a", "b", "c"}, {"d", "e"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReassembler(tt.width)
			for _, row := range tt.rows {
				r.feed(row)
			}
			assert.Equal(t, tt.want, r.finish())
			assert.Equal(t, tt.merged, r.merged)
		})
	}
}
