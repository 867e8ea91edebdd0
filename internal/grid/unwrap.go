package grid

import (
	"strings"
	"unicode/utf8"
)

const fence = "```"

// wrapPairs are the single-layer wrappers stripped from pasted text.
var wrapPairs = []struct{ open, close string }{
	{"“", "”"},
	{"‘", "’"},
	{`"`, `"`},
	{"'", "'"},
	{"(", ")"},
	{"`", "`"},
}

// unwrap strips one layer of fencing or matched wrapping characters around
// the whole input. Without a wrapper only blank leading and trailing lines
// are removed; leading whitespace on the first content line is kept because
// an empty top-left header cell is significant.
func unwrap(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	trimmed := strings.TrimSpace(text)

	if inner, ok := unfence(trimmed); ok {
		return trimBlankLines(inner)
	}
	for _, p := range wrapPairs {
		if inner, ok := unpair(trimmed, p.open, p.close); ok {
			return trimBlankLines(inner)
		}
	}
	return trimBlankLines(text)
}

func unfence(s string) (string, bool) {
	if len(s) < 2*len(fence) || !strings.HasPrefix(s, fence) || !strings.HasSuffix(s, fence) {
		return "", false
	}
	inner := s[len(fence) : len(s)-len(fence)]
	if strings.Contains(inner, fence) {
		return "", false
	}
	// Drop a language tag such as ```tsv on the opening line.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := inner[:nl]
		if tag != "" && !strings.ContainsAny(tag, "\t,; ") {
			inner = inner[nl+1:]
		}
	}
	return inner, true
}

// unpair strips open/close when they bound s as a single pair. Symmetric
// wrappers must not occur inside; asymmetric ones must stay balanced so that
// "(a) b (c)" is left alone.
func unpair(s, open, close string) (string, bool) {
	if len(s) < len(open)+len(close) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	inner := s[len(open) : len(s)-len(close)]
	if open == close {
		if strings.Contains(inner, open) {
			return "", false
		}
		return inner, true
	}
	depth := 0
	for i := 0; i < len(inner); {
		switch {
		case strings.HasPrefix(inner[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(inner[i:], close):
			depth--
			if depth < 0 {
				return "", false
			}
			i += len(close)
		default:
			_, size := utf8.DecodeRuneInString(inner[i:])
			i += size
		}
	}
	if depth != 0 {
		return "", false
	}
	return inner, true
}

func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
