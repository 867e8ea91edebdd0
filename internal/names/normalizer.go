// Package names merges near-duplicate participant spellings into one
// canonical display name.
package names

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxDistance is the edit distance used when a rule leaves it unset.
const DefaultMaxDistance = 2

// Rule describes how to recognise spellings of one canonical name.
type Rule struct {
	// Canonical is the display name every match is replaced with.
	Canonical string `mapstructure:"canonical" json:"canonical" validate:"required"`
	// Variants are known misspellings, compared by key.
	Variants []string `mapstructure:"variants" json:"variants"`
	// AffixLen enables prefix/suffix matching on the canonical key's first
	// or last AffixLen letters. Zero disables it.
	AffixLen int `mapstructure:"affix_len" json:"affix_len" validate:"gte=0"`
	// MinLen and MaxLen bound the key length for affix and distance matches.
	// Zero values default to the canonical key length -/+ MaxDistance.
	MinLen int `mapstructure:"min_len" json:"min_len" validate:"gte=0"`
	MaxLen int `mapstructure:"max_len" json:"max_len" validate:"gte=0"`
	// MaxDistance is the Levenshtein threshold. Negative disables distance
	// matching; zero means DefaultMaxDistance.
	MaxDistance int `mapstructure:"max_distance" json:"max_distance"`
}

type compiledRule struct {
	display  string
	key      string
	variants map[string]bool
	prefix   string
	suffix   string
	minLen   int
	maxLen   int
	maxDist  int
}

// Normalizer canonicalises ownership cells. A zero-value or nil Normalizer
// only trims and collapses whitespace.
type Normalizer struct {
	rules []compiledRule
}

// NewNormalizer compiles a rule table. Rules are tried in order and the
// first match wins.
func NewNormalizer(rules []Rule) (*Normalizer, error) {
	n := &Normalizer{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		display := CollapseSpace(r.Canonical)
		key := Key(display)
		if key == "" {
			return nil, fmt.Errorf("name rule %d: canonical name %q has no letters", i, r.Canonical)
		}
		keyLen := utf8.RuneCountInString(key)
		if r.AffixLen < 0 || r.AffixLen > keyLen {
			return nil, fmt.Errorf("name rule %d (%s): affix_len %d outside 0..%d", i, display, r.AffixLen, keyLen)
		}

		maxDist := r.MaxDistance
		if maxDist == 0 {
			maxDist = DefaultMaxDistance
		}
		slack := maxDist
		if slack < 0 {
			slack = 0
		}
		cr := compiledRule{
			display:  display,
			key:      key,
			variants: make(map[string]bool, len(r.Variants)),
			minLen:   r.MinLen,
			maxLen:   r.MaxLen,
			maxDist:  maxDist,
		}
		if cr.minLen == 0 {
			cr.minLen = max(1, keyLen-slack)
		}
		if cr.maxLen == 0 {
			cr.maxLen = keyLen + slack
		}
		if cr.minLen > cr.maxLen {
			return nil, fmt.Errorf("name rule %d (%s): min_len %d exceeds max_len %d", i, display, cr.minLen, cr.maxLen)
		}
		if r.AffixLen > 0 {
			letters := []rune(key)
			cr.prefix = string(letters[:r.AffixLen])
			cr.suffix = string(letters[keyLen-r.AffixLen:])
		}
		for _, v := range r.Variants {
			if vk := Key(v); vk != "" {
				cr.variants[vk] = true
			}
		}
		n.rules = append(n.rules, cr)
	}
	return n, nil
}

// Normalize returns the display text for a cell and whether a rule replaced
// it. Blank cells come back empty.
func (n *Normalizer) Normalize(cell string) (string, bool) {
	text := CollapseSpace(cell)
	if text == "" || n == nil {
		return text, false
	}
	key := Key(text)
	if key == "" {
		return text, false
	}
	for i := range n.rules {
		r := &n.rules[i]
		if r.matches(key) {
			return r.display, text != r.display
		}
	}
	return text, false
}

func (r *compiledRule) matches(key string) bool {
	if key == r.key || r.variants[key] {
		return true
	}
	n := utf8.RuneCountInString(key)
	if n < r.minLen || n > r.maxLen {
		return false
	}
	if r.prefix != "" && (strings.HasPrefix(key, r.prefix) || strings.HasSuffix(key, r.suffix)) {
		return true
	}
	return r.maxDist > 0 && levenshtein.ComputeDistance(key, r.key) <= r.maxDist
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key reduces text to lowercase letters only, with accents folded away.
func Key(text string) string {
	folded, _, err := transform.String(foldAccents, text)
	if err != nil {
		folded = text
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CollapseSpace trims s and folds interior whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
