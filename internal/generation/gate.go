package generation

import (
	"regexp"
	"strings"
	"unicode"
)

// Refusal markers are configured here and nowhere else. A cleaned response
// matching any of them, case-insensitively, is replaced with the canonical
// refusal. The set covers both answer languages.
var defaultRefusalMarkers = []string{
	"i don't know",
	"i do not know",
	"not found",
	"not sure",
	"unable",
	"sorry",
	"میں نہیں جانتا",
}

const minAnswerLength = 10

var (
	promptBlockRe = regexp.MustCompile(`(?s)<\|im_start\|>.*?<\|im_end\|>`)
	controlTagRe  = regexp.MustCompile(`<\|im_(start|end)\|>(assistant|system|user)?`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Gate validates generator output before it reaches the user. It runs after
// every generation, including already-refused ones, so refusal text is always
// canonical.
type Gate struct {
	markers []string
}

// NewGate builds a Gate with the default refusal marker set.
func NewGate() *Gate {
	return &Gate{markers: defaultRefusalMarkers}
}

// NewGateWithMarkers builds a Gate with a custom marker set.
func NewGateWithMarkers(markers []string) *Gate {
	if len(markers) == 0 {
		markers = defaultRefusalMarkers
	}
	return &Gate{markers: markers}
}

// Validate cleans raw model output and either returns it or substitutes the
// canonical refusal for the locale. Validate is idempotent: a canonical
// refusal passes through unchanged.
func (g *Gate) Validate(raw, locale string) string {
	if trimmed := strings.TrimSpace(raw); isCanonicalRefusal(trimmed) {
		return trimmed
	}
	text := g.Clean(raw)
	if g.Rejects(text) {
		return RefusalNotFound(locale)
	}
	return text
}

// Clean strips chat-template control blocks, collapses whitespace and trims
// boundary whitespace and punctuation.
func (g *Gate) Clean(raw string) string {
	text := promptBlockRe.ReplaceAllString(raw, "")
	text = controlTagRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// Rejects reports whether cleaned text fails the low-confidence heuristics:
// too short, or matching a refusal marker.
func (g *Gate) Rejects(text string) bool {
	if len([]rune(text)) < minAnswerLength {
		return true
	}
	lower := strings.ToLower(text)
	for _, marker := range g.markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
