package generation

import (
	"strings"
	"testing"
)

func TestGateValidatePassesGoodAnswer(t *testing.T) {
	g := NewGate()
	got := g.Validate("Registration requires a valid national ID and a filled application form.", "en")
	if got != "Registration requires a valid national ID and a filled application form" {
		t.Fatalf("got %q", got)
	}
}

func TestGateValidateRejects(t *testing.T) {
	g := NewGate()
	refusal := RefusalNotFound("en")

	tests := []struct {
		name string
		raw  string
	}{
		{"too short", "Yes."},
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"refusal marker", "I'm sorry, I cannot help with that question at all."},
		{"marker in mixed case", "I Don't Know what you are asking about here."},
		{"not found marker", "The requested detail was not found in the documents."},
		{"urdu marker", "میں نہیں جانتا کہ اس سوال کا جواب کیا ہے"},
		{"only control tags", "<|im_start|>assistant<|im_end|>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Validate(tt.raw, "en"); got != refusal {
				t.Fatalf("Validate(%q) = %q, want canonical refusal", tt.raw, got)
			}
		})
	}
}

func TestGateValidateIdempotent(t *testing.T) {
	g := NewGate()
	inputs := []string{
		"A perfectly reasonable grounded answer about document registration.",
		"Sorry, no idea.",
		"short",
		RefusalNotFound("en"),
		RefusalNotFound("ur"),
		RefusalTryAgain("en"),
		RefusalTryAgain("ur"),
	}
	for _, in := range inputs {
		once := g.Validate(in, "en")
		twice := g.Validate(once, "en")
		if once != twice {
			t.Fatalf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestGateCleanStripsTemplateArtifacts(t *testing.T) {
	g := NewGate()
	raw := "<|im_start|>system\ninstructions here<|im_end|>\n<|im_start|>assistant\nThe office opens at nine in the morning."
	got := g.Validate(raw, "en")
	if got != "The office opens at nine in the morning" {
		t.Fatalf("got %q", got)
	}
}

func TestGateCleanCollapsesWhitespace(t *testing.T) {
	g := NewGate()
	got := g.Clean("  several\n\nlines   of\ttext here  ")
	if got != "several lines of text here" {
		t.Fatalf("got %q", got)
	}
}

func TestGateCleanKeepsUrduLetters(t *testing.T) {
	g := NewGate()
	text := "دفتر صبح نو بجے کھلتا ہے"
	if got := g.Clean(text + "۔"); got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestGateCustomMarkers(t *testing.T) {
	g := NewGateWithMarkers([]string{"cannot answer"})
	if got := g.Validate("I'm sorry but here is a complete and useful answer anyway.", "en"); strings.Contains(got, "could not find") {
		t.Fatalf("default marker applied with custom set: %q", got)
	}
	if got := g.Validate("We cannot answer this from the provided passages today.", "en"); got != RefusalNotFound("en") {
		t.Fatalf("custom marker ignored: %q", got)
	}
}

func TestGateRefusalLocale(t *testing.T) {
	g := NewGate()
	if got := g.Validate("nope", "ur"); got != RefusalNotFound("ur") {
		t.Fatalf("got %q", got)
	}
	if got := g.Validate("nope", "de-DE"); got != RefusalNotFound("en") {
		t.Fatalf("unsupported locale should fall back to english, got %q", got)
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"en", "en"},
		{"en-US", "en"},
		{"ur", "ur"},
		{"ur-PK", "ur"},
		{"fr", "en"},
		{"not-a-locale!!", "en"},
	}
	for _, tt := range tests {
		if got := NormalizeLocale(tt.in); got != tt.want {
			t.Fatalf("NormalizeLocale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
