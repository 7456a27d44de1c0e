package generation

import "golang.org/x/text/language"

// Canonical responses returned instead of model output. NotFound covers the
// content outcome (nothing relevant in the corpus), TryAgain covers an
// infrastructure outcome (the generation call itself failed). The two must
// never be conflated: callers use them to tell "no information" apart from
// "try again later".
var (
	refusalNotFound = map[string]string{
		"en": "I could not find any relevant information in the reference library. Please rephrase your question and try again.",
		"ur": "میں نے آپ کے دیے گئے ذخیرے میں کوئی متعلقہ معلومات نہیں پائی۔ براہ کرم سوال واضح کریں یا دوبارہ کوشش کریں۔",
	}
	refusalTryAgain = map[string]string{
		"en": "Something went wrong while preparing the answer. Please try again.",
		"ur": "جواب تیار کرنے میں خرابی ہوئی، براہ کرم دوبارہ کوشش کریں۔",
	}
)

var supportedLocales = []language.Tag{
	language.English,
	language.Urdu,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// NormalizeLocale maps an arbitrary locale string onto a supported refusal
// language, defaulting to English.
func NormalizeLocale(locale string) string {
	if locale == "" {
		return "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	_, index, _ := localeMatcher.Match(tag)
	if supportedLocales[index] == language.Urdu {
		return "ur"
	}
	return "en"
}

// RefusalNotFound returns the canonical "no relevant information" message.
func RefusalNotFound(locale string) string {
	return refusalNotFound[NormalizeLocale(locale)]
}

// RefusalTryAgain returns the canonical generation-failure message.
func RefusalTryAgain(locale string) string {
	return refusalTryAgain[NormalizeLocale(locale)]
}

// IsRefusal reports whether text is one of the canonical refusal messages.
func IsRefusal(text string) bool {
	return isCanonicalRefusal(text)
}

func isCanonicalRefusal(text string) bool {
	for _, m := range refusalNotFound {
		if text == m {
			return true
		}
	}
	for _, m := range refusalTryAgain {
		if text == m {
			return true
		}
	}
	return false
}
