package ai

import "github.com/abadojack/whatlanggo"

// LanguageDetector returns an ISO 639-1 tag for text, or "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

// LanguageDetectorFunc adapts a function to LanguageDetector.
type LanguageDetectorFunc func(string) string

func (f LanguageDetectorFunc) Detect(text string) string { return f(text) }

var promptLangs = map[whatlanggo.Lang]string{
	whatlanggo.Por: "pt",
	whatlanggo.Eng: "en",
	whatlanggo.Spa: "es",
}

// TrigramDetector detects among the prompt languages with whatlanggo.
type TrigramDetector struct{}

func (TrigramDetector) Detect(text string) string {
	wl := make(map[whatlanggo.Lang]bool, len(promptLangs))
	for l := range promptLangs {
		wl[l] = true
	}
	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: wl})
	return promptLangs[info.Lang]
}

// DetectLanguage picks the prompt language for question. Detection failures
// and unsupported languages yield fallback (DefaultLanguage when empty).
func DetectLanguage(d LanguageDetector, question, fallback string) string {
	if fallback == "" || !SupportsLanguage(fallback) {
		fallback = DefaultLanguage
	}
	if d == nil {
		d = TrigramDetector{}
	}
	if lang := d.Detect(question); SupportsLanguage(lang) {
		return lang
	}
	return fallback
}
