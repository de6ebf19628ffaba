package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Translator returns Outcome for every call and records the requested targets.
type Translator struct {
	Outcome speech.TranslationOutcome
	Err     error

	mu      sync.Mutex
	calls   int
	targets [][]string
}

// NewTranslator hears transcript and "translates" it by tagging the text
// with each language, unless translations names the result explicitly.
func NewTranslator(transcript string, translations map[string]string) *Translator {
	return &Translator{Outcome: speech.TranslationOutcome{
		RecognitionOutcome: recognized(transcript),
		Translations:       translations,
	}}
}

func recognized(text string) speech.RecognitionOutcome {
	if strings.TrimSpace(text) == "" {
		return speech.NoMatchOutcome()
	}
	return speech.RecognizedText(text)
}

func (t *Translator) Name() string { return "mock" }

func (t *Translator) TranslateOnce(ctx context.Context, src audio.Source, targets []string) (speech.TranslationOutcome, error) {
	t.mu.Lock()
	t.calls++
	t.targets = append(t.targets, append([]string(nil), targets...))
	t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return speech.TranslationOutcome{}, err
	}
	if t.Err != nil {
		return speech.TranslationOutcome{}, t.Err
	}
	out := t.Outcome
	if out.Kind != speech.Recognized || t.Outcome.Translations != nil {
		return out, nil
	}
	out.Translations = make(map[string]string, len(targets))
	for _, lang := range targets {
		out.Translations[lang] = "[" + lang + "] " + out.Text
	}
	return out, nil
}

// Calls counts TranslateOnce invocations.
func (t *Translator) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Targets returns the target list of every call.
func (t *Translator) Targets() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]string(nil), t.targets...)
}

var _ speech.Translator = (*Translator)(nil)
