package errorsx

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigurationError reports missing credentials, an unknown provider or a
// request that falls outside the configured limits (e.g. a target language
// that was never configured).
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) ReasonCode() ReasonCode { return ReasonConfiguration }

// Configf builds a ConfigurationError for field.
func Configf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RecognitionFailure is returned when a recognition turn ends without text.
// Kind is "NoMatch" or "Canceled"; Reason and Detail are copied verbatim from
// the service.
type RecognitionFailure struct {
	Kind   string
	Reason string
	Detail string
}

func (e *RecognitionFailure) Error() string {
	var b strings.Builder
	b.WriteString("recognition failed: ")
	b.WriteString(e.Kind)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *RecognitionFailure) ReasonCode() ReasonCode { return ReasonRecognitionFailure }

// SynthesisFailure carries the non-success reason reported by the synthesizer.
type SynthesisFailure struct {
	Reason string
	Detail string
}

func (e *SynthesisFailure) Error() string {
	if e.Detail == "" {
		return "synthesis failed: " + e.Reason
	}
	return fmt.Sprintf("synthesis failed: %s: %s", e.Reason, e.Detail)
}

func (e *SynthesisFailure) ReasonCode() ReasonCode { return ReasonSynthesisFailure }

// TranslationKeyMissing is returned when a requested language is absent from
// the translation result.
type TranslationKeyMissing struct {
	Language  string
	Available []string
}

func (e *TranslationKeyMissing) Error() string {
	avail := append([]string(nil), e.Available...)
	sort.Strings(avail)
	return fmt.Sprintf("translation for %q missing from result (have: %s)", e.Language, strings.Join(avail, ", "))
}

func (e *TranslationKeyMissing) ReasonCode() ReasonCode { return ReasonTranslationKeyMissing }
