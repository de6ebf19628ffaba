package speech

import (
	"sort"

	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/events"
)

// OutcomeKind tags a recognition result.
type OutcomeKind int

const (
	Recognized OutcomeKind = iota + 1
	NoMatch
	Canceled
)

func (k OutcomeKind) String() string {
	switch k {
	case Recognized:
		return "RecognizedSpeech"
	case NoMatch:
		return "NoMatch"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Cancellation reasons as reported by the speech service.
const (
	CancelReasonError           = "Error"
	CancelReasonEndOfStream     = "EndOfStream"
	CancelReasonCancelledByUser = "CancelledByUser"
)

// RecognitionOutcome is the single terminal result of a recognize-once call.
type RecognitionOutcome struct {
	Kind         OutcomeKind
	Text         string
	Cancellation events.Cancellation
}

func RecognizedText(text string) RecognitionOutcome {
	return RecognitionOutcome{Kind: Recognized, Text: text}
}

func NoMatchOutcome() RecognitionOutcome {
	return RecognitionOutcome{Kind: NoMatch}
}

func CanceledOutcome(reason, detail string) RecognitionOutcome {
	return RecognitionOutcome{Kind: Canceled, Cancellation: events.Cancellation{Reason: reason, ErrorDetails: detail}}
}

// Err converts a non-recognized outcome into a RecognitionFailure.
func (o RecognitionOutcome) Err() error {
	switch o.Kind {
	case Recognized:
		return nil
	case Canceled:
		return &errorsx.RecognitionFailure{
			Kind:   o.Kind.String(),
			Reason: o.Cancellation.Reason,
			Detail: o.Cancellation.ErrorDetails,
		}
	default:
		return &errorsx.RecognitionFailure{Kind: NoMatch.String()}
	}
}

// TranslationOutcome is a recognition outcome plus translated text keyed by
// target language code.
type TranslationOutcome struct {
	RecognitionOutcome
	Translations map[string]string
}

// Translation returns the text for lang or TranslationKeyMissing.
func (o TranslationOutcome) Translation(lang string) (string, error) {
	if err := o.Err(); err != nil {
		return "", err
	}
	text, ok := o.Translations[lang]
	if !ok {
		return "", &errorsx.TranslationKeyMissing{Language: lang, Available: o.Languages()}
	}
	return text, nil
}

// Languages lists the translation keys in sorted order.
func (o TranslationOutcome) Languages() []string {
	out := make([]string, 0, len(o.Translations))
	for k := range o.Translations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SynthesisKind tags a synthesis result.
type SynthesisKind int

const (
	SynthesisCompleted SynthesisKind = iota + 1
	SynthesisFailed
)

func (k SynthesisKind) String() string {
	switch k {
	case SynthesisCompleted:
		return "SynthesizingAudioCompleted"
	case SynthesisFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SynthesisOutcome is the single terminal result of a synthesis call.
type SynthesisOutcome struct {
	Kind   SynthesisKind
	Audio  []byte
	Reason string
	Detail string
}

func CompletedAudio(audio []byte) SynthesisOutcome {
	return SynthesisOutcome{Kind: SynthesisCompleted, Audio: audio}
}

func FailedSynthesis(reason, detail string) SynthesisOutcome {
	return SynthesisOutcome{Kind: SynthesisFailed, Reason: reason, Detail: detail}
}

// Err converts a failed outcome into a SynthesisFailure.
func (o SynthesisOutcome) Err() error {
	if o.Kind == SynthesisCompleted {
		return nil
	}
	reason := o.Reason
	if reason == "" {
		reason = o.Kind.String()
	}
	return &errorsx.SynthesisFailure{Reason: reason, Detail: o.Detail}
}
