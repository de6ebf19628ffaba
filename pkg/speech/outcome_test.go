package speech

import (
	"errors"
	"testing"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

func TestRecognitionOutcomeErr(t *testing.T) {
	if err := RecognizedText("hello").Err(); err != nil {
		t.Fatalf("expected nil error for recognized, got %v", err)
	}

	err := CanceledOutcome("Error", "auth failed").Err()
	var rf *errorsx.RecognitionFailure
	if !errors.As(err, &rf) {
		t.Fatalf("expected RecognitionFailure, got %T", err)
	}
	if rf.Kind != "Canceled" || rf.Reason != "Error" || rf.Detail != "auth failed" {
		t.Fatalf("unexpected failure fields %+v", rf)
	}

	if err := NoMatchOutcome().Err(); !errorsx.HasReason(err, errorsx.ReasonRecognitionFailure) {
		t.Fatalf("expected recognition failure for no match, got %v", err)
	}
}

func TestTranslationLookup(t *testing.T) {
	out := TranslationOutcome{
		RecognitionOutcome: RecognizedText("where is the station"),
		Translations:       map[string]string{"fr": "où est la gare", "es": "dónde está la estación"},
	}
	got, err := out.Translation("fr")
	if err != nil || got != "où est la gare" {
		t.Fatalf("expected french translation, got %q, %v", got, err)
	}

	_, err = out.Translation("hi")
	var missing *errorsx.TranslationKeyMissing
	if !errors.As(err, &missing) {
		t.Fatalf("expected TranslationKeyMissing, got %v", err)
	}
	if missing.Language != "hi" || len(missing.Available) != 2 {
		t.Fatalf("unexpected missing-key fields %+v", missing)
	}
}

func TestSynthesisOutcomeErr(t *testing.T) {
	if err := CompletedAudio([]byte{1}).Err(); err != nil {
		t.Fatalf("expected nil for completed, got %v", err)
	}
	err := FailedSynthesis("Canceled", "voice not found").Err()
	var sf *errorsx.SynthesisFailure
	if !errors.As(err, &sf) || sf.Reason != "Canceled" || sf.Detail != "voice not found" {
		t.Fatalf("unexpected synthesis failure %v", err)
	}
}
