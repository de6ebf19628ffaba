package deepgram

import (
	"context"
	"testing"
	"time"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/errorsx"
)

func TestConfigFromSettingsDefaults(t *testing.T) {
	cfg, err := ConfigFromSettings("vendors.recognition.settings", map[string]any{"api_key": "dg"}, "en-US")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Language != "en-US" || !cfg.Interim || cfg.UtteranceEndMS != 1000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DrainWindow != defaultDrainWindow {
		t.Fatalf("unexpected drain window %s", cfg.DrainWindow)
	}
}

func TestConfigFromSettingsValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"missing key":   {"model": "nova-2"},
		"bad encoding":  {"api_key": "k", "encoding": "mp3"},
		"utterance end": {"api_key": "k", "utterance_end_ms": 9000},
		"drain":         {"api_key": "k", "drain_ms": 0},
		"unknown":       {"api_key": "k", "voice": "x"},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ConfigFromSettings("s", raw, "en-US"); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestRecognizerRejectsMicrophone(t *testing.T) {
	r := New(Config{APIKey: "k", DrainWindow: time.Millisecond}, nil)
	if _, err := r.RecognizeOnce(context.Background(), audio.Microphone()); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := r.StartContinuous(context.Background(), audio.Microphone()); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(Config{APIKey: "k"}, nil)
	if r.cfg.Model != defaultModel || r.cfg.ChunkSize != defaultChunkSize || r.Name() != "deepgram" {
		t.Fatalf("unexpected recognizer %+v", r.cfg)
	}
}
