package mock

import (
	"bytes"
	"context"
	"testing"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/speech"
)

func TestRecognizerScriptEndsWithSessionStopped(t *testing.T) {
	r := NewRecognizer("what time is it")
	stream, err := r.StartContinuous(context.Background(), audio.Microphone())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var kinds []events.Kind
	for ev := range stream.Events() {
		kinds = append(kinds, ev.Kind())
	}
	if len(kinds) != 7 {
		t.Fatalf("expected 7 events, got %v", kinds)
	}
	if kinds[len(kinds)-1] != events.KindSessionStopped {
		t.Fatalf("expected terminal SessionStopped, got %v", kinds)
	}
	_ = stream.Stop()
	_ = stream.Stop()
	if got := r.Streams()[0].StopCalls(); got != 2 {
		t.Fatalf("expected stop calls counted, got %d", got)
	}
}

func TestHeldStreamClosesOnStop(t *testing.T) {
	r := &Recognizer{Hold: true}
	stream, _ := r.StartContinuous(context.Background(), audio.Microphone())
	_ = stream.Stop()
	if _, ok := <-stream.Events(); ok {
		t.Fatalf("expected closed channel after stop")
	}
}

func TestSynthesizerChunksEqualAudio(t *testing.T) {
	s := NewSynthesizer()
	s.ChunkSize = 100
	var got bytes.Buffer
	out, err := s.Synthesize(context.Background(), speech.SynthesisRequest{Text: "hello", Voice: "v"}, func(c []byte) {
		got.Write(c)
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Kind != speech.SynthesisCompleted {
		t.Fatalf("unexpected kind %s", out.Kind)
	}
	if !bytes.Equal(got.Bytes(), out.Audio) {
		t.Fatalf("chunks differ from audio (%d vs %d bytes)", got.Len(), len(out.Audio))
	}
	if !bytes.HasPrefix(out.Audio, []byte("RIFF")) {
		t.Fatalf("expected wav output")
	}
}

func TestTranslatorDerivesTranslations(t *testing.T) {
	tr := NewTranslator("hello", nil)
	out, err := tr.TranslateOnce(context.Background(), audio.Microphone(), []string{"fr"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if text, err := out.Translation("fr"); err != nil || text != "[fr] hello" {
		t.Fatalf("unexpected translation %q, %v", text, err)
	}
}

func TestParseSettingsRejectsUnknown(t *testing.T) {
	if _, err := ParseSettings("vendors.recognition.settings", map[string]any{"api_key": "x"}); err == nil {
		t.Fatalf("expected unknown key error")
	}
	s, err := ParseSettings("vendors.recognition.settings", map[string]any{"chunk_size": 8})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Transcript != DefaultTranscript || *s.ChunkSize != 8 {
		t.Fatalf("unexpected settings %+v", s)
	}
}
