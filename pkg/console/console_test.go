package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/providers/mock"
	"github.com/harunnryd/speechlab/pkg/session"
	"github.com/harunnryd/speechlab/pkg/speech"
)

type harness struct {
	cfg   config.Config
	rec   *mock.Recognizer
	tr    *mock.Translator
	syn   *mock.Synthesizer
	out   *bytes.Buffer
	orch  *session.Orchestrator
	input string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	wav := filepath.Join(dir, "gladiator.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	cfg := config.Config{
		RecognitionLanguage: "en-US",
		TargetLanguages:     []string{"fr", "es", "hi"},
		Voice:               "en-US-AriaNeural",
		ReplyVoice:          "en-GB-LibbyNeural",
		Voices:              map[string]string{"fr": "fr-FR-HenriNeural", "es": "es-ES-ElviraNeural", "hi": "hi-IN-MadhurNeural"},
		AudioFile:           wav,
		OutputDir:           dir,
		SSML: config.SSMLConfig{
			Rate:    "-20%",
			Phoneme: config.PhonemeConfig{Word: "time", IPA: "taɪm"},
		},
	}
	h := &harness{
		cfg: cfg,
		rec: mock.NewRecognizer(mock.DefaultTranscript),
		tr:  mock.NewTranslator(mock.DefaultTranscript, nil),
		syn: mock.NewSynthesizer(),
		out: &bytes.Buffer{},
	}
	h.orch = session.New(session.ConfigFrom(cfg), speech.Service{Recognizer: h.rec, Translator: h.tr, Synthesizer: h.syn})
	return h
}

func (h *harness) console(input string) *Console {
	clock := func() time.Time { return time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC) }
	return New(h.orch, h.cfg, strings.NewReader(input), h.out, WithClock(clock), WithPlayback(false))
}

func TestClockPlainText(t *testing.T) {
	h := newHarness(t)
	if err := h.console("2\n1\n").Clock(context.Background()); err != nil {
		t.Fatalf("clock: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"Getting speech from file...", "What time is it?", "The time is 9:05", "You said before What time is it?"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	reqs := h.syn.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected two synthesis calls, got %d", len(reqs))
	}
	if reqs[0].Text != "The time is 9:05" || reqs[0].Voice != "en-GB-LibbyNeural" || reqs[0].IsSSML() {
		t.Fatalf("unexpected reply request %+v", reqs[0])
	}
	if reqs[1].Text != "You said before What time is it?" {
		t.Fatalf("unexpected echo request %+v", reqs[1])
	}
	if got := h.rec.Sources(); len(got) != 1 || got[0].Kind() != audio.SourceFile {
		t.Fatalf("expected one file recognition, got %v", got)
	}
}

func TestClockCheerfulSSML(t *testing.T) {
	h := newHarness(t)
	if err := h.console("2\n3\n").Clock(context.Background()); err != nil {
		t.Fatalf("clock: %v", err)
	}
	req := h.syn.Requests()[0]
	if !req.IsSSML() || !strings.Contains(req.SSML, `style="cheerful"`) || !strings.Contains(req.SSML, "The time is 9:05") {
		t.Fatalf("expected cheerful ssml, got %+v", req)
	}
}

func TestClockPhonemeAnnotatesReply(t *testing.T) {
	h := newHarness(t)
	if err := h.console("2\n4\n").Clock(context.Background()); err != nil {
		t.Fatalf("clock: %v", err)
	}
	req := h.syn.Requests()[0]
	if !req.IsSSML() || !strings.Contains(req.SSML, `<phoneme alphabet="ipa" ph="taɪm">time</phoneme>`) {
		t.Fatalf("expected phoneme annotated reply, got %+v", req)
	}
}

func TestClockPhonemeWithoutPairFails(t *testing.T) {
	h := newHarness(t)
	h.cfg.SSML.Phoneme = config.PhonemeConfig{}
	err := h.console("2\n4\n").Clock(context.Background())
	if !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(h.syn.Requests()) != 0 {
		t.Fatalf("expected no synthesis without a phoneme pair")
	}
}

func TestTranslateSaveNamesFileBySource(t *testing.T) {
	cases := []struct {
		input string
		file  string
	}{
		{input: "fr\n2\n2\nquit\n", file: "translation_from_audio.wav"},
		{input: "fr\n1\n2\nquit\n", file: "translation_from_microphone.wav"},
	}
	for _, tc := range cases {
		h := newHarness(t)
		h.cfg.OutputDir = t.TempDir()
		h.syn.Audio = []byte("RIFF-translation-audio")
		if err := h.console(tc.input).Translate(context.Background()); err != nil {
			t.Fatalf("%s: translate: %v", tc.file, err)
		}
		path := filepath.Join(h.cfg.OutputDir, tc.file)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: expected saved translation: %v", tc.file, err)
		}
		if !bytes.Equal(data, h.syn.Audio) {
			t.Fatalf("%s: saved bytes differ from synthesized audio", tc.file)
		}
		if !strings.Contains(h.out.String(), "Translation saved to "+path) {
			t.Fatalf("%s: expected save notice in output:\n%s", tc.file, h.out.String())
		}
		entries, _ := os.ReadDir(h.cfg.OutputDir)
		if len(entries) != 1 {
			t.Fatalf("%s: expected exactly one artifact, got %d", tc.file, len(entries))
		}
	}
}

func TestClockNoMatchAbortsTurn(t *testing.T) {
	h := newHarness(t)
	h.rec.Outcome = speech.NoMatchOutcome()
	if err := h.console("1\n").Clock(context.Background()); err == nil {
		t.Fatalf("expected error for no match")
	}
	if len(h.syn.Requests()) != 0 {
		t.Fatalf("expected no synthesis after a failed recognition")
	}
}

func TestTranslateUnknownLanguageContinues(t *testing.T) {
	h := newHarness(t)
	err := h.console("de\nfr\n2\n2\nquit\n").Translate(context.Background())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, `language "de" is not configured`) {
		t.Fatalf("expected configuration error for de in output:\n%s", out)
	}
	if !strings.Contains(out, "Translating 'What time is it?'") || !strings.Contains(out, "[fr] What time is it?") {
		t.Fatalf("expected translation in output:\n%s", out)
	}
	if h.tr.Calls() != 1 {
		t.Fatalf("expected only the fr turn to reach the service, got %d calls", h.tr.Calls())
	}

	path := filepath.Join(h.cfg.OutputDir, fileTranslationFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected saved translation: %v", err)
	}
	reqs := h.syn.Requests()
	if len(reqs) != 1 || reqs[0].Voice != "fr-FR-HenriNeural" {
		t.Fatalf("unexpected synthesis requests %+v", reqs)
	}
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("expected wav bytes, got %d bytes", len(data))
	}
}

func TestTranslateSpeakUsesLanguageVoice(t *testing.T) {
	h := newHarness(t)
	if err := h.console("es\n1\n1\n").Translate(context.Background()); err != nil {
		t.Fatalf("translate: %v", err)
	}
	reqs := h.syn.Requests()
	if len(reqs) != 1 || reqs[0].Voice != "es-ES-ElviraNeural" || reqs[0].Text != "[es] What time is it?" {
		t.Fatalf("unexpected synthesis requests %+v", reqs)
	}
	if got := h.tr.Targets(); len(got) != 1 || got[0][0] != "es" {
		t.Fatalf("unexpected targets %v", got)
	}
}

func TestListenPrintsPartialsAndFinals(t *testing.T) {
	h := newHarness(t)
	if err := h.console("").Listen(context.Background(), audio.File(h.cfg.AudioFile)); err != nil {
		t.Fatalf("listen: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"~ What", "~ What time is it?", "> What time is it?", "Stopped: SessionStopped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	streams := h.rec.Streams()
	if len(streams) != 1 || streams[0].StopCalls() != 1 {
		t.Fatalf("expected the stream stopped exactly once")
	}
}

func TestRunMenu(t *testing.T) {
	h := newHarness(t)
	if err := h.console("9\n1\n2\n1\nQUIT\n").Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, `Unknown choice "9"`) || !strings.Contains(out, "The time is 9:05") {
		t.Fatalf("unexpected menu output:\n%s", out)
	}
}

func TestRunEndsOnEOF(t *testing.T) {
	h := newHarness(t)
	if err := h.console("1\n").Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.rec.OnceCalls() != 0 {
		t.Fatalf("expected no recognition when input ends at the source prompt")
	}
}
