package observers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/speechlab/pkg/metrics"
	"github.com/harunnryd/speechlab/pkg/redact"
)

func TestTimelineObserverWritesJSONL(t *testing.T) {
	redact.SetEnabled(true)
	defer redact.SetEnabled(false)

	dir := t.TempDir()
	obs := NewTimelineObserver(dir)
	obs.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventFinal,
		Time: time.Now(),
		Tags: map[string]string{metrics.TagSessionID: "session/1", metrics.TagProvider: "mock"},
		Fields: map[string]any{
			"text": "mail me at someone@example.com",
		},
	})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventFinal, Time: time.Now()})
	_ = obs.Close()

	b, err := os.ReadFile(filepath.Join(dir, "session_1"+timelineSuffix))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	var entry timelineEvent
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.Event != metrics.EventFinal || entry.SessionID != "session/1" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if text, _ := entry.Fields["text"].(string); strings.Contains(text, "@") {
		t.Fatalf("expected transcript redacted, got %q", text)
	}
}

func TestUsageObserverWritesSummary(t *testing.T) {
	dir := t.TempDir()
	obs := NewUsageObserver(dir)
	tags := map[string]string{metrics.TagSessionID: "abc", metrics.TagProvider: "azure"}
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventRecognizeOnce, Tags: tags})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventSynthesize, Tags: tags, Fields: map[string]any{"characters": 17, "audio_bytes": 3200}})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventSynthesize, Tags: tags, Fields: map[string]any{"characters": 3}})
	if err := obs.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "abc"+usageSuffix))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sum UsageSummary
	if err := json.Unmarshal(b, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.RecognitionCalls != 1 || sum.SynthesisCalls != 2 || sum.SynthesizedChars != 20 || sum.AudioBytes != 3200 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestUsageObserverKeepsProviderPerCapability(t *testing.T) {
	dir := t.TempDir()
	obs := NewUsageObserver(dir)
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventRecognizeOnce, Tags: map[string]string{metrics.TagSessionID: "mixed", metrics.TagProvider: "deepgram"}})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventSynthesize, Tags: map[string]string{metrics.TagSessionID: "mixed", metrics.TagProvider: "elevenlabs"}, Fields: map[string]any{"characters": 5}})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventTranslateOnce, Tags: map[string]string{metrics.TagSessionID: "mixed", metrics.TagProvider: "azure"}})
	if err := obs.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "mixed"+usageSuffix))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sum UsageSummary
	if err := json.Unmarshal(b, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.RecognitionProvider != "deepgram" || sum.SynthesisProvider != "elevenlabs" || sum.TranslationProvider != "azure" {
		t.Fatalf("unexpected providers %+v", sum)
	}
}

func TestPurgeArtifactsKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)
	for _, name := range []string{"a" + timelineSuffix, "b" + usageSuffix, "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	removed, err := PurgeArtifacts(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("expected foreign file kept: %v", err)
	}
	if n, err := PurgeArtifacts(filepath.Join(dir, "missing"), time.Hour); err != nil || n != 0 {
		t.Fatalf("expected missing dir ignored, got %d, %v", n, err)
	}
}

func TestLatencyObserverLogsOnEnd(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLatencyObserver(slog.New(slog.NewTextHandler(&buf, nil)))
	tags := map[string]string{metrics.TagSessionID: "s1", metrics.TagOutcome: "SessionStopped"}
	start := time.Now()
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventPartial, Time: start, Tags: tags})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventContinuousStart, Time: start, Tags: tags})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventPartial, Time: start.Add(100 * time.Millisecond), Tags: tags})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventFinal, Time: start.Add(300 * time.Millisecond), Tags: tags})
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventContinuousEnd, Time: start.Add(time.Second), Tags: tags})

	out := buf.String()
	for _, want := range []string{"first_partial_ms=100", "first_final_ms=300", "partials=1", "finals=1", "termination=SessionStopped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}
