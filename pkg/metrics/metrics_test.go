package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSamplingOnlyThinsNamedEvents(t *testing.T) {
	mem := NewMemoryObserver()
	s := NewSamplingObserver(mem, 0.5, EventPartial)
	for i := 0; i < 10; i++ {
		s.RecordEvent(MetricsEvent{Name: EventPartial})
		s.RecordEvent(MetricsEvent{Name: EventFinal})
	}
	if got := len(mem.Named(EventPartial)); got != 5 {
		t.Fatalf("expected 5 sampled partials, got %d", got)
	}
	if got := len(mem.Named(EventFinal)); got != 10 {
		t.Fatalf("expected all finals, got %d", got)
	}
}

func TestAsyncObserverDrainsOnClose(t *testing.T) {
	mem := NewMemoryObserver()
	a := NewAsyncObserver(mem, 64)
	for i := 0; i < 20; i++ {
		a.RecordEvent(MetricsEvent{Name: EventFinal})
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(mem.Events()) + int(a.Dropped()); got != 20 {
		t.Fatalf("expected 20 events delivered or dropped, got %d", got)
	}
	a.RecordEvent(MetricsEvent{Name: EventFinal})
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncObserverRecordDuringClose(t *testing.T) {
	for round := 0; round < 50; round++ {
		a := NewAsyncObserver(NewMemoryObserver(), 4)
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					a.RecordEvent(MetricsEvent{Name: EventPartial})
				}
			}()
		}
		if err := a.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		wg.Wait()
	}
}

func TestPrometheusObserverWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speechlab.prom")
	p := NewPrometheusObserver(path)
	p.RecordEvent(MetricsEvent{
		Name:  EventRecognizeOnce,
		Time:  time.Now(),
		Value: 0.8,
		Tags:  map[string]string{TagProvider: "mock", TagOutcome: "RecognizedSpeech"},
	})
	a := NewAsyncObserver(p, 8)
	a.RecordEvent(MetricsEvent{Name: EventSynthesize, Value: 1.2, Tags: map[string]string{TagProvider: "mock", TagOutcome: "SynthesizingAudioCompleted"}})
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `speechlab_events_total{name="recognize_once",outcome="RecognizedSpeech",provider="mock"} 1`) {
		t.Fatalf("missing counter in\n%s", out)
	}
	if !strings.Contains(out, `speechlab_request_duration_seconds_count{name="synthesize",provider="mock"} 1`) {
		t.Fatalf("missing histogram in\n%s", out)
	}
}
