package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Recognizer replays a scripted outcome and event stream. It records every
// call so tests can assert how often the service was contacted.
type Recognizer struct {
	// Outcome is returned by RecognizeOnce when Err is nil.
	Outcome speech.RecognitionOutcome
	Err     error
	// Script is delivered by StartContinuous in order.
	Script   []events.Event
	StartErr error
	// Hold keeps the event channel open after Script until Stop is called.
	Hold bool

	mu      sync.Mutex
	once    int
	sources []audio.Source
	streams []*Stream
}

// NewRecognizer returns a recognizer that hears transcript. Continuous
// sessions emit one partial per word, the final text, then SessionStopped.
func NewRecognizer(transcript string) *Recognizer {
	r := &Recognizer{Outcome: speech.NoMatchOutcome()}
	if transcript == "" {
		r.Script = []events.Event{events.NewSessionStarted(nil), events.NewNoMatch(nil), events.NewSessionStopped(nil)}
		return r
	}
	r.Outcome = speech.RecognizedText(transcript)
	script := []events.Event{events.NewSessionStarted(nil)}
	words := strings.Fields(transcript)
	for i := range words {
		script = append(script, events.NewRecognizing(strings.Join(words[:i+1], " "), nil))
	}
	script = append(script, events.NewRecognized(transcript, nil), events.NewSessionStopped(nil))
	r.Script = script
	return r
}

func (r *Recognizer) Name() string { return "mock" }

func (r *Recognizer) RecognizeOnce(ctx context.Context, src audio.Source) (speech.RecognitionOutcome, error) {
	r.mu.Lock()
	r.once++
	r.sources = append(r.sources, src)
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return speech.RecognitionOutcome{}, err
	}
	if r.Err != nil {
		return speech.RecognitionOutcome{}, r.Err
	}
	return r.Outcome, nil
}

func (r *Recognizer) StartContinuous(ctx context.Context, src audio.Source) (speech.Stream, error) {
	r.mu.Lock()
	r.sources = append(r.sources, src)
	r.mu.Unlock()
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	s := newStream(r.Script, r.Hold)
	r.mu.Lock()
	r.streams = append(r.streams, s)
	r.mu.Unlock()
	return s, nil
}

// OnceCalls counts RecognizeOnce invocations.
func (r *Recognizer) OnceCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.once
}

// Sources lists the audio sources passed to the recognizer.
func (r *Recognizer) Sources() []audio.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audio.Source(nil), r.sources...)
}

// Streams lists every stream started so far.
func (r *Recognizer) Streams() []*Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Stream(nil), r.streams...)
}

// Stream is a scripted continuous recognition.
type Stream struct {
	out     chan events.Event
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	stops int
}

func newStream(script []events.Event, hold bool) *Stream {
	s := &Stream{out: make(chan events.Event), stopped: make(chan struct{})}
	go s.run(script, hold)
	return s
}

func (s *Stream) run(script []events.Event, hold bool) {
	defer close(s.out)
	for _, ev := range script {
		select {
		case s.out <- ev:
		case <-s.stopped:
			return
		}
	}
	if hold {
		<-s.stopped
	}
}

func (s *Stream) Events() <-chan events.Event { return s.out }

// Stop counts every call; only the first one ends the stream.
func (s *Stream) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.once.Do(func() { close(s.stopped) })
	return nil
}

// StopCalls reports how many times Stop was called.
func (s *Stream) StopCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

var _ speech.Recognizer = (*Recognizer)(nil)
