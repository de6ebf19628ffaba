package speech

import (
	"context"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/events"
)

// Stream is a running continuous recognition. Events delivers zero or more
// Recognizing/Recognized events followed by one terminal event; the channel
// is closed once the provider has nothing more to send.
type Stream interface {
	Events() <-chan events.Event
	// Stop ends recognition and releases the audio source.
	Stop() error
}

// Recognizer turns audio into text.
type Recognizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// RecognizeOnce blocks until the service returns exactly one outcome.
	RecognizeOnce(ctx context.Context, src audio.Source) (RecognitionOutcome, error)
	// StartContinuous begins streaming recognition.
	StartContinuous(ctx context.Context, src audio.Source) (Stream, error)
}

// Translator recognizes speech and translates it into target languages.
type Translator interface {
	Name() string
	TranslateOnce(ctx context.Context, src audio.Source, targets []string) (TranslationOutcome, error)
}

// SynthesisRequest carries exactly one of Text or SSML.
type SynthesisRequest struct {
	Text  string
	SSML  string
	Voice string
	// Language is used when the voice alone is not enough to pick a locale.
	Language string
	// Playback renders audio on the default speaker as well as returning it.
	Playback bool
}

// IsSSML reports whether the request carries markup.
func (r SynthesisRequest) IsSSML() bool { return r.SSML != "" }

// ChunkFunc receives audio as the synthesizer streams it. The concatenation
// of all chunks equals the Completed audio, minus any container header the
// service adds to the final result.
type ChunkFunc func(chunk []byte)

// Synthesizer turns text or SSML into audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req SynthesisRequest, onChunk ChunkFunc) (SynthesisOutcome, error)
}

// Service bundles the remote capabilities a session may use. Any field may be
// nil when the configured provider does not offer that capability.
type Service struct {
	Recognizer  Recognizer
	Translator  Translator
	Synthesizer Synthesizer
}
