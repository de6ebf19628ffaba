package mock

import (
	"bytes"
	"context"
	"sync"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Synthesizer renders silence sized to the input text and streams it in
// ChunkSize pieces.
type Synthesizer struct {
	// Audio, when set, is returned instead of generated silence.
	Audio      []byte
	ChunkSize  int
	SampleRate uint32
	// FailReason makes every call return a Failed outcome.
	FailReason string
	FailDetail string
	Err        error

	mu       sync.Mutex
	requests []speech.SynthesisRequest
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{ChunkSize: 1024, SampleRate: 16000}
}

func (s *Synthesizer) Name() string { return "mock" }

func (s *Synthesizer) Synthesize(ctx context.Context, req speech.SynthesisRequest, onChunk speech.ChunkFunc) (speech.SynthesisOutcome, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return speech.SynthesisOutcome{}, err
	}
	if s.Err != nil {
		return speech.SynthesisOutcome{}, s.Err
	}
	if s.FailReason != "" {
		return speech.FailedSynthesis(s.FailReason, s.FailDetail), nil
	}

	data := s.Audio
	if data == nil {
		data = s.silence(req)
	}
	if onChunk != nil {
		size := s.ChunkSize
		if size <= 0 {
			size = len(data)
		}
		for off := 0; off < len(data); off += size {
			end := min(off+size, len(data))
			onChunk(append([]byte(nil), data[off:end]...))
		}
	}
	return speech.CompletedAudio(append([]byte(nil), data...)), nil
}

// 10ms of 16-bit mono silence per input byte.
func (s *Synthesizer) silence(req speech.SynthesisRequest) []byte {
	rate := s.SampleRate
	if rate == 0 {
		rate = 16000
	}
	n := len(req.Text) + len(req.SSML)
	pcm := make([]byte, n*int(rate)/100*2)
	var buf bytes.Buffer
	_ = audio.WrapPCM(&buf, audio.PCMFormat{SampleRate: rate, Channels: 1, BitsPerSample: 16}, pcm)
	return buf.Bytes()
}

// Requests returns every request received.
func (s *Synthesizer) Requests() []speech.SynthesisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speech.SynthesisRequest(nil), s.requests...)
}

var _ speech.Synthesizer = (*Synthesizer)(nil)
