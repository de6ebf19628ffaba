package deepgram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/speech"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// stream owns one websocket connection and one open file. Callbacks from the
// SDK and the file pump both emit into out; emission after Stop is dropped.
type stream struct {
	cfg    Config
	logger *slog.Logger
	meta   map[string]string

	ctx      context.Context
	cancel   context.CancelFunc
	dgClient *client.WSCallback
	file     *os.File
	pr       *io.PipeReader
	pw       *io.PipeWriter

	out      chan events.Event
	stopped  chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
}

func openStream(parent context.Context, cfg Config, path string, logger *slog.Logger) (*stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	s := &stream{
		cfg:     cfg,
		logger:  logger,
		meta:    map[string]string{events.MetaProvider: "deepgram", events.MetaSource: "file:" + path},
		ctx:     ctx,
		cancel:  cancel,
		file:    f,
		out:     make(chan events.Event, 16),
		stopped: make(chan struct{}),
	}
	s.pr, s.pw = io.Pipe()

	clientOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	transcriptOptions := &interfaces.LiveTranscriptionOptions{
		Model:          cfg.Model,
		Language:       cfg.Language,
		Encoding:       cfg.Encoding,
		SampleRate:     cfg.SampleRate,
		InterimResults: cfg.Interim,
		SmartFormat:    true,
	}
	if cfg.UtteranceEndMS > 0 && cfg.Interim {
		transcriptOptions.UtteranceEndMs = fmt.Sprintf("%d", cfg.UtteranceEndMS)
	}

	logger.Info("initializing deepgram connection",
		slog.String("model", cfg.Model),
		slog.String("language", cfg.Language),
		slog.String("file", path))

	dgClient, err := client.NewWSUsingCallback(ctx, cfg.APIKey, clientOptions, transcriptOptions, &callback{parent: s})
	if err != nil {
		s.release()
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.dgClient = dgClient
	if connected := dgClient.Connect(); !connected {
		s.release()
		return nil, errors.New("connection failed")
	}

	go func() {
		if err := dgClient.Stream(s.pr); err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
			logger.Error("deepgram_stream_error", slog.String("error", err.Error()))
		}
	}()
	go s.pump()
	return s, nil
}

// pump sends the file, then waits DrainWindow for trailing results before
// declaring the session stopped.
func (s *stream) pump() {
	buf := make([]byte, s.cfg.ChunkSize)
	_, err := io.CopyBuffer(s.pw, s.file, buf)
	_ = s.pw.Close()
	if err != nil && s.ctx.Err() == nil {
		s.logger.Error("deepgram_send_failed", slog.String("error", err.Error()))
		s.finish(events.NewCanceled(events.Cancellation{
			Reason:       speech.CancelReasonError,
			ErrorDetails: err.Error(),
		}, s.meta))
		return
	}
	s.logger.Debug("deepgram_file_sent", slog.Duration("drain_window", s.cfg.DrainWindow))

	timer := time.NewTimer(s.cfg.DrainWindow)
	defer timer.Stop()
	select {
	case <-timer.C:
		s.finish(events.NewSessionStopped(s.meta))
	case <-s.stopped:
	case <-s.ctx.Done():
	}
}

func (s *stream) Events() <-chan events.Event { return s.out }

func (s *stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.logger.Info("closing deepgram connection")
		s.release()
		if s.dgClient != nil {
			s.dgClient.Stop()
		}
		s.closeOut()
	})
	return nil
}

func (s *stream) release() {
	s.cancel()
	if s.pw != nil {
		_ = s.pw.Close()
	}
	if s.pr != nil {
		_ = s.pr.Close()
	}
	_ = s.file.Close()
}

func (s *stream) emit(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- ev:
	case <-s.stopped:
	}
}

// finish emits a terminal event and closes the channel.
func (s *stream) finish(ev events.Event) {
	s.emit(ev)
	s.closeOut()
}

func (s *stream) closeOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// --- Callback Implementation ---

type callback struct {
	parent *stream
}

func (c *callback) Open(or *msginterfaces.OpenResponse) error {
	c.parent.logger.Info("deepgram_connection_opened")
	c.parent.emit(events.NewSessionStarted(c.parent.meta))
	return nil
}

func (c *callback) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	transcript := mr.Channel.Alternatives[0].Transcript
	if transcript == "" {
		return nil
	}
	isFinal := mr.IsFinal || mr.SpeechFinal
	c.parent.logger.Debug("transcript_received",
		slog.Int("chars", len(transcript)),
		slog.Bool("is_final", isFinal))
	if isFinal {
		c.parent.emit(events.NewRecognized(transcript, c.parent.meta))
	} else {
		c.parent.emit(events.NewRecognizing(transcript, c.parent.meta))
	}
	return nil
}

func (c *callback) Metadata(md *msginterfaces.MetadataResponse) error {
	c.parent.logger.Info("deepgram_metadata_received", slog.String("request_id", md.RequestID))
	return nil
}

func (c *callback) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (c *callback) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	c.parent.logger.Debug("utterance_end_event", slog.Int("utterance_end_ms", c.parent.cfg.UtteranceEndMS))
	return nil
}

func (c *callback) Close(cr *msginterfaces.CloseResponse) error {
	c.parent.logger.Info("deepgram_connection_closed")
	c.parent.finish(events.NewSessionStopped(c.parent.meta))
	return nil
}

func (c *callback) Error(er *msginterfaces.ErrorResponse) error {
	c.parent.logger.Error("deepgram_error",
		slog.String("error_code", er.ErrCode),
		slog.String("error_message", er.ErrMsg))
	c.parent.finish(events.NewCanceled(events.Cancellation{
		Reason:       speech.CancelReasonError,
		ErrorCode:    er.ErrCode,
		ErrorDetails: er.ErrMsg,
	}, c.parent.meta))
	return nil
}

func (c *callback) UnhandledEvent(byData []byte) error {
	c.parent.logger.Debug("deepgram_unhandled_event", slog.Int("bytes", len(byData)))
	return nil
}

var _ speech.Stream = (*stream)(nil)
