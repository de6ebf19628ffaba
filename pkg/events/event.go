package events

import (
	"time"
)

// Kind tags an event emitted by a remote speech stream.
type Kind string

const (
	KindSessionStarted Kind = "session_started"
	KindRecognizing    Kind = "recognizing"
	KindRecognized     Kind = "recognized"
	KindNoMatch        Kind = "no_match"
	KindCanceled       Kind = "canceled"
	KindSessionStopped Kind = "session_stopped"
	KindAudioChunk     Kind = "audio_chunk"
)

// Terminal reports whether an event ends a continuous session.
func (k Kind) Terminal() bool {
	return k == KindCanceled || k == KindSessionStopped
}

const (
	MetaSessionID = "session_id"
	MetaSource    = "source"
	MetaProvider  = "provider"
	MetaLanguage  = "language"
	MetaOffset    = "offset"
)

// Cancellation describes why the service canceled a session or a request.
type Cancellation struct {
	Reason       string
	ErrorCode    string
	ErrorDetails string
}

// Event is one element of the tagged stream a provider emits. Only the
// fields relevant to Kind are set.
type Event struct {
	kind   Kind
	at     time.Time
	text   string
	audio  []byte
	cancel Cancellation
	meta   map[string]string
}

func NewSessionStarted(meta map[string]string) Event {
	return Event{kind: KindSessionStarted, at: time.Now(), meta: cloneMeta(meta)}
}

func NewRecognizing(text string, meta map[string]string) Event {
	return Event{kind: KindRecognizing, at: time.Now(), text: text, meta: cloneMeta(meta)}
}

func NewRecognized(text string, meta map[string]string) Event {
	return Event{kind: KindRecognized, at: time.Now(), text: text, meta: cloneMeta(meta)}
}

func NewNoMatch(meta map[string]string) Event {
	return Event{kind: KindNoMatch, at: time.Now(), meta: cloneMeta(meta)}
}

func NewCanceled(c Cancellation, meta map[string]string) Event {
	return Event{kind: KindCanceled, at: time.Now(), cancel: c, meta: cloneMeta(meta)}
}

func NewSessionStopped(meta map[string]string) Event {
	return Event{kind: KindSessionStopped, at: time.Now(), meta: cloneMeta(meta)}
}

// NewAudioChunk copies data so callers may reuse their buffer.
func NewAudioChunk(data []byte, meta map[string]string) Event {
	return Event{kind: KindAudioChunk, at: time.Now(), audio: append([]byte(nil), data...), meta: cloneMeta(meta)}
}

func (e Event) Kind() Kind                 { return e.kind }
func (e Event) At() time.Time              { return e.at }
func (e Event) Text() string               { return e.text }
func (e Event) Audio() []byte              { return append([]byte(nil), e.audio...) }
func (e Event) Cancellation() Cancellation { return e.cancel }
func (e Event) Meta() map[string]string    { return cloneMeta(e.meta) }

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
