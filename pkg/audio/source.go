package audio

import (
	"fmt"
	"os"
	"strings"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

// SourceKind selects where audio for a recognition attempt comes from.
type SourceKind int

const (
	SourceMicrophone SourceKind = iota + 1
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceMicrophone:
		return "microphone"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// Source is a handle to either the default capture device or a fixed file.
// The zero value is invalid; use Microphone or File.
type Source struct {
	kind SourceKind
	path string
}

// Microphone selects the default capture device.
func Microphone() Source { return Source{kind: SourceMicrophone} }

// File selects a wav file on disk.
func File(path string) Source { return Source{kind: SourceFile, path: path} }

func (s Source) Kind() SourceKind { return s.kind }

// Path is empty for microphone sources.
func (s Source) Path() string { return s.path }

func (s Source) IsMicrophone() bool { return s.kind == SourceMicrophone }

func (s Source) String() string {
	if s.kind == SourceFile {
		return "file:" + s.path
	}
	return s.kind.String()
}

// Validate checks the source can be opened right now.
func (s Source) Validate() error {
	switch s.kind {
	case SourceMicrophone:
		return nil
	case SourceFile:
		if strings.TrimSpace(s.path) == "" {
			return errorsx.Configf("audio_file", "file source requires a path")
		}
		info, err := os.Stat(s.path)
		if err != nil {
			return errorsx.Wrap(fmt.Errorf("audio source %s: %w", s.path, err), errorsx.ReasonAudioSource)
		}
		if !info.Mode().IsRegular() {
			return errorsx.Wrap(fmt.Errorf("audio source %s: not a regular file", s.path), errorsx.ReasonAudioSource)
		}
		return nil
	default:
		return errorsx.Configf("audio_source", "no audio source selected")
	}
}
