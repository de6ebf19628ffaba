package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

// WriteFile stores data at path unchanged. The bytes land in a temp file in
// the same directory first and are renamed into place, so a failed write
// never leaves a truncated artifact behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorsx.Wrap(fmt.Errorf("create output dir: %w", err), errorsx.ReasonAudioWrite)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("create temp file: %w", err), errorsx.ReasonAudioWrite)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errorsx.Wrap(fmt.Errorf("write %s: %w", path, err), errorsx.ReasonAudioWrite)
	}
	if err := tmp.Close(); err != nil {
		return errorsx.Wrap(fmt.Errorf("close %s: %w", path, err), errorsx.ReasonAudioWrite)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errorsx.Wrap(fmt.Errorf("chmod %s: %w", path, err), errorsx.ReasonAudioWrite)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errorsx.Wrap(fmt.Errorf("rename into %s: %w", path, err), errorsx.ReasonAudioWrite)
	}
	return nil
}

// PCMFormat describes raw little-endian PCM.
type PCMFormat struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

// WrapPCM prefixes raw PCM with a canonical 44-byte RIFF/WAVE header.
// Providers that stream headerless PCM use it so their Completed audio is a
// playable wav file.
func WrapPCM(w io.Writer, format PCMFormat, pcm []byte) error {
	if format.Channels == 0 {
		format.Channels = 1
	}
	if format.BitsPerSample == 0 {
		format.BitsPerSample = 16
	}
	blockAlign := format.Channels * format.BitsPerSample / 8
	byteRate := format.SampleRate * uint32(blockAlign)
	size := uint32(len(pcm))

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		size + 36,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1),
		format.Channels,
		format.SampleRate,
		byteRate,
		blockAlign,
		format.BitsPerSample,
		[4]byte{'d', 'a', 't', 'a'},
		size,
	}
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	_, err := w.Write(pcm)
	return err
}
