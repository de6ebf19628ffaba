package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "translation_from_audio.wav")
	data := []byte("RIFF\x00\x01\x02\x03 arbitrary \xff\xfe payload")

	if err := WriteFile(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected bytes preserved, got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := WriteFile(path, []byte("first payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteFile(path, []byte("2nd")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "2nd" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestSourceValidate(t *testing.T) {
	if err := Microphone().Validate(); err != nil {
		t.Fatalf("microphone: %v", err)
	}

	path := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := File(path).Validate(); err != nil {
		t.Fatalf("file: %v", err)
	}

	err := File(filepath.Join(t.TempDir(), "missing.wav")).Validate()
	if !errorsx.HasReason(err, errorsx.ReasonAudioSource) {
		t.Fatalf("expected audio source reason, got %v", err)
	}
	if err := File("").Validate(); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration reason for empty path, got %v", err)
	}
	if err := (Source{}).Validate(); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration reason for zero source, got %v", err)
	}
	if err := File(t.TempDir()).Validate(); !errorsx.HasReason(err, errorsx.ReasonAudioSource) {
		t.Fatalf("expected directory rejected, got %v", err)
	}
}

func TestWrapPCMHeader(t *testing.T) {
	pcm := make([]byte, 320)
	var buf bytes.Buffer
	if err := WrapPCM(&buf, PCMFormat{SampleRate: 16000}, pcm); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	out := buf.Bytes()
	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" || string(out[36:40]) != "data" {
		t.Fatalf("unexpected header %q", out[:44])
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("expected data size %d, got %d", len(pcm), got)
	}
}
