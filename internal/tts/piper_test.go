package tts

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

// fakePiper writes an executable script standing in for the piper binary.
func fakePiper(t *testing.T, body string) (binary, model string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	dir := t.TempDir()
	binary = filepath.Join(dir, "piper")
	script := "#!/bin/sh\necho \"$@\" > \"$(dirname \"$0\")/args.txt\"\ncat > /dev/null\n" + body + "\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil { //nolint:gosec
		t.Fatal(err)
	}
	model = filepath.Join(dir, "voice.onnx")
	if err := os.WriteFile(model, []byte("fake model"), 0o644); err != nil {
		t.Fatal(err)
	}
	return binary, model
}

func TestPiper_Synthesize(t *testing.T) {
	binary, model := fakePiper(t, "printf 'abcd'")

	p, err := NewPiper(PiperConfig{Binary: binary, Model: model, SampleRate: 16000})
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}
	if p.Format() != "wav" {
		t.Errorf("Format() = %q", p.Format())
	}

	audio, err := p.Synthesize(context.Background(), ttypes.SynthesisRequest{
		Text:    "hello",
		VoiceID: "3",
		Speed:   ttypes.SpeedFast,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) != 48 || !bytes.HasPrefix(audio, []byte("RIFF")) || !bytes.HasSuffix(audio, []byte("abcd")) {
		t.Errorf("unexpected wav output % x", audio)
	}

	args, err := os.ReadFile(filepath.Join(filepath.Dir(binary), "args.txt"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	for _, want := range []string{"--output-raw", "--length_scale 0.80", "--speaker 3", "--model " + model} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestPiper_Failure(t *testing.T) {
	binary, model := fakePiper(t, "echo boom >&2\nexit 3")

	p, err := NewPiper(PiperConfig{Binary: binary, Model: model})
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}

	_, err = p.Synthesize(context.Background(), ttypes.SynthesisRequest{Text: "hello"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Message != "boom" {
		t.Errorf("Message = %q, want %q", pe.Message, "boom")
	}
}

func TestPiper_NoOutput(t *testing.T) {
	binary, model := fakePiper(t, "true")

	p, err := NewPiper(PiperConfig{Binary: binary, Model: model})
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), ttypes.SynthesisRequest{Text: "hello"}); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestNewPiper_Validation(t *testing.T) {
	binary, _ := fakePiper(t, "true")

	tests := []struct {
		name string
		cfg  PiperConfig
	}{
		{"missing binary", PiperConfig{Binary: "/non/existent/piper", Model: "x"}},
		{"missing model path", PiperConfig{Binary: binary}},
		{"non-existent model", PiperConfig{Binary: binary, Model: "/non/existent/model.onnx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPiper(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLengthScale(t *testing.T) {
	tests := []struct {
		speed   ttypes.Speed
		whisper bool
		want    float64
	}{
		{ttypes.SpeedNormal, false, 1.0},
		{ttypes.SpeedFast, false, 0.8},
		{ttypes.SpeedSlow, false, 1.25},
		{ttypes.SpeedNormal, true, 1 / 0.9},
	}
	for _, tt := range tests {
		if got := lengthScale(tt.speed, tt.whisper); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("lengthScale(%s, %v) = %v, want %v", tt.speed, tt.whisper, got, tt.want)
		}
	}
}
