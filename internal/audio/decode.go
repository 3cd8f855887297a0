package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyAudio is returned when there is nothing to decode.
var ErrEmptyAudio = errors.New("audio data is empty")

// Decoder converts encoded audio to 16-bit little-endian PCM.
type Decoder struct {
	binary     string
	sampleRate int
	channels   int
	timeout    time.Duration
}

// NewDecoder returns an ffmpeg decoder producing PCM at sampleRate with the
// given channel count. An empty binary means "ffmpeg" from PATH.
func NewDecoder(binary string, sampleRate, channels int) *Decoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Decoder{
		binary:     binary,
		sampleRate: sampleRate,
		channels:   channels,
		timeout:    30 * time.Second,
	}
}

// Available reports whether the ffmpeg binary can be found.
func (d *Decoder) Available() error {
	if _, err := exec.LookPath(d.binary); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH (install it with your package manager): %w", err)
	}
	return nil
}

// Decode converts audio in the given container format ("mp3", "wav") to raw
// PCM.
func (d *Decoder) Decode(ctx context.Context, audio []byte, format string) ([]byte, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error"}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args,
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(d.sampleRate),
		"-ac", strconv.Itoa(d.channels),
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg decode timeout: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no audio, stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
