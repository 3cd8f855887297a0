package audio

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Lazy opens the audio device on first use, so processes that only queue a
// message never touch it.
type Lazy struct {
	config PlayerConfig
	logger *log.Logger

	once   sync.Once
	player *Player
	err    error
}

// NewLazy returns a player that is constructed by the first Play.
func NewLazy(config PlayerConfig, logger *log.Logger) *Lazy {
	return &Lazy{config: config, logger: logger}
}

// Play implements the player contract.
func (l *Lazy) Play(ctx context.Context, audio []byte, format string) error {
	l.once.Do(func() {
		l.player, l.err = NewPlayer(l.config, l.logger)
	})
	if l.err != nil {
		return l.err
	}
	return l.player.Play(ctx, audio, format)
}

// Close releases the device if it was opened.
func (l *Lazy) Close() error {
	if l.player == nil {
		return nil
	}
	return l.player.Close()
}
