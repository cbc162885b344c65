package playback

import (
	"context"
	"sync"

	"voicecast/internal/domain/audio"
)

// SilentPlayer records what it was asked to play without touching an audio
// device. It is used headless and in tests.
type SilentPlayer struct {
	mu      sync.Mutex
	playing bool
	played  []*audio.Clip
}

func NewSilentPlayer() *SilentPlayer {
	return &SilentPlayer{}
}

func (s *SilentPlayer) Play(ctx context.Context, clip *audio.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, clip)
	return nil
}

func (s *SilentPlayer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

func (s *SilentPlayer) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Played returns the clips played so far.
func (s *SilentPlayer) Played() []*audio.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*audio.Clip(nil), s.played...)
}
