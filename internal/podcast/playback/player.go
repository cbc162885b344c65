// Package playback owns generated audio once it leaves the API client: the
// ephemeral references the session hands out, local playback and saving.
package playback

import (
	"context"

	"voicecast/internal/domain/audio"
)

// Config selects and tunes a Player.
type Config struct {
	Type string
	// Volume is a gain in beep's exponential units; 0 leaves the clip untouched.
	Volume float64
}

// Player plays a clip to completion or until ctx is cancelled.
type Player interface {
	Play(ctx context.Context, clip *audio.Clip) error
	Stop() error
	IsPlaying() bool
}
