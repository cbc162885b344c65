package playback

import (
	"fmt"
	"os"
)

type EngineType string

const (
	EngineTypeSilent  EngineType = "silent"
	EngineTypeSpeaker EngineType = "speaker"
	EngineTypeAuto    EngineType = "auto" // speaker unless the environment has no audio
)

func (e EngineType) String() string {
	return string(e)
}

// NewPlayer creates a Player based on the provided config.
func NewPlayer(config Config) (Player, error) {
	if config.Type == "" || config.Type == EngineTypeAuto.String() {
		config.Type = bestEngineForEnvironment().String()
	}

	switch config.Type {
	case EngineTypeSilent.String():
		return NewSilentPlayer(), nil
	case EngineTypeSpeaker.String():
		return newSpeakerPlayer(config), nil
	default:
		return nil, fmt.Errorf("unsupported playback engine: %s", config.Type)
	}
}

// bestEngineForEnvironment falls back to silent playback on CI and headless
// sessions where opening an audio device would fail.
func bestEngineForEnvironment() EngineType {
	if _, ok := os.LookupEnv("CI"); ok {
		return EngineTypeSilent
	}
	if _, ok := os.LookupEnv("VOICECAST_NO_AUDIO"); ok {
		return EngineTypeSilent
	}
	return EngineTypeSpeaker
}
