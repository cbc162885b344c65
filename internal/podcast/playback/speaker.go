package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"

	"voicecast/internal/domain/audio"
)

// SpeakerPlayer plays clips on the default output device through beep.
type SpeakerPlayer struct {
	volume float64

	mu         sync.Mutex
	isPlaying  bool
	ctrl       *beep.Ctrl
	streamer   beep.StreamSeekCloser
	stopped    chan struct{}
	sampleRate beep.SampleRate
}

func newSpeakerPlayer(config Config) *SpeakerPlayer {
	return &SpeakerPlayer{volume: config.Volume}
}

func (p *SpeakerPlayer) Play(ctx context.Context, clip *audio.Clip) error {
	streamer, format, err := decode(clip)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.sampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			p.mu.Unlock()
			streamer.Close()
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		p.sampleRate = format.SampleRate
	}

	var source beep.Streamer = streamer
	if p.volume != 0 {
		source = &effects.Volume{Streamer: streamer, Base: 2, Volume: p.volume}
	}
	p.streamer = streamer
	p.ctrl = &beep.Ctrl{Streamer: source, Paused: false}
	p.isPlaying = true
	stopped := make(chan struct{})
	p.stopped = stopped
	done := make(chan struct{})
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		close(done)
	})))
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"format":      clip.Format(),
		"sample_rate": format.SampleRate,
		"bytes":       clip.Size(),
	}).Debug("playing clip")

	select {
	case <-done:
	case <-stopped:
	case <-ctx.Done():
		speaker.Clear()
	}

	p.mu.Lock()
	if p.stopped == stopped || p.stopped == nil {
		p.isPlaying = false
		p.streamer = nil
		p.ctrl = nil
		p.stopped = nil
	}
	p.mu.Unlock()
	streamer.Close()
	return ctx.Err()
}

func (p *SpeakerPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
	speaker.Clear()
	if p.stopped != nil {
		close(p.stopped)
		p.stopped = nil
	}
	p.isPlaying = false
	return nil
}

func (p *SpeakerPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPlaying
}

func decode(clip *audio.Clip) (beep.StreamSeekCloser, beep.Format, error) {
	if clip == nil || clip.Size() == 0 {
		return nil, beep.Format{}, fmt.Errorf("nothing to play")
	}
	r := bytes.NewReader(clip.Data)

	switch f := clip.Format(); f {
	case "wav":
		s, format, err := wav.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode WAV: %w", err)
		}
		return s, format, nil
	case "mp3":
		s, format, err := mp3.Decode(io.NopCloser(r))
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode MP3: %w", err)
		}
		return s, format, nil
	default:
		return nil, beep.Format{}, fmt.Errorf("cannot play %q audio, save it instead", f)
	}
}
