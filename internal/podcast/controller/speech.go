package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voicecast/internal/domain/audio"
	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/playback"
	"voicecast/internal/podcast/store"
)

// PatchParams merges a partial parameter update. Out-of-range values are
// rejected and nothing changes.
func (c *Controllers) PatchParams(patch audio.Patch) error {
	return c.store.Dispatch(store.PatchParams{Patch: patch})
}

// ApplyPreset applies a named narration preset.
func (c *Controllers) ApplyPreset(name string) error {
	patch, err := audio.Preset(name)
	if err != nil {
		return err
	}
	return c.PatchParams(patch)
}

// GenerateAudio synthesizes the current script in the cloned voice and makes
// the result the current audio. The previous audio is released by the store.
func (c *Controllers) GenerateAudio(ctx context.Context) error {
	req, err := c.speechRequest(store.StepAudio)
	if err != nil {
		return err
	}
	session, err := c.begin(store.StepAudio)
	if err != nil {
		return err
	}

	clip, err := c.backend.GenerateAudio(ctx, req)
	if err != nil {
		return c.fail(store.StepAudio, session, err, audioMessage(err, MsgAudioFailed))
	}

	h := c.registry.Acquire(clip)
	slot := store.AudioSlot{URL: h.URL(), Handle: h}
	if ok, err := c.commit(store.StepAudio, store.AudioGenerated{Audio: slot, Session: session}); !ok {
		h.Release()
		return err
	}

	logrus.WithFields(logrus.Fields{
		"url":   h.URL(),
		"bytes": clip.Size(),
		"seed":  req.Seed,
	}).Info("audio generated")
	return nil
}

// Download requests a fresh rendition of the current script for saving and
// writes it to the output directory. Playback state is not touched.
func (c *Controllers) Download(ctx context.Context) (string, error) {
	req, err := c.speechRequest(store.StepDownload)
	if err != nil {
		return "", err
	}
	session, err := c.begin(store.StepDownload)
	if err != nil {
		return "", err
	}

	clip, err := c.backend.DownloadAudio(ctx, req)
	if err != nil {
		return "", c.fail(store.StepDownload, session, err, audioMessage(err, MsgDownloadFailed))
	}

	path, err := playback.SaveClip(c.opts.OutputDir, clip, DownloadFilename(req.Language, c.now()))
	if err != nil {
		return "", c.fail(store.StepDownload, session, err, fmt.Sprintf("Failed to save audio: %v", err))
	}
	if _, err := c.commit(store.StepDownload, store.Succeed{Step: store.StepDownload, Session: session}); err != nil {
		return "", err
	}

	logrus.WithField("path", path).Info("audio downloaded")
	return path, nil
}

// DownloadFilename is the name used when the backend does not suggest one.
func DownloadFilename(language string, at time.Time) string {
	if language == "" {
		language = "en"
	}
	return fmt.Sprintf("cloned_voice_%s_%s.wav", language, at.Format("20060102_150405"))
}

func (c *Controllers) speechRequest(step store.Step) (api.SpeechRequest, error) {
	st := c.store.State()
	text := st.CurrentScript()
	if strings.TrimSpace(text) == "" {
		return api.SpeechRequest{}, c.reject(step, MsgNoScript)
	}
	if st.VoiceID() == "" {
		return api.SpeechRequest{}, c.reject(step, MsgNoVoice)
	}
	return api.SpeechRequest{
		Text:     text,
		VoiceID:  st.VoiceID(),
		Language: st.Language,
		Params:   st.Params,
	}, nil
}

func audioMessage(err error, fallback string) string {
	var me *api.MalformedResponseError
	if errors.As(err, &me) {
		return MsgInvalidAudio
	}
	return Message(err, fallback)
}
