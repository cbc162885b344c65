package controller

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"voicecast/internal/domain/voice"
	"voicecast/internal/podcast/store"
)

// SelectVoiceFile checks sample against the upload policy and makes it the
// current sample. A rejected file leaves the previous selection in place.
func (c *Controllers) SelectVoiceFile(sample *voice.Sample) error {
	if err := c.opts.Upload.Check(sample); err != nil {
		return c.reject(store.StepVoice, err.Error())
	}
	return c.store.Dispatch(store.SelectVoiceFile{Sample: sample})
}

// RemoveVoiceFile drops the sample and the voice cloned from it.
func (c *Controllers) RemoveVoiceFile() error {
	return c.store.Dispatch(store.RemoveVoiceFile{})
}

// UseVoice adopts a voice id cloned in an earlier session.
func (c *Controllers) UseVoice(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return c.reject(store.StepVoice, MsgNoVoice)
	}
	return c.store.Dispatch(store.SetVoice{Voice: &voice.Reference{ID: id}})
}

// CloneVoice uploads the selected sample and stores the returned voice.
func (c *Controllers) CloneVoice(ctx context.Context) error {
	sample := c.store.State().VoiceFile
	if sample == nil {
		return c.reject(store.StepVoice, MsgNoVoiceFile)
	}
	if err := c.opts.Upload.Check(sample); err != nil {
		return c.reject(store.StepVoice, err.Error())
	}
	session, err := c.begin(store.StepVoice)
	if err != nil {
		return err
	}

	res, err := c.backend.CloneVoice(ctx, sample)
	if err != nil {
		return c.fail(store.StepVoice, session, err, Message(err, MsgCloneFailed))
	}

	ref := &voice.Reference{
		ID:             res.VoiceID,
		SourceFileName: sample.Name,
		Analysis:       res.Analysis,
	}
	if ok, err := c.commit(store.StepVoice, store.VoiceCloned{Sample: sample, Voice: ref, Session: session}); !ok {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"voice_id": ref.ID,
		"file":     sample.Name,
	}).Info("voice cloned")
	return nil
}
