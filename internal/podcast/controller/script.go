package controller

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"voicecast/internal/domain/script"
	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/store"
)

// SetPrompt replaces the script prompt.
func (c *Controllers) SetPrompt(text string) error {
	return c.store.Dispatch(store.SetPrompt{Text: text})
}

// SetLanguage replaces the language used for scripts and downloads.
func (c *Controllers) SetLanguage(code string) error {
	return c.store.Dispatch(store.SetLanguage{Code: strings.TrimSpace(code)})
}

// SetScriptOptions replaces the content type, tone and duration hints.
func (c *Controllers) SetScriptOptions(opts script.Options) error {
	return c.store.Dispatch(store.SetScriptOptions{Options: opts})
}

// EditScript stores a manual script that takes precedence over the generated one.
func (c *Controllers) EditScript(text string) error {
	return c.store.Dispatch(store.EditScript{Text: text})
}

// ClearScript empties the prompt and any script text.
func (c *Controllers) ClearScript() error {
	return c.store.Dispatch(store.ClearScript{})
}

// GenerateScript asks the backend for a script for the current prompt.
func (c *Controllers) GenerateScript(ctx context.Context) error {
	st := c.store.State()
	prompt := strings.TrimSpace(st.Prompt)
	if prompt == "" {
		return c.reject(store.StepScript, MsgNoPrompt)
	}
	session, err := c.begin(store.StepScript)
	if err != nil {
		return err
	}

	res, err := c.backend.GenerateScript(ctx, api.ScriptRequest{
		Prompt:   prompt,
		Language: st.Language,
		Options:  st.ScriptOptions,
	})
	if err != nil {
		return c.fail(store.StepScript, session, err, Message(err, MsgScriptFailed))
	}

	text, ok := res.Content()
	if !ok {
		logrus.WithField("step", store.StepScript.String()).Warn("script response carried no text")
		text = script.Placeholder
	}
	if ok, err := c.commit(store.StepScript, store.ScriptGenerated{Text: text, Session: session}); !ok {
		return err
	}

	stats := script.Analyze(text)
	logrus.WithFields(logrus.Fields{
		"words":    stats.Words,
		"language": st.Language,
	}).Info("script generated")
	return nil
}
