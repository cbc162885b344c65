package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/store"
)

// optimistic labels shown while the single combined request runs
var workflowStages = []store.Stage{store.StageGeneratingScript, store.StageGeneratingAudio}

// RunWorkflow submits sample and prompt in one request and lets the backend
// clone, write and synthesize. The stage label only reaches complete when
// the response arrives.
func (c *Controllers) RunWorkflow(ctx context.Context) error {
	st := c.store.State()
	if st.VoiceFile == nil {
		return c.reject(store.StepWorkflow, MsgNoVoiceFile)
	}
	if err := c.opts.Upload.Check(st.VoiceFile); err != nil {
		return c.reject(store.StepWorkflow, err.Error())
	}
	prompt := strings.TrimSpace(st.Prompt)
	if prompt == "" {
		return c.reject(store.StepWorkflow, MsgNoPrompt)
	}
	session, err := c.begin(store.StepWorkflow)
	if err != nil {
		return err
	}

	stop := c.advanceStages()
	params := st.Params
	res, err := c.backend.RunCompleteWorkflow(ctx, api.WorkflowRequest{
		Sample:   st.VoiceFile,
		Prompt:   prompt,
		Language: st.Language,
		Params:   &params,
	})
	stop()
	if err != nil {
		return c.fail(store.StepWorkflow, session, err, Message(err, MsgWorkflowFailed))
	}

	done := store.CompleteWorkflow{
		Sample:  st.VoiceFile,
		VoiceID: res.VoiceID,
		Script:  res.Script,
		Session: session,
	}
	switch {
	case res.Audio != nil:
		h := c.registry.Acquire(res.Audio)
		done.Audio = &store.AudioSlot{URL: h.URL(), Handle: h}
	case res.AudioURL != nil:
		done.Audio = &store.AudioSlot{URL: *res.AudioURL}
	}

	if ok, err := c.commit(store.StepWorkflow, done); !ok {
		if done.Audio != nil {
			done.Audio.Handle.Release()
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"voice":  res.VoiceID != nil,
		"script": res.Script != nil,
		"audio":  done.Audio != nil,
	}).Info("workflow complete")
	return nil
}

// advanceStages moves the label forward on a ticker until the returned stop
// function is called. Stop waits for the ticker goroutine to exit.
func (c *Controllers) advanceStages() (stop func()) {
	if c.opts.StageInterval <= 0 {
		return func() {}
	}

	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(c.opts.StageInterval)
		defer ticker.Stop()

		for _, stage := range workflowStages {
			select {
			case <-quit:
				return
			case <-ticker.C:
				_ = c.store.Dispatch(store.AdvanceStage{Stage: stage})
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
		})
	}
}

// Reset starts over: every field returns to its initial value and the
// current audio is released.
func (c *Controllers) Reset() error {
	return c.store.Dispatch(store.Reset{})
}
