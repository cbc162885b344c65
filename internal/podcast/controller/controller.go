// Package controller sequences each podcast step: validate local state, mark
// the step loading, call the backend, then record the result or a
// user-facing error in the store.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/voice"
	"voicecast/internal/podcast/api"
	"voicecast/internal/podcast/playback"
	"voicecast/internal/podcast/store"
)

// User-facing fallbacks for failures without a server message.
const (
	MsgCloneFailed     = "Failed to clone voice. Please try again."
	MsgScriptFailed    = "Failed to generate script. Please try again."
	MsgAudioFailed     = "Failed to generate audio. Please try again."
	MsgDownloadFailed  = "Failed to download audio. Please try again."
	MsgWorkflowFailed  = "Workflow failed. Please try again."
	MsgInvalidAudio    = "Invalid audio response format"
	MsgNoVoiceFile     = "Please select a voice sample first."
	MsgNoPrompt        = "Please enter a script prompt."
	MsgNoScript        = "Please provide a script to convert to audio."
	MsgNoVoice         = "Please clone your voice first."
	MsgSessionExpired  = "Your session has expired. Please log in again."
	MsgBackendTimedOut = "The server took too long to respond. Please try again."
)

// Backend is the subset of the API client the controllers drive.
type Backend interface {
	CloneVoice(ctx context.Context, sample *voice.Sample) (*api.CloneResult, error)
	GenerateScript(ctx context.Context, req api.ScriptRequest) (*api.ScriptResult, error)
	GenerateAudio(ctx context.Context, req api.SpeechRequest) (*audio.Clip, error)
	DownloadAudio(ctx context.Context, req api.SpeechRequest) (*audio.Clip, error)
	RunCompleteWorkflow(ctx context.Context, req api.WorkflowRequest) (*api.WorkflowResult, error)
}

// Options tune the controllers.
type Options struct {
	Upload voice.UploadPolicy
	// StageInterval is how often the workflow label advances while the
	// combined request is in flight. Zero keeps it at the first stage.
	StageInterval time.Duration
	// OutputDir is where downloads are saved.
	OutputDir string
}

// Failure is returned by a step that ended in an error. Message is what was
// written to the store.
type Failure struct {
	Step    store.Step
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Controllers is the only writer of the session store.
type Controllers struct {
	backend  Backend
	store    *store.Store
	registry *playback.Registry
	opts     Options

	now func() time.Time
}

// New wires the controllers to a backend, a store and a playback registry.
func New(backend Backend, st *store.Store, reg *playback.Registry, opts Options) *Controllers {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Controllers{
		backend:  backend,
		store:    st,
		registry: reg,
		opts:     opts,
		now:      time.Now,
	}
}

// State returns the current store snapshot.
func (c *Controllers) State() store.State {
	return c.store.State()
}

// Subscribe forwards to the store.
func (c *Controllers) Subscribe(fn func(store.State)) func() {
	return c.store.Subscribe(fn)
}

// Message turns err into the text shown to the user. A server-supplied
// message wins; otherwise fallback is used.
func Message(err error, fallback string) string {
	var ve *api.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	var se *api.ServerError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		if errors.Is(err, api.ErrUnauthorized) {
			return MsgSessionExpired
		}
		return fallback
	}
	var ne *api.NetworkError
	if errors.As(err, &ne) && ne.Timeout() {
		return MsgBackendTimedOut
	}
	return fallback
}

// reject records a local validation failure without touching the network.
func (c *Controllers) reject(step store.Step, msg string) error {
	logrus.WithField("step", step.String()).Debug(msg)
	_ = c.store.Dispatch(store.Fail{Step: step, Message: msg, Session: c.store.State().Session})
	return &Failure{Step: step, Message: msg}
}

// fail records a backend failure for the request started in session.
func (c *Controllers) fail(step store.Step, session uint64, err error, msg string) error {
	logrus.WithFields(logrus.Fields{
		"step": step.String(),
	}).WithError(err).Warn("step failed")
	derr := c.store.Dispatch(store.Fail{Step: step, Message: msg, Session: session})
	if derr != nil && !errors.Is(derr, store.ErrStale) {
		logrus.WithError(derr).Error("failed to record step failure")
	}
	return &Failure{Step: step, Message: msg, Err: err}
}

// begin marks step loading and returns the session the request belongs to.
// ErrInFlight means the trigger should have been disabled; the state is left
// alone.
func (c *Controllers) begin(step store.Step) (uint64, error) {
	session, err := c.store.Begin(step)
	if err != nil {
		logrus.WithField("step", step.String()).WithError(err).Debug("step not started")
		return 0, err
	}
	return session, nil
}

// commit records a result. It reports false when nothing was stored, which
// includes a result dropped because Reset happened while it was in flight.
func (c *Controllers) commit(step store.Step, a store.Action) (bool, error) {
	err := c.store.Dispatch(a)
	if errors.Is(err, store.ErrStale) {
		logrus.WithField("step", step.String()).Debug("result discarded after reset")
		return false, nil
	}
	return err == nil, err
}
