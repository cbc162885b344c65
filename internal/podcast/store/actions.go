package store

import (
	"errors"
	"fmt"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/script"
	"voicecast/internal/domain/voice"
)

// ErrInFlight is returned when a step is started while it, or a run that
// would race with it, is already loading.
var ErrInFlight = errors.New("request already in progress")

// ErrStale is returned for a result requested before the last Reset.
var ErrStale = errors.New("result belongs to a previous session")

func checkSession(s State, session uint64) error {
	if s.Session != session {
		return ErrStale
	}
	return nil
}

// Action is a single state transition. The set of actions is closed.
type Action interface {
	apply(State) (State, error)
}

// Reduce applies a to s and returns the next state. It has no side effects;
// on error s is returned unchanged.
func Reduce(s State, a Action) (State, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	next.Version = s.Version + 1
	return next, nil
}

// SelectVoiceFile records the chosen sample. Picking a different file drops
// the cloned voice since it belongs to the previous sample.
type SelectVoiceFile struct {
	Sample *voice.Sample
}

func (a SelectVoiceFile) apply(s State) (State, error) {
	if a.Sample == nil {
		return s, errors.New("no voice sample given")
	}
	if s.VoiceFile != a.Sample {
		s.Voice = nil
	}
	s.VoiceFile = a.Sample
	s.VoiceCloning.Error = ""
	return s, nil
}

// RemoveVoiceFile clears the sample together with the voice cloned from it.
type RemoveVoiceFile struct{}

func (RemoveVoiceFile) apply(s State) (State, error) {
	s.VoiceFile = nil
	s.Voice = nil
	s.VoiceCloning.Error = ""
	return s, nil
}

// SetVoice stores a cloned voice reference.
type SetVoice struct {
	Voice *voice.Reference
}

func (a SetVoice) apply(s State) (State, error) {
	s.Voice = a.Voice
	return s, nil
}

// SetPrompt replaces the script prompt.
type SetPrompt struct {
	Text string
}

func (a SetPrompt) apply(s State) (State, error) {
	s.Prompt = a.Text
	return s, nil
}

// SetLanguage replaces the script language code.
type SetLanguage struct {
	Code string
}

func (a SetLanguage) apply(s State) (State, error) {
	if a.Code == "" {
		return s, errors.New("language code must not be empty")
	}
	s.Language = a.Code
	return s, nil
}

// SetScriptOptions replaces the optional script hints.
type SetScriptOptions struct {
	Options script.Options
}

func (a SetScriptOptions) apply(s State) (State, error) {
	s.ScriptOptions = a.Options
	return s, nil
}

// SetGeneratedScript stores backend script text and drops any manual edit.
type SetGeneratedScript struct {
	Text string
}

func (a SetGeneratedScript) apply(s State) (State, error) {
	s.GeneratedScript = a.Text
	s.ScriptEdit = ""
	return s, nil
}

// EditScript stores the user's manual version of the script.
type EditScript struct {
	Text string
}

func (a EditScript) apply(s State) (State, error) {
	s.ScriptEdit = a.Text
	return s, nil
}

// ClearScript empties the prompt, the script and the script error.
type ClearScript struct{}

func (ClearScript) apply(s State) (State, error) {
	s.Prompt = ""
	s.GeneratedScript = ""
	s.ScriptEdit = ""
	s.ScriptGeneration.Error = ""
	return s, nil
}

// PatchParams merges a partial update into the audio parameters. Out-of-range
// values are rejected and leave the parameters untouched.
type PatchParams struct {
	Patch audio.Patch
}

func (a PatchParams) apply(s State) (State, error) {
	params, err := s.Params.Apply(a.Patch)
	if err != nil {
		return s, err
	}
	s.Params = params
	return s, nil
}

// SetAudio replaces the current audio slot.
type SetAudio struct {
	Audio AudioSlot
}

func (a SetAudio) apply(s State) (State, error) {
	s.Audio = a.Audio
	return s, nil
}

// Begin marks step as loading and clears its previous error. Starting a
// script request also clears the previous script text. Starting the combined
// workflow is refused while any step is loading, and single steps are
// refused while the workflow runs.
type Begin struct {
	Step Step
}

func (a Begin) apply(s State) (State, error) {
	if a.Step == StepWorkflow {
		if s.Busy() {
			return s, fmt.Errorf("%s: %w", a.Step, ErrInFlight)
		}
		s.Workflow = Workflow{Stage: StageCloning, Running: true}
		return s, nil
	}

	out := s.outcome(a.Step)
	if out == nil {
		return s, fmt.Errorf("unknown step %d", a.Step)
	}
	if out.Loading || s.Workflow.Running {
		return s, fmt.Errorf("%s: %w", a.Step, ErrInFlight)
	}
	out.Loading = true
	out.Error = ""
	if a.Step == StepScript {
		s.GeneratedScript = ""
		s.ScriptEdit = ""
	}
	return s, nil
}

// Succeed clears the loading flag of a single step.
type Succeed struct {
	Step    Step
	Session uint64
}

func (a Succeed) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	out := s.outcome(a.Step)
	if out == nil {
		return s, fmt.Errorf("step %s cannot succeed on its own", a.Step)
	}
	out.Loading = false
	out.Error = ""
	return s, nil
}

// VoiceCloned finishes a clone request. The voice is kept only when Sample is
// still the selected file; otherwise the result belongs to a removed sample.
type VoiceCloned struct {
	Sample  *voice.Sample
	Voice   *voice.Reference
	Session uint64
}

func (a VoiceCloned) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	s.VoiceCloning = Outcome{}
	if s.VoiceFile != nil && s.VoiceFile == a.Sample {
		s.Voice = a.Voice
	}
	return s, nil
}

// ScriptGenerated finishes a script request.
type ScriptGenerated struct {
	Text    string
	Session uint64
}

func (a ScriptGenerated) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	s.ScriptGeneration = Outcome{}
	s.GeneratedScript = a.Text
	s.ScriptEdit = ""
	return s, nil
}

// AudioGenerated finishes an audio request and replaces the current audio.
// A stale result is refused and the caller keeps ownership of its handle.
type AudioGenerated struct {
	Audio   AudioSlot
	Session uint64
}

func (a AudioGenerated) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	s.AudioGeneration = Outcome{}
	s.Audio = a.Audio
	return s, nil
}

// Fail clears the loading flag of step and records a user-facing message.
// It is also used for validation failures that never started a request.
type Fail struct {
	Step    Step
	Message string
	Session uint64
}

func (a Fail) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	if a.Step == StepWorkflow {
		s.Workflow.Running = false
		s.Workflow.Error = a.Message
		return s, nil
	}
	out := s.outcome(a.Step)
	if out == nil {
		return s, fmt.Errorf("unknown step %d", a.Step)
	}
	out.Loading = false
	out.Error = a.Message
	return s, nil
}

// AdvanceStage moves the workflow label forward. It is ignored unless the
// workflow is running, and it never moves backwards or reaches complete.
type AdvanceStage struct {
	Stage Stage
}

func (a AdvanceStage) apply(s State) (State, error) {
	if !s.Workflow.Running || a.Stage == StageComplete || !s.Workflow.Stage.Before(a.Stage) {
		return s, nil
	}
	s.Workflow.Stage = a.Stage
	return s, nil
}

// CompleteWorkflow applies the parts of a combined run that the backend
// returned and marks the run complete. Nil fields leave state untouched. The
// voice is kept only while Sample, the file the run uploaded, is still
// selected.
type CompleteWorkflow struct {
	Sample  *voice.Sample
	VoiceID *string
	Script  *string
	Audio   *AudioSlot
	Session uint64
}

func (a CompleteWorkflow) apply(s State) (State, error) {
	if err := checkSession(s, a.Session); err != nil {
		return s, err
	}
	if !s.Workflow.Running {
		return s, errors.New("workflow is not running")
	}
	if a.VoiceID != nil && s.VoiceFile != nil && s.VoiceFile == a.Sample {
		s.Voice = &voice.Reference{ID: *a.VoiceID, SourceFileName: a.Sample.Name}
	}
	if a.Script != nil {
		s.GeneratedScript = *a.Script
		s.ScriptEdit = ""
	}
	if a.Audio != nil {
		s.Audio = *a.Audio
	}
	s.Workflow = Workflow{Stage: StageComplete}
	return s, nil
}

// Reset returns every field to its initial value and opens a new session.
type Reset struct{}

func (Reset) apply(s State) (State, error) {
	next := Initial(s.defaults)
	next.Session = s.Session + 1
	return next, nil
}
