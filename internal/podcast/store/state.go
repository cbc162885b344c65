package store

import (
	"strings"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/script"
	"voicecast/internal/domain/voice"
	"voicecast/internal/podcast/playback"
)

// Step identifies one kind of backend request.
type Step int

const (
	StepVoice Step = iota
	StepScript
	StepAudio
	StepDownload
	StepWorkflow
)

func (s Step) String() string {
	switch s {
	case StepVoice:
		return "voice"
	case StepScript:
		return "script"
	case StepAudio:
		return "audio"
	case StepDownload:
		return "download"
	case StepWorkflow:
		return "workflow"
	default:
		return "unknown"
	}
}

// Stage is the coarse progress label of the combined workflow.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageCloning          Stage = "cloning"
	StageGeneratingScript Stage = "generating_script"
	StageGeneratingAudio  Stage = "generating_audio"
	StageComplete         Stage = "complete"
)

// Stages lists the workflow stages in order.
var Stages = []Stage{StageIdle, StageCloning, StageGeneratingScript, StageGeneratingAudio, StageComplete}

func (s Stage) index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Before reports whether s comes strictly earlier than other.
func (s Stage) Before(other Stage) bool {
	return s.index() < other.index()
}

// Outcome is the request status of one step.
type Outcome struct {
	Loading bool
	Error   string
}

// AudioSlot is the current audio. URL is either the locator of Handle or a
// remote address returned by the backend, in which case Handle is nil.
type AudioSlot struct {
	URL    string
	Handle *playback.Handle
}

// Empty reports whether there is no current audio.
func (a AudioSlot) Empty() bool {
	return a.URL == "" && a.Handle == nil
}

// Workflow is the status of the combined run.
type Workflow struct {
	Stage   Stage
	Running bool
	Error   string
}

// Defaults are the values a fresh or reset session starts from.
type Defaults struct {
	Params   audio.Params
	Language string
}

// State is a snapshot of the whole session. Values are treated as immutable;
// transitions return a new State.
type State struct {
	// Version increases by one with every committed transition.
	Version uint64
	// Session changes on every Reset. Results carry the session they were
	// requested in so that late responses cannot leak into a fresh start.
	Session uint64

	VoiceFile *voice.Sample
	Voice     *voice.Reference

	Prompt          string
	Language        string
	ScriptOptions   script.Options
	GeneratedScript string
	// ScriptEdit is the user's manual text. When set it wins over GeneratedScript.
	ScriptEdit string

	Params audio.Params
	Audio  AudioSlot

	VoiceCloning     Outcome
	ScriptGeneration Outcome
	AudioGeneration  Outcome
	Download         Outcome

	Workflow Workflow

	defaults Defaults
}

// Initial returns the starting state for defaults.
func Initial(d Defaults) State {
	if d.Language == "" {
		d.Language = "en"
	}
	return State{
		Language: d.Language,
		Params:   d.Params,
		Workflow: Workflow{Stage: StageIdle},
		defaults: d,
	}
}

// Defaults returns the values Reset goes back to.
func (s State) Defaults() Defaults {
	return s.defaults
}

// CurrentScript is the text audio generation would use.
func (s State) CurrentScript() string {
	if s.ScriptEdit != "" {
		return s.ScriptEdit
	}
	return s.GeneratedScript
}

// VoiceID returns the cloned voice id, or "" when there is none.
func (s State) VoiceID() string {
	if s.Voice == nil {
		return ""
	}
	return s.Voice.ID
}

// Outcome returns the status slot of step.
func (s State) Outcome(step Step) Outcome {
	switch step {
	case StepVoice:
		return s.VoiceCloning
	case StepScript:
		return s.ScriptGeneration
	case StepAudio:
		return s.AudioGeneration
	case StepDownload:
		return s.Download
	case StepWorkflow:
		return Outcome{Loading: s.Workflow.Running, Error: s.Workflow.Error}
	}
	return Outcome{}
}

// Busy reports whether any request is in flight.
func (s State) Busy() bool {
	return s.VoiceCloning.Loading || s.ScriptGeneration.Loading ||
		s.AudioGeneration.Loading || s.Download.Loading || s.Workflow.Running
}

// CanCloneVoice is the enabled state of the clone action.
func (s State) CanCloneVoice() bool {
	return s.VoiceFile != nil && !s.VoiceCloning.Loading && !s.Workflow.Running
}

// CanGenerateScript is the enabled state of the script action.
func (s State) CanGenerateScript() bool {
	return strings.TrimSpace(s.Prompt) != "" && !s.ScriptGeneration.Loading && !s.Workflow.Running
}

// CanGenerateAudio is the enabled state of the audio action.
func (s State) CanGenerateAudio() bool {
	return s.VoiceID() != "" && strings.TrimSpace(s.CurrentScript()) != "" &&
		!s.AudioGeneration.Loading && !s.Workflow.Running
}

// CanRunWorkflow is the enabled state of the combined action.
func (s State) CanRunWorkflow() bool {
	return s.VoiceFile != nil && strings.TrimSpace(s.Prompt) != "" && !s.Busy()
}

func (s *State) outcome(step Step) *Outcome {
	switch step {
	case StepVoice:
		return &s.VoiceCloning
	case StepScript:
		return &s.ScriptGeneration
	case StepAudio:
		return &s.AudioGeneration
	case StepDownload:
		return &s.Download
	}
	return nil
}
