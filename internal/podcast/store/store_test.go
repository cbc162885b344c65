package store

import (
	"errors"
	"sync"
	"testing"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/voice"
	"voicecast/internal/podcast/playback"
)

func testDefaults() Defaults {
	return Defaults{Params: audio.DefaultParams(), Language: "en"}
}

func ptr[T any](v T) *T { return &v }

func TestInitialState(t *testing.T) {
	s := Initial(testDefaults())
	if s.Language != "en" || s.Params != audio.DefaultParams() {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.Workflow.Stage != StageIdle || s.Busy() {
		t.Fatalf("fresh state should be idle, got %+v", s.Workflow)
	}
	if s.CanCloneVoice() || s.CanGenerateScript() || s.CanGenerateAudio() || s.CanRunWorkflow() {
		t.Fatal("no action should be enabled on a fresh state")
	}
}

func TestSelectAndRemoveVoiceFile(t *testing.T) {
	s := Initial(testDefaults())
	first := voice.SampleFromBytes("a.wav", []byte("x"))
	s, _ = Reduce(s, SelectVoiceFile{Sample: first})
	s, _ = Reduce(s, SetVoice{Voice: &voice.Reference{ID: "v1"}})

	s2, _ := Reduce(s, SelectVoiceFile{Sample: first})
	if s2.VoiceID() != "v1" {
		t.Fatal("reselecting the same sample should keep the voice")
	}

	s3, _ := Reduce(s, SelectVoiceFile{Sample: voice.SampleFromBytes("b.wav", []byte("y"))})
	if s3.VoiceID() != "" {
		t.Fatal("a new sample must drop the old voice")
	}

	s4, _ := Reduce(s, RemoveVoiceFile{})
	if s4.VoiceFile != nil || s4.Voice != nil {
		t.Fatal("remove should clear file and voice")
	}
}

func TestBeginGuardsInFlight(t *testing.T) {
	s := Initial(testDefaults())
	s, err := Reduce(s, Begin{Step: StepVoice})
	if err != nil || !s.VoiceCloning.Loading {
		t.Fatalf("Begin: %v %+v", err, s.VoiceCloning)
	}
	if _, err := Reduce(s, Begin{Step: StepVoice}); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second Begin err = %v", err)
	}
	if _, err := Reduce(s, Begin{Step: StepWorkflow}); !errors.Is(err, ErrInFlight) {
		t.Fatalf("workflow during clone err = %v", err)
	}
	// other single steps are independent
	if _, err := Reduce(s, Begin{Step: StepScript}); err != nil {
		t.Fatalf("script during clone err = %v", err)
	}

	s, _ = Reduce(s, Succeed{Step: StepVoice})
	s, err = Reduce(s, Begin{Step: StepWorkflow})
	if err != nil || !s.Workflow.Running || s.Workflow.Stage != StageCloning {
		t.Fatalf("Begin workflow: %v %+v", err, s.Workflow)
	}
	if _, err := Reduce(s, Begin{Step: StepAudio}); !errors.Is(err, ErrInFlight) {
		t.Fatalf("audio during workflow err = %v", err)
	}
}

func TestBeginScriptClearsPreviousText(t *testing.T) {
	s := Initial(testDefaults())
	s, _ = Reduce(s, SetGeneratedScript{Text: "old"})
	s, _ = Reduce(s, EditScript{Text: "edited"})
	s, _ = Reduce(s, Fail{Step: StepScript, Message: "earlier"})

	s, _ = Reduce(s, Begin{Step: StepScript})
	if s.CurrentScript() != "" || s.ScriptGeneration.Error != "" {
		t.Fatalf("Begin should clear script and error, got %q %q", s.CurrentScript(), s.ScriptGeneration.Error)
	}
}

func TestFailRecordsMessage(t *testing.T) {
	s := Initial(testDefaults())
	s, _ = Reduce(s, Begin{Step: StepAudio})
	s, _ = Reduce(s, Fail{Step: StepAudio, Message: "boom"})
	if s.AudioGeneration.Loading || s.AudioGeneration.Error != "boom" {
		t.Fatalf("got %+v", s.AudioGeneration)
	}
}

func TestScriptEditWins(t *testing.T) {
	s := Initial(testDefaults())
	s, _ = Reduce(s, SetGeneratedScript{Text: "generated"})
	s, _ = Reduce(s, EditScript{Text: "mine"})
	if s.CurrentScript() != "mine" {
		t.Fatalf("CurrentScript = %q", s.CurrentScript())
	}
	s, _ = Reduce(s, ClearScript{})
	if s.CurrentScript() != "" || s.Prompt != "" {
		t.Fatal("ClearScript left text behind")
	}
}

func TestPatchParamsRejectsOutOfRange(t *testing.T) {
	s := Initial(testDefaults())
	next, err := Reduce(s, PatchParams{Patch: audio.Patch{Temperature: ptr(1.5)}})
	if err == nil {
		t.Fatal("expected error")
	}
	if next.Params != s.Params || next.Version != s.Version {
		t.Fatal("rejected patch must not change state")
	}

	next, err = Reduce(s, PatchParams{Patch: audio.Patch{Seed: ptr(7)}})
	if err != nil || next.Params.Seed != 7 || next.Params.Temperature != s.Params.Temperature {
		t.Fatalf("patch: %v %+v", err, next.Params)
	}
}

func TestAdvanceStageIsMonotonic(t *testing.T) {
	s := Initial(testDefaults())
	if got, _ := Reduce(s, AdvanceStage{Stage: StageGeneratingScript}); got.Workflow.Stage != StageIdle {
		t.Fatal("advance must be ignored when not running")
	}

	s, _ = Reduce(s, Begin{Step: StepWorkflow})
	s, _ = Reduce(s, AdvanceStage{Stage: StageGeneratingAudio})
	s, _ = Reduce(s, AdvanceStage{Stage: StageGeneratingScript})
	if s.Workflow.Stage != StageGeneratingAudio {
		t.Fatalf("stage went backwards: %s", s.Workflow.Stage)
	}
	s, _ = Reduce(s, AdvanceStage{Stage: StageComplete})
	if s.Workflow.Stage == StageComplete {
		t.Fatal("ticker must not reach complete")
	}
}

func TestCompleteWorkflowPartial(t *testing.T) {
	sample := voice.SampleFromBytes("me.wav", []byte("x"))
	s := Initial(testDefaults())
	s, _ = Reduce(s, SelectVoiceFile{Sample: sample})
	s, _ = Reduce(s, SetGeneratedScript{Text: "keep me"})
	s, _ = Reduce(s, Begin{Step: StepWorkflow})

	s, err := Reduce(s, CompleteWorkflow{Sample: sample, VoiceID: ptr("voice-9")})
	if err != nil {
		t.Fatal(err)
	}
	if s.VoiceID() != "voice-9" || s.Voice.SourceFileName != "me.wav" {
		t.Fatalf("voice = %+v", s.Voice)
	}
	if s.GeneratedScript != "keep me" {
		t.Fatal("absent script must leave existing text")
	}
	if s.Workflow.Stage != StageComplete || s.Workflow.Running {
		t.Fatalf("workflow = %+v", s.Workflow)
	}

	if _, err := Reduce(s, CompleteWorkflow{}); err == nil {
		t.Fatal("completing an idle workflow should fail")
	}
}

func TestCompleteWorkflowDropsVoiceOfReplacedSample(t *testing.T) {
	uploaded := voice.SampleFromBytes("me.wav", []byte("x"))
	other := voice.SampleFromBytes("other.wav", []byte("y"))

	tests := []struct {
		name   string
		change Action
		file   *voice.Sample
	}{
		{"removed", RemoveVoiceFile{}, nil},
		{"replaced", SelectVoiceFile{Sample: other}, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Initial(testDefaults())
			s, _ = Reduce(s, SelectVoiceFile{Sample: uploaded})
			s, _ = Reduce(s, Begin{Step: StepWorkflow})
			s, _ = Reduce(s, tt.change)

			s, err := Reduce(s, CompleteWorkflow{Sample: uploaded, VoiceID: ptr("voice-9"), Script: ptr("text")})
			if err != nil {
				t.Fatal(err)
			}
			if s.VoiceID() != "" || s.Voice != nil {
				t.Fatalf("voice of a %s sample kept: %+v", tt.name, s.Voice)
			}
			if s.VoiceFile != tt.file {
				t.Fatalf("VoiceFile = %+v", s.VoiceFile)
			}
			if s.GeneratedScript != "text" || s.Workflow.Stage != StageComplete {
				t.Fatalf("rest of the result not applied: %+v", s)
			}
		})
	}
}

func TestResultsFromPreviousSessionAreRefused(t *testing.T) {
	s := Initial(testDefaults())
	s, _ = Reduce(s, SetPrompt{Text: "hi"})
	s, _ = Reduce(s, Begin{Step: StepScript})
	old := s.Session

	s, _ = Reduce(s, Reset{})
	if s.Session == old {
		t.Fatal("reset must open a new session")
	}
	s, _ = Reduce(s, Begin{Step: StepScript})

	stale := []Action{
		ScriptGenerated{Text: "late", Session: old},
		AudioGenerated{Audio: AudioSlot{URL: "blob:late"}, Session: old},
		VoiceCloned{Voice: &voice.Reference{ID: "late"}, Session: old},
		Fail{Step: StepScript, Message: "late", Session: old},
		Succeed{Step: StepScript, Session: old},
		CompleteWorkflow{VoiceID: ptr("late"), Session: old},
	}
	for _, a := range stale {
		next, err := Reduce(s, a)
		if !errors.Is(err, ErrStale) {
			t.Fatalf("%T: err = %v, want ErrStale", a, err)
		}
		if next.Version != s.Version {
			t.Fatalf("%T changed the state", a)
		}
	}
	if !s.ScriptGeneration.Loading || s.GeneratedScript != "" {
		t.Fatalf("new request disturbed: %+v", s.ScriptGeneration)
	}

	s, err := Reduce(s, ScriptGenerated{Text: "fresh", Session: s.Session})
	if err != nil || s.GeneratedScript != "fresh" {
		t.Fatalf("current result refused: %v", err)
	}
}

func TestStoreBeginReturnsSession(t *testing.T) {
	st := New(testDefaults())
	_ = st.Dispatch(Reset{})

	session, err := st.Begin(StepAudio)
	if err != nil {
		t.Fatal(err)
	}
	if session != st.State().Session || session == 0 {
		t.Fatalf("session = %d, state session = %d", session, st.State().Session)
	}
	if _, err := st.Begin(StepAudio); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second Begin = %v, want ErrInFlight", err)
	}
}

func TestFailWorkflowKeepsStage(t *testing.T) {
	s := Initial(testDefaults())
	s, _ = Reduce(s, Begin{Step: StepWorkflow})
	s, _ = Reduce(s, AdvanceStage{Stage: StageGeneratingScript})
	s, _ = Reduce(s, Fail{Step: StepWorkflow, Message: "Workflow failed. Please try again."})
	if s.Workflow.Running || s.Workflow.Stage != StageGeneratingScript || s.Workflow.Error == "" {
		t.Fatalf("workflow = %+v", s.Workflow)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	d := Defaults{Params: audio.DefaultParams(), Language: "fr"}
	s := Initial(d)
	s, _ = Reduce(s, SetLanguage{Code: "de"})
	s, _ = Reduce(s, SetPrompt{Text: "hi"})
	s, _ = Reduce(s, PatchParams{Patch: audio.Patch{Seed: ptr(1)}})
	s, _ = Reduce(s, Reset{})
	if s.Language != "fr" || s.Prompt != "" || s.Params != d.Params {
		t.Fatalf("reset state = %+v", s)
	}
	if s.Version == 0 {
		t.Fatal("reset should still bump the version")
	}
}

func TestStoreReleasesReplacedAudio(t *testing.T) {
	reg := playback.NewRegistry()
	st := New(testDefaults())

	first := reg.Acquire(&audio.Clip{Data: []byte("one")})
	if err := st.Dispatch(SetAudio{Audio: AudioSlot{URL: first.URL(), Handle: first}}); err != nil {
		t.Fatal(err)
	}
	second := reg.Acquire(&audio.Clip{Data: []byte("two")})
	if err := st.Dispatch(SetAudio{Audio: AudioSlot{URL: second.URL(), Handle: second}}); err != nil {
		t.Fatal(err)
	}
	if !first.Released() || second.Released() {
		t.Fatal("only the replaced handle should be released")
	}
	if reg.Live() != 1 {
		t.Fatalf("Live = %d, want 1", reg.Live())
	}

	if err := st.Dispatch(Reset{}); err != nil {
		t.Fatal(err)
	}
	if !second.Released() || reg.Live() != 0 {
		t.Fatal("reset should release current audio")
	}
}

func TestStoreSubscribe(t *testing.T) {
	st := New(testDefaults())
	var got []uint64
	unsubscribe := st.Subscribe(func(s State) { got = append(got, s.Version) })

	_ = st.Dispatch(SetPrompt{Text: "a"})
	_ = st.Dispatch(SetLanguage{Code: ""}) // rejected, no notification
	_ = st.Dispatch(SetPrompt{Text: "b"})
	unsubscribe()
	_ = st.Dispatch(SetPrompt{Text: "c"})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("notifications = %v", got)
	}
}

func TestStoreConcurrentBegin(t *testing.T) {
	st := New(testDefaults())
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st.Dispatch(Begin{Step: StepAudio}) == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Fatalf("started = %d, want exactly 1", started)
	}
}
