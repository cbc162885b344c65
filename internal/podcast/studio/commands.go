package studio

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"voicecast/internal/cli/panel"
	"voicecast/internal/cli/scheme/colours"
	"voicecast/internal/domain/script"
	"voicecast/internal/podcast/playback"
	"voicecast/internal/podcast/store"
)

// CloneVoice uploads the sample named by args[0].
func (a *App) CloneVoice(cmd *cobra.Command, args []string) error {
	if err := a.selectFile(args[0]); err != nil {
		return err
	}
	if err := a.cloneAndReport(); err != nil {
		return err
	}
	colours.Muted.Printf("💡 Reuse it with: voicecast speak --voice-id %s\n", a.ctl.State().VoiceID())
	return nil
}

func (a *App) cloneAndReport() error {
	st := a.ctl.State()
	colours.Info.Printf("🎙️  Cloning voice from %s...\n", st.VoiceFile.Name)
	if err := a.ctl.CloneVoice(a.ctx); err != nil {
		return err
	}

	st = a.ctl.State()
	colours.Success.Println("✅ Voice cloned successfully!")
	colours.Field("Voice ID", st.VoiceID())
	if an := st.Voice.Analysis; an != nil {
		colours.Field("Duration", an.Duration)
		colours.Field("Quality", an.Quality)
		colours.Field("Language", an.Language)
		colours.Field("Clarity", fmt.Sprintf("%.0f%%", an.Clarity*100))
	}
	return nil
}

// GenerateScript writes a script for --prompt and prints it.
func (a *App) GenerateScript(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	prompt, _ := flags.GetString("prompt")
	if err := a.ctl.SetPrompt(prompt); err != nil {
		return err
	}
	if err := a.applyLanguageFlag(cmd); err != nil {
		return err
	}

	var opts script.Options
	opts.ContentType, _ = flags.GetString("content-type")
	opts.Tone, _ = flags.GetString("tone")
	opts.Duration, _ = flags.GetString("duration")
	if err := a.ctl.SetScriptOptions(opts); err != nil {
		return err
	}

	colours.Info.Println("✍️  Writing script...")
	if err := a.ctl.GenerateScript(a.ctx); err != nil {
		return err
	}
	a.printScript()

	if out, _ := flags.GetString("out"); out != "" {
		path, err := playback.SaveText(filepath.Dir(out), filepath.Base(out), a.ctl.State().CurrentScript())
		if err != nil {
			return err
		}
		colours.Success.Printf("💾 Script saved to %s\n", path)
	}
	return nil
}

func (a *App) printScript() {
	text := a.ctl.State().CurrentScript()
	stats := script.Analyze(text)
	fmt.Println()
	colours.Title.Println("📄 Script")
	fmt.Println(text)
	fmt.Println()
	colours.Muted.Printf("%d words · %d characters · ~%s read-out\n", stats.Words, stats.Characters, stats.Estimated)
}

// Speak narrates text in a cloned voice, plays it and optionally saves it.
func (a *App) Speak(cmd *cobra.Command, args []string) error {
	if err := a.applySpeechFlags(cmd); err != nil {
		return err
	}

	colours.Info.Println("🔊 Generating audio...")
	if err := a.ctl.GenerateAudio(a.ctx); err != nil {
		return err
	}
	colours.Success.Println("✅ Audio generated")

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := a.saveCurrentAudio(); err != nil {
			return err
		}
	}
	if noPlay, _ := cmd.Flags().GetBool("no-play"); noPlay {
		return nil
	}
	return a.playCurrent()
}

// Download requests a fresh rendition and saves it to the output directory.
func (a *App) Download(cmd *cobra.Command, args []string) error {
	if err := a.applySpeechFlags(cmd); err != nil {
		return err
	}

	colours.Info.Println("⬇️  Downloading audio...")
	path, err := a.ctl.Download(a.ctx)
	if err != nil {
		return err
	}
	colours.Success.Printf("💾 Saved to %s\n", path)
	return nil
}

// RunWorkflow clones, writes and narrates with a single backend request.
func (a *App) RunWorkflow(cmd *cobra.Command, args []string) error {
	if err := a.selectFile(args[0]); err != nil {
		return err
	}
	prompt, _ := cmd.Flags().GetString("prompt")
	if err := a.ctl.SetPrompt(prompt); err != nil {
		return err
	}
	if err := a.applyLanguageFlag(cmd); err != nil {
		return err
	}
	if err := a.applyParamFlags(cmd); err != nil {
		return err
	}

	if err := a.runWorkflowWithProgress(); err != nil {
		return err
	}
	a.printWorkflowResult()

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := a.saveCurrentAudio(); err != nil {
			return err
		}
	}
	if noPlay, _ := cmd.Flags().GetBool("no-play"); noPlay {
		return nil
	}
	return a.playCurrent()
}

func (a *App) runWorkflowWithProgress() error {
	colours.Info.Println("🚀 Running complete workflow...")
	last := a.ctl.State().Workflow.Stage
	unsubscribe := a.ctl.Subscribe(func(st store.State) {
		if st.Workflow.Running && st.Workflow.Stage != last {
			last = st.Workflow.Stage
			fmt.Println(panel.Workflow(st.Workflow))
		}
	})
	defer unsubscribe()

	err := a.ctl.RunWorkflow(a.ctx)
	fmt.Println(panel.Workflow(a.ctl.State().Workflow))
	return err
}

func (a *App) printWorkflowResult() {
	st := a.ctl.State()
	colours.Field("Voice ID", st.VoiceID())
	if st.CurrentScript() != "" {
		a.printScript()
	}
	if st.Audio.Handle == nil && st.Audio.URL != "" {
		colours.Field("Audio", st.Audio.URL)
	}
}

// playCurrent plays the current audio when it is held locally.
func (a *App) playCurrent() error {
	st := a.ctl.State()
	if st.Audio.Handle == nil {
		if st.Audio.URL != "" {
			colours.Muted.Println("💡 Audio is hosted remotely; open the URL above to listen.")
		}
		return nil
	}
	clip, err := st.Audio.Handle.Clip()
	if err != nil {
		return err
	}

	colours.Success.Println("🎵 Playing... press Ctrl+C to stop")
	if err := a.Player.Play(a.ctx, clip); err != nil && !errors.Is(err, a.ctx.Err()) {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

func (a *App) saveCurrentAudio() error {
	h := a.ctl.State().Audio.Handle
	if h == nil {
		return errors.New("no local audio to save")
	}
	clip, err := h.Clip()
	if err != nil {
		return err
	}
	fallback := fmt.Sprintf("podcast-audio-%d.wav", time.Now().UnixMilli())
	path, err := playback.SaveClip(a.cfg.OutputDir, clip, fallback)
	if err != nil {
		return err
	}
	colours.Success.Printf("💾 Saved to %s\n", path)
	return nil
}

// ShowSettings prints the effective configuration.
func (a *App) ShowSettings(cmd *cobra.Command, args []string) {
	c := a.cfg
	fmt.Println()
	colours.Title.Println("⚙️  Settings")
	fmt.Println()

	colours.Prompt.Println("🌐 Backend")
	colours.Field("Base URL", c.BaseURL)
	colours.Field("Timeout", c.Timeout.String())
	fmt.Println()

	colours.Prompt.Println("🎙️  Voice samples")
	colours.Field("Max size", fmt.Sprintf("%d MB", c.Upload.MaxBytes/(1024*1024)))
	colours.Field("Formats", fmt.Sprint(c.Upload.Formats))
	fmt.Println()

	colours.Prompt.Println("🔊 Narration defaults")
	colours.Field("Language", c.Language)
	colours.Field("Exaggeration", fmt.Sprintf("%.2f", c.Audio.Exaggeration))
	colours.Field("Temperature", fmt.Sprintf("%.2f", c.Audio.Temperature))
	colours.Field("CFG weight", fmt.Sprintf("%.2f", c.Audio.CFGWeight))
	colours.Field("Seed", fmt.Sprint(c.Audio.Seed))
	fmt.Println()

	colours.Prompt.Println("📁 Output")
	colours.Field("Directory", c.OutputDir)
	colours.Field("Playback", c.PlaybackEngine)
	colours.Field("Stage interval", c.StageInterval.String())
}
