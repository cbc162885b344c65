package studio

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voicecast/internal/domain/audio"
	"voicecast/internal/domain/voice"
)

// AddParamFlags registers the narration parameter flags on cmd.
func AddParamFlags(cmd *cobra.Command) {
	def := audio.DefaultParams()
	cmd.Flags().Float64("exaggeration", def.Exaggeration, "Emotion exaggeration (0 to 1)")
	cmd.Flags().Float64("temperature", def.Temperature, "Sampling temperature (above 0, up to 1)")
	cmd.Flags().Float64("cfg-weight", def.CFGWeight, "Guidance weight (0.5 to 2)")
	cmd.Flags().Int("seed", def.Seed, "Random seed")
	cmd.Flags().String("preset", "", "Narration preset: "+strings.Join(audio.PresetNames(), ", "))
}

// AddSpeechFlags registers the voice and text inputs shared by speak and download.
func AddSpeechFlags(cmd *cobra.Command) {
	cmd.Flags().String("voice-id", "", "Voice id from an earlier clone")
	cmd.Flags().String("voice-file", "", "Voice sample to clone first")
	cmd.Flags().StringP("text", "t", "", "Text to narrate")
	cmd.Flags().String("script-file", "", "Read the text to narrate from a file")
	cmd.Flags().StringP("language", "l", "", "Language code")
	cmd.MarkFlagsMutuallyExclusive("voice-id", "voice-file")
	cmd.MarkFlagsOneRequired("voice-id", "voice-file")
	cmd.MarkFlagsMutuallyExclusive("text", "script-file")
	cmd.MarkFlagsOneRequired("text", "script-file")
	AddParamFlags(cmd)
}

// paramPatch collects the preset and any explicitly set parameter flags.
// Explicit flags win over the preset.
func paramPatch(cmd *cobra.Command) (audio.Patch, error) {
	var patch audio.Patch
	flags := cmd.Flags()

	if name, _ := flags.GetString("preset"); name != "" {
		p, err := audio.Preset(name)
		if err != nil {
			return patch, err
		}
		patch = p
	}
	if flags.Changed("exaggeration") {
		v, _ := flags.GetFloat64("exaggeration")
		patch.Exaggeration = &v
	}
	if flags.Changed("temperature") {
		v, _ := flags.GetFloat64("temperature")
		patch.Temperature = &v
	}
	if flags.Changed("cfg-weight") {
		v, _ := flags.GetFloat64("cfg-weight")
		patch.CFGWeight = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt("seed")
		patch.Seed = &v
	}
	return patch, nil
}

func (a *App) applyParamFlags(cmd *cobra.Command) error {
	patch, err := paramPatch(cmd)
	if err != nil {
		return err
	}
	return a.ctl.PatchParams(patch)
}

func (a *App) applyLanguageFlag(cmd *cobra.Command) error {
	lang, _ := cmd.Flags().GetString("language")
	if lang == "" {
		return nil
	}
	return a.ctl.SetLanguage(lang)
}

// applySpeechFlags loads the voice and the text for speak and download.
func (a *App) applySpeechFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if err := a.applyLanguageFlag(cmd); err != nil {
		return err
	}
	if err := a.applyParamFlags(cmd); err != nil {
		return err
	}

	if id, _ := flags.GetString("voice-id"); id != "" {
		if err := a.ctl.UseVoice(id); err != nil {
			return err
		}
	} else if path, _ := flags.GetString("voice-file"); path != "" {
		if err := a.selectFile(path); err != nil {
			return err
		}
		if err := a.cloneAndReport(); err != nil {
			return err
		}
	}

	text, _ := flags.GetString("text")
	if path, _ := flags.GetString("script-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		text = string(data)
	}
	return a.ctl.EditScript(text)
}

func (a *App) selectFile(path string) error {
	sample, err := voice.SampleFromFile(path)
	if err != nil {
		return err
	}
	return a.ctl.SelectVoiceFile(sample)
}
