package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"voicecast/internal/cli/scheme/colours"
	"voicecast/internal/config"
	"voicecast/internal/podcast/studio"
)

func main() {

	config.Init()

	app := studio.NewApp()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Cancel()
		app.Stop()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye!"))
		if err := app.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close cleanly")
		}
		os.Exit(130)
	}()

	rootCmd := &cobra.Command{
		Use:   "voicecast",
		Short: "🎙️ Clone your voice and turn prompts into podcast audio",
		Long: `
┌─────────────────────────────────────┐
│  🎙️  voicecast                      │
│  Your voice, your podcast           │
└─────────────────────────────────────┘

voicecast uploads a sample of your voice, writes a script from a short
prompt and narrates it in your cloned voice using the voicecast backend.
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.SetupLogging(); err != nil {
				return err
			}
			return app.Open(cfg)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	// Clone command
	cloneCmd := &cobra.Command{
		Use:   "clone <file>",
		Short: "🎤 Clone your voice from a sample",
		Long:  "Upload a voice sample (.wav, .mp3, .m4a, .flac) and print the cloned voice id",
		Args:  cobra.ExactArgs(1),
		RunE:  app.CloneVoice,
	}

	// Script command
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "✍️ Write a podcast script",
		Long:  "Generate a podcast script from a short prompt",
		Args:  cobra.NoArgs,
		RunE:  app.GenerateScript,
	}

	// Speak command
	speakCmd := &cobra.Command{
		Use:   "speak",
		Short: "🔊 Narrate text in a cloned voice",
		Long:  "Generate audio for a script in your cloned voice and play it",
		Args:  cobra.NoArgs,
		RunE:  app.Speak,
	}

	// Download command
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "⬇️ Save a narration to disk",
		Long:  "Request a fresh narration and save it as a timestamped audio file",
		Args:  cobra.NoArgs,
		RunE:  app.Download,
	}

	// Workflow command
	workflowCmd := &cobra.Command{
		Use:   "workflow <file>",
		Short: "🚀 Clone, write and narrate in one go",
		Long:  "Send a voice sample and a prompt in a single request and get back the finished podcast",
		Args:  cobra.ExactArgs(1),
		RunE:  app.RunWorkflow,
	}

	// Studio command
	studioCmd := &cobra.Command{
		Use:   "studio",
		Short: "🎚️ Interactive session",
		Long:  "Work through cloning, scripting and narration step by step",
		Args:  cobra.NoArgs,
		RunE:  app.RunSession,
	}

	// Settings command
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show settings",
		Long:  "Display the effective configuration from defaults, voicecast.yaml, .env and the environment",
		Args:  cobra.NoArgs,
		Run:   app.ShowSettings,
	}

	// Add flags
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory for saved audio and scripts")
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))

	scriptCmd.Flags().StringP("prompt", "p", "", "What the podcast is about")
	scriptCmd.Flags().StringP("language", "l", "", "Language code")
	scriptCmd.Flags().String("content-type", "", "Content type, e.g. interview or news")
	scriptCmd.Flags().String("tone", "", "Tone, e.g. casual or professional")
	scriptCmd.Flags().String("duration", "", "Target length, e.g. 2 minutes")
	scriptCmd.Flags().StringP("out", "o", "", "Also write the script to this file")
	_ = scriptCmd.MarkFlagRequired("prompt")

	studio.AddSpeechFlags(speakCmd)
	speakCmd.Flags().Bool("save", false, "Save the audio to the output directory")
	speakCmd.Flags().Bool("no-play", false, "Skip playback")

	studio.AddSpeechFlags(downloadCmd)

	workflowCmd.Flags().StringP("prompt", "p", "", "What the podcast is about")
	workflowCmd.Flags().StringP("language", "l", "", "Language code")
	workflowCmd.Flags().Bool("save", false, "Save the audio to the output directory")
	workflowCmd.Flags().Bool("no-play", false, "Skip playback")
	studio.AddParamFlags(workflowCmd)
	_ = workflowCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(cloneCmd, scriptCmd, speakCmd, downloadCmd, workflowCmd, studioCmd, settingsCmd)

	// Add auth commands
	app.AddAuthCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		_ = app.Close()
		os.Exit(1)
	}
}
