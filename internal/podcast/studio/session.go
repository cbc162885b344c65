package studio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voicecast/internal/cli/panel"
	"voicecast/internal/cli/scheme/colours"
	"voicecast/internal/domain/audio"
	"voicecast/internal/podcast/playback"
	"voicecast/internal/podcast/store"
)

const scriptExportName = "generated-script.txt"

var sessionHelp = [][2]string{
	{"file <path>", "select a voice sample"},
	{"remove", "remove the sample and its cloned voice"},
	{"clone", "clone the selected sample"},
	{"voice <id>", "use a voice cloned earlier"},
	{"prompt <text>", "set the script prompt"},
	{"lang <code>", "set the language"},
	{"options k=v ...", "script hints: type, tone, duration"},
	{"script", "generate a script"},
	{"edit", "type your own script, end with a line containing only '.'"},
	{"show", "print the current script"},
	{"clear", "clear prompt and script"},
	{"set <param> <value>", "exaggeration, temperature, cfg, seed"},
	{"preset <name>", "apply a narration preset"},
	{"speak", "generate audio and play it"},
	{"play", "play the current audio again"},
	{"stop", "stop playback"},
	{"save", "save the current audio"},
	{"download", "download a fresh rendition"},
	{"save-script", "export the script to " + scriptExportName},
	{"workflow", "clone, write and narrate in one request"},
	{"status", "show the session"},
	{"reset", "start over"},
	{"quit", "leave the studio"},
}

// RunSession is the handler for the interactive studio command.
func (a *App) RunSession(cmd *cobra.Command, args []string) error {
	return a.Session(a.ctx, a.in)
}

// Session reads commands from in until quit, EOF or ctx is done.
func (a *App) Session(ctx context.Context, in io.Reader) error {
	fmt.Println()
	colours.Title.Println("🎚️  voicecast studio")
	colours.Muted.Println("Type 'help' for commands.")

	reader := bufio.NewReader(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		colours.Prompt.Print("\nstudio> ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if quit := a.exec(ctx, reader, strings.TrimSpace(line)); quit {
			colours.Warning.Println("👋 Bye!")
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// exec runs one session command and reports whether the session should end.
func (a *App) exec(ctx context.Context, reader *bufio.Reader, line string) bool {
	if line == "" {
		return false
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(name) {
	case "help", "?":
		printSessionHelp()
	case "file":
		err = a.selectFile(rest)
	case "remove":
		err = a.ctl.RemoveVoiceFile()
	case "clone":
		err = a.cloneInSession()
	case "voice":
		err = a.ctl.UseVoice(rest)
	case "prompt":
		err = a.ctl.SetPrompt(rest)
	case "lang", "language":
		err = a.ctl.SetLanguage(rest)
	case "options":
		err = a.setOptions(rest)
	case "script":
		colours.Info.Println("✍️  Writing script...")
		if err = a.ctl.GenerateScript(ctx); err == nil {
			a.printScript()
		}
	case "edit":
		err = a.editScript(reader)
	case "show":
		a.printScript()
	case "clear":
		err = a.ctl.ClearScript()
	case "set":
		err = a.setParam(rest)
	case "preset":
		err = a.ctl.ApplyPreset(rest)
	case "speak":
		colours.Info.Println("🔊 Generating audio...")
		if err = a.ctl.GenerateAudio(ctx); err == nil {
			err = a.playCurrent()
		}
	case "play":
		err = a.playCurrent()
	case "stop":
		a.Stop()
	case "save":
		err = a.saveCurrentAudio()
	case "download":
		var path string
		if path, err = a.ctl.Download(ctx); err == nil {
			colours.Success.Printf("💾 Saved to %s\n", path)
		}
	case "save-script":
		err = a.saveScript()
	case "workflow":
		if err = a.runWorkflowWithProgress(); err == nil {
			a.printWorkflowResult()
		}
	case "status":
		fmt.Println(panel.Session(a.ctl.State()))
	case "reset":
		a.Stop()
		err = a.ctl.Reset()
	case "quit", "exit", "q":
		return true
	default:
		colours.Warning.Printf("ℹ️  Unknown command %q, type 'help'\n", name)
	}

	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
	}
	return false
}

func (a *App) cloneInSession() error {
	if a.ctl.State().VoiceFile == nil {
		return a.ctl.CloneVoice(a.ctx)
	}
	return a.cloneAndReport()
}

func (a *App) editScript(reader *bufio.Reader) error {
	colours.Muted.Println("Enter your script. Finish with a line containing only '.'")
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		lines = append(lines, trimmed)
		if err != nil {
			break
		}
	}
	return a.ctl.EditScript(strings.Join(lines, "\n"))
}

func (a *App) setOptions(args string) error {
	opts := a.ctl.State().ScriptOptions
	for _, kv := range strings.Fields(args) {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		switch strings.ToLower(key) {
		case "type", "content-type":
			opts.ContentType = value
		case "tone":
			opts.Tone = value
		case "duration":
			opts.Duration = value
		default:
			return fmt.Errorf("unknown script option %q", key)
		}
	}
	return a.ctl.SetScriptOptions(opts)
}

func (a *App) setParam(args string) error {
	name, value, ok := strings.Cut(args, " ")
	if !ok {
		return errors.New("usage: set <param> <value>")
	}
	value = strings.TrimSpace(value)

	var patch audio.Patch
	switch strings.ToLower(name) {
	case "seed":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("seed must be a whole number: %w", err)
		}
		patch.Seed = &n
	case "exaggeration", "temperature", "cfg", "cfg-weight":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", name, err)
		}
		switch strings.ToLower(name) {
		case "exaggeration":
			patch.Exaggeration = &f
		case "temperature":
			patch.Temperature = &f
		default:
			patch.CFGWeight = &f
		}
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return a.ctl.PatchParams(patch)
}

func (a *App) saveScript() error {
	text := a.ctl.State().CurrentScript()
	if strings.TrimSpace(text) == "" {
		return errors.New("no script to save")
	}
	path, err := playback.SaveText(a.cfg.OutputDir, scriptExportName, text)
	if err != nil {
		return err
	}
	colours.Success.Printf("💾 Script saved to %s\n", path)
	return nil
}

func printSessionHelp() {
	colours.Info.Println("📚 Commands:")
	for _, h := range sessionHelp {
		fmt.Printf("  %-22s %s\n", h[0], h[1])
	}
	colours.Muted.Printf("Presets: %s\n", strings.Join(audio.PresetNames(), ", "))
	colours.Muted.Printf("Stages: %s\n", stageList())
}

func stageList() string {
	names := make([]string, 0, len(store.Stages))
	for _, s := range store.Stages {
		names = append(names, string(s))
	}
	return strings.Join(names, " → ")
}
