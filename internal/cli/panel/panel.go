// Package panel renders session summaries as bordered terminal blocks.
package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voicecast/internal/domain/script"
	"voicecast/internal/podcast/store"
)

// Theme is the colour set panels are drawn with.
type Theme struct {
	Primary lipgloss.Color
	Done    lipgloss.Color
	Failed  lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme matches the CLI palette.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00afd7"),
	Done:    lipgloss.Color("#5fd75f"),
	Failed:  lipgloss.Color("#ff5f5f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are derived from a Theme.
type Styles struct {
	Box     lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Dim     lipgloss.Style
	Error   lipgloss.Style
	Pending lipgloss.Style
	Active  lipgloss.Style
	Done    lipgloss.Style
	Banner  lipgloss.Style
}

// NewStyles builds Styles for t.
func NewStyles(t Theme) Styles {
	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Styles{
		Box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Bold(true),
		Value:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle().Foreground(t.Dim),
		Error:   lipgloss.NewStyle().Foreground(t.Failed),
		Pending: card.BorderForeground(t.Dim).Foreground(t.Dim),
		Active:  card.BorderForeground(t.Primary).Foreground(t.Primary).Bold(true),
		Done:    card.BorderForeground(t.Done).Foreground(t.Done),
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(t.Done),
	}
}

var defaultStyles = NewStyles(DefaultTheme)

var stageTitles = map[store.Stage]string{
	store.StageCloning:          "1 Clone voice",
	store.StageGeneratingScript: "2 Write script",
	store.StageGeneratingAudio:  "3 Generate audio",
}

// Workflow renders the three stage cards for w.
func Workflow(w store.Workflow) string {
	return defaultStyles.Workflow(w)
}

// Workflow renders the three stage cards for w with s.
func (s Styles) Workflow(w store.Workflow) string {
	stages := []store.Stage{store.StageCloning, store.StageGeneratingScript, store.StageGeneratingAudio}
	cards := make([]string, 0, len(stages))
	for _, stage := range stages {
		style := s.Pending
		switch {
		case w.Stage == store.StageComplete || stage.Before(w.Stage):
			style = s.Done
		case stage == w.Stage && w.Running:
			style = s.Active
		}
		cards = append(cards, style.Render(stageTitles[stage]))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	switch {
	case w.Error != "":
		out += "\n" + s.Error.Render(w.Error)
	case w.Stage == store.StageComplete:
		out += "\n" + s.Banner.Render("Workflow complete")
	}
	return out
}

// Session renders the whole state as one box.
func Session(st store.State) string {
	return defaultStyles.Session(st)
}

// Session renders the whole state as one box with s.
func (s Styles) Session(st store.State) string {
	var rows []string
	add := func(label, value string) {
		if value == "" {
			value = s.Dim.Render("-")
		}
		rows = append(rows, s.Label.Render(fmt.Sprintf("%-10s", label))+" "+s.Value.Render(value))
	}

	file := ""
	if st.VoiceFile != nil {
		file = fmt.Sprintf("%s (%.1f MB)", st.VoiceFile.Name, float64(st.VoiceFile.Size)/(1024*1024))
	}
	add("Sample", file)

	voiceLine := st.VoiceID()
	if st.Voice != nil && st.Voice.Analysis != nil {
		a := st.Voice.Analysis
		voiceLine += s.Dim.Render(fmt.Sprintf("  quality %s, clarity %.0f%%", a.Quality, a.Clarity*100))
	}
	add("Voice", voiceLine)
	add("Language", st.Language)
	add("Prompt", truncate(st.Prompt, 60))

	text := st.CurrentScript()
	scriptLine := ""
	if text != "" {
		stats := script.Analyze(text)
		scriptLine = fmt.Sprintf("%d words, ~%s", stats.Words, stats.Estimated)
		if st.ScriptEdit != "" {
			scriptLine += s.Dim.Render(" (edited)")
		}
	}
	add("Script", scriptLine)

	p := st.Params
	add("Params", fmt.Sprintf("exaggeration %.2f  temperature %.2f  cfg %.2f  seed %d",
		p.Exaggeration, p.Temperature, p.CFGWeight, p.Seed))
	add("Audio", st.Audio.URL)

	for _, o := range []struct {
		step store.Step
		out  store.Outcome
	}{
		{store.StepVoice, st.VoiceCloning},
		{store.StepScript, st.ScriptGeneration},
		{store.StepAudio, st.AudioGeneration},
		{store.StepDownload, st.Download},
	} {
		switch {
		case o.out.Loading:
			rows = append(rows, s.Dim.Render(o.step.String()+": working..."))
		case o.out.Error != "":
			rows = append(rows, s.Error.Render(o.step.String()+": "+o.out.Error))
		}
	}

	body := s.Title.Render("voicecast session") + "\n" + strings.Join(rows, "\n")
	if st.Workflow.Stage != store.StageIdle {
		body += "\n\n" + s.Workflow(st.Workflow)
	}
	return s.Box.Render(body)
}

func truncate(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
