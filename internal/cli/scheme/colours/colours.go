package colours

import (
	"fmt"

	"github.com/fatih/color"
)

// Palette for command output
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Label   = color.New(color.FgMagenta)
	Prompt  = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
	Muted   = color.New(color.FgHiBlack)
)

// Field prints an indented "label: value" line. Empty values print as a dash.
func Field(label, value string) {
	Label.Printf("  %s: ", label)
	if value == "" {
		Muted.Println("-")
		return
	}
	fmt.Println(value)
}
