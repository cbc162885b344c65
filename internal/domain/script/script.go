package script

import (
	"fmt"
	"strings"
)

// WordsPerMinute is the narration pace used for duration estimates.
const WordsPerMinute = 150

// Placeholder stands in for the script when the backend reports success
// without returning any text.
const Placeholder = "Script generated successfully!"

// Options are the optional generation hints.
type Options struct {
	ContentType string `json:"contentType,omitempty"`
	Tone        string `json:"tone,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// IsZero reports whether no hint is set.
func (o Options) IsZero() bool {
	return o == Options{}
}

// Stats summarises a script for display.
type Stats struct {
	Words      int
	Characters int
	Estimated  string
}

// Analyze counts words and characters and estimates read-out time.
func Analyze(text string) Stats {
	words := len(strings.Fields(text))
	return Stats{
		Words:      words,
		Characters: len([]rune(text)),
		Estimated:  EstimateDuration(words),
	}
}

// EstimateDuration formats the narration time for a word count as m:ss.
func EstimateDuration(words int) string {
	if words <= 0 {
		return "0:00"
	}
	seconds := (words*60 + WordsPerMinute - 1) / WordsPerMinute
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
