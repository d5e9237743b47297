package assistant

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Utterance is one turn of user input after normalization. Raw keeps the
// user's casing for captured names; Text is the lowercased form used for
// keyword checks.
type Utterance struct {
	Raw  string
	Text string
}

var lower = cases.Lower(language.Und)

// Normalize trims the input, collapses inner whitespace and drops trailing
// sentence punctuation.
func Normalize(input string) Utterance {
	raw := strings.Join(strings.Fields(input), " ")
	raw = strings.TrimRight(raw, ".!?")
	raw = strings.TrimSpace(raw)
	return Utterance{Raw: raw, Text: lower.String(raw)}
}

func (u Utterance) Empty() bool {
	return u.Text == ""
}
