package schedule

import "strings"

// Translator maps a human phrase to a cron schedule.
//
// Implementations must be free of side effects. The second return value is
// false when the phrase is not understood.
type Translator interface {
	Translate(phrase string) (string, bool)
}

// PhraseTable is a fixed, case-insensitive phrase → schedule lookup.
type PhraseTable map[string]string

// BuiltinPhrases returns the phrases understood out of the box.
func BuiltinPhrases() PhraseTable {
	return PhraseTable{
		"every day at 5pm": "0 17 * * *",
	}
}

func (t PhraseTable) Translate(phrase string) (string, bool) {
	sched, ok := t[strings.ToLower(strings.TrimSpace(phrase))]
	return sched, ok
}
