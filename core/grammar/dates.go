package grammar

import (
	"fmt"
	"strings"
	"time"
)

var kazakhMonths = [12]string{
	"қаңтар", "ақпан", "наурыз", "сәуір", "мамыр", "маусым",
	"шілде", "тамыз", "қыркүйек", "қазан", "қараша", "желтоқсан",
}

// genitive
var russianMonths = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// MonthName returns the Kazakh month name, or the Russian genitive one.
func MonthName(m time.Month, kazakh bool) string {
	if m < time.January || m > time.December {
		return ""
	}
	if kazakh {
		return kazakhMonths[m-1]
	}
	return russianMonths[m-1]
}

// ApplicationDate formats t the way applications are dated, e.g. «19» октября 2026 г.
func ApplicationDate(t time.Time, kazakh bool) string {
	suffix := "г."
	if kazakh {
		suffix = "ж."
	}
	return fmt.Sprintf("«%d» %s %d %s", t.Day(), MonthName(t.Month(), kazakh), t.Year(), suffix)
}

type splitPattern struct {
	sep    string
	before bool // split before the separator, otherwise after it
}

var programSplitPatterns = []splitPattern{
	{" и технологии", true},
	{" және технологиялар", true},
	{" и ", true},
	{" және ", true},
	{" - ", false},
	{" – ", false},
	{" — ", false},
}

// SplitProgramText splits a long program name into two lines for documents.
// It breaks before a conjunction, after a dash, or at the last space before the middle.
func SplitProgramText(text string) (first, second string) {
	if text == "" {
		return "", ""
	}

	for _, p := range programSplitPatterns {
		if i := strings.Index(text, p.sep); i >= 0 {
			if !p.before {
				i += len(p.sep)
			}
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i:])
		}
	}

	runes := []rune(text)
	mid := len(runes) / 2
	end := mid + 1
	if end > len(runes) {
		end = len(runes)
	}
	split := strings.LastIndex(string(runes[:end]), " ")
	if split <= 0 {
		split = len(string(runes[:mid]))
	}
	return strings.TrimSpace(text[:split]), strings.TrimSpace(text[split:])
}
