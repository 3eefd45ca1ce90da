// Package i18n holds the localized dictionaries of education programs and academic degrees.
//
// Lookups never fail: an unknown code is echoed back unchanged.
package i18n

type Language string

const (
	Kazakh  Language = "Қазақша"
	Russian Language = "Русский"
	English Language = "English"
)

var Languages = []Language{Kazakh, Russian, English}

func (l Language) Valid() bool {
	switch l {
	case Kazakh, Russian, English:
		return true
	}
	return false
}

// table returns the dictionary key for the language. Only Kazakh has its own tables,
// every other language reads the Russian ones.
func (l Language) table() string {
	if l == Kazakh {
		return "kaz"
	}
	return "rus"
}

// Option is a {value, label} pair for select inputs.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
