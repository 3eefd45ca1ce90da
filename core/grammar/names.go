// Package grammar declines person names and formats dates for generated application documents.
//
// Every function is total: when no rule matches, the input comes back unchanged.
// The rules are heuristic and cover the common Russian and Kazakh name shapes only.
package grammar

import "strings"

// Person holds the name parts used for declension.
type Person struct {
	LastName   string
	FirstName  string
	FatherName string
}

type suffixRule struct {
	suffix string
	add    string
}

func applySuffixRules(word string, rules []suffixRule) string {
	for _, r := range rules {
		if strings.HasSuffix(word, r.suffix) {
			return word + r.add
		}
	}
	return word
}

var kazakhPatronymicRules = []suffixRule{
	{"ұлы", "н"},
	{"қызы", "н"},
	{"ович", "ты"},
	{"овна", "ны"},
	{"евич", "ты"},
	{"евна", "ны"},
	{"ич", "ты"},
	{"на", "ны"},
}

var kazakhPatronymicAblativeRules = []suffixRule{
	{"ұлы", "нан"},
	{"қызы", "нан"},
	{"ович", "тан"},
	{"овна", "дан"},
	{"евич", "тан"},
	{"евна", "дан"},
	{"ич", "тан"},
	{"на", "дан"},
}

// KazakhPatronymic declines a patronymic for the phrase "... бекітуін сұраймын".
func KazakhPatronymic(patronymic string) string {
	return applySuffixRules(strings.TrimSpace(patronymic), kazakhPatronymicRules)
}

// KazakhPatronymicAblative declines a patronymic to the ablative case (кімнен?).
func KazakhPatronymicAblative(patronymic string) string {
	return applySuffixRules(strings.TrimSpace(patronymic), kazakhPatronymicAblativeRules)
}

func replaceSuffix(word, suffix, with string) string {
	return strings.TrimSuffix(word, suffix) + with
}

func joinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func russianLastNameGenitive(last string) string {
	switch {
	case strings.HasSuffix(last, "ов"), strings.HasSuffix(last, "ев"), strings.HasSuffix(last, "ин"):
		return last + "а"
	case strings.HasSuffix(last, "ский"), strings.HasSuffix(last, "цкий"):
		return replaceSuffix(last, "ий", "ого")
	case strings.HasSuffix(last, "енко"):
		return last
	case strings.HasSuffix(last, "а"):
		return replaceSuffix(last, "а", "ой")
	}
	return last
}

// RussianNameAccusative declines a full name to the accusative case (кого?).
// Without a last name and a first name the parts are joined unchanged.
func RussianNameAccusative(p Person) string {
	last, first, father := p.LastName, p.FirstName, p.FatherName
	if last == "" || first == "" {
		return joinName(last, first, father)
	}

	switch {
	case strings.HasSuffix(last, "ов"), strings.HasSuffix(last, "ев"), strings.HasSuffix(last, "ин"):
		last += "а"
	case strings.HasSuffix(last, "ский"), strings.HasSuffix(last, "цкий"):
		last = replaceSuffix(last, "ий", "ого")
	case strings.HasSuffix(last, "енко"):
	case strings.HasSuffix(last, "а") && !strings.HasSuffix(last, "ова") && !strings.HasSuffix(last, "ева"):
		last = replaceSuffix(last, "а", "у")
	}

	switch {
	case strings.HasSuffix(first, "а"):
		first = replaceSuffix(first, "а", "у")
	case strings.HasSuffix(first, "я"):
		first = replaceSuffix(first, "я", "ю")
	}

	switch {
	case strings.HasSuffix(father, "ович"), strings.HasSuffix(father, "евич"):
		father += "а"
	case strings.HasSuffix(father, "овна"), strings.HasSuffix(father, "евна"):
		father = replaceSuffix(father, "на", "ну")
	}

	return joinName(last, first, father)
}

// RussianNameGenitive declines a full name to the genitive case (кого? чего?).
// Without a last name and a first name the parts are joined unchanged.
func RussianNameGenitive(p Person) string {
	last, first, father := p.LastName, p.FirstName, p.FatherName
	if last == "" || first == "" {
		return joinName(last, first, father)
	}

	last = russianLastNameGenitive(last)

	switch {
	case first == "Султан", first == "Иван":
		first += "а"
	case strings.HasSuffix(first, "н") && !strings.HasSuffix(first, "ан") &&
		!strings.HasSuffix(first, "ен") && !strings.HasSuffix(first, "ин"):
		first += "а"
	case strings.HasSuffix(first, "й"):
		first = replaceSuffix(first, "й", "я")
	case strings.HasSuffix(first, "ь"):
		first = replaceSuffix(first, "ь", "я")
	case strings.HasSuffix(first, "а"):
		first = replaceSuffix(first, "а", "ы")
	case strings.HasSuffix(first, "я"):
		first = replaceSuffix(first, "я", "и")
	}

	switch {
	case strings.HasSuffix(father, "ич"):
		father += "а"
	case strings.HasSuffix(father, "на"):
		father = replaceSuffix(father, "на", "ны")
	}

	return joinName(last, first, father)
}

// ApplicationName declines a name the way the application body refers to the supervisor:
// only the patronymic for Kazakh, the whole name in the accusative for other languages.
func ApplicationName(p Person, kazakh bool) string {
	if kazakh {
		return joinName(strings.TrimSpace(p.LastName), strings.TrimSpace(p.FirstName), KazakhPatronymic(p.FatherName))
	}
	return RussianNameAccusative(p)
}

// StudentNameKazakh declines the student name for the Kazakh application header (ablative patronymic).
func StudentNameKazakh(p Person) string {
	return joinName(strings.TrimSpace(p.LastName), strings.TrimSpace(p.FirstName), KazakhPatronymicAblative(p.FatherName))
}

// StudentNameRussian declines the student name for the Russian application header.
func StudentNameRussian(p Person) string {
	if p.LastName == "" || p.FirstName == "" {
		return "Магистранта"
	}
	return RussianNameGenitive(p)
}

// SupervisorNameRussian declines the supervisor name for the Russian application body.
func SupervisorNameRussian(p Person) string {
	if p.LastName == "" || p.FirstName == "" {
		return "Руководителя"
	}
	return RussianNameGenitive(p)
}
