package i18n

import (
	"regexp"
	"strings"
)

type DegreeTemplate string

const (
	DegreeFull  DegreeTemplate = "d1"
	DegreeShort DegreeTemplate = "d2"
)

// degree code order is the display order of DegreeOptions
var degreeCodes = []string{"phd_assoc_prof", "candidate_prof", "assoc_prof", "phd", "candidate", "professor", "doctor"}

var degrees = map[string]map[string]map[DegreeTemplate]string{
	"phd_assoc_prof": {
		"rus": {DegreeFull: "ассоциированный профессор", DegreeShort: "ассоц.проф."},
		"kaz": {DegreeFull: "қауымдастырылған профессор", DegreeShort: "қауымд.проф."},
	},
	"candidate_prof": {
		"rus": {DegreeFull: "кандидат педагогических наук, профессор", DegreeShort: "к.п.н., проф."},
		"kaz": {DegreeFull: "педагогика ғылымдарының кандидаты, профессор", DegreeShort: "п.ғ.к., проф."},
	},
	"assoc_prof": {
		"rus": {DegreeFull: "ассоциированный профессор", DegreeShort: "ассоц.проф."},
		"kaz": {DegreeFull: "қауымдастырылған профессор", DegreeShort: "қауымд.проф."},
	},
	"phd": {
		"rus": {DegreeFull: "PhD", DegreeShort: "PhD"},
		"kaz": {DegreeFull: "PhD", DegreeShort: "PhD"},
	},
	"candidate": {
		"rus": {DegreeFull: "кандидат педагогических наук", DegreeShort: "к.п.н."},
		"kaz": {DegreeFull: "педагогика ғылымдарының кандидаты", DegreeShort: "п.ғ.к."},
	},
	"professor": {
		"rus": {DegreeFull: "профессор", DegreeShort: "проф."},
		"kaz": {DegreeFull: "профессор", DegreeShort: "проф."},
	},
	"doctor": {
		"rus": {DegreeFull: "доктор педагогических наук", DegreeShort: "д.п.н."},
		"kaz": {DegreeFull: "педагогика ғылымдарының докторы", DegreeShort: "п.ғ.д."},
	},
}

func IsValidDegree(code string) bool {
	_, ok := degrees[code]
	return ok
}

// LocalizedDegree returns the display name of a degree code, or the code itself when unknown.
func LocalizedDegree(code string, lang Language, tmpl DegreeTemplate) string {
	d, ok := degrees[code]
	if !ok {
		return code
	}
	if name, ok := d[lang.table()][tmpl]; ok {
		return name
	}
	return code
}

func DegreeOptions(lang Language, tmpl DegreeTemplate) []Option {
	opts := make([]Option, 0, len(degreeCodes))
	for _, code := range degreeCodes {
		opts = append(opts, Option{Value: code, Label: LocalizedDegree(code, lang, tmpl)})
	}
	return opts
}

// FormatDegrees joins the localized names of the given degree codes.
func FormatDegrees(codes []string, lang Language, tmpl DegreeTemplate) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, LocalizedDegree(code, lang, tmpl))
	}
	return strings.Join(names, ", ")
}

// FormatDegreesGenitive is FormatDegrees declined to the genitive case for Russian.
// Other languages are returned as is.
func FormatDegreesGenitive(codes []string, lang Language, tmpl DegreeTemplate) string {
	text := FormatDegrees(codes, lang, tmpl)
	if lang != Russian {
		return text
	}
	return DeclineDegreeGenitive(text)
}

type declension struct {
	from *regexp.Regexp
	to   string
}

// most specific rules first
var degreeGenitiveRules = []declension{
	{regexp.MustCompile(`кандидат педагогических наук, профессор$`), "кандидата педагогических наук, профессора"},
	{regexp.MustCompile(`кандидат технических наук, профессор$`), "кандидата технических наук, профессора"},
	{regexp.MustCompile(`кандидат физико-математических наук, профессор$`), "кандидата физико-математических наук, профессора"},
	{regexp.MustCompile(`доктор педагогических наук, профессор$`), "доктора педагогических наук, профессора"},
	{regexp.MustCompile(`доктор технических наук, профессор$`), "доктора технических наук, профессора"},
	{regexp.MustCompile(`доктор физико-математических наук, профессор$`), "доктора физико-математических наук, профессора"},

	{regexp.MustCompile(`кандидат педагогических наук, доцент$`), "кандидата педагогических наук, доцента"},
	{regexp.MustCompile(`кандидат технических наук, доцент$`), "кандидата технических наук, доцента"},
	{regexp.MustCompile(`кандидат физико-математических наук, доцент$`), "кандидата физико-математических наук, доцента"},

	{regexp.MustCompile(`кандидат педагогических наук$`), "кандидата педагогических наук"},
	{regexp.MustCompile(`кандидат технических наук$`), "кандидата технических наук"},
	{regexp.MustCompile(`кандидат физико-математических наук$`), "кандидата физико-математических наук"},
	{regexp.MustCompile(`доктор педагогических наук$`), "доктора педагогических наук"},
	{regexp.MustCompile(`доктор технических наук$`), "доктора технических наук"},
	{regexp.MustCompile(`доктор физико-математических наук$`), "доктора физико-математических наук"},

	{regexp.MustCompile(`ассоциированный профессор$`), "ассоциированного профессора"},
	{regexp.MustCompile(`профессор$`), "профессора"},
	{regexp.MustCompile(`ассоциированный доцент$`), "ассоциированного доцента"},
	{regexp.MustCompile(`доцент$`), "доцента"},

	{regexp.MustCompile(`старший преподаватель$`), "старшего преподавателя"},
	{regexp.MustCompile(`преподаватель$`), "преподавателя"},

	{regexp.MustCompile(`^PhD$`), "PhD"},
}

// DeclineDegreeGenitive declines a Russian degree title to the genitive case.
// Only the first matching rule applies; unmatched text is returned unchanged.
func DeclineDegreeGenitive(text string) string {
	for _, rule := range degreeGenitiveRules {
		if rule.from.MatchString(text) {
			return rule.from.ReplaceAllLiteralString(text, rule.to)
		}
	}
	return text
}
