package i18n

import "sort"

type Template string

const (
	TemplateFull  Template = "t1" // «CODE - Name»
	TemplateCode  Template = "t2" // «CODE» - Name
	TemplateShort Template = "short"
)

func (t Template) Valid() bool {
	switch t {
	case TemplateFull, TemplateCode, TemplateShort:
		return true
	}
	return false
}

type programNames map[Template]string

// Program is an education program (OP) offered to one student role.
type Program struct {
	Code  string
	names map[string]programNames // {kaz|rus: {template: name}}
}

func newProgram(code, kaz, rus string) Program {
	names := func(name string) programNames {
		return programNames{
			TemplateFull:  "«" + code + " - " + name + "»",
			TemplateCode:  "«" + code + "» - " + name,
			TemplateShort: name,
		}
	}
	return Program{
		Code:  code,
		names: map[string]programNames{"kaz": names(kaz), "rus": names(rus)},
	}
}

// Name returns the program name for the language and template, defaulting to TemplateFull.
func (p Program) Name(lang Language, tmpl Template) string {
	names := p.names[lang.table()]
	if name, ok := names[tmpl]; ok {
		return name
	}
	if name, ok := names[TemplateFull]; ok {
		return name
	}
	return p.Code
}

// programs by student role
var programs = map[string]map[string]Program{
	"magistrants": {
		"7M01503": newProgram("7M01503", "Информатика", "Информатика"),
		"7M06101": newProgram("7M06101", "Ақпараттық жүйелер және технологиялар", "Информационные системы и технологии"),
		"7M06104": newProgram("7M06104", "Ақпараттық жүйелер және технологиялар", "Информационные системы и технологии"),
	},
	"doctorants": {
		"8D01103": newProgram("8D01103", "Сандық педагогика", "Цифровая педагогика"),
	},
}

// ProgramsForRole returns the programs of a student role sorted by code.
func ProgramsForRole(role string) []Program {
	rolePrograms := programs[role]
	list := make([]Program, 0, len(rolePrograms))
	for _, p := range rolePrograms {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// ProgramByCode finds a program, searching every role when role is empty.
func ProgramByCode(code, role string) (Program, bool) {
	if role != "" {
		p, ok := programs[role][code]
		return p, ok
	}
	roles := make([]string, 0, len(programs))
	for r := range programs {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for _, r := range roles {
		if p, ok := programs[r][code]; ok {
			return p, true
		}
	}
	return Program{}, false
}

// LocalizedName returns the display name of a program code, or the code itself when unknown.
func LocalizedName(code string, lang Language, tmpl Template) string {
	p, ok := ProgramByCode(code, "")
	if !ok {
		return code
	}
	return p.Name(lang, tmpl)
}

// SelectOptions lists the programs of a role as select options.
func SelectOptions(role string, lang Language, tmpl Template) []Option {
	list := ProgramsForRole(role)
	opts := make([]Option, 0, len(list))
	for _, p := range list {
		opts = append(opts, Option{Value: p.Code, Label: p.Name(lang, tmpl)})
	}
	return opts
}

// SupportedCodes returns every known program code, sorted and deduplicated.
func SupportedCodes() []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, rolePrograms := range programs {
		for code := range rolePrograms {
			if _, ok := seen[code]; !ok {
				seen[code] = struct{}{}
				codes = append(codes, code)
			}
		}
	}
	sort.Strings(codes)
	return codes
}

func IsValidProgramForRole(code, role string) bool {
	_, ok := programs[role][code]
	return ok
}
