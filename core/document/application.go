// Package document renders the dissertation topic application a student hands to the administration.
package document

import (
	"bytes"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core/grammar"
	"github.com/docmaster/docmaster/core/i18n"
	appfs "github.com/docmaster/docmaster/fs"
)

const unknownProgram = "7M______"

var (
	tmplOnce  sync.Once
	tmplErr   error
	templates map[bool]*template.Template // {kazakh: template}
)

type (
	Topic struct {
		Kazakh  string
		Russian string
		English string
	}

	Student struct {
		grammar.Person
		Program string
	}

	Supervisor struct {
		grammar.Person
		Degrees []string
	}

	Application struct {
		Student    Student
		Supervisor *Supervisor
		Topic      Topic
		Date       time.Time
	}

	applicationView struct {
		ProgramFirstLine  string
		ProgramSecondLine string
		StudentName       string
		SupervisorName    string
		SupervisorDegree  string
		TopicKazakh       string
		TopicRussian      string
		TopicEnglish      string
		Date              string
	}
)

func parseTemplates() {
	templates = make(map[bool]*template.Template, 2)
	for kazakh, name := range map[bool]string{true: "application_kaz.txt", false: "application_rus.txt"} {
		tmpl, err := template.ParseFS(appfs.FS, "templates/documents/"+name)
		if err != nil {
			tmplErr = errors.Wrapf(err, "parsing %s", name)
			return
		}
		templates[kazakh] = tmpl.Option("missingkey=error")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (app Application) view(kazakh bool) applicationView {
	lang := i18n.Russian
	if kazakh {
		lang = i18n.Kazakh
	}

	program := orDefault(app.Student.Program, unknownProgram)
	first := i18n.LocalizedName(program, lang, i18n.TemplateFull)
	var second string
	if strings.Contains(first, " ") {
		first, second = grammar.SplitProgramText(first)
	}

	v := applicationView{
		ProgramFirstLine:  first,
		ProgramSecondLine: second,
		Date:              grammar.ApplicationDate(app.Date, kazakh),
		TopicRussian:      orDefault(app.Topic.Russian, "Тема диссертации на русском языке"),
		TopicEnglish:      orDefault(app.Topic.English, "Dissertation topic in English"),
	}

	var sup Supervisor
	if app.Supervisor != nil {
		sup = *app.Supervisor
	}

	if kazakh {
		v.StudentName = orDefault(grammar.StudentNameKazakh(app.Student.Person), "Магистрант ТАЖ")
		v.SupervisorName = grammar.ApplicationName(sup.Person, true)
		v.SupervisorDegree = orDefault(i18n.FormatDegrees(sup.Degrees, lang, i18n.DegreeFull), "ғылыми дәрежесі")
		v.TopicKazakh = orDefault(app.Topic.Kazakh, "Диссертация тақырыбы қазақ тілінде")
	} else {
		v.StudentName = grammar.StudentNameRussian(app.Student.Person)
		v.SupervisorName = grammar.SupervisorNameRussian(sup.Person)
		v.SupervisorDegree = orDefault(i18n.FormatDegreesGenitive(sup.Degrees, lang, i18n.DegreeFull), "ученой степени")
		v.TopicKazakh = orDefault(app.Topic.Kazakh, "Тема диссертации на казахском языке")
	}
	return v
}

// RenderApplication renders the application as plain text.
// Kazakh plans get the Kazakh template, every other language the Russian one.
func RenderApplication(lang i18n.Language, app Application) (string, error) {
	tmplOnce.Do(parseTemplates)
	if tmplErr != nil {
		return "", tmplErr
	}

	kazakh := lang == i18n.Kazakh
	if app.Date.IsZero() {
		app.Date = time.Now()
	}

	var buff bytes.Buffer
	if err := templates[kazakh].Execute(&buff, app.view(kazakh)); err != nil {
		return "", errors.Wrap(err, "executing application template")
	}
	return buff.String(), nil
}
