package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/grammar"
	"github.com/docmaster/docmaster/core/i18n"
)

func testApplication() Application {
	return Application{
		Student: Student{
			Person:  grammar.Person{LastName: "Козлова", FirstName: "Анна", FatherName: "Ивановна"},
			Program: "7M06101",
		},
		Supervisor: &Supervisor{
			Person:  grammar.Person{LastName: "Иванов", FirstName: "Иван", FatherName: "Иванович"},
			Degrees: []string{"candidate_prof"},
		},
		Topic: Topic{
			Kazakh:  "Білім берудегі цифрлық платформалар",
			Russian: "Цифровые платформы в образовании",
			English: "Digital platforms in education",
		},
		Date: time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderApplication_russian(t *testing.T) {
	doc, err := RenderApplication(i18n.Russian, testApplication())
	if err != nil {
		t.Fatalf("RenderApplication() error = %v", err)
	}

	for _, want := range []string{
		"ОП «7M06101 - Информационные системы\n",
		"и технологии»",
		"Козловой Анны Ивановны",
		"научным руководителем кандидата педагогических наук, профессора",
		"информатики Иванова Ивана Ивановича",
		"«Білім берудегі цифрлық платформалар», «Цифровые платформы в образовании», «Digital platforms in education»",
		"«19» октября 2026 г.",
		"Заявление",
	} {
		assert.Contains(t, doc, want)
	}
}

func TestRenderApplication_kazakh(t *testing.T) {
	app := testApplication()
	app.Student.FatherName = "Кайсарқызы"
	app.Supervisor.FatherName = "Кайсарұлы"

	doc, err := RenderApplication(i18n.Kazakh, app)
	if err != nil {
		t.Fatalf("RenderApplication() error = %v", err)
	}

	for _, want := range []string{
		"«7M06101 - Ақпараттық жүйелер\n",
		"және технологиялар»",
		"Козлова Анна Кайсарқызынан",
		"педагогика ғылымдарының кандидаты, профессоры Иванов Иван Кайсарұлын",
		"«19» қазан 2026 ж.",
		"Өтініш",
	} {
		assert.Contains(t, doc, want)
	}
}

func TestRenderApplication_defaults(t *testing.T) {
	doc, err := RenderApplication(i18n.English, Application{})
	if err != nil {
		t.Fatalf("RenderApplication() error = %v", err)
	}

	// unknown programs and missing people fall back to placeholders
	for _, want := range []string{
		"ОП 7M______",
		"Магистранта",
		"ученой степени кафедры",
		"Руководителя",
		"«Тема диссертации на казахском языке»",
		"«Dissertation topic in English»",
	} {
		assert.Contains(t, doc, want)
	}
	if strings.Contains(doc, "<no value>") {
		t.Errorf("rendered document has missing values:\n%s", doc)
	}
}
