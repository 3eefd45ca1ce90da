package grammar

import (
	"testing"
	"time"
)

func TestKazakhPatronymic(t *testing.T) {
	tests := []struct {
		in, want, wantAblative string
	}{
		{in: "Кайсарұлы", want: "Кайсарұлын", wantAblative: "Кайсарұлынан"},
		{in: "Айгерімқызы", want: "Айгерімқызын", wantAblative: "Айгерімқызынан"},
		{in: "Шахманович", want: "Шахмановичты", wantAblative: "Шахмановичтан"},
		{in: "Ивановна", want: "Ивановнаны", wantAblative: "Ивановнадан"},
		{in: "Сергеевич", want: "Сергеевичты", wantAblative: "Сергеевичтан"},
		{in: "Ильинична", want: "Ильиничнаны", wantAblative: "Ильиничнадан"},
		{in: "  Кайсарұлы ", want: "Кайсарұлын", wantAblative: "Кайсарұлынан"},
		// identity fallbacks
		{in: "", want: "", wantAblative: ""},
		{in: "Smith", want: "Smith", wantAblative: "Smith"},
		{in: "Ахмет", want: "Ахмет", wantAblative: "Ахмет"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := KazakhPatronymic(tt.in); got != tt.want {
				t.Errorf("KazakhPatronymic(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got := KazakhPatronymicAblative(tt.in); got != tt.wantAblative {
				t.Errorf("KazakhPatronymicAblative(%q) = %q, want %q", tt.in, got, tt.wantAblative)
			}
		})
	}
}

func TestRussianNameAccusative(t *testing.T) {
	tests := []struct {
		name string
		p    Person
		want string
	}{
		{name: "male -ов", p: Person{"Иванов", "Иван", "Иванович"}, want: "Иванова Иван Ивановича"},
		{name: "-ский", p: Person{"Невский", "Александр", "Ярославич"}, want: "Невского Александр Ярославич"},
		{name: "female", p: Person{"Петрова", "Анна", "Сергеевна"}, want: "Петрова Анну Сергеевну"},
		{name: "-я first name", p: Person{"Кузнецова", "Мария", ""}, want: "Кузнецова Марию"},
		{name: "-енко", p: Person{"Шевченко", "Тарас", "Григорьевич"}, want: "Шевченко Тарас Григорьевича"},
		{name: "-а last name", p: Person{"Дума", "Игорь", ""}, want: "Думу Игорь"},
		// identity fallbacks
		{name: "kazakh name untouched", p: Person{"Жумабаев", "Ерлан", "Кайсарұлы"}, want: "Жумабаева Ерлан Кайсарұлы"},
		{name: "no first name", p: Person{"Иванов", "", "Иванович"}, want: "Иванов Иванович"},
		{name: "empty", p: Person{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RussianNameAccusative(tt.p); got != tt.want {
				t.Errorf("RussianNameAccusative() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRussianNameGenitive(t *testing.T) {
	tests := []struct {
		name string
		p    Person
		want string
	}{
		{name: "male -ов", p: Person{"Иванов", "Иван", "Иванович"}, want: "Иванова Ивана Ивановича"},
		{name: "special Султан", p: Person{"Нурланов", "Султан", "Ерланович"}, want: "Нурланова Султана Ерлановича"},
		{name: "-й", p: Person{"Смирнов", "Андрей", "Петрович"}, want: "Смирнова Андрея Петровича"},
		{name: "-ь", p: Person{"Соколов", "Игорь", "Ильич"}, want: "Соколова Игоря Ильича"},
		{name: "female -ова", p: Person{"Козлова", "Анна", "Ивановна"}, want: "Козловой Анны Ивановны"},
		{name: "female -ия", p: Person{"Павлова", "Мария", "Алексеевна"}, want: "Павловой Марии Алексеевны"},
		{name: "-ский", p: Person{"Вишневский", "Никита", ""}, want: "Вишневского Никиты"},
		{name: "-енко", p: Person{"Бондаренко", "Олег", ""}, want: "Бондаренко Олег"},
		// identity fallbacks
		{name: "name ending -ан", p: Person{"Ким", "Ерлан", ""}, want: "Ким Ерлан"},
		{name: "no last name", p: Person{"", "Иван", "Иванович"}, want: "Иван Иванович"},
		{name: "empty", p: Person{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RussianNameGenitive(tt.p); got != tt.want {
				t.Errorf("RussianNameGenitive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplicationNames(t *testing.T) {
	p := Person{LastName: "Жумабаев", FirstName: "Ерлан", FatherName: "Кайсарұлы"}

	if got, want := ApplicationName(p, true), "Жумабаев Ерлан Кайсарұлын"; got != want {
		t.Errorf("ApplicationName(kazakh) = %q, want %q", got, want)
	}
	if got, want := ApplicationName(p, false), "Жумабаева Ерлан Кайсарұлы"; got != want {
		t.Errorf("ApplicationName(russian) = %q, want %q", got, want)
	}
	if got, want := StudentNameKazakh(p), "Жумабаев Ерлан Кайсарұлынан"; got != want {
		t.Errorf("StudentNameKazakh() = %q, want %q", got, want)
	}
	if got, want := StudentNameKazakh(Person{LastName: "Ли", FirstName: "Анна"}), "Ли Анна"; got != want {
		t.Errorf("StudentNameKazakh() = %q, want %q", got, want)
	}
	if got, want := StudentNameRussian(Person{}), "Магистранта"; got != want {
		t.Errorf("StudentNameRussian() = %q, want %q", got, want)
	}
	if got, want := SupervisorNameRussian(Person{FirstName: "Иван"}), "Руководителя"; got != want {
		t.Errorf("SupervisorNameRussian() = %q, want %q", got, want)
	}
	if got, want := SupervisorNameRussian(Person{"Иванов", "Иван", "Иванович"}), "Иванова Ивана Ивановича"; got != want {
		t.Errorf("SupervisorNameRussian() = %q, want %q", got, want)
	}
}

func TestApplicationDate(t *testing.T) {
	date := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	if got, want := ApplicationDate(date, true), "«19» қазан 2026 ж."; got != want {
		t.Errorf("ApplicationDate(kazakh) = %q, want %q", got, want)
	}
	if got, want := ApplicationDate(date, false), "«19» октября 2026 г."; got != want {
		t.Errorf("ApplicationDate(russian) = %q, want %q", got, want)
	}
	if got := MonthName(time.Month(13), false); got != "" {
		t.Errorf("MonthName(13) = %q, want empty", got)
	}
	if got, want := MonthName(time.January, true), "қаңтар"; got != want {
		t.Errorf("MonthName(January, kazakh) = %q, want %q", got, want)
	}
}

func TestSplitProgramText(t *testing.T) {
	tests := []struct {
		in, first, second string
	}{
		{in: "", first: "", second: ""},
		{in: "«7M06101 - Информационные системы и технологии»", first: "«7M06101 - Информационные системы", second: "и технологии»"},
		{in: "«7M06101 - Ақпараттық жүйелер және технологиялар»", first: "«7M06101 - Ақпараттық жүйелер", second: "және технологиялар»"},
		{in: "«7M01503 - Информатика»", first: "«7M01503 -", second: "Информатика»"},
		{in: "Цифровая педагогика", first: "Цифровая", second: "педагогика"},
		{in: "Информатика", first: "Инфор", second: "матика"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first, second := SplitProgramText(tt.in)
			if first != tt.first || second != tt.second {
				t.Errorf("SplitProgramText(%q) = (%q, %q), want (%q, %q)", tt.in, first, second, tt.first, tt.second)
			}
		})
	}
}
