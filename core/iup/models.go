package iup

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/docmaster/docmaster/core/i18n"
)

type (
	Topic struct {
		Kazakh  string `json:"kazakh"`
		Russian string `json:"russian"`
		English string `json:"english"`
	}

	StudentData struct {
		DissertationTopic Topic  `json:"dissertationTopic"`
		TextData          string `json:"textData"`
	}

	SupervisorEdits struct {
		DissertationTopic *Topic     `json:"dissertationTopic,omitempty"`
		TextData          string     `json:"textData,omitempty"`
		Comments          string     `json:"comments,omitempty"`
		EditedAt          *time.Time `json:"editedAt,omitempty"`
	}

	HistoryEntry struct {
		Status    Status    `json:"status"`
		Comment   string    `json:"comment,omitempty"`
		Actor     Actor     `json:"actor"`
		ChangedBy string    `json:"changedBy"`
		ChangedAt time.Time `json:"changedAt"`
	}

	Stage struct {
		StageNumber          int             `json:"stageNumber"`
		StageType            StageType       `json:"stageType"`
		Title                string          `json:"title"`
		Description          string          `json:"description,omitempty"`
		Status               Status          `json:"status"`
		StudentData          StudentData     `json:"studentData"`
		SupervisorEdits      SupervisorEdits `json:"supervisorEdits"`
		StatusHistory        []HistoryEntry  `json:"statusHistory"`
		SubmittedAt          *time.Time      `json:"submittedAt,omitempty"`
		SupervisorReviewedAt *time.Time      `json:"supervisorReviewedAt,omitempty"`
		AdminReviewedAt      *time.Time      `json:"adminReviewedAt,omitempty"`
		AdminReceived        bool            `json:"adminReceived"`
		AdminReceivedDate    *time.Time      `json:"adminReceivedDate,omitempty"`
	}

	// Participant is the summary of a plan's student or supervisor.
	Participant struct {
		ID         string        `json:"_id"`
		FullName   string        `json:"fullName"`
		LastName   string        `json:"lastname"`
		FirstName  string        `json:"firstname"`
		FatherName string        `json:"fathername,omitempty"`
		Email      string        `json:"email,omitempty"`
		Program    string        `json:"OP,omitempty"`
		Language   i18n.Language `json:"language,omitempty"`
		Degrees    []string      `json:"degree,omitempty"`
	}

	Metadata struct {
		Language         i18n.Language `json:"language"`
		EducationProgram string        `json:"educationProgram"`
		TotalStages      int           `json:"totalStages"`
	}

	Plan struct {
		ID            string       `json:"_id"`
		StudentID     string       `json:"-"`
		Student       Participant  `json:"student"`
		Supervisor    *Participant `json:"supervisor"`
		Year          int          `json:"year"`
		Metadata      Metadata     `json:"metadata"`
		CurrentStage  int          `json:"currentStage"`
		Stages        []Stage      `json:"stages"`
		OverallStatus Status       `json:"overallStatus"`
		Progress      int          `json:"progress"`
		CreatedAt     time.Time    `json:"createdAt"`
		UpdatedAt     time.Time    `json:"updatedAt"`
	}

	// Summary is a plan row of a supervisor dashboard.
	Summary struct {
		ID                       string      `json:"_id"`
		Student                  Participant `json:"student"`
		CurrentStage             int         `json:"currentStage"`
		OverallStatus            Status      `json:"overallStatus"`
		Progress                 int         `json:"progress"`
		StagesRequiringAttention []int       `json:"stagesRequiringAttention"`
		UpdatedAt                time.Time   `json:"updatedAt"`
	}

	QueryFilter struct {
		Search    string        `query:"search"`
		Program   string        `query:"OP"`
		Language  i18n.Language `query:"language"`
		Status    Status        `query:"status"`
		StudentID string        `query:"studentId"`
	}
)

func (t Topic) Complete() bool {
	return strings.TrimSpace(t.Kazakh) != "" && strings.TrimSpace(t.Russian) != "" && strings.TrimSpace(t.English) != ""
}

// SortedHistory returns a newest-first copy of the status history.
func (s Stage) SortedHistory() []HistoryEntry {
	history := make([]HistoryEntry, len(s.StatusHistory))
	copy(history, s.StatusHistory)
	sort.SliceStable(history, func(i, j int) bool { return history[i].ChangedAt.After(history[j].ChangedAt) })
	return history
}

// Topic returns the dissertation topic as edited by the supervisor, or as entered by the student.
func (s Stage) Topic() Topic {
	if s.SupervisorEdits.DissertationTopic != nil {
		return *s.SupervisorEdits.DissertationTopic
	}
	return s.StudentData.DissertationTopic
}

func (p *Plan) Stage(n int) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].StageNumber == n {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

func (p *Plan) StageOfType(t StageType) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].StageType == t {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// Recompute derives the current stage, the overall status and the progress from the stages.
// The current stage moves past finalized stages and never goes back.
func (p *Plan) Recompute() {
	sort.SliceStable(p.Stages, func(i, j int) bool { return p.Stages[i].StageNumber < p.Stages[j].StageNumber })

	total := len(p.Stages)
	p.Metadata.TotalStages = total
	if total == 0 {
		p.CurrentStage, p.Progress, p.OverallStatus = 0, 0, StatusNotStarted
		return
	}

	finalized := 0
	for _, s := range p.Stages {
		if s.Status.Finalized() {
			finalized++
		}
	}
	p.Progress = int(math.Round(100 * float64(finalized) / float64(total)))

	if p.CurrentStage < p.Stages[0].StageNumber {
		p.CurrentStage = p.Stages[0].StageNumber
	}
	for i, s := range p.Stages {
		if s.StageNumber < p.CurrentStage || !s.Status.Finalized() {
			continue
		}
		if s.StageNumber == p.CurrentStage && i+1 < total {
			p.CurrentStage = p.Stages[i+1].StageNumber
		}
	}

	if finalized == total {
		p.OverallStatus = StatusCompleted
	} else if cur, ok := p.Stage(p.CurrentStage); ok {
		p.OverallStatus = cur.Status
	}
}

// RequiringAttention lists the numbers of the stages waiting for the given actor.
func (p *Plan) RequiringAttention(actor Actor) []int {
	stages := make([]int, 0)
	for _, s := range p.Stages {
		if s.StageNumber != p.CurrentStage {
			continue
		}
		switch actor {
		case ActorSupervisor:
			if s.StageType != StageApplication && (s.Status == StatusSubmitted || s.Status == StatusSupervisorReview) {
				stages = append(stages, s.StageNumber)
			}
		case ActorAdmin:
			if s.Status == StatusSupervisorApproved || s.Status == StatusAdminReview ||
				(s.StageType == StageApplication && s.Status == StatusSubmitted) {
				stages = append(stages, s.StageNumber)
			}
		case ActorStudent:
			if s.Status == StatusRejected || s.Status == StatusNotStarted || s.Status == StatusInProgress {
				stages = append(stages, s.StageNumber)
			}
		}
	}
	return stages
}

func (p *Plan) Summary(actor Actor) Summary {
	return Summary{
		ID:                       p.ID,
		Student:                  p.Student,
		CurrentStage:             p.CurrentStage,
		OverallStatus:            p.OverallStatus,
		Progress:                 p.Progress,
		StagesRequiringAttention: p.RequiringAttention(actor),
		UpdatedAt:                p.UpdatedAt,
	}
}

type stageTemplate struct {
	stageType   StageType
	title       string
	description string
}

var defaultStages = []stageTemplate{
	{StageTopic, "Утверждение темы диссертации", "Тема диссертации на казахском, русском и английском языках"},
	{StageApplication, "Заявление на утверждение темы и научного руководителя", "Распечатайте заявление, подпишите и передайте администратору"},
	{StageGeneric, "Индивидуальный план работы", "План научно-исследовательской работы на период обучения"},
	{StageGeneric, "Отчёт о научной работе", "Отчёт о выполнении индивидуального плана"},
}

// NewPlan builds a plan from the default stage template.
func NewPlan(studentID string, lang i18n.Language, program string, now time.Time) Plan {
	stages := make([]Stage, 0, len(defaultStages))
	for i, t := range defaultStages {
		stages = append(stages, Stage{
			StageNumber:   i + 1,
			StageType:     t.stageType,
			Title:         t.title,
			Description:   t.description,
			Status:        StatusNotStarted,
			StatusHistory: []HistoryEntry{},
		})
	}

	year := now.Year()
	if now.Month() < time.September {
		year-- // academic year starts in September
	}

	plan := Plan{
		StudentID: studentID,
		Year:      year,
		Metadata:  Metadata{Language: lang, EducationProgram: program},
		Stages:    stages,
		CreatedAt: now,
		UpdatedAt: now,
	}
	plan.Recompute()
	return plan
}
