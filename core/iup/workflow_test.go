package iup

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/i18n"
)

var testNow = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestPlan() Plan {
	return NewPlan("student-1", i18n.Russian, "7M01101", testNow)
}

var fullTopic = Topic{Kazakh: "Тақырып", Russian: "Тема", English: "Topic"}

func TestNext(t *testing.T) {
	generic := Stage{StageType: StageGeneric}
	application := Stage{StageType: StageApplication}

	tests := []struct {
		name    string
		stage   Stage
		status  Status
		action  Action
		actor   Actor
		want    Status
		wantErr error
	}{
		{name: "student saves new stage", stage: generic, status: StatusNotStarted, action: ActionSave, actor: ActorStudent, want: StatusInProgress},
		{name: "student submits", stage: generic, status: StatusInProgress, action: ActionSubmit, actor: ActorStudent, want: StatusSubmitted},
		{name: "student resubmits rejected", stage: generic, status: StatusRejected, action: ActionSubmit, actor: ActorStudent, want: StatusSubmitted},
		{name: "student cannot approve", stage: generic, status: StatusSubmitted, action: ActionApprove, actor: ActorStudent, wantErr: ErrForbidden},
		{name: "supervisor approves", stage: generic, status: StatusSubmitted, action: ActionApprove, actor: ActorSupervisor, want: StatusSupervisorApproved},
		{name: "supervisor edit starts review", stage: generic, status: StatusSubmitted, action: ActionEdit, actor: ActorSupervisor, want: StatusSupervisorReview},
		{name: "supervisor cannot approve twice", stage: generic, status: StatusSupervisorApproved, action: ActionApprove, actor: ActorSupervisor},
		{name: "admin takes review", stage: generic, status: StatusSupervisorApproved, action: ActionReview, actor: ActorAdmin, want: StatusAdminReview},
		{name: "admin approves", stage: generic, status: StatusAdminReview, action: ActionApprove, actor: ActorAdmin, want: StatusAdminApproved},
		{name: "admin cannot approve unsupervised", stage: generic, status: StatusSubmitted, action: ActionApprove, actor: ActorAdmin},
		{name: "admin rejects", stage: generic, status: StatusAdminReview, action: ActionReject, actor: ActorAdmin, want: StatusRejected},
		{name: "nobody rejects not started", stage: generic, status: StatusNotStarted, action: ActionReject, actor: ActorAdmin},
		{name: "receipt only on application", stage: generic, status: StatusSubmitted, action: ActionReceipt, actor: ActorAdmin, wantErr: ErrNotApplicable},
		{name: "receipt on application", stage: application, status: StatusNotStarted, action: ActionReceipt, actor: ActorAdmin, want: StatusCompleted},
		{name: "no approval on application", stage: application, status: StatusSubmitted, action: ActionApprove, actor: ActorSupervisor, wantErr: ErrNotApplicable},
		{name: "no receipt twice", stage: application, status: StatusCompleted, action: ActionReceipt, actor: ActorAdmin},
		{name: "student resumes rejected", stage: generic, status: StatusRejected, action: ActionResume, actor: ActorStudent, want: StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.stage.Status = tt.status
			got, err := Next(tt.stage, tt.action, tt.actor)
			if tt.want == "" && tt.wantErr == nil {
				var terr *TransitionError
				if assert.True(t, errors.As(err, &terr), "want a TransitionError, got %v", err) {
					assert.Equal(t, tt.status, terr.From)
				}
				return
			}
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_TopicScenario(t *testing.T) {
	plan := newTestPlan()
	assert.Equal(t, 1, plan.CurrentStage)
	assert.Equal(t, 0, plan.Progress)

	// incomplete topic cannot be submitted
	err := Apply(&plan, Change{StageNumber: 1, Action: ActionSave, Actor: ActorStudent, ActorID: "student-1",
		StudentData: &StudentData{DissertationTopic: Topic{Russian: "Тема"}}}, testNow)
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, plan.Stages[0].Status)

	err = Apply(&plan, Change{StageNumber: 1, Action: ActionSubmit, Actor: ActorStudent}, testNow)
	assert.Equal(t, ErrTopicIncomplete, err)
	assert.Equal(t, StatusInProgress, plan.Stages[0].Status, "nothing applied on error")

	err = Apply(&plan, Change{StageNumber: 1, Action: ActionSave, Actor: ActorStudent,
		StudentData: &StudentData{DissertationTopic: fullTopic}}, testNow)
	assert.NoError(t, err)
	err = Apply(&plan, Change{StageNumber: 1, Action: ActionSubmit, Actor: ActorStudent, ActorID: "student-1"}, testNow)
	assert.NoError(t, err)
	assert.Equal(t, StatusSubmitted, plan.Stages[0].Status)
	assert.NotNil(t, plan.Stages[0].SubmittedAt)

	later := testNow.Add(time.Hour)
	err = Apply(&plan, Change{StageNumber: 1, Action: ActionApprove, Actor: ActorSupervisor, ActorID: "sup-1"}, later)
	assert.NoError(t, err)
	stage := plan.Stages[0]
	assert.Equal(t, StatusSupervisorApproved, stage.Status)
	last := stage.StatusHistory[len(stage.StatusHistory)-1]
	assert.Equal(t, ActorSupervisor, last.Actor)
	assert.Equal(t, "sup-1", last.ChangedBy)
	assert.Equal(t, "Одобрено руководителем", last.Comment)
	assert.Equal(t, later, plan.UpdatedAt)

	err = Apply(&plan, Change{StageNumber: 1, Action: ActionApprove, Actor: ActorAdmin, ActorID: "admin-1"}, later)
	assert.NoError(t, err)
	assert.Equal(t, StatusAdminApproved, plan.Stages[0].Status)
	assert.Equal(t, 2, plan.CurrentStage)
	assert.Equal(t, 25, plan.Progress)

	// finalized stages are closed
	err = Apply(&plan, Change{StageNumber: 1, Action: ActionSave, Actor: ActorStudent, StudentData: &StudentData{}}, later)
	assert.Equal(t, ErrStageNotCurrent, err)
}

func TestApply_Guards(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(p *Plan)
		change  Change
		wantErr error
	}{
		{
			name:    "unknown stage",
			change:  Change{StageNumber: 9, Action: ActionSave, Actor: ActorStudent},
			wantErr: ErrStageNotFound,
		},
		{
			name:    "future stage",
			change:  Change{StageNumber: 3, Action: ActionSave, Actor: ActorStudent, StudentData: &StudentData{TextData: "x"}},
			wantErr: ErrPreviousStageOpen,
		},
		{
			name:    "reject without comment",
			prepare: func(p *Plan) { p.Stages[0].Status = StatusSubmitted },
			change:  Change{StageNumber: 1, Action: ActionReject, Actor: ActorSupervisor, Comment: "   "},
			wantErr: ErrCommentRequired,
		},
		{
			name:    "save without data",
			change:  Change{StageNumber: 1, Action: ActionSave, Actor: ActorStudent},
			wantErr: ErrPayloadEmpty,
		},
		{
			name:    "edit without data",
			prepare: func(p *Plan) { p.Stages[0].Status = StatusSubmitted },
			change:  Change{StageNumber: 1, Action: ActionEdit, Actor: ActorSupervisor},
			wantErr: ErrPayloadEmpty,
		},
		{
			name: "empty generic stage",
			prepare: func(p *Plan) {
				p.Stages[0].Status, p.Stages[1].Status = StatusAdminApproved, StatusCompleted
				p.Stages[2].Status = StatusInProgress
				p.Recompute()
			},
			change:  Change{StageNumber: 3, Action: ActionSubmit, Actor: ActorStudent},
			wantErr: ErrPayloadEmpty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := newTestPlan()
			if tt.prepare != nil {
				tt.prepare(&plan)
			}
			before := plan.Stages[0].StatusHistory
			err := Apply(&plan, tt.change, testNow)
			assert.Equal(t, tt.wantErr, err)
			assert.True(t, IsGuardError(err) || err == ErrStageNotFound)
			assert.Equal(t, before, plan.Stages[0].StatusHistory)
		})
	}
}

func TestApply_RejectAndResume(t *testing.T) {
	plan := newTestPlan()
	plan.Stages[0].StudentData.DissertationTopic = fullTopic
	plan.Stages[0].Status = StatusSubmitted

	err := Apply(&plan, Change{StageNumber: 1, Action: ActionReject, Actor: ActorSupervisor, Comment: " Уточните тему "}, testNow)
	assert.NoError(t, err)
	stage := plan.Stages[0]
	assert.Equal(t, StatusRejected, stage.Status)
	assert.Equal(t, "Уточните тему", stage.StatusHistory[len(stage.StatusHistory)-1].Comment)
	assert.Equal(t, StatusRejected, plan.OverallStatus)

	err = Apply(&plan, Change{StageNumber: 1, Action: ActionResume, Actor: ActorStudent}, testNow)
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, plan.Stages[0].Status)
	assert.Len(t, plan.Stages[0].StatusHistory, 2)
}

func TestApply_SupervisorEdits(t *testing.T) {
	plan := newTestPlan()
	plan.Stages[0].StudentData.DissertationTopic = Topic{Russian: "Черновик"}
	plan.Stages[0].Status = StatusSubmitted

	edited := Topic{Kazakh: "Түзетілген", Russian: "Исправленная тема", English: "Edited topic"}
	err := Apply(&plan, Change{StageNumber: 1, Action: ActionEdit, Actor: ActorSupervisor,
		SupervisorEdits: &SupervisorEdits{DissertationTopic: &edited}}, testNow)
	assert.NoError(t, err)

	stage := plan.Stages[0]
	assert.Equal(t, StatusSupervisorReview, stage.Status)
	assert.Equal(t, edited, stage.Topic())
	assert.Equal(t, testNow, *stage.SupervisorEdits.EditedAt)
	assert.Equal(t, "Черновик", stage.StudentData.DissertationTopic.Russian, "student data kept")
}

func TestApply_ApplicationReceipt(t *testing.T) {
	plan := newTestPlan()
	plan.Stages[0].Status = StatusAdminApproved
	plan.Recompute()
	assert.Equal(t, 2, plan.CurrentStage)

	// the application stage carries no content
	err := Apply(&plan, Change{StageNumber: 2, Action: ActionSave, Actor: ActorStudent}, testNow)
	assert.NoError(t, err)
	err = Apply(&plan, Change{StageNumber: 2, Action: ActionSubmit, Actor: ActorStudent}, testNow)
	assert.NoError(t, err)

	err = Apply(&plan, Change{StageNumber: 2, Action: ActionReceipt, Actor: ActorAdmin, ActorID: "admin-1"}, testNow)
	assert.NoError(t, err)
	stage := plan.Stages[1]
	assert.Equal(t, StatusCompleted, stage.Status)
	assert.True(t, stage.AdminReceived)
	assert.Equal(t, testNow, *stage.AdminReceivedDate)
	assert.Equal(t, "Заявление получено администратором", stage.StatusHistory[len(stage.StatusHistory)-1].Comment)
	assert.Equal(t, 3, plan.CurrentStage)
	assert.Equal(t, 50, plan.Progress)
}
