package iup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/i18n"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantYear int
	}{
		{name: "autumn", now: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), wantYear: 2025},
		{name: "spring", now: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), wantYear: 2025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewPlan("s", i18n.Kazakh, "7M01503", tt.now)
			assert.Equal(t, tt.wantYear, plan.Year)
			assert.Equal(t, 1, plan.CurrentStage)
			assert.Equal(t, StatusNotStarted, plan.OverallStatus)
			assert.Equal(t, len(defaultStages), plan.Metadata.TotalStages)
			assert.Equal(t, StageTopic, plan.Stages[0].StageType)
			assert.Equal(t, StageApplication, plan.Stages[1].StageType)
		})
	}
}

func TestPlan_Recompute(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []Status
		current      int
		wantCurrent  int
		wantProgress int
		wantOverall  Status
	}{
		{
			name:         "fresh",
			statuses:     []Status{StatusNotStarted, StatusNotStarted, StatusNotStarted, StatusNotStarted},
			wantCurrent:  1,
			wantOverall:  StatusNotStarted,
			wantProgress: 0,
		},
		{
			name:         "first approved",
			statuses:     []Status{StatusAdminApproved, StatusInProgress, StatusNotStarted, StatusNotStarted},
			current:      1,
			wantCurrent:  2,
			wantOverall:  StatusInProgress,
			wantProgress: 25,
		},
		{
			name:         "never goes back",
			statuses:     []Status{StatusRejected, StatusNotStarted, StatusNotStarted, StatusNotStarted},
			current:      3,
			wantCurrent:  3,
			wantOverall:  StatusNotStarted,
			wantProgress: 0,
		},
		{
			name:         "all done",
			statuses:     []Status{StatusAdminApproved, StatusCompleted, StatusAdminApproved, StatusAdminApproved},
			current:      1,
			wantCurrent:  4,
			wantOverall:  StatusCompleted,
			wantProgress: 100,
		},
		{
			name:         "rounded progress",
			statuses:     []Status{StatusAdminApproved, StatusSubmitted, StatusNotStarted},
			current:      2,
			wantCurrent:  2,
			wantOverall:  StatusSubmitted,
			wantProgress: 33,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Plan{CurrentStage: tt.current}
			for i, s := range tt.statuses {
				plan.Stages = append(plan.Stages, Stage{StageNumber: i + 1, Status: s, StageType: StageGeneric})
			}
			plan.Recompute()
			assert.Equal(t, tt.wantCurrent, plan.CurrentStage)
			assert.Equal(t, tt.wantProgress, plan.Progress)
			assert.Equal(t, tt.wantOverall, plan.OverallStatus)
		})
	}
}

func TestPlan_RequiringAttention(t *testing.T) {
	plan := NewPlan("s", i18n.Russian, "", testNow)
	plan.Stages[0].Status = StatusSubmitted

	assert.Equal(t, []int{1}, plan.RequiringAttention(ActorSupervisor))
	assert.Empty(t, plan.RequiringAttention(ActorAdmin))
	assert.Empty(t, plan.RequiringAttention(ActorStudent))

	plan.Stages[0].Status = StatusSupervisorApproved
	assert.Equal(t, []int{1}, plan.RequiringAttention(ActorAdmin))

	summary := plan.Summary(ActorAdmin)
	assert.Equal(t, []int{1}, summary.StagesRequiringAttention)
}

func TestStage_SortedHistory(t *testing.T) {
	stage := Stage{StatusHistory: []HistoryEntry{
		{Status: StatusInProgress, ChangedAt: testNow},
		{Status: StatusSubmitted, ChangedAt: testNow.Add(time.Hour)},
	}}
	sorted := stage.SortedHistory()
	assert.Equal(t, StatusSubmitted, sorted[0].Status)
	assert.Equal(t, StatusInProgress, stage.StatusHistory[0].Status, "original untouched")
}

func TestStatus(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid())
		assert.NotEqual(t, string(s), s.Label(), "every status has a label")
		_, ok := statusColors[s]
		assert.True(t, ok, "status %q has no color", s)
	}
	for key, moves := range transitions {
		for from, to := range moves {
			assert.True(t, from.Valid(), "%v: unknown source status %q", key, from)
			assert.True(t, to.Valid(), "%v: unknown target status %q", key, to)
		}
	}
	assert.False(t, Status("archived").Valid())
	assert.Equal(t, "archived", Status("archived").Label())
	assert.Equal(t, "gray", Status("archived").Color())
	assert.Len(t, StatusOptions(), 9)
}
