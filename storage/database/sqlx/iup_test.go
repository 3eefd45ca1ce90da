package sqlxrepos

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/iup"
)

func TestRowRoundTrip(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	plan := iup.NewPlan("7f0c2a58-7a43-4a57-9a35-1c9d0f0e1a11", i18n.Russian, "7M01503", now)
	plan.ID = "0b6a3d43-5d1e-4c55-9a5e-0f5f2f3e8a77"
	plan.Stages[0].Status = iup.StatusAdminApproved
	plan.Stages[0].StudentData.DissertationTopic = iup.Topic{Kazakh: "a", Russian: "b", English: "c"}
	plan.Recompute()

	row, err := toRow(plan)
	assert.NoError(t, err)
	assert.Equal(t, 2, row.CurrentStage)

	got, err := fromRow(row)
	assert.NoError(t, err)
	assert.Equal(t, plan.Stages, got.Stages)
	assert.Equal(t, plan.CurrentStage, got.CurrentStage)
	assert.Equal(t, 25, got.Progress)
	assert.Equal(t, plan.StudentID, got.StudentID)
}

func TestToRow_NilStages(t *testing.T) {
	row, err := toRow(iup.Plan{})
	assert.NoError(t, err)
	assert.Equal(t, "[]", row.Stages.String())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.WithStack(&pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
