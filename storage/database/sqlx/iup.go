// Package sqlxrepos implements the study plan repository with sqlx.
// Stages are stored as a jsonb document.
package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core/iup"
)

const planColumns = "id, student_id, year, current_stage, stages, created_at, updated_at"

type planRow struct {
	ID           string         `db:"id"`
	StudentID    string         `db:"student_id"`
	Year         int            `db:"year"`
	CurrentStage int            `db:"current_stage"`
	Stages       types.JSONText `db:"stages"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type planRepository struct {
	db *sqlx.DB
}

var _ iup.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *sqlx.DB) iup.Repository {
	return &planRepository{db: db}
}

func toRow(plan iup.Plan) (planRow, error) {
	stages := plan.Stages
	if stages == nil {
		stages = []iup.Stage{}
	}
	data, err := json.Marshal(stages)
	if err != nil {
		return planRow{}, errors.Wrap(err, "marshalling stages")
	}
	return planRow{
		ID:           plan.ID,
		StudentID:    plan.StudentID,
		Year:         plan.Year,
		CurrentStage: plan.CurrentStage,
		Stages:       types.JSONText(data),
		CreatedAt:    plan.CreatedAt.UTC(),
		UpdatedAt:    plan.UpdatedAt.UTC(),
	}, nil
}

func fromRow(row planRow) (iup.Plan, error) {
	plan := iup.Plan{
		ID:           row.ID,
		StudentID:    row.StudentID,
		Year:         row.Year,
		CurrentStage: row.CurrentStage,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if err := row.Stages.Unmarshal(&plan.Stages); err != nil {
		return iup.Plan{}, errors.Wrap(err, "unmarshalling stages")
	}
	plan.Recompute()
	return plan, nil
}

func (repo *planRepository) CreatePlan(ctx context.Context, plan iup.Plan) (iup.Plan, error) {
	plan.ID = uuid.New().String()
	row, err := toRow(plan)
	if err != nil {
		return iup.Plan{}, err
	}
	_, err = repo.db.NamedExecContext(ctx,
		`INSERT INTO plan (`+planColumns+`) VALUES (:id, :student_id, :year, :current_stage, :stages, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) { // concurrent first access
			return repo.GetPlanByStudent(ctx, plan.StudentID)
		}
		return iup.Plan{}, errors.Wrap(err, "inserting plan")
	}
	return fromRow(row)
}

func (repo *planRepository) get(ctx context.Context, cond string, arg string) (iup.Plan, error) {
	if _, err := uuid.Parse(arg); err != nil {
		return iup.Plan{}, iup.ErrNotFound
	}
	var row planRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+planColumns+` FROM plan WHERE `+cond, arg); err != nil {
		if err == sql.ErrNoRows {
			return iup.Plan{}, iup.ErrNotFound
		}
		return iup.Plan{}, errors.Wrap(err, "getting plan")
	}
	return fromRow(row)
}

func (repo *planRepository) GetPlan(ctx context.Context, id string) (iup.Plan, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *planRepository) GetPlanByStudent(ctx context.Context, studentID string) (iup.Plan, error) {
	return repo.get(ctx, "student_id = $1", studentID)
}

func (repo *planRepository) QueryPlans(ctx context.Context, studentIDs []string) ([]iup.Plan, error) {
	query, args := `SELECT `+planColumns+` FROM plan ORDER BY updated_at DESC`, []interface{}{}
	if studentIDs != nil {
		if len(studentIDs) == 0 {
			return []iup.Plan{}, nil
		}
		q, inArgs, err := sqlx.In(`SELECT `+planColumns+` FROM plan WHERE student_id::text IN (?) ORDER BY updated_at DESC`, studentIDs)
		if err != nil {
			return nil, errors.Wrap(err, "building plans query")
		}
		query, args = repo.db.Rebind(q), inArgs
	}

	var rows []planRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	plans := make([]iup.Plan, 0, len(rows))
	for _, r := range rows {
		p, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (repo *planRepository) UpdatePlan(ctx context.Context, plan iup.Plan) (iup.Plan, error) {
	row, err := toRow(plan)
	if err != nil {
		return iup.Plan{}, err
	}
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE plan SET year = :year, current_stage = :current_stage, stages = :stages, updated_at = :updated_at WHERE id = :id`,
		row)
	if err != nil {
		return iup.Plan{}, errors.Wrap(err, "updating plan")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return iup.Plan{}, iup.ErrNotFound
	}
	return fromRow(row)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
