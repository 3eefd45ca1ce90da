package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core/iup"
)

type planRepository struct {
	db *planTable
}

var _ iup.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *DB) iup.Repository {
	return &planRepository{db: db.plan}
}

// copyPlan deep copies the stages through JSON, the same way they are stored in postgres.
func copyPlan(plan iup.Plan) (iup.Plan, error) {
	data, err := json.Marshal(plan.Stages)
	if err != nil {
		return iup.Plan{}, errors.Wrap(err, "marshalling stages")
	}
	var stages []iup.Stage
	if err = json.Unmarshal(data, &stages); err != nil {
		return iup.Plan{}, errors.Wrap(err, "unmarshalling stages")
	}
	plan.Stages = stages
	plan.Supervisor = nil
	plan.Student = iup.Participant{}
	return plan, nil
}

func (repo *planRepository) store(plan iup.Plan) (iup.Plan, error) {
	stored, err := copyPlan(plan)
	if err != nil {
		return iup.Plan{}, err
	}
	repo.db.table[plan.ID] = &stored
	return copyPlan(stored)
}

func (repo *planRepository) CreatePlan(_ context.Context, plan iup.Plan) (iup.Plan, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.table {
		if p.StudentID == plan.StudentID {
			return iup.Plan{}, errors.Errorf("student %s already has a plan", plan.StudentID)
		}
	}
	plan.ID = uuid.New().String()
	return repo.store(plan)
}

func (repo *planRepository) GetPlan(_ context.Context, id string) (iup.Plan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return copyPlan(*p)
	}
	return iup.Plan{}, iup.ErrNotFound
}

func (repo *planRepository) GetPlanByStudent(_ context.Context, studentID string) (iup.Plan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.table {
		if p.StudentID == studentID {
			return copyPlan(*p)
		}
	}
	return iup.Plan{}, iup.ErrNotFound
}

func (repo *planRepository) QueryPlans(_ context.Context, studentIDs []string) ([]iup.Plan, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var wanted map[string]struct{}
	if studentIDs != nil {
		wanted = make(map[string]struct{}, len(studentIDs))
		for _, id := range studentIDs {
			wanted[id] = struct{}{}
		}
	}

	plans := make([]iup.Plan, 0)
	for _, p := range repo.db.table {
		if wanted != nil {
			if _, ok := wanted[p.StudentID]; !ok {
				continue
			}
		}
		cp, err := copyPlan(*p)
		if err != nil {
			return nil, err
		}
		plans = append(plans, cp)
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].UpdatedAt.After(plans[j].UpdatedAt) })
	return plans, nil
}

func (repo *planRepository) UpdatePlan(_ context.Context, plan iup.Plan) (iup.Plan, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[plan.ID]; !ok {
		return iup.Plan{}, iup.ErrNotFound
	}
	return repo.store(plan)
}
