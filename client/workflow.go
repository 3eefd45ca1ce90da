package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
)

const requiredText = "обязательное поле"

func planPath(id string, parts ...string) string {
	return "/iup/" + url.PathEscape(id) + strings.Join(parts, "")
}

func stagePath(id string, n int, parts ...string) string {
	return planPath(id, append([]string{"/stage/", strconv.Itoa(n)}, parts...)...)
}

// MyPlan returns the plan of the signed-in student.
func (g *Gateway) MyPlan(ctx context.Context) (iup.Plan, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/iup"})
	if err != nil {
		return iup.Plan{}, err
	}
	var plan iup.Plan
	err = env.Object("iup", &plan)
	return plan, err
}

func (g *Gateway) Plans(ctx context.Context, filter iup.QueryFilter) ([]iup.Plan, error) {
	params := url.Values{}
	for k, v := range map[string]string{
		"search":    filter.Search,
		"OP":        filter.Program,
		"language":  string(filter.Language),
		"status":    string(filter.Status),
		"studentId": filter.StudentID,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/iup", query: params})
	if err != nil {
		return nil, err
	}
	plans := make([]iup.Plan, 0)
	err = env.List("iups", &plans)
	return plans, err
}

func (g *Gateway) Supervisees(ctx context.Context) ([]iup.Summary, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/iup/supervisees"})
	if err != nil {
		return nil, err
	}
	summaries := make([]iup.Summary, 0)
	err = env.List("iups", &summaries)
	return summaries, err
}

func (g *Gateway) Plan(ctx context.Context, id string) (iup.Plan, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: planPath(id)})
	if err != nil {
		return iup.Plan{}, err
	}
	var plan iup.Plan
	err = env.Object("iup", &plan)
	return plan, err
}

// Application returns the printable application of the plan as text.
func (g *Gateway) Application(ctx context.Context, id string) (string, error) {
	return g.raw(ctx, request{
		method: http.MethodGet,
		path:   planPath(id, "/application"),
		query:  url.Values{"format": []string{"text"}},
	})
}

func (g *Gateway) planCall(ctx context.Context, r request) (iup.Plan, error) {
	env, err := g.do(ctx, r)
	if err != nil {
		return iup.Plan{}, err
	}
	var plan iup.Plan
	err = env.Object("iup", &plan)
	return plan, err
}

func (g *Gateway) SaveStudentData(ctx context.Context, id string, n int, data iup.StudentData) (iup.Plan, error) {
	return g.planCall(ctx, request{
		method: http.MethodPut,
		path:   stagePath(id, n),
		body:   map[string]interface{}{"studentData": data},
	})
}

func (g *Gateway) SaveSupervisorEdits(ctx context.Context, id string, n int, edits iup.SupervisorEdits) (iup.Plan, error) {
	return g.planCall(ctx, request{
		method: http.MethodPut,
		path:   stagePath(id, n),
		body:   map[string]interface{}{"supervisorEdits": edits},
	})
}

func (g *Gateway) StageAction(ctx context.Context, id string, n int, action iup.Action, comment string) (iup.Plan, error) {
	return g.planCall(ctx, request{
		method: http.MethodPost,
		path:   stagePath(id, n, "/", string(action)),
		body:   map[string]string{"comment": comment},
	})
}

// PlanView is one plan as shown to the signed-in user.
// It is reloaded from the backend after every change, whether the change succeeded or not.
type PlanView struct {
	gw   *Gateway
	Plan iup.Plan
}

// OpenPlan loads a plan by id, or the plan of the signed-in student when id is empty.
func OpenPlan(ctx context.Context, gw *Gateway, id string) (*PlanView, error) {
	v := &PlanView{gw: gw, Plan: iup.Plan{ID: id}}
	if err := v.Reload(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *PlanView) Reload(ctx context.Context) error {
	var (
		plan iup.Plan
		err  error
	)
	if v.Plan.ID == "" {
		plan, err = v.gw.MyPlan(ctx)
	} else {
		plan, err = v.gw.Plan(ctx, v.Plan.ID)
	}
	if err != nil {
		return errors.Wrap(err, "loading plan")
	}
	v.Plan = plan
	return nil
}

// Stage returns a stage of the loaded plan.
func (v *PlanView) Stage(n int) (iup.Stage, error) {
	stage, ok := v.Plan.Stage(n)
	if !ok {
		return iup.Stage{}, iup.ErrStageNotFound
	}
	return *stage, nil
}

func (v *PlanView) mutate(ctx context.Context, call func(id string) (iup.Plan, error)) error {
	_, err := call(v.Plan.ID)
	if reloadErr := v.Reload(ctx); err == nil {
		err = reloadErr
	}
	return err
}

func checkTopic(topic iup.Topic) error {
	var flds []core.FieldError
	for _, f := range []struct{ name, value string }{
		{"kazakh", topic.Kazakh},
		{"russian", topic.Russian},
		{"english", topic.English},
	} {
		if strings.TrimSpace(f.value) == "" {
			flds = append(flds, core.FieldError{Field: f.name, Error: requiredText})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(iup.ErrTopicIncomplete, flds...)
	}
	return nil
}

func checkComment(comment string) error {
	if strings.TrimSpace(comment) == "" {
		return core.NewValidationError(iup.ErrCommentRequired, core.FieldError{Field: "comment", Error: requiredText})
	}
	return nil
}

// SaveTopic saves a draft of the dissertation topic, incomplete topics included.
func (v *PlanView) SaveTopic(ctx context.Context, n int, topic iup.Topic) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.SaveStudentData(ctx, id, n, iup.StudentData{DissertationTopic: topic})
	})
}

// SubmitTopic saves and submits the topic. An incomplete topic fails before any request is sent.
func (v *PlanView) SubmitTopic(ctx context.Context, n int, topic iup.Topic) error {
	if err := checkTopic(topic); err != nil {
		return err
	}
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		if _, err := v.gw.SaveStudentData(ctx, id, n, iup.StudentData{DissertationTopic: topic}); err != nil {
			return iup.Plan{}, err
		}
		return v.gw.StageAction(ctx, id, n, iup.ActionSubmit, "")
	})
}

func (v *PlanView) SaveText(ctx context.Context, n int, text string) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.SaveStudentData(ctx, id, n, iup.StudentData{TextData: text})
	})
}

// Submit sends the stage for review. The saved content is checked first.
func (v *PlanView) Submit(ctx context.Context, n int) error {
	stage, err := v.Stage(n)
	if err != nil {
		return err
	}
	switch stage.StageType {
	case iup.StageTopic:
		if err = checkTopic(stage.Topic()); err != nil {
			return err
		}
	case iup.StageGeneric:
		if strings.TrimSpace(stage.StudentData.TextData) == "" {
			return core.NewValidationError(iup.ErrPayloadEmpty, core.FieldError{Field: "textData", Error: requiredText})
		}
	}
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionSubmit, "")
	})
}

func (v *PlanView) Resume(ctx context.Context, n int) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionResume, "")
	})
}

// Edit saves the supervisor's corrections of a stage.
func (v *PlanView) Edit(ctx context.Context, n int, edits iup.SupervisorEdits) error {
	if edits.DissertationTopic != nil {
		if err := checkTopic(*edits.DissertationTopic); err != nil {
			return err
		}
	}
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.SaveSupervisorEdits(ctx, id, n, edits)
	})
}

func (v *PlanView) Approve(ctx context.Context, n int, comment string) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionApprove, strings.TrimSpace(comment))
	})
}

// Reject needs a comment, a blank one fails before any request is sent.
func (v *PlanView) Reject(ctx context.Context, n int, comment string) error {
	if err := checkComment(comment); err != nil {
		return err
	}
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionReject, strings.TrimSpace(comment))
	})
}

func (v *PlanView) TakeReview(ctx context.Context, n int) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionReview, "")
	})
}

func (v *PlanView) ConfirmReceipt(ctx context.Context, n int) error {
	return v.mutate(ctx, func(id string) (iup.Plan, error) {
		return v.gw.StageAction(ctx, id, n, iup.ActionReceipt, "")
	})
}
