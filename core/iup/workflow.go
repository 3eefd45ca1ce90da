// Package iup implements the individual study plan: a fixed sequence of stages,
// each moved through its statuses by the student, the supervisor and the administration.
package iup

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound          = errors.New("study plan not found")
	ErrStageNotFound     = errors.New("stage not found")
	ErrForbidden         = errors.New("action not allowed for this user")
	ErrStageNotCurrent   = errors.New("stage is not the current stage")
	ErrPreviousStageOpen = errors.New("previous stage is not finalized yet")
	ErrNotApplicable     = errors.New("action is not applicable to this stage")
	ErrCommentRequired   = errors.New("a comment is required to reject a stage")
	ErrTopicIncomplete   = errors.New("dissertation topic is required in all three languages")
	ErrPayloadEmpty      = errors.New("stage content is empty")
)

// TransitionError is returned when an action is not allowed from the stage's current status.
type TransitionError struct {
	Action Action
	Actor  Actor
	From   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a stage with status %q as %s", e.Action, e.From, e.Actor)
}

// IsGuardError reports whether err is a workflow rule violation rather than a failure.
func IsGuardError(err error) bool {
	switch errors.Cause(err).(type) {
	case *TransitionError:
		return true
	}
	switch errors.Cause(err) {
	case ErrStageNotCurrent, ErrPreviousStageOpen, ErrNotApplicable, ErrCommentRequired,
		ErrTopicIncomplete, ErrPayloadEmpty:
		return true
	}
	return false
}

type transitionKey struct {
	action Action
	actor  Actor
}

// transitions maps an action and its actor to the allowed {from: to} statuses.
var transitions = map[transitionKey]map[Status]Status{
	{ActionSave, ActorStudent}: {
		StatusNotStarted: StatusInProgress,
		StatusInProgress: StatusInProgress,
		StatusRejected:   StatusRejected,
	},
	{ActionSubmit, ActorStudent}: {
		StatusInProgress: StatusSubmitted,
		StatusRejected:   StatusSubmitted,
	},
	{ActionResume, ActorStudent}: {
		StatusRejected: StatusInProgress,
	},
	{ActionEdit, ActorSupervisor}: {
		StatusInProgress:       StatusInProgress,
		StatusSubmitted:        StatusSupervisorReview,
		StatusSupervisorReview: StatusSupervisorReview,
		StatusRejected:         StatusRejected,
	},
	{ActionApprove, ActorSupervisor}: {
		StatusSubmitted:        StatusSupervisorApproved,
		StatusSupervisorReview: StatusSupervisorApproved,
	},
	{ActionReject, ActorSupervisor}: {
		StatusInProgress:         StatusRejected,
		StatusSubmitted:          StatusRejected,
		StatusSupervisorReview:   StatusRejected,
		StatusSupervisorApproved: StatusRejected,
	},
	{ActionReview, ActorAdmin}: {
		StatusSupervisorApproved: StatusAdminReview,
	},
	{ActionApprove, ActorAdmin}: {
		StatusSupervisorApproved: StatusAdminApproved,
		StatusAdminReview:        StatusAdminApproved,
	},
	{ActionReject, ActorAdmin}: {
		StatusInProgress:         StatusRejected,
		StatusSubmitted:          StatusRejected,
		StatusSupervisorReview:   StatusRejected,
		StatusSupervisorApproved: StatusRejected,
		StatusAdminReview:        StatusRejected,
	},
	// the application is handed in on paper, so any open status can be closed
	{ActionReceipt, ActorAdmin}: {
		StatusNotStarted:         StatusCompleted,
		StatusInProgress:         StatusCompleted,
		StatusRejected:           StatusCompleted,
		StatusSubmitted:          StatusCompleted,
		StatusSupervisorReview:   StatusCompleted,
		StatusSupervisorApproved: StatusCompleted,
		StatusAdminReview:        StatusCompleted,
	},
}

// applicationActions are the only actions on dissertation_application stages.
var applicationActions = map[Action]bool{
	ActionSave:    true,
	ActionSubmit:  true,
	ActionResume:  true,
	ActionEdit:    true,
	ActionReceipt: true,
}

var defaultComments = map[transitionKey]string{
	{ActionApprove, ActorSupervisor}: "Одобрено руководителем",
	{ActionApprove, ActorAdmin}:      "Утверждено администратором",
	{ActionReview, ActorAdmin}:       "Принято на проверку администратором",
	{ActionReceipt, ActorAdmin}:      "Заявление получено администратором",
}

// Next returns the status the stage moves to, without applying anything.
func Next(stage Stage, action Action, actor Actor) (Status, error) {
	key := transitionKey{action, actor}
	allowed, ok := transitions[key]
	if !ok {
		return "", ErrForbidden
	}
	if stage.StageType == StageApplication && !applicationActions[action] {
		return "", ErrNotApplicable
	}
	if action == ActionReceipt && stage.StageType != StageApplication {
		return "", ErrNotApplicable
	}
	to, ok := allowed[stage.Status]
	if !ok {
		return "", &TransitionError{Action: action, Actor: actor, From: stage.Status}
	}
	return to, nil
}

// Change is a request to move one stage of a plan.
type Change struct {
	StageNumber int
	Action      Action
	Actor       Actor
	ActorID     string
	Comment     string

	StudentData     *StudentData
	SupervisorEdits *SupervisorEdits
}

func checkCurrent(plan *Plan, n int) (*Stage, error) {
	stage, ok := plan.Stage(n)
	if !ok {
		return nil, ErrStageNotFound
	}
	switch {
	case n > plan.CurrentStage:
		return nil, ErrPreviousStageOpen
	case n < plan.CurrentStage:
		return nil, ErrStageNotCurrent
	}
	return stage, nil
}

func checkPayload(stage *Stage) error {
	switch stage.StageType {
	case StageTopic:
		if !stage.Topic().Complete() {
			return ErrTopicIncomplete
		}
	case StageGeneric:
		if strings.TrimSpace(stage.StudentData.TextData) == "" {
			return ErrPayloadEmpty
		}
	}
	return nil
}

// Apply validates the change against the workflow rules and applies it to the plan.
// On error the plan is left untouched.
func Apply(plan *Plan, ch Change, now time.Time) error {
	stage, err := checkCurrent(plan, ch.StageNumber)
	if err != nil {
		return err
	}

	to, err := Next(*stage, ch.Action, ch.Actor)
	if err != nil {
		return err
	}

	ch.Comment = strings.TrimSpace(ch.Comment)
	if ch.Action == ActionReject && ch.Comment == "" {
		return ErrCommentRequired
	}

	updated := *stage
	updated.StatusHistory = append([]HistoryEntry{}, stage.StatusHistory...)

	switch ch.Action {
	case ActionSave:
		if ch.StudentData != nil {
			updated.StudentData = *ch.StudentData
		} else if stage.StageType != StageApplication {
			return ErrPayloadEmpty
		}
	case ActionSubmit:
		if err = checkPayload(&updated); err != nil {
			return err
		}
		updated.SubmittedAt = &now
	case ActionEdit:
		if ch.SupervisorEdits == nil {
			return ErrPayloadEmpty
		}
		edits := *ch.SupervisorEdits
		edits.EditedAt = &now
		updated.SupervisorEdits = edits
		updated.SupervisorReviewedAt = &now
	case ActionApprove:
		if ch.Actor == ActorSupervisor {
			updated.SupervisorReviewedAt = &now
		} else {
			updated.AdminReviewedAt = &now
		}
	case ActionReview:
		updated.AdminReviewedAt = &now
	case ActionReject:
		if ch.Actor == ActorSupervisor {
			updated.SupervisorReviewedAt = &now
		} else {
			updated.AdminReviewedAt = &now
		}
	case ActionReceipt:
		updated.AdminReceived = true
		updated.AdminReceivedDate = &now
		updated.AdminReviewedAt = &now
	}

	if to != updated.Status {
		comment := ch.Comment
		if comment == "" {
			comment = defaultComments[transitionKey{ch.Action, ch.Actor}]
		}
		updated.Status = to
		updated.StatusHistory = append(updated.StatusHistory, HistoryEntry{
			Status:    to,
			Comment:   comment,
			Actor:     ch.Actor,
			ChangedBy: ch.ActorID,
			ChangedAt: now,
		})
	}

	*stage = updated
	plan.UpdatedAt = now
	plan.Recompute()
	return nil
}
