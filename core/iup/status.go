package iup

type Status string

const (
	StatusNotStarted         Status = "not_started"
	StatusInProgress         Status = "in_progress"
	StatusSubmitted          Status = "submitted"
	StatusSupervisorReview   Status = "supervisor_review"
	StatusSupervisorApproved Status = "supervisor_approved"
	StatusAdminReview        Status = "admin_review"
	StatusAdminApproved      Status = "admin_approved"
	StatusCompleted          Status = "completed"
	StatusRejected           Status = "rejected"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusSubmitted,
	StatusSupervisorReview,
	StatusSupervisorApproved,
	StatusAdminReview,
	StatusAdminApproved,
	StatusCompleted,
	StatusRejected,
}

var statusLabels = map[Status]string{
	StatusNotStarted:         "Не начат",
	StatusInProgress:         "В работе",
	StatusSubmitted:          "Отправлен на проверку",
	StatusSupervisorReview:   "На проверке у руководителя",
	StatusSupervisorApproved: "Одобрен руководителем",
	StatusAdminReview:        "На проверке у администратора",
	StatusAdminApproved:      "Утвержден",
	StatusCompleted:          "Завершен",
	StatusRejected:           "Отклонен",
}

var statusColors = map[Status]string{
	StatusNotStarted:         "gray",
	StatusInProgress:         "blue",
	StatusSubmitted:          "orange",
	StatusSupervisorReview:   "purple",
	StatusSupervisorApproved: "teal",
	StatusAdminReview:        "purple",
	StatusAdminApproved:      "green",
	StatusCompleted:          "green",
	StatusRejected:           "red",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) Color() string {
	if color, ok := statusColors[s]; ok {
		return color
	}
	return "gray"
}

// Finalized reports whether the stage is done and the plan may move on.
func (s Status) Finalized() bool {
	return s == StatusAdminApproved || s == StatusCompleted
}

type StageType string

const (
	StageTopic       StageType = "dissertation_topic"
	StageApplication StageType = "dissertation_application"
	StageGeneric     StageType = "generic"
)

func (t StageType) Valid() bool {
	switch t {
	case StageTopic, StageApplication, StageGeneric:
		return true
	}
	return false
}

type Actor string

const (
	ActorStudent    Actor = "student"
	ActorSupervisor Actor = "supervisor"
	ActorAdmin      Actor = "admin"
)

type Action string

const (
	ActionSave    Action = "save"
	ActionSubmit  Action = "submit"
	ActionEdit    Action = "edit"
	ActionApprove Action = "approve"
	ActionReview  Action = "review"
	ActionReject  Action = "reject"
	ActionResume  Action = "resume"
	ActionReceipt Action = "receipt"
)

// StatusOption is a status with its display attributes.
type StatusOption struct {
	Value Status `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

func StatusOptions() []StatusOption {
	opts := make([]StatusOption, 0, len(Statuses))
	for _, s := range Statuses {
		opts = append(opts, StatusOption{Value: s, Label: s.Label(), Color: s.Color()})
	}
	return opts
}
