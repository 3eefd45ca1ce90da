package iup

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/document"
	"github.com/docmaster/docmaster/core/user"
)

type (
	Repository interface {
		CreatePlan(ctx context.Context, plan Plan) (Plan, error)
		GetPlan(ctx context.Context, id string) (Plan, error)
		GetPlanByStudent(ctx context.Context, studentID string) (Plan, error)
		// QueryPlans returns the plans of the given students, or every plan when studentIDs is nil.
		QueryPlans(ctx context.Context, studentIDs []string) ([]Plan, error)
		UpdatePlan(ctx context.Context, plan Plan) (Plan, error)
	}

	Service interface {
		GetByID(ctx context.Context, actor user.User, id string) (Plan, error)
		GetForStudent(ctx context.Context, actor user.User, studentID string) (Plan, error)
		Query(ctx context.Context, actor user.User, filter QueryFilter) ([]Plan, error)
		Supervisees(ctx context.Context, actor user.User) ([]Summary, error)
		EnsurePlan(ctx context.Context, student user.User) (Plan, error)

		SaveStudentData(ctx context.Context, actor user.User, id string, stage int, data StudentData) (Plan, error)
		Submit(ctx context.Context, actor user.User, id string, stage int) (Plan, error)
		Resume(ctx context.Context, actor user.User, id string, stage int) (Plan, error)
		SaveSupervisorEdits(ctx context.Context, actor user.User, id string, stage int, edits SupervisorEdits) (Plan, error)
		Approve(ctx context.Context, actor user.User, id string, stage int, comment string) (Plan, error)
		TakeReview(ctx context.Context, actor user.User, id string, stage int) (Plan, error)
		Reject(ctx context.Context, actor user.User, id string, stage int, comment string) (Plan, error)
		ConfirmReceipt(ctx context.Context, actor user.User, id string, stage int) (Plan, error)

		Application(ctx context.Context, actor user.User, id string) (string, error)
		AttentionDigest(ctx context.Context) ([]Digest, error)
		SendDigest(ctx context.Context) (int, error)
	}

	service struct {
		repo    Repository
		userSvc user.Service
		mailSvc core.EmailService
		now     func() time.Time // mockable
	}

	// Digest lists the stages waiting for one reviewer.
	Digest struct {
		Recipient user.User
		Items     []DigestItem
	}

	DigestItem struct {
		StudentName string
		StageNumber int
		StageTitle  string
		StatusLabel string
	}

	stageStatusMail struct {
		Name        string
		StageNumber int
		StageTitle  string
		StudentName string
		StatusLabel string
		Comment     string
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, userSvc user.Service, mailSvc core.EmailService) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(userSvc, "userSvc"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()

	return &service{repo: repo, userSvc: userSvc, mailSvc: mailSvc, now: time.Now}
}

func actorOf(usr user.User) (Actor, bool) {
	switch {
	case usr.IsAdmin():
		return ActorAdmin, true
	case usr.IsSupervisor():
		return ActorSupervisor, true
	case usr.IsStudent():
		return ActorStudent, true
	}
	return "", false
}

func participant(usr user.User) Participant {
	return Participant{
		ID:         usr.ID,
		FullName:   usr.FullName(),
		LastName:   usr.LastName,
		FirstName:  usr.FirstName,
		FatherName: usr.FatherName,
		Email:      usr.Email,
		Program:    usr.Program,
		Language:   usr.Language,
		Degrees:    usr.Degrees,
	}
}

// hydrate fills the participant summaries and the metadata from the current user records.
func (svc *service) hydrate(ctx context.Context, plan Plan) (Plan, user.User, error) {
	student, err := svc.userSvc.GetByID(ctx, plan.StudentID)
	if err != nil {
		return Plan{}, user.User{}, errors.Wrap(err, "finding plan student")
	}
	plan.Student = participant(student)
	plan.Metadata.Language = student.Language
	plan.Metadata.EducationProgram = student.Program
	plan.Supervisor = nil

	if student.SupervisorID != "" {
		sup, err := svc.userSvc.GetByID(ctx, student.SupervisorID)
		switch {
		case err == nil:
			p := participant(sup)
			plan.Supervisor = &p
		case errors.Cause(err) != user.ErrNotFound:
			return Plan{}, user.User{}, errors.Wrap(err, "finding plan supervisor")
		}
	}
	plan.Recompute()
	return plan, student, nil
}

// canAccess reports whether actor may see and act on the plan of student.
func canAccess(actor, student user.User) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsSupervisor():
		return student.SupervisorID == actor.ID
	case actor.IsStudent():
		return student.ID == actor.ID
	}
	return false
}

func (svc *service) load(ctx context.Context, actor user.User, id string) (Plan, user.User, error) {
	plan, err := svc.repo.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, user.User{}, err
	}
	plan, student, err := svc.hydrate(ctx, plan)
	if err != nil {
		return Plan{}, user.User{}, err
	}
	if !canAccess(actor, student) {
		return Plan{}, user.User{}, ErrForbidden
	}
	return plan, student, nil
}

func (svc *service) GetByID(ctx context.Context, actor user.User, id string) (Plan, error) {
	plan, _, err := svc.load(ctx, actor, id)
	return plan, err
}

// GetForStudent returns the plan of a student, creating it on first access.
// Students always get their own plan.
func (svc *service) GetForStudent(ctx context.Context, actor user.User, studentID string) (Plan, error) {
	if actor.IsStudent() || studentID == "" {
		studentID = actor.ID
	}
	student, err := svc.userSvc.GetByID(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Plan{}, ErrNotFound
		}
		return Plan{}, errors.Wrap(err, "finding student")
	}
	if !student.IsStudent() {
		return Plan{}, ErrNotFound
	}
	if !canAccess(actor, student) {
		return Plan{}, ErrForbidden
	}

	plan, err := svc.EnsurePlan(ctx, student)
	if err != nil {
		return Plan{}, err
	}
	plan, _, err = svc.hydrate(ctx, plan)
	return plan, err
}

func (svc *service) EnsurePlan(ctx context.Context, student user.User) (Plan, error) {
	if !student.IsStudent() {
		return Plan{}, errors.Errorf("user %s is not a student", student.ID)
	}
	plan, err := svc.repo.GetPlanByStudent(ctx, student.ID)
	if err == nil {
		return plan, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Plan{}, errors.Wrap(err, "finding student plan")
	}

	plan = NewPlan(student.ID, student.Language, student.Program, svc.now().UTC())
	created, err := svc.repo.CreatePlan(ctx, plan)
	if err != nil {
		// lost a race with another first access
		if existing, getErr := svc.repo.GetPlanByStudent(ctx, student.ID); getErr == nil {
			return existing, nil
		}
		return Plan{}, errors.Wrap(err, "creating plan")
	}
	return created, nil
}

func matchPlan(plan Plan, filter QueryFilter) bool {
	if filter.Status != "" && plan.OverallStatus != filter.Status {
		return false
	}
	return true
}

// Query lists the plans visible to actor: every plan for admins, the supervisees' for supervisors.
func (svc *service) Query(ctx context.Context, actor user.User, filter QueryFilter) ([]Plan, error) {
	uf := &user.QueryFilter{
		Search:   core.CleanString(filter.Search),
		Roles:    user.StudentRoles,
		Program:  core.CleanString(filter.Program),
		Language: filter.Language,
	}
	switch {
	case actor.IsAdmin():
	case actor.IsSupervisor():
		uf.SupervisorID = actor.ID
	default:
		return nil, ErrForbidden
	}

	students, err := svc.userSvc.Query(ctx, uf, []core.DBOrdering{{Field: "lastname", Ascending: true}, {Field: "firstname", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	ids := make([]string, 0, len(students))
	for _, s := range students {
		if filter.StudentID == "" || s.ID == filter.StudentID {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return []Plan{}, nil
	}

	plans, err := svc.repo.QueryPlans(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	byStudent := make(map[string]Plan, len(plans))
	for _, p := range plans {
		byStudent[p.StudentID] = p
	}

	result := make([]Plan, 0, len(plans))
	for _, id := range ids { // keep the students order
		p, ok := byStudent[id]
		if !ok {
			continue
		}
		if p, _, err = svc.hydrate(ctx, p); err != nil {
			return nil, err
		}
		if matchPlan(p, filter) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (svc *service) Supervisees(ctx context.Context, actor user.User) ([]Summary, error) {
	if !actor.IsSupervisor() {
		return nil, ErrForbidden
	}
	plans, err := svc.Query(ctx, actor, QueryFilter{})
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, p.Summary(ActorSupervisor))
	}
	return summaries, nil
}

// change loads the plan, applies the change and saves it. Nothing is saved on error.
func (svc *service) change(ctx context.Context, actor user.User, id string, ch Change) (Plan, error) {
	plan, student, err := svc.load(ctx, actor, id)
	if err != nil {
		return Plan{}, err
	}

	actorRole, ok := actorOf(actor)
	if !ok {
		return Plan{}, ErrForbidden
	}
	ch.Actor = actorRole
	ch.ActorID = actor.ID

	before, _ := plan.Stage(ch.StageNumber)
	var oldStatus Status
	if before != nil {
		oldStatus = before.Status
	}

	if err = Apply(&plan, ch, svc.now().UTC()); err != nil {
		return Plan{}, err
	}

	saved, err := svc.repo.UpdatePlan(ctx, plan)
	if err != nil {
		return Plan{}, errors.Wrap(err, "updating plan")
	}
	saved, _, err = svc.hydrate(ctx, saved)
	if err != nil {
		return Plan{}, err
	}

	if stage, ok := saved.Stage(ch.StageNumber); ok && stage.Status != oldStatus {
		svc.notify(ctx, saved, student, *stage, ch)
	}
	return saved, nil
}

// notify emails the party expected to act next about a status change.
func (svc *service) notify(ctx context.Context, plan Plan, student user.User, stage Stage, ch Change) {
	var recipients []user.User

	switch stage.Status {
	case StatusSubmitted:
		if stage.StageType == StageApplication {
			return
		}
		if student.SupervisorID != "" {
			if sup, err := svc.userSvc.GetByID(ctx, student.SupervisorID); err == nil {
				recipients = append(recipients, sup)
			}
		}
	case StatusSupervisorApproved, StatusAdminApproved, StatusCompleted, StatusRejected:
		recipients = append(recipients, student)
	default:
		return
	}

	// a received application goes back to the student as a copy; the status mail is sent without it on failure
	var doc string
	if stage.StageType == StageApplication && ch.Action == ActionReceipt {
		doc, _ = svc.renderApplication(ctx, plan, student)
	}

	messages := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: r.FullName(), Address: r.Email}},
			Subject:      "Изменение статуса этапа ИУП",
			TemplateName: "stage_status",
			TemplateData: stageStatusMail{
				Name:        r.FullName(),
				StageNumber: stage.StageNumber,
				StageTitle:  stage.Title,
				StudentName: plan.Student.FullName,
				StatusLabel: stage.Status.Label(),
				Comment:     ch.Comment,
			},
		}
		if doc != "" {
			_ = msg.Attach(strings.NewReader(doc), "application.txt", "text/plain; charset=utf-8")
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}

func (svc *service) SaveStudentData(ctx context.Context, actor user.User, id string, stage int, data StudentData) (Plan, error) {
	data.TextData = strings.TrimSpace(data.TextData)
	data.DissertationTopic = Topic{
		Kazakh:  strings.TrimSpace(data.DissertationTopic.Kazakh),
		Russian: strings.TrimSpace(data.DissertationTopic.Russian),
		English: strings.TrimSpace(data.DissertationTopic.English),
	}
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionSave, StudentData: &data})
}

func (svc *service) Submit(ctx context.Context, actor user.User, id string, stage int) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionSubmit})
}

func (svc *service) Resume(ctx context.Context, actor user.User, id string, stage int) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionResume})
}

func (svc *service) SaveSupervisorEdits(ctx context.Context, actor user.User, id string, stage int, edits SupervisorEdits) (Plan, error) {
	edits.TextData = strings.TrimSpace(edits.TextData)
	edits.Comments = strings.TrimSpace(edits.Comments)
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionEdit, SupervisorEdits: &edits, Comment: edits.Comments})
}

func (svc *service) Approve(ctx context.Context, actor user.User, id string, stage int, comment string) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionApprove, Comment: comment})
}

func (svc *service) TakeReview(ctx context.Context, actor user.User, id string, stage int) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionReview})
}

func (svc *service) Reject(ctx context.Context, actor user.User, id string, stage int, comment string) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionReject, Comment: comment})
}

func (svc *service) ConfirmReceipt(ctx context.Context, actor user.User, id string, stage int) (Plan, error) {
	return svc.change(ctx, actor, id, Change{StageNumber: stage, Action: ActionReceipt})
}

// Application renders the topic and supervisor application of the plan's student.
func (svc *service) Application(ctx context.Context, actor user.User, id string) (string, error) {
	plan, student, err := svc.load(ctx, actor, id)
	if err != nil {
		return "", err
	}
	return svc.renderApplication(ctx, plan, student)
}

func (svc *service) renderApplication(ctx context.Context, plan Plan, student user.User) (string, error) {
	app := document.Application{
		Student: document.Student{Person: student.Person(), Program: student.Program},
		Date:    svc.now(),
	}
	if topicStage, ok := plan.StageOfType(StageTopic); ok {
		t := topicStage.Topic()
		app.Topic = document.Topic{Kazakh: t.Kazakh, Russian: t.Russian, English: t.English}
	}
	if student.SupervisorID != "" {
		sup, err := svc.userSvc.GetByID(ctx, student.SupervisorID)
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return "", errors.Wrap(err, "finding supervisor")
		}
		if err == nil {
			app.Supervisor = &document.Supervisor{Person: sup.Person(), Degrees: sup.Degrees}
		}
	}

	doc, err := document.RenderApplication(plan.Metadata.Language, app)
	return doc, errors.Wrap(err, "rendering application")
}

// AttentionDigest collects, for every active supervisor and admin, the current stages waiting for them.
// Reviewers with nothing to do are left out.
func (svc *service) AttentionDigest(ctx context.Context) ([]Digest, error) {
	plans, err := svc.repo.QueryPlans(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}

	hydrated := make([]Plan, 0, len(plans))
	students := make(map[string]user.User, len(plans))
	for _, p := range plans {
		hp, student, err := svc.hydrate(ctx, p)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return nil, err
		}
		if !student.Active() {
			continue
		}
		hydrated = append(hydrated, hp)
		students[hp.ID] = student
	}

	items := func(actor Actor, keep func(student user.User) bool) []DigestItem {
		list := make([]DigestItem, 0)
		for _, p := range hydrated {
			if !keep(students[p.ID]) {
				continue
			}
			for _, n := range p.RequiringAttention(actor) {
				stage, _ := p.Stage(n)
				list = append(list, DigestItem{
					StudentName: p.Student.FullName,
					StageNumber: n,
					StageTitle:  stage.Title,
					StatusLabel: stage.Status.Label(),
				})
			}
		}
		return list
	}

	digests := make([]Digest, 0)

	supervisors, err := svc.userSvc.ListByRole(ctx, user.RoleSupervisor)
	if err != nil {
		return nil, errors.Wrap(err, "listing supervisors")
	}
	for _, sup := range supervisors {
		supID := sup.ID
		if list := items(ActorSupervisor, func(s user.User) bool { return s.SupervisorID == supID }); len(list) > 0 {
			digests = append(digests, Digest{Recipient: sup, Items: list})
		}
	}

	admins, err := svc.userSvc.ListByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, errors.Wrap(err, "listing admins")
	}
	if adminItems := items(ActorAdmin, func(user.User) bool { return true }); len(adminItems) > 0 {
		for _, admin := range admins {
			digests = append(digests, Digest{Recipient: admin, Items: adminItems})
		}
	}
	return digests, nil
}

// SendDigest emails the attention digest and returns the number of messages sent.
func (svc *service) SendDigest(ctx context.Context) (int, error) {
	digests, err := svc.AttentionDigest(ctx)
	if err != nil {
		return 0, err
	}

	messages := make([]*core.EmailMessage, 0, len(digests))
	for _, d := range digests {
		if d.Recipient.Email == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: d.Recipient.FullName(), Address: d.Recipient.Email}},
			Subject:      "Этапы ИУП ожидают вашего решения",
			TemplateName: "review_digest",
			TemplateData: struct {
				Name  string
				Items []DigestItem
			}{Name: d.Recipient.FullName(), Items: d.Items},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}
