package tests

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

func getPlan(t *testing.T, ta *testApp, usr user.User) iup.Plan {
	t.Helper()
	req, rec := newAuthRequest(http.MethodGet, "/api/iup", ta.token(t, usr))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/iup: code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var data struct {
		IUP iup.Plan `json:"iup"`
	}
	decodeData(t, rec, &data)
	return data.IUP
}

func TestIUPAPI_ownPlan(t *testing.T) {
	ta := setup(t)

	plan := getPlan(t, ta, ta.student)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "Иванова Анна Петровна", plan.Student.FullName)
	assert.Equal(t, 1, plan.CurrentStage)
	assert.Equal(t, iup.StatusNotStarted, plan.OverallStatus)
	assert.Len(t, plan.Stages, 4)
	if assert.NotNil(t, plan.Supervisor) {
		assert.Equal(t, ta.leader.ID, plan.Supervisor.ID)
	}

	again := getPlan(t, ta, ta.student)
	assert.Equal(t, plan.ID, again.ID)

	tests := []httpTest{
		{name: "anonymous", path: "/api/iup/" + plan.ID, wantCode: http.StatusUnauthorized},
		{name: "student", path: "/api/iup/" + plan.ID, token: ta.token(t, ta.student), wantCode: http.StatusOK},
		{name: "supervisor", path: "/api/iup/" + plan.ID, token: ta.token(t, ta.leader), wantCode: http.StatusOK},
		{name: "admin", path: "/api/iup/" + plan.ID, token: ta.token(t, ta.admin), wantCode: http.StatusOK},
		{
			name:     "other supervisor",
			path:     "/api/iup/" + plan.ID,
			token:    ta.token(t, ta.leader2),
			wantCode: http.StatusForbidden,
			wantData: errEnvelope(t, iup.ErrForbidden.Error()),
		},
		{
			name:     "unknown",
			path:     "/api/iup/nope",
			token:    ta.token(t, ta.admin),
			wantCode: http.StatusNotFound,
			wantData: errEnvelope(t, iup.ErrNotFound.Error()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestIUPAPI_workflow(t *testing.T) {
	ta := setup(t)
	plan := getPlan(t, ta, ta.student)
	stagePath := func(n int, action ...string) string {
		path := fmt.Sprintf("/api/iup/%s/stage/%d", plan.ID, n)
		if len(action) > 0 {
			path += "/" + action[0]
		}
		return path
	}

	steps := []struct {
		httpTest
		wantStatus  iup.Status
		wantCurrent int
	}{
		{
			httpTest: httpTest{
				name: "submit empty topic", method: http.MethodPost, path: stagePath(1, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusConflict,
			},
		},
		{
			httpTest: httpTest{
				name: "save partial topic", method: http.MethodPut, path: stagePath(1),
				body:  []byte(`{"studentData": {"dissertationTopic": {"russian": "Цифровое образование"}}}`),
				token: ta.token(t, ta.student), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusInProgress, wantCurrent: 1,
		},
		{
			httpTest: httpTest{
				name: "submit partial topic", method: http.MethodPost, path: stagePath(1, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusConflict,
				wantData: errEnvelope(t, iup.ErrTopicIncomplete.Error()),
			},
		},
		{
			httpTest: httpTest{
				name: "save full topic", method: http.MethodPut, path: stagePath(1),
				body: []byte(`{"studentData": {"dissertationTopic": {"kazakh": "Цифрлық білім беру",
					"russian": "Цифровое образование", "english": "Digital education"}}}`),
				token: ta.token(t, ta.student), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusInProgress, wantCurrent: 1,
		},
		{
			httpTest: httpTest{
				name: "submit", method: http.MethodPost, path: stagePath(1, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusSubmitted, wantCurrent: 1,
		},
		{
			httpTest: httpTest{
				name: "student approves", method: http.MethodPost, path: stagePath(1, "approve"),
				token: ta.token(t, ta.student), wantCode: http.StatusForbidden,
			},
		},
		{
			httpTest: httpTest{
				name: "other supervisor approves", method: http.MethodPost, path: stagePath(1, "approve"),
				token: ta.token(t, ta.leader2), wantCode: http.StatusForbidden,
			},
		},
		{
			httpTest: httpTest{
				name: "reject without comment", method: http.MethodPost, path: stagePath(1, "reject"),
				body: []byte(`{"comment": "  "}`), token: ta.token(t, ta.leader), wantCode: http.StatusConflict,
				wantData: errEnvelope(t, iup.ErrCommentRequired.Error()),
			},
		},
		{
			httpTest: httpTest{
				name: "supervisor approves", method: http.MethodPost, path: stagePath(1, "approve"),
				token: ta.token(t, ta.leader), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusSupervisorApproved, wantCurrent: 1,
		},
		{
			httpTest: httpTest{
				name: "supervisor approves twice", method: http.MethodPost, path: stagePath(1, "approve"),
				token: ta.token(t, ta.leader), wantCode: http.StatusConflict,
			},
		},
		{
			httpTest: httpTest{
				name: "admin takes review", method: http.MethodPost, path: stagePath(1, "review"),
				token: ta.token(t, ta.admin), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusAdminReview, wantCurrent: 1,
		},
		{
			httpTest: httpTest{
				name: "admin approves", method: http.MethodPost, path: stagePath(1, "approve"),
				token: ta.token(t, ta.admin), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusAdminApproved, wantCurrent: 2,
		},
		{
			httpTest: httpTest{
				name: "finalized stage", method: http.MethodPost, path: stagePath(1, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusConflict,
				wantData: errEnvelope(t, iup.ErrStageNotCurrent.Error()),
			},
		},
		{
			httpTest: httpTest{
				name: "approve application", method: http.MethodPost, path: stagePath(2, "approve"),
				token: ta.token(t, ta.admin), wantCode: http.StatusConflict,
				wantData: errEnvelope(t, iup.ErrNotApplicable.Error()),
			},
		},
		{
			httpTest: httpTest{
				name: "student confirms receipt", method: http.MethodPost, path: stagePath(2, "receipt"),
				token: ta.token(t, ta.student), wantCode: http.StatusForbidden,
			},
		},
		{
			httpTest: httpTest{
				name: "admin confirms receipt", method: http.MethodPost, path: stagePath(2, "receipt"),
				token: ta.token(t, ta.admin), wantCode: http.StatusOK,
			},
			wantStatus: iup.StatusCompleted, wantCurrent: 3,
		},
		{
			httpTest: httpTest{
				name: "future stage", method: http.MethodPost, path: stagePath(4, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusConflict,
				wantData: errEnvelope(t, iup.ErrPreviousStageOpen.Error()),
			},
		},
		{
			httpTest: httpTest{
				name: "unknown stage", method: http.MethodPost, path: stagePath(9, "submit"),
				token: ta.token(t, ta.student), wantCode: http.StatusNotFound,
			},
		},
		{
			httpTest: httpTest{
				name: "unknown action", method: http.MethodPost, path: stagePath(3, "save"),
				token: ta.token(t, ta.student), wantCode: http.StatusNotFound,
			},
		},
		{
			httpTest: httpTest{
				name: "admin edits", method: http.MethodPut, path: stagePath(3),
				body: []byte(`{"supervisorEdits": {"textData": "план"}}`), token: ta.token(t, ta.admin), wantCode: http.StatusForbidden,
			},
		},
	}
	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)
			if tt.wantCode != http.StatusOK {
				return
			}

			var data struct {
				IUP iup.Plan `json:"iup"`
			}
			decodeData(t, rec, &data)
			var n int
			fmt.Sscanf(strings.TrimPrefix(tt.path, "/api/iup/"+plan.ID+"/stage/"), "%d", &n)
			stage, ok := data.IUP.Stage(n)
			if !ok {
				t.Fatalf("stage %d not found", n)
			}
			assert.Equal(t, tt.wantStatus, stage.Status)
			assert.Equal(t, tt.wantCurrent, data.IUP.CurrentStage)
		})
	}

	final := getPlan(t, ta, ta.student)
	assert.Equal(t, 50, final.Progress)
	topic, _ := final.Stage(1)
	history := topic.SortedHistory()
	if assert.NotEmpty(t, history) {
		assert.Equal(t, iup.StatusAdminApproved, history[0].Status)
		assert.Equal(t, iup.ActorAdmin, history[0].Actor)
	}
}

func TestIUPAPI_query(t *testing.T) {
	ta := setup(t)
	plan := getPlan(t, ta, ta.student)

	type iups struct {
		IUPs []iup.Plan `json:"iups"`
	}
	tests := []struct {
		name    string
		path    string
		usr     user.User
		wantIDs []string
	}{
		{name: "admin", path: "/api/iup", usr: ta.admin, wantIDs: []string{plan.ID}},
		{name: "admin by student", path: "/api/iup?studentId=" + ta.student.ID, usr: ta.admin, wantIDs: []string{plan.ID}},
		{name: "admin by status", path: "/api/iup?status=submitted", usr: ta.admin, wantIDs: []string{}},
		{name: "supervisor", path: "/api/iup", usr: ta.leader, wantIDs: []string{plan.ID}},
		{name: "other supervisor", path: "/api/iup", usr: ta.leader2, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, ta.token(t, tt.usr))
			ta.app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)

			var data iups
			decodeData(t, rec, &data)
			ids := make([]string, 0, len(data.IUPs))
			for _, p := range data.IUPs {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestIUPAPI_supervisees(t *testing.T) {
	ta := setup(t)
	plan := getPlan(t, ta, ta.student)

	req, rec := newAuthRequest(http.MethodGet, "/api/iup/supervisees", ta.token(t, ta.admin))
	ta.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/iup/supervisees", ta.token(t, ta.leader))
	ta.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		IUPs []iup.Summary `json:"iups"`
	}
	decodeData(t, rec, &data)
	if assert.Len(t, data.IUPs, 1) {
		assert.Equal(t, plan.ID, data.IUPs[0].ID)
		assert.Equal(t, []int{}, data.IUPs[0].StagesRequiringAttention)
	}
}

func TestIUPAPI_application(t *testing.T) {
	ta := setup(t)
	plan := getPlan(t, ta, ta.student)
	path := "/api/iup/" + plan.ID + "/stage/1"

	req, rec := newAuthRequest(http.MethodPut, path, ta.token(t, ta.student), []byte(`{"studentData": {"dissertationTopic":
		{"kazakh": "Цифрлық білім беру", "russian": "Цифровое образование", "english": "Digital education"}}}`))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT %s: code = %d; want %d: %s", path, rec.Code, http.StatusOK, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/api/iup/"+plan.ID+"/application", ta.token(t, ta.student))
	ta.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Document string `json:"document"`
	}
	decodeData(t, rec, &data)
	assert.Contains(t, data.Document, "Цифровое образование")
	assert.Contains(t, data.Document, "Digital education")

	req, rec = newAuthRequest(http.MethodGet, "/api/iup/"+plan.ID+"/application?format=text", ta.token(t, ta.leader))
	ta.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data.Document, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/api/iup/"+plan.ID+"/application", ta.token(t, ta.leader2))
	ta.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
