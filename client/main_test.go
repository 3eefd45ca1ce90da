package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/user"
	logsvc "github.com/docmaster/docmaster/services/logger"
	testutil "github.com/docmaster/docmaster/tests"
)

var (
	student = user.User{ID: "s1", Username: "student", LastName: "Иванова", FirstName: "Анна", Role: user.RoleMagistrant, Program: "7M01503"}
	leader  = user.User{ID: "l1", Username: "leader", LastName: "Ахметов", FirstName: "Болат", Role: user.RoleSupervisor}
)

// fakeAPI records the calls it receives and answers with the route's handler.
type fakeAPI struct {
	mutex  sync.Mutex
	calls  []string
	auth   []string
	routes map[string]http.HandlerFunc
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	key := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, key)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	h, ok := f.routes[key]
	f.mutex.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "not found"})
		return
	}
	h(w, r)
}

func (f *fakeAPI) count(key string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) total() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.calls)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
	}
}

func fail(code int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, code, map[string]interface{}{"success": false, "message": msg})
	}
}

type testClient struct {
	api     *fakeAPI
	server  *httptest.Server
	store   *MemoryStore
	session *Session
	gw      *Gateway
	logouts int
}

func setup(t *testing.T, routes map[string]http.HandlerFunc) *testClient {
	api := &fakeAPI{routes: routes}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	conf := testutil.Config()
	store := NewMemoryStore()
	session, err := NewSession(store)
	if err != nil {
		t.Fatal(err)
	}

	tc := &testClient{api: api, server: server, store: store, session: session}
	tc.gw = NewGateway(core.ClientConfig{BaseURL: server.URL + "/api/"}, session,
		logsvc.NewRollbarLogger(logsvc.NewConsole(io.Discard, conf), conf))
	tc.gw.OnUnauthorized = func() { tc.logouts++ }
	return tc
}

func (tc *testClient) login(t *testing.T, usr user.User) {
	if err := tc.session.Login(usr, "token-"+usr.Username); err != nil {
		t.Fatal(err)
	}
}
