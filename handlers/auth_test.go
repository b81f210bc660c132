package handlers

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	jwt_service "taskmanager/JWT"
	"taskmanager/models"
)

func newAuthServer(t *testing.T) (*testServer, *jwt_service.Service) {
	t.Helper()
	tokens := jwt_service.New([]byte("handler-test-secret"), 30*time.Minute)
	return newTestServer(t, tokens), tokens
}

func register(t *testing.T, ts *testServer, username string) authResponse {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/register", `{"username":"`+username+`","password":"hunter22"}`, "")
	expectStatus(t, rec, http.StatusCreated)
	var resp authResponse
	decode(t, rec, &resp)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ts, tokens := newAuthServer(t)

	resp := register(t, ts, "alice")
	if resp.User.ID == "" || resp.User.Username != "alice" || resp.Token == "" {
		t.Fatalf("register response = %+v", resp)
	}
	if resp.User.PasswordHash != "" || resp.User.Password != "" {
		t.Error("register response leaked password material")
	}
	if userID, err := tokens.ParseJWT(resp.Token); err != nil || userID != resp.User.ID {
		t.Errorf("token subject = %q (err %v), want %q", userID, err, resp.User.ID)
	}

	rec := ts.do(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"another1"}`, "")
	expectStatus(t, rec, http.StatusConflict)

	rec = ts.do(http.MethodPost, "/api/auth/register", `{"username":"x","password":"1"}`, "")
	expectStatus(t, rec, http.StatusBadRequest)

	tests := []struct {
		name    string
		body    string
		want    int
		wantMsg string
	}{
		{name: "valid", body: `{"username":"alice","password":"hunter22"}`, want: http.StatusOK},
		{name: "wrong password", body: `{"username":"alice","password":"wrong!!"}`, want: http.StatusUnauthorized, wantMsg: "Invalid credentials"},
		{name: "unknown user", body: `{"username":"mallory","password":"hunter22"}`, want: http.StatusUnauthorized, wantMsg: "Invalid credentials"},
		{name: "malformed", body: `not json`, want: http.StatusBadRequest, wantMsg: "Invalid request payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/auth/login", tt.body, "")
			expectStatus(t, rec, tt.want)
			if tt.wantMsg == "" {
				return
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
		})
	}
}

func TestDummyPasswordHash(t *testing.T) {
	hash := dummyPasswordHash()
	if _, err := bcrypt.Cost(hash); err != nil {
		t.Fatalf("dummy hash is not a bcrypt hash: %v", err)
	}
	if !bytes.Equal(hash, dummyPasswordHash()) {
		t.Error("dummy hash should be computed once")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("hunter22")); err == nil {
		t.Error("dummy hash matched an arbitrary password")
	}
}

func TestCheckAuth(t *testing.T) {
	ts, tokens := newAuthServer(t)
	resp := register(t, ts, "alice")

	rec := ts.do(http.MethodGet, "/api/auth/me", "", resp.Token)
	expectStatus(t, rec, http.StatusOK)
	var me authResponse
	decode(t, rec, &me)
	if me.User.ID != resp.User.ID || me.Token == "" {
		t.Errorf("me = %+v", me)
	}

	expectStatus(t, ts.do(http.MethodGet, "/api/auth/me", "", ""), http.StatusUnauthorized)

	// A valid token for a user that no longer exists.
	ghost, err := tokens.GenerateJWT("00000000-0000-0000-0000-000000000000", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectStatus(t, ts.do(http.MethodGet, "/api/auth/me", "", ghost), http.StatusUnauthorized)
}

func TestTasksRequireToken(t *testing.T) {
	ts, _ := newAuthServer(t)

	expectStatus(t, ts.do(http.MethodGet, "/api/tasks", "", ""), http.StatusUnauthorized)
	expectStatus(t, ts.do(http.MethodPost, "/api/tasks", `{"title":"x"}`, "garbage"), http.StatusUnauthorized)

	req := ts.do(http.MethodGet, "/api/health", "", "")
	expectStatus(t, req, http.StatusOK)
}

func TestTasksScopedToOwner(t *testing.T) {
	ts, _ := newAuthServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	rec := ts.do(http.MethodPost, "/api/tasks", `{"title":"alice only"}`, alice.Token)
	expectStatus(t, rec, http.StatusCreated)
	var task models.Task
	decode(t, rec, &task)
	if task.OwnerID != alice.User.ID {
		t.Fatalf("owner = %q, want %q", task.OwnerID, alice.User.ID)
	}

	rec = ts.do(http.MethodGet, "/api/tasks", "", bob.Token)
	expectStatus(t, rec, http.StatusOK)
	var bobList []models.Task
	decode(t, rec, &bobList)
	if len(bobList) != 0 {
		t.Errorf("bob sees %d tasks, want 0", len(bobList))
	}

	path := "/api/tasks/" + task.ID
	expectStatus(t, ts.do(http.MethodGet, path, "", bob.Token), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPut, path, `{"title":"mine now"}`, bob.Token), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodPatch, path+"/complete", "", bob.Token), http.StatusNotFound)
	expectStatus(t, ts.do(http.MethodDelete, path, "", bob.Token), http.StatusNotFound)

	rec = ts.do(http.MethodGet, path, "", alice.Token)
	expectStatus(t, rec, http.StatusOK)
	var still models.Task
	decode(t, rec, &still)
	if still.Title != "alice only" || still.Completed {
		t.Errorf("task changed by another user: %+v", still)
	}
}
