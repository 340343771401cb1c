package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mentornet/apiserver/config"
	"github.com/mentornet/apiserver/internal/services"
	"github.com/mentornet/apiserver/internal/sso"
	"github.com/mentornet/apiserver/internal/store"
	"github.com/mentornet/apiserver/types"
)

type stubUserRepo struct {
	users map[string]types.User
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (types.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *stubUserRepo) GetByRemoteID(ctx context.Context, remoteID string) (types.User, error) {
	if user, ok := s.users[remoteID]; ok {
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (s *stubUserRepo) FindOrCreateByRemoteID(ctx context.Context, remoteID, name string) (types.User, error) {
	if user, ok := s.users[remoteID]; ok {
		return user, nil
	}
	user := types.User{
		ID:       int64(len(s.users) + 1),
		RemoteID: remoteID,
		Data:     json.RawMessage(`{"name":"` + name + `"}`),
	}
	s.users[remoteID] = user
	return user, nil
}

func newAuthTestRouter(t *testing.T, ssoHandler http.HandlerFunc) (http.Handler, *stubUserRepo) {
	t.Helper()

	srv := httptest.NewServer(ssoHandler)
	t.Cleanup(srv.Close)

	ssoClient, err := sso.NewClient(config.SSOConfig{
		URL:               srv.URL,
		CommunicationsKey: "comms-key",
		Timeout:           2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new sso client: %v", err)
	}

	repo := &stubUserRepo{users: map[string]types.User{}}
	router := chi.NewRouter()
	AuthRouter(router, services.NewUserService(repo), ssoClient, testJWTSecret, time.Hour)
	return router, repo
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginIssuesSession(t *testing.T) {
	router, repo := newAuthTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"result":  map[string]string{"id": "remote-7", "name": "Maija"},
		})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, loginRequest("ssoid=abc123"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Maija" || resp.Token == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	subject, err := parseTokenSubject(resp.Token, []byte(testJWTSecret))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != "remote-7" {
		t.Fatalf("unexpected subject %q", subject)
	}

	if _, ok := repo.users["remote-7"]; !ok {
		t.Fatalf("user row was not created")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("missing or malformed session cookie")
	}
}

func TestLoginMissingSSOID(t *testing.T) {
	router, _ := newAuthTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("sso service should not be called")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, loginRequest(""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginRejectedBySSOService(t *testing.T) {
	router, _ := newAuthTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32001, "message": "invalid sso id"},
		})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, loginRequest("ssoid=bad"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	router, repo := newAuthTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"result":  map[string]string{"id": "remote-7", "name": "Maija"},
		})
	})
	if _, err := repo.FindOrCreateByRemoteID(context.Background(), "remote-7", "Maija"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := issueToken("remote-7", []byte(testJWTSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.RemoteID != "remote-7" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
