package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mentornet/apiserver/internal/services"
	"github.com/mentornet/apiserver/types"
)

const testJWTSecret = "report-test-secret"

type stubAuthority struct {
	decision bool
	err      error
}

func (s *stubAuthority) IsAdmin(ctx context.Context, remoteID string) (bool, error) {
	return s.decision, s.err
}

type stubReportRepo struct {
	rows  []types.ReportRow
	err   error
	calls int
}

func (s *stubReportRepo) UserAggregates(ctx context.Context) ([]types.ReportRow, error) {
	s.calls++
	return s.rows, s.err
}

func newReportTestRouter(auth *stubAuthority, repo *stubReportRepo) http.Handler {
	svc := services.NewReportService(auth, repo, services.ReportServiceOptions{})
	sessions := NewAuthHandler(nil, nil, testJWTSecret, time.Hour)

	router := chi.NewRouter()
	router.Route("/api/report", func(r chi.Router) {
		ReportRouter(r, svc, sessions.RequireSession)
	})
	return router
}

func adminRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	token, err := issueToken("admin-1", []byte(testJWTSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestExportReportRequiresSession(t *testing.T) {
	repo := &stubReportRepo{}
	router := newReportTestRouter(&stubAuthority{decision: true}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no query, got %d calls", repo.calls)
	}
}

func TestExportReportForbidden(t *testing.T) {
	repo := &stubReportRepo{}
	router := newReportTestRouter(&stubAuthority{decision: false}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no query, got %d calls", repo.calls)
	}
}

func TestExportReportAuthorityUnavailable(t *testing.T) {
	repo := &stubReportRepo{}
	router := newReportTestRouter(&stubAuthority{err: errors.New("timeout")}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report"))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no query, got %d calls", repo.calls)
	}
}

func TestExportReportQueryFailure(t *testing.T) {
	repo := &stubReportRepo{err: errors.New("relation missing")}
	router := newReportTestRouter(&stubAuthority{decision: true}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestExportReportSuccess(t *testing.T) {
	repo := &stubReportRepo{rows: []types.ReportRow{{RemoteID: "user-a"}}}
	router := newReportTestRouter(&stubAuthority{decision: true}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "remote_id;nickname;") {
		t.Fatalf("unexpected body: %q", body)
	}
	if !strings.Contains(body, "user-a") {
		t.Fatalf("row missing from body: %q", body)
	}
}

func TestExportReportCustomDelimiter(t *testing.T) {
	repo := &stubReportRepo{}
	router := newReportTestRouter(&stubAuthority{decision: true}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report?delimiter=,"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "remote_id,nickname,") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestExportReportRejectsMultiCharDelimiter(t *testing.T) {
	repo := &stubReportRepo{}
	router := newReportTestRouter(&stubAuthority{decision: true}, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, "/api/report?delimiter=%3B%3B"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
