package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/application"
	appscans "github.com/pagelint/pagelint/internal/application/scans"
	"github.com/pagelint/pagelint/internal/domain/ai"
	"github.com/pagelint/pagelint/internal/domain/alerts"
	"github.com/pagelint/pagelint/internal/domain/corrections"
	"github.com/pagelint/pagelint/internal/domain/pages"
	"github.com/pagelint/pagelint/internal/domain/reports"
)

// ---- fakes ----

type stubRepo struct {
	reports   map[string]*reports.Report
	deleted   []string
	uuidsFor  map[string][]string
	summaries []reports.Summary
}

func (r *stubRepo) Create(_ context.Context, rep *reports.Report) error {
	rep.ID = 1
	if r.reports == nil {
		r.reports = map[string]*reports.Report{}
	}
	r.reports[rep.UUID] = rep
	return nil
}

func (r *stubRepo) SetStage(context.Context, int64, string) error                { return nil }
func (r *stubRepo) MarkCompleted(context.Context, int64, time.Time) error        { return nil }
func (r *stubRepo) MarkFailed(context.Context, int64, string, time.Time) error   { return nil }
func (r *stubRepo) InsertCorrections(context.Context, []corrections.Correction) error { return nil }

func (r *stubRepo) GetByUUID(_ context.Context, uuid string) (*reports.Report, error) {
	if rep, ok := r.reports[uuid]; ok {
		return rep, nil
	}
	return nil, reports.ErrNotFound
}

func (r *stubRepo) GetFull(_ context.Context, uuid string) (*reports.ReportWithCorrections, error) {
	if rep, ok := r.reports[uuid]; ok {
		return &reports.ReportWithCorrections{Report: *rep}, nil
	}
	return nil, reports.ErrNotFound
}

func (r *stubRepo) ListWithCounts(context.Context) ([]reports.Summary, error) {
	return r.summaries, nil
}

func (r *stubRepo) Delete(_ context.Context, uuid string) ([]string, error) {
	if _, ok := r.reports[uuid]; !ok {
		return nil, reports.ErrNotFound
	}
	delete(r.reports, uuid)
	r.deleted = append(r.deleted, uuid)
	return r.uuidsFor[uuid], nil
}

type stubScreens struct {
	saved   map[string][]byte
	removed []string
}

func (s *stubScreens) Save(_ context.Context, uuid string, png []byte) error {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[uuid] = png
	return nil
}

func (s *stubScreens) Get(_ context.Context, uuid string) ([]byte, error) {
	if b, ok := s.saved[uuid]; ok {
		return b, nil
	}
	return nil, reports.ErrNotFound
}

func (s *stubScreens) Remove(_ context.Context, uuid string) error {
	s.removed = append(s.removed, uuid)
	delete(s.saved, uuid)
	return nil
}

type stubSession struct{ text string }

func (s *stubSession) ExtractText(context.Context) (string, error) { return s.text, nil }
func (s *stubSession) Highlight(context.Context, string, corrections.Severity) (bool, pages.Box, error) {
	return true, pages.Box{X: 1, Y: 2, Width: 3, Height: 4}, nil
}
func (s *stubSession) Screenshot(context.Context, pages.Box, float64) ([]byte, error) {
	return []byte("png"), nil
}
func (s *stubSession) Close() {}

type stubLauncher struct{ session pages.Session }

func (l *stubLauncher) Open(context.Context, string) (pages.Session, error) {
	return l.session, nil
}

type stubModel struct{}

func (stubModel) Generate(context.Context, string, string, []corrections.Severity) ([]corrections.Candidate, ai.Usage, error) {
	return nil, ai.Usage{}, nil
}
func (stubModel) Validate(context.Context, []corrections.Candidate) ([]corrections.Candidate, ai.Usage, error) {
	return nil, ai.Usage{}, nil
}

type stubAlerts struct{}

func (stubAlerts) Send(alerts.Level, string) {}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRouter(repo *stubRepo, screens *stubScreens, debugToken string) http.Handler {
	log := quietLogger()
	svc := &appscans.Service{
		Reports:        repo,
		Screens:        screens,
		Browser:        &stubLauncher{session: &stubSession{text: "a perfectly clean page body"}},
		Generator:      stubModel{},
		Validator:      stubModel{},
		Alerts:         stubAlerts{},
		Clock:          application.SystemClock{},
		Logger:         log,
		Model:          "gpt-4o",
		ValidatorModel: "gpt-4o",
	}
	return NewRouter(svc, repo, screens, nil, debugToken, log)
}

// ---- tests ----

func TestCreateScanRejectsBadInput(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubScreens{}, "")

	cases := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing url", `{"uuid": "abc"}`},
		{"missing uuid", `{"url": "https://example.com"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scans", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateScanStreamsEvents(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubScreens{}, "")

	body := `{"url": "https://example.com", "uuid": "run-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `data: {"key":"running"`) {
		t.Errorf("stream missing running events:\n%s", out)
	}
	if !strings.Contains(out, `data: {"key":"completed","data":"run-1"}`) {
		t.Errorf("stream missing terminal completed event:\n%s", out)
	}
}

func TestListScans(t *testing.T) {
	repo := &stubRepo{summaries: []reports.Summary{{UUID: "run-1", URL: "https://example.com"}}}
	router := newTestRouter(repo, &stubScreens{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"scans"`) {
		t.Errorf("body = %s, want a scans envelope", rec.Body.String())
	}
}

func TestGetReportNotFound(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &stubScreens{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/reports/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteReportCleansUpScreenshots(t *testing.T) {
	repo := &stubRepo{
		reports:  map[string]*reports.Report{"run-1": {ID: 1, UUID: "run-1"}},
		uuidsFor: map[string][]string{"run-1": {"corr-a", "corr-b"}},
	}
	screens := &stubScreens{saved: map[string][]byte{"corr-a": []byte("a"), "corr-b": []byte("b")}}
	router := newTestRouter(repo, screens, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/run-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(screens.removed) != 2 {
		t.Errorf("removed %v, want both correction screenshots", screens.removed)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/reports/run-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestScreenshotEndpoint(t *testing.T) {
	const goodUUID = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	screens := &stubScreens{saved: map[string][]byte{goodUUID: []byte("png")}}
	router := newTestRouter(&stubRepo{}, screens, "")

	req := httptest.NewRequest(http.MethodGet, "/api/screenshots/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed uuid status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/screenshots/0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4e", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing uuid status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/screenshots/"+goodUUID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q, want an immutable policy", cc)
	}
}

func TestDebuggingInfoRequiresToken(t *testing.T) {
	repo := &stubRepo{reports: map[string]*reports.Report{"run-1": {
		ID:            1,
		UUID:          "run-1",
		State:         reports.StateCompleted,
		StateInternal: reports.StageCompleted,
		DebuggingInfo: map[string]any{"generate_corrections_model": "gpt-4o"},
	}}}

	t.Run("no token configured", func(t *testing.T) {
		router := newTestRouter(repo, &stubScreens{}, "")
		req := httptest.NewRequest(http.MethodGet, "/api/reports/run-1/debugging-info", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401 when no token is configured", rec.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		router := newTestRouter(repo, &stubScreens{}, "s3cret")
		req := httptest.NewRequest(http.MethodGet, "/api/reports/run-1/debugging-info", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		router := newTestRouter(repo, &stubScreens{}, "s3cret")
		req := httptest.NewRequest(http.MethodGet, "/api/reports/run-1/debugging-info", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"generate_corrections_model", "report_uuid", "state_internal"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q:\n%s", want, body)
			}
		}
	})
}
