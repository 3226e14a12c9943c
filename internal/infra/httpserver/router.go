package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appscans "github.com/pagelint/pagelint/internal/application/scans"
	"github.com/pagelint/pagelint/internal/domain/reports"
	"github.com/pagelint/pagelint/internal/middleware"
)

// Screenshots are immutable once written, cache them for a year.
const screenshotCacheSecs = 60 * 60 * 24 * 365

// Strict v4 check so a screenshot id can never be a path.
var uuidV4 = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// eventBuffer sizes each run's progress channel. Large enough that a run
// never blocks on a slow or gone consumer.
const eventBuffer = 64

type Router struct {
	scans      *appscans.Service
	reports    reports.Repository
	screens    reports.ScreenshotStore
	log        *logrus.Logger
	debugToken string
}

func NewRouter(
	scansSvc *appscans.Service,
	repo reports.Repository,
	screens reports.ScreenshotStore,
	health map[string]middleware.HealthChecker,
	debugToken string,
	log *logrus.Logger,
) http.Handler {
	r := &Router{scans: scansSvc, reports: repo, screens: screens, log: log, debugToken: debugToken}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestLogger(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	mux.Get("/health", middleware.HealthHandler(health))

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/scans", r.handleCreateScan)
		rt.Get("/scans", r.wrap(r.handleListScans))
		rt.Get("/reports/{uuid}", r.wrap(r.handleGetReport))
		rt.Delete("/reports/{uuid}", r.wrap(r.handleDeleteReport))
		rt.With(middleware.SuperUserOnly(debugToken)).
			Get("/reports/{uuid}/debugging-info", r.wrap(r.handleDebuggingInfo))
		rt.Get("/screenshots/{uuid}", r.wrap(r.handleScreenshot))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks an error that maps to HTTP 400.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequest
			if errors.As(err, &br) {
				http.Error(w, br.msg, http.StatusBadRequest)
				return
			}
			if errors.Is(err, reports.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			r.log.WithError(err).Error("request failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// POST /api/scans
// Body: {"url": "...", "uuid": "..."}
// Responds with a server-sent event stream of progress events; the stream
// closes after a completed or error event. A client disconnect tears the
// stream down but the scan itself runs to completion.
func (r *Router) handleCreateScan(w http.ResponseWriter, req *http.Request) {
	var body struct {
		URL  string `json:"url"`
		UUID string `json:"uuid"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if body.UUID == "" {
		http.Error(w, "uuid is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan appscans.Event, eventBuffer)
	go r.scans.StartScan(body.URL, body.UUID, events)

	for {
		select {
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if ev.Key == appscans.EventCompleted || ev.Key == appscans.EventError {
				return
			}
		case <-req.Context().Done():
			// Client is gone; the workflow keeps running and the report
			// still reaches a terminal state.
			return
		}
	}
}

// GET /api/scans
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) error {
	list, err := r.reports.ListWithCounts(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"scans": list})
}

// GET /api/reports/{uuid}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	uuid := chi.URLParam(req, "uuid")
	full, err := r.reports.GetFull(req.Context(), uuid)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(full)
}

// DELETE /api/reports/{uuid}
func (r *Router) handleDeleteReport(w http.ResponseWriter, req *http.Request) error {
	uuid := chi.URLParam(req, "uuid")
	correctionUUIDs, err := r.reports.Delete(req.Context(), uuid)
	if err != nil {
		return err
	}
	// Screenshot cleanup is best-effort; orphaned files are harmless.
	for _, u := range correctionUUIDs {
		if err := r.screens.Remove(req.Context(), u); err != nil {
			r.log.WithError(err).WithField("uuid", u).Warn("could not remove screenshot")
		}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /api/reports/{uuid}/debugging-info (superuser only)
func (r *Router) handleDebuggingInfo(w http.ResponseWriter, req *http.Request) error {
	uuid := chi.URLParam(req, "uuid")
	rep, err := r.reports.GetByUUID(req.Context(), uuid)
	if err != nil {
		return err
	}

	info := map[string]any{}
	for k, v := range rep.DebuggingInfo {
		info[k] = v
	}
	info["report_id"] = rep.ID
	info["report_uuid"] = rep.UUID
	info["run_start_time"] = rep.RunStartTime
	info["run_end_time"] = rep.RunEndTime
	info["state"] = rep.State
	info["state_internal"] = rep.StateInternal

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(info)
}

// GET /api/screenshots/{uuid}
func (r *Router) handleScreenshot(w http.ResponseWriter, req *http.Request) error {
	uuid := chi.URLParam(req, "uuid")
	if !uuidV4.MatchString(uuid) {
		return badRequest{"invalid uuid format"}
	}

	png, err := r.screens.Get(req.Context(), uuid)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, immutable, max-age=%d", screenshotCacheSecs))
	w.Header().Set("Expires", time.Now().Add(screenshotCacheSecs*time.Second).UTC().Format(http.TimeFormat))
	_, err = w.Write(png)
	return err
}
