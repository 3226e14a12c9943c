package scans

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/application"
	"github.com/pagelint/pagelint/internal/domain/ai"
	"github.com/pagelint/pagelint/internal/domain/alerts"
	"github.com/pagelint/pagelint/internal/domain/corrections"
	"github.com/pagelint/pagelint/internal/domain/pages"
	"github.com/pagelint/pagelint/internal/domain/reports"
	"github.com/pagelint/pagelint/internal/textnorm"
)

const screenshotPadding = 100

// gpt-4o list pricing, per token. Advisory only, never used for control flow.
const (
	costPerInputToken  = 2.5e-6
	costPerOutputToken = 10e-6
)

// Service implements the scan workflow. All dependencies are injected so
// tests can substitute fakes; a Service is safe for concurrent use and each
// run owns its own browser session.
type Service struct {
	Reports   reports.Repository
	Screens   reports.ScreenshotStore
	Browser   pages.Launcher
	Generator ai.Generator
	Validator ai.Validator
	Alerts    alerts.Notifier
	Clock     application.Clock
	Logger    *logrus.Logger

	// Model names, recorded in the run's debugging info.
	Model          string
	ValidatorModel string
	// Severities requested from the generator. Defaults to all three.
	Severities []corrections.Severity
}

// StartScan runs one scan to completion. It is meant to be called on its
// own goroutine with a background context: a caller disconnect must not
// cancel the run, the report row always ends in a terminal state. Events
// are pushed to events with a non-blocking send, so a gone consumer can
// never stall the workflow. StartScan never panics or returns an error;
// every failure ends as a failed report plus an error event.
func (s *Service) StartScan(pageURL, runUUID string, events chan<- Event) {
	ctx := context.Background()
	log := s.Logger.WithField("uuid", runUUID)
	emit := func(key EventKey, data string) {
		select {
		case events <- Event{Key: key, Data: data}:
		default:
			log.WithField("key", key).Warn("event consumer gone, dropping progress event")
		}
	}

	log.WithField("url", pageURL).Info("starting workflow")
	s.Alerts.Send(alerts.LevelInfo, "Starting new run: "+pageURL)
	emit(EventRunning, "Opening the page...")

	rep := &reports.Report{
		UUID:          runUUID,
		URL:           pageURL,
		State:         reports.StateRunning,
		StateInternal: reports.StageInitializing,
		RunStartTime:  s.Clock.Now(),
		DebuggingInfo: map[string]any{
			"generate_corrections_model": s.Model,
			"validator_model":            s.ValidatorModel,
		},
	}
	if err := s.Reports.Create(ctx, rep); err != nil {
		log.WithError(err).Error("could not create report row")
		s.Alerts.Send(alerts.LevelError, "Error in run uuid: "+runUUID+", error: "+err.Error())
		emit(EventError, "Unable to check the website: "+err.Error())
		return
	}

	log.Info("opening the page in a headless browser")
	session, err := s.Browser.Open(ctx, pageURL)
	if err != nil {
		s.fail(ctx, rep, nil, err, emit, log)
		return
	}

	kept, usage, err := s.run(ctx, rep, session, emit, log)
	if err != nil {
		s.fail(ctx, rep, session, err, emit, log)
		return
	}
	session.Close()

	if err := s.Reports.MarkCompleted(ctx, rep.ID, s.Clock.Now()); err != nil {
		s.fail(ctx, rep, nil, err, emit, log)
		return
	}

	cost := float64(usage.InputTokens)*costPerInputToken + float64(usage.OutputTokens)*costPerOutputToken
	log.Infof("total cost: $%.4f, corrections identified: %d", cost, len(kept))

	counts := corrections.Count(kept)
	emit(EventRunning, fmt.Sprintf("Found %d critical corrections", counts.Critical))
	emit(EventRunning, fmt.Sprintf("Found %d important corrections", counts.Important))
	emit(EventRunning, fmt.Sprintf("Found %d minor corrections", counts.Minor))
	emit(EventCompleted, runUUID)
}

// run executes the pipeline stages in order. Each stage transition is
// persisted before the stage's work begins so an observer can always see
// which stage is in flight. Empty results short-circuit to a successful
// end with no corrections.
func (s *Service) run(
	ctx context.Context,
	rep *reports.Report,
	session pages.Session,
	emit func(EventKey, string),
	log *logrus.Entry,
) ([]corrections.Correction, ai.Usage, error) {
	var usage ai.Usage

	emit(EventRunning, "Extracting text from the page...")
	if err := s.Reports.SetStage(ctx, rep.ID, reports.StageExtractingText); err != nil {
		return nil, usage, err
	}
	text, err := session.ExtractText(ctx)
	if err != nil {
		return nil, usage, fmt.Errorf("extracting text: %w", err)
	}

	log.Info("validating text length")
	if err := s.Reports.SetStage(ctx, rep.ID, reports.StageValidatingText); err != nil {
		return nil, usage, err
	}
	if len(text) < textnorm.MinLen {
		return nil, usage, pages.ErrNoContent
	}

	emit(EventRunning, "Checking for typos, grammatical errors, and other issues...")
	if err := s.Reports.SetStage(ctx, rep.ID, reports.StageCheckingSpelling); err != nil {
		return nil, usage, err
	}
	severities := s.Severities
	if len(severities) == 0 {
		severities = corrections.AllSeverities()
	}
	cands, genUsage, err := s.Generator.Generate(ctx, rep.URL, text, severities)
	usage = usage.Add(genUsage)
	if err != nil {
		return nil, usage, fmt.Errorf("checking spelling: %w", err)
	}
	if len(cands) == 0 {
		log.Info("no corrections found, completing run")
		return nil, usage, nil
	}

	if err := s.Reports.SetStage(ctx, rep.ID, reports.StageFilteringCorrections); err != nil {
		return nil, usage, err
	}
	pass1 := Filter(cands, text)
	if len(pass1) == 0 {
		log.Info("no true positives after first filter pass")
		return nil, usage, nil
	}

	emit(EventRunning, "Generating suggestions...")
	valid, valUsage, err := s.Validator.Validate(ctx, pass1)
	usage = usage.Add(valUsage)
	if err != nil {
		return nil, usage, fmt.Errorf("validating corrections: %w", err)
	}
	if len(valid) == 0 {
		log.Info("no corrections endorsed by the validator")
		return nil, usage, nil
	}

	pass2 := Filter(valid, text)
	if len(pass2) == 0 {
		log.Info("no true positives after second filter pass")
		return nil, usage, nil
	}

	emit(EventRunning, "Removing false positives...")
	if err := s.Reports.SetStage(ctx, rep.ID, reports.StageInjectingCorrections); err != nil {
		return nil, usage, err
	}

	prepared := s.prepare(rep, pass2)
	emit(EventRunning, "Almost done...")
	kept, err := s.inject(ctx, session, prepared, log)
	if err != nil {
		return nil, usage, err
	}

	if len(kept) > 0 {
		if err := s.Reports.InsertCorrections(ctx, kept); err != nil {
			return nil, usage, fmt.Errorf("persisting corrections: %w", err)
		}
	}
	emit(EventRunning, "Finishing up...")
	return kept, usage, nil
}

// prepare assigns each surviving candidate a UUID (also its screenshot
// name) and binds it to the owning report.
func (s *Service) prepare(rep *reports.Report, cands []corrections.Candidate) []corrections.Correction {
	now := s.Clock.Now()
	out := make([]corrections.Correction, 0, len(cands))
	for _, c := range cands {
		out = append(out, corrections.Correction{
			UUID:            uuid.New().String(),
			ReportID:        rep.ID,
			IssueType:       c.IssueType,
			OriginalText:    c.OriginalText,
			CorrectedText:   c.CorrectedText,
			SurroundingText: c.SurroundingText,
			Explanation:     c.Explanation,
			Confidence:      c.Confidence,
			Severity:        c.Severity,
			CreatedAt:       now,
		})
	}
	return out
}

// inject highlights each correction on the live page and captures a padded
// screenshot of the containing element. A correction that cannot be
// located is dropped with a warning, never aborting the run; screenshot
// capture or storage failures are fatal.
func (s *Service) inject(
	ctx context.Context,
	session pages.Session,
	cands []corrections.Correction,
	log *logrus.Entry,
) ([]corrections.Correction, error) {
	kept := make([]corrections.Correction, 0, len(cands))
	for _, c := range cands {
		ok, box, err := session.Highlight(ctx, c.OriginalText, c.Severity)
		if err != nil {
			return nil, fmt.Errorf("highlighting correction: %w", err)
		}
		if !ok {
			log.WithField("original_text", c.OriginalText).
				Warn("could not locate correction on the page, discarding it")
			continue
		}
		png, err := session.Screenshot(ctx, box, screenshotPadding)
		if err != nil {
			return nil, fmt.Errorf("capturing screenshot: %w", err)
		}
		if err := s.Screens.Save(ctx, c.UUID, png); err != nil {
			return nil, fmt.Errorf("storing screenshot: %w", err)
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// fail is the single failure path: release the browser, leave the report
// in a terminal failed state, alert, and emit an error event. Bookkeeping
// errors are logged and swallowed so the original error still reaches the
// caller.
func (s *Service) fail(
	ctx context.Context,
	rep *reports.Report,
	session pages.Session,
	cause error,
	emit func(EventKey, string),
	log *logrus.Entry,
) {
	log.WithError(cause).Error("workflow failed")
	if session != nil {
		session.Close()
	}
	stateInternal := reports.StageFailedPrefix + cause.Error()
	if err := s.Reports.MarkFailed(ctx, rep.ID, stateInternal, s.Clock.Now()); err != nil {
		log.WithError(err).Error("could not mark report as failed")
	}
	s.Alerts.Send(alerts.LevelError, "Error in run uuid: "+rep.UUID+", error: "+cause.Error())
	emit(EventError, "Unable to check the website: "+cause.Error())
}
