package reports

import (
	"time"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// State enum, coarse caller-visible lifecycle
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Fine-grained stage names stored in state_internal. Stages only move
// forward; StageFailedPrefix marks the terminal failure from any stage.
const (
	StageInitializing         = "initializing"
	StageExtractingText       = "extracting_text"
	StageValidatingText       = "validating_text"
	StageCheckingSpelling     = "checking_spelling"
	StageFilteringCorrections = "filtering_corrections"
	StageInjectingCorrections = "injecting_corrections"
	StageCompleted            = "completed"
	StageFailedPrefix         = "failed - "
)

// Report is the aggregate root: one scan run against one URL.
type Report struct {
	ID            int64          `json:"id"`
	UUID          string         `json:"uuid"`
	URL           string         `json:"url"`
	State         State          `json:"state"`
	StateInternal string         `json:"state_internal"`
	RunStartTime  time.Time      `json:"run_start_time"`
	RunEndTime    *time.Time     `json:"run_end_time"`
	DebuggingInfo map[string]any `json:"debugging_info,omitempty"`
}

// ReportWithCorrections is a report plus its persisted corrections.
type ReportWithCorrections struct {
	Report
	Corrections []corrections.Correction `json:"corrections"`
}

// Summary is a report row with aggregated correction counts, used by
// the scan listing.
type Summary struct {
	ID             int64                      `json:"id"`
	UUID           string                     `json:"uuid"`
	URL            string                     `json:"url"`
	State          State                      `json:"state"`
	StateInternal  string                     `json:"state_internal"`
	RunStartTime   time.Time                  `json:"run_start_time"`
	RunEndTime     *time.Time                 `json:"run_end_time"`
	SeverityCounts corrections.SeverityCounts `json:"counts"`
}
