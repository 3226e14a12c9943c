package corrections

import "time"

// Severity enum
type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityMinor     Severity = "minor"
)

// AllSeverities in descending order of impact.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityImportant, SeverityMinor}
}

// IssueType enum
type IssueType string

const (
	IssueSpelling    IssueType = "spelling"
	IssueGrammar     IssueType = "grammar"
	IssueStyle       IssueType = "style"
	IssueConsistency IssueType = "consistency"
)

// Candidate is a model-proposed correction before any filtering. The JSON
// tags double as the wire schema the model is asked to fill.
type Candidate struct {
	IssueType       IssueType `json:"issue_type"`
	OriginalText    string    `json:"original_text"`
	CorrectedText   string    `json:"corrected_text"`
	SurroundingText string    `json:"surrounding_text"`
	Explanation     string    `json:"explanation_for_correction"`
	Confidence      float64   `json:"probability_of_correctness"`
	Severity        Severity  `json:"severity"`
}

// Correction is a candidate that survived filtering and was successfully
// highlighted on the live page. Its UUID is also the screenshot name.
type Correction struct {
	ID              int64     `json:"id"`
	UUID            string    `json:"uuid"`
	ReportID        int64     `json:"page_scan_report_id"`
	IssueType       IssueType `json:"issue_type"`
	OriginalText    string    `json:"original_text"`
	CorrectedText   string    `json:"corrected_text"`
	SurroundingText string    `json:"surrounding_text"`
	Explanation     string    `json:"explanation_for_correction"`
	Confidence      float64   `json:"probability_of_correctness"`
	Severity        Severity  `json:"severity"`
	CreatedAt       time.Time `json:"created_at"`
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical  int `json:"critical"`
	Important int `json:"important"`
	Minor     int `json:"minor"`
	Total     int `json:"total"`
}

// Count tallies corrections per severity.
func Count(cs []Correction) SeverityCounts {
	var out SeverityCounts
	for _, c := range cs {
		switch c.Severity {
		case SeverityCritical:
			out.Critical++
		case SeverityImportant:
			out.Important++
		default:
			out.Minor++
		}
		out.Total++
	}
	return out
}
