package scans

import (
	"strings"
	"unicode/utf8"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

const (
	// minConfidence rejects candidates the model itself is unsure about.
	minConfidence = 0.8
	// maxCorrectedLen rejects oversized spans as likely hallucinations.
	maxCorrectedLen = 200
	// maxSurroundingLen is 1.5x the correction cap.
	maxSurroundingLen = 300
)

// Filter is the deterministic plausibility pass applied both before and
// after model validation. It drops low-confidence, no-op, oversized,
// hallucinated (surrounding text not present in source) and duplicate
// candidates, preserving relative order. An empty result means "no issues
// found" and is a valid outcome.
func Filter(cands []corrections.Candidate, sourceText string) []corrections.Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]corrections.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Confidence < minConfidence {
			continue
		}
		if c.CorrectedText == c.OriginalText {
			continue
		}
		if utf8.RuneCountInString(c.CorrectedText) > maxCorrectedLen ||
			utf8.RuneCountInString(c.SurroundingText) > maxSurroundingLen {
			continue
		}
		if !strings.Contains(sourceText, c.SurroundingText) {
			continue
		}
		if _, dup := seen[c.OriginalText]; dup {
			continue
		}
		seen[c.OriginalText] = struct{}{}
		out = append(out, c)
	}
	return out
}
