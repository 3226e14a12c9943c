package ai

import (
	"context"
	"time"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// Usage is best-effort token accounting, used only for cost estimates.
// Cached results and backends that do not report usage return zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Add(v Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + v.InputTokens,
		OutputTokens: u.OutputTokens + v.OutputTokens,
	}
}

// Generator proposes candidate corrections for extracted page text.
type Generator interface {
	Generate(ctx context.Context, pageURL, text string, severities []corrections.Severity) ([]corrections.Candidate, Usage, error)
}

// Validator re-judges already-filtered candidates with a second model and
// returns only the ones it endorses.
type Validator interface {
	Validate(ctx context.Context, cands []corrections.Candidate) ([]corrections.Candidate, Usage, error)
}

// Cache stores serialized model responses under content-derived keys.
// A miss must behave identically to a cold run; the cache is never a
// correctness dependency.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, payload []byte, ttl time.Duration) error
}
