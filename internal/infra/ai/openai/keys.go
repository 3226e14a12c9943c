package openai

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// Cached model responses expire after three days. Repeat scans of
// unchanged content are then free of model cost.
const cacheTTL = 3 * 24 * time.Hour

// generateCacheKey fingerprints (url, severities, model, content hash of
// the text). Severities are sorted first so request order does not split
// the cache.
func generateCacheKey(pageURL string, severities []corrections.Severity, model, text string) string {
	sevs := make([]string, 0, len(severities))
	for _, s := range severities {
		sevs = append(sevs, string(s))
	}
	sort.Strings(sevs)
	return fmt.Sprintf("spell_check:%s_%s_%s_%x",
		pageURL, strings.Join(sevs, ","), model, md5.Sum([]byte(text)))
}

// validateCacheKey fingerprints the batch by its corrected-text values,
// order-sensitive.
func validateCacheKey(cands []corrections.Candidate) string {
	parts := make([]string, 0, len(cands))
	for _, c := range cands {
		parts = append(parts, c.CorrectedText)
	}
	return fmt.Sprintf("validate:%x", md5.Sum([]byte(strings.Join(parts, ","))))
}
