package pages

import (
	"context"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// Box is a bounding box in page coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Session is one loaded page in a headless browser. The search and
// highlight routines are installed during Open and stay available for the
// lifetime of the session without a second page load.
type Session interface {
	// ExtractText returns the normalized visible text of the page body.
	ExtractText(ctx context.Context) (string, error)
	// Highlight wraps every match of text in a styled marker span and
	// returns whether the rewrite succeeded plus the containing element's
	// bounding box. A miss is not an error.
	Highlight(ctx context.Context, text string, severity corrections.Severity) (bool, Box, error)
	// Screenshot captures the page clipped to box expanded by padding on
	// every side, clamped so the clip origin never goes negative.
	Screenshot(ctx context.Context, box Box, padding float64) ([]byte, error)
	// Close releases the browser session. Safe to call more than once.
	Close()
}

// Launcher port (interface for opening pages); each run owns its own
// browser session, sessions are never shared.
type Launcher interface {
	Open(ctx context.Context, url string) (Session, error)
}
