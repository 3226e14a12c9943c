// Package browser drives a headless Chrome instance via chromedp. One
// Session corresponds to one loaded page owned by exactly one scan run.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/domain/corrections"
	"github.com/pagelint/pagelint/internal/domain/pages"
	"github.com/pagelint/pagelint/internal/textnorm"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/69.0.3497.100 Safari/537.36"

// A very tall viewport so the whole page renders without scrolling and
// element coordinates map directly onto screenshot coordinates.
const (
	viewportWidth  = 1920
	viewportHeight = 1080 * 20
)

// Launcher opens pages in fresh browser contexts.
type Launcher struct {
	Headless    bool
	UserAgent   string
	NavTimeout  time.Duration
	SettleDelay time.Duration
	Logger      *logrus.Logger
}

func NewLauncher(headless bool, navTimeout, settleDelay time.Duration, log *logrus.Logger) *Launcher {
	return &Launcher{
		Headless:    headless,
		UserAgent:   defaultUserAgent,
		NavTimeout:  navTimeout,
		SettleDelay: settleDelay,
		Logger:      log,
	}
}

// Open navigates to url, waits for the page to settle (bounded by
// NavTimeout), bypasses CSP and installs the helper script. The returned
// session must be closed by the caller.
func (l *Launcher) Open(ctx context.Context, url string) (pages.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(l.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		pageCancel()
		allocCancel()
	}

	navCtx, navCancel := context.WithTimeout(pageCtx, l.NavTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(l.SettleDelay),
		page.SetBypassCSP(true),
		chromedp.Evaluate(helperScript, nil),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening page %s: %w", url, err)
	}

	return &Session{ctx: pageCtx, cancel: cancel, log: l.Logger}, nil
}

// Session is one live page. Methods run against the session's own browser
// context; the ctx argument only bounds the wait.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Logger
}

// ExtractText reads the rendered body text and normalizes it.
func (s *Session) ExtractText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var raw string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate("document.body.innerText", &raw)); err != nil {
		return "", fmt.Errorf("reading body text: %w", err)
	}
	text, truncated := textnorm.VisibleText(raw)
	if truncated {
		s.log.Warnf("text content is very long, truncating to first %d characters", textnorm.MaxLen)
	}
	return text, nil
}

// Highlight wraps every match of text in a marker span colored by
// severity and returns the containing element's bounding box. ok=false
// means the text could not be located, which is not an error.
func (s *Session) Highlight(ctx context.Context, text string, severity corrections.Severity) (bool, pages.Box, error) {
	if err := ctx.Err(); err != nil {
		return false, pages.Box{}, err
	}
	expr := fmt.Sprintf("window.__PAGELINT_underlineText(%s, %s)",
		jsString(text), jsString(string(severity)))

	var res struct {
		Success     bool       `json:"success"`
		Coordinates *pages.Box `json:"coordinates"`
	}
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return false, pages.Box{}, fmt.Errorf("highlighting text: %w", err)
	}
	if !res.Success || res.Coordinates == nil {
		return false, pages.Box{}, nil
	}
	return true, *res.Coordinates, nil
}

// Screenshot captures the page clipped to box padded on every side. The
// clip origin is clamped at zero.
func (s *Session) Screenshot(ctx context.Context, box pages.Box, padding float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clip := &page.Viewport{
		X:      math.Max(0, box.X-padding),
		Y:      math.Max(0, box.Y-padding),
		Width:  box.Width + padding*2,
		Height: box.Height + padding*2,
		Scale:  1,
	}
	var buf []byte
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		b, err := page.CaptureScreenshot().WithClip(clip).Do(ctx)
		if err != nil {
			return err
		}
		buf = b
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Close releases the page and its browser. Idempotent.
func (s *Session) Close() {
	s.cancel()
}

// jsString renders s as a JS string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
