// Package browser implements the UI stage with a headless Chrome driven
// over the DevTools protocol. Each viewport gets an isolated browsing
// context; listeners collect script errors and failed resources while
// layout heuristics and an injected accessibility audit run in the page.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/preflightci/preflight/internal/domain"
)

const (
	defaultNavTimeout = 30 * time.Second
	// settle time after load for async script errors and late resources
	postLoadSettle = 500 * time.Millisecond
	// quality 100 makes FullScreenshot capture PNG instead of JPEG
	screenshotQual = 100
)

var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// Options configures the validator; zero values fall back to defaults.
type Options struct {
	ChromePath    string        // explicit browser binary; discovered on PATH when empty
	AxeScriptURL  string        // accessibility audit script source
	ScreenshotDir string        // where screenshots land; a temp dir when empty
	NavTimeout    time.Duration // per-viewport navigation budget
}

// ChromeValidator implements domain.UIValidator.
type ChromeValidator struct {
	opts Options
}

func New(opts Options) *ChromeValidator {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = defaultNavTimeout
	}
	if opts.AxeScriptURL == "" {
		opts.AxeScriptURL = defaultAxeURL
	}
	return &ChromeValidator{opts: opts}
}

func (v *ChromeValidator) Validate(ctx context.Context, url string, viewports []domain.Viewport) (*domain.UIResult, error) {
	// 1. Capability probe: no browser binary means the stage is skipped
	chromePath := findChrome(v.opts.ChromePath)
	if chromePath == "" {
		return &domain.UIResult{
			Status:  domain.StatusSkip,
			Message: "no Chrome or Chromium binary found",
		}, nil
	}

	if len(viewports) == 0 {
		viewports = domain.DefaultViewports()
	}

	shotDir, err := v.screenshotDir()
	if err != nil {
		return nil, fmt.Errorf("preparing screenshot dir: %w", err)
	}

	// 2. Fetch the accessibility audit script once per run; failure only
	// disables the audit, never the stage
	axeSrc, axeErr := fetchAxe(ctx, v.opts.AxeScriptURL)

	// 3. One browser process for the stage, a fresh isolated context per
	// viewport
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.NoSandbox,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	result := &domain.UIResult{}
	axeRuleIDs := make(map[string]struct{})
	loaded := 0

	for _, vp := range viewports {
		report, vpErr := v.runViewport(allocCtx, url, vp, shotDir, axeSrc, axeRuleIDs)
		if vpErr != nil {
			if isLaunchError(vpErr) {
				return &domain.UIResult{
					Status:  domain.StatusSkip,
					Message: fmt.Sprintf("browser failed to start: %v", vpErr),
				}, nil
			}
			result.Issues = append(result.Issues, domain.Issue{
				Severity: domain.SeverityError,
				Category: domain.CategoryNavigation,
				Stage:    domain.StageUI,
				Viewport: vp.Name,
				Message:  fmt.Sprintf("could not load %s: %v", url, vpErr),
			})
			continue
		}

		loaded++
		result.Issues = append(result.Issues, report.issues...)
		if report.screenshot != nil {
			result.Screenshots = append(result.Screenshots, *report.screenshot)
		}
		if result.PageTitle == "" {
			result.PageTitle = report.title
			result.LoadTimeMs = report.loadMs
		}
	}

	// 4. Accessibility score counts distinct violated rules across viewports
	if axeSrc != "" && loaded > 0 {
		score := domain.ClampScore(100 - 5*len(axeRuleIDs))
		result.AccessibilityScore = &score
	}

	result.Status = domain.StatusFromIssues(result.Issues)
	result.Message = v.summaryMessage(loaded, len(viewports), result, axeErr)
	return result, nil
}

func (v *ChromeValidator) summaryMessage(loaded, total int, result *domain.UIResult, axeErr error) string {
	counts := domain.CountIssues(result.Issues)
	msg := fmt.Sprintf("%d/%d viewports checked, %d errors, %d warnings",
		loaded, total, counts.Errors, counts.Warnings)
	if axeErr != nil {
		msg += " (accessibility audit unavailable)"
	}
	return msg
}

// viewportReport carries one viewport pass's findings back to the merge loop.
type viewportReport struct {
	issues     []domain.Issue
	screenshot *domain.Screenshot
	title      string
	loadMs     int64
}

func (v *ChromeValidator) runViewport(allocCtx context.Context, url string, vp domain.Viewport, shotDir, axeSrc string, axeRuleIDs map[string]struct{}) (*viewportReport, error) {
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tctx, cancel := context.WithTimeout(tabCtx, v.opts.NavTimeout)
	defer cancel()

	report := &viewportReport{}
	collector := newEventCollector(vp.Name)
	chromedp.ListenTarget(tctx, collector.handle)

	// Navigate with listeners attached for the whole page lifetime
	start := time.Now()
	var title string
	err := chromedp.Run(tctx,
		network.Enable(),
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(postLoadSettle),
		chromedp.Title(&title),
	)
	if err != nil {
		return nil, err
	}
	report.title = title
	report.loadMs = time.Since(start).Milliseconds()

	// Layout heuristics
	var layout layoutReport
	if err := chromedp.Run(tctx, chromedp.Evaluate(layoutChecksJS(vp.Name == "mobile"), &layout)); err == nil {
		report.issues = append(report.issues, layout.toIssues(vp.Name)...)
	}

	// Accessibility audit
	if axeSrc != "" {
		violations, axeErr := runAxe(tctx, axeSrc)
		if axeErr == nil {
			for _, viol := range violations {
				axeRuleIDs[viol.ID] = struct{}{}
				report.issues = append(report.issues, viol.toIssue(vp.Name))
			}
		}
	}

	// Screenshot
	var shot []byte
	if err := chromedp.Run(tctx, chromedp.FullScreenshot(&shot, screenshotQual)); err == nil && len(shot) > 0 {
		path := filepath.Join(shotDir, vp.Name+".png")
		if writeErr := os.WriteFile(path, shot, 0o644); writeErr == nil {
			report.screenshot = &domain.Screenshot{
				Viewport: vp.Name,
				Width:    vp.Width,
				Height:   vp.Height,
				Path:     path,
			}
		}
	}

	report.issues = append(report.issues, collector.drain()...)
	return report, nil
}

func (v *ChromeValidator) screenshotDir() (string, error) {
	if v.opts.ScreenshotDir != "" {
		return v.opts.ScreenshotDir, os.MkdirAll(v.opts.ScreenshotDir, 0o755)
	}
	return os.MkdirTemp("", "preflight-shots-")
}

// eventCollector accumulates DevTools events; callbacks arrive on the
// browser's event goroutine, so state is locked.
type eventCollector struct {
	mu       sync.Mutex
	viewport string
	issues   []domain.Issue
	reqURLs  map[network.RequestID]string
}

func newEventCollector(viewport string) *eventCollector {
	return &eventCollector{viewport: viewport, reqURLs: make(map[network.RequestID]string)}
}

func (c *eventCollector) handle(ev interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case *cdpruntime.EventExceptionThrown:
		msg := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
			msg = e.ExceptionDetails.Exception.Description
		}
		c.issues = append(c.issues, domain.Issue{
			Severity: domain.SeverityError,
			Category: domain.CategoryJSError,
			Stage:    domain.StageUI,
			Viewport: c.viewport,
			Message:  firstLine(msg),
			Details:  msg,
		})

	case *network.EventRequestWillBeSent:
		c.reqURLs[e.RequestID] = e.Request.URL

	case *network.EventResponseReceived:
		if e.Response.Status >= 400 {
			severity := domain.SeverityWarning
			if e.Type == network.ResourceTypeDocument {
				severity = domain.SeverityError
			}
			c.issues = append(c.issues, domain.Issue{
				Severity: severity,
				Category: domain.CategoryResourceFailure,
				Stage:    domain.StageUI,
				Viewport: c.viewport,
				Code:     fmt.Sprintf("http-%d", e.Response.Status),
				Message:  fmt.Sprintf("HTTP %d for %s", e.Response.Status, e.Response.URL),
			})
		}

	case *network.EventLoadingFailed:
		if e.Canceled {
			return
		}
		url := c.reqURLs[e.RequestID]
		if url == "" {
			url = "resource"
		}
		c.issues = append(c.issues, domain.Issue{
			Severity: domain.SeverityWarning,
			Category: domain.CategoryResourceFailure,
			Stage:    domain.StageUI,
			Viewport: c.viewport,
			Message:  fmt.Sprintf("failed to load %s: %s", url, e.ErrorText),
		})
	}
}

func (c *eventCollector) drain() []domain.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.issues
	c.issues = nil
	return out
}

func findChrome(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		if path, err := exec.LookPath(explicit); err == nil {
			return path
		}
		return ""
	}
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func isLaunchError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "failed to start") ||
		strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "exec format error")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
