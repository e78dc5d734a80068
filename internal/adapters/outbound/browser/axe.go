package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/preflightci/preflight/internal/domain"
)

const defaultAxeURL = "https://cdn.jsdelivr.net/npm/axe-core@4.10.2/axe.min.js"

const axeFetchTimeout = 15 * time.Second
const maxAxeScriptSize = 4 << 20

// fetchAxe downloads the accessibility audit script. Network failure is not
// fatal to the UI stage; the caller records that the audit was unavailable.
func fetchAxe(ctx context.Context, url string) (string, error) {
	fctx, cancel := context.WithTimeout(ctx, axeFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching accessibility script: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAxeScriptSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// axeViolation is one violated rule from the audit, summarized in-page.
type axeViolation struct {
	ID     string `json:"id"`
	Impact string `json:"impact"`
	Help   string `json:"help"`
	Nodes  int    `json:"nodes"`
}

const axeRunJS = `axe.run(document, { runOnly: { type: "tag", values: ["wcag2a", "wcag2aa"] } })
  .then(r => r.violations.map(v => ({ id: v.id, impact: v.impact || "minor", help: v.help, nodes: v.nodes.length })))`

func runAxe(ctx context.Context, src string) ([]axeViolation, error) {
	var violations []axeViolation
	err := chromedp.Run(ctx,
		chromedp.Evaluate(src, nil),
		chromedp.Evaluate(axeRunJS, &violations, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	return violations, err
}

// Audit impact levels map onto issue severities; anything unrecognized is
// treated as informational.
var axeImpactSeverity = map[string]string{
	"critical": domain.SeverityError,
	"serious":  domain.SeverityWarning,
	"moderate": domain.SeverityInfo,
	"minor":    domain.SeverityInfo,
}

func (v axeViolation) toIssue(viewport string) domain.Issue {
	severity, ok := axeImpactSeverity[v.Impact]
	if !ok {
		severity = domain.SeverityInfo
	}
	return domain.Issue{
		Severity: severity,
		Category: domain.CategoryAccessibility,
		Stage:    domain.StageUI,
		Viewport: viewport,
		Code:     v.ID,
		Message:  v.Help,
		Details:  fmt.Sprintf("impact %s, %d affected elements", v.Impact, v.Nodes),
	}
}
