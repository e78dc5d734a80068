package tui_test

import (
	"testing"
	"time"

	"github.com/preflightci/preflight/internal/adapters/outbound/tui"
	"github.com/preflightci/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sampleResult() *domain.ValidationResult {
	a11y := 85
	return &domain.ValidationResult{
		RunID:  "run-1",
		Status: domain.StatusFail,
		Score:  67,
		Project: &domain.ProjectInfo{
			Kind:     domain.KindStaticHTML,
			Name:     "landing-page",
			RootPath: "/tmp/landing-page",
		},
		Stages: domain.StageResults{
			Static: &domain.StaticResult{
				Status:        domain.StatusWarn,
				FilesAnalyzed: 42,
				Counts:        domain.Counts{Warnings: 1},
			},
			Build: &domain.BuildResult{
				Status:  domain.StatusSkip,
				Message: "no build step for static-html projects",
			},
			Runtime: &domain.RuntimeResult{
				Status:  domain.StatusPass,
				Message: "server ready in 420ms",
				URL:     "http://127.0.0.1:8080/",
			},
			UI: &domain.UIResult{
				Status:             domain.StatusFail,
				Message:            "3 viewports checked, 2 issues found",
				AccessibilityScore: &a11y,
			},
		},
		Issues: []domain.Issue{
			{Severity: domain.SeverityWarning, Category: domain.CategoryLint, Stage: domain.StageStatic, File: "src/app.js", Line: 12, Message: "console.log left in source"},
			{Severity: domain.SeverityError, Category: domain.CategoryJSError, Stage: domain.StageUI, Viewport: "mobile", Message: "ReferenceError: initCart is not defined"},
			{Severity: domain.SeverityInfo, Category: domain.CategoryAccessibility, Stage: domain.StageUI, Viewport: "desktop", Message: "image without alt attribute"},
		},
		CommitHash: "abc1234def5678",
		StartedAt:  time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		Duration:   3 * time.Second,
		DurationMs: 3000,
	}
}

func TestRenderResult_ContainsScore(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "67")
	assert.Contains(t, output, "100")
}

func TestRenderResult_ContainsGradeAndStatus(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "C")
	assert.Contains(t, output, "FAIL")
}

func TestRenderResult_ContainsStageNames(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "static")
	assert.Contains(t, output, "build")
	assert.Contains(t, output, "runtime")
	assert.Contains(t, output, "ui")
}

func TestRenderResult_ShowsStageDetails(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "42 files analyzed")
	assert.Contains(t, output, "no build step")
	assert.Contains(t, output, "server ready in 420ms")
	assert.Contains(t, output, "3 viewports checked")
}

func TestRenderResult_ShowsIssues(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "Issues")
	assert.Contains(t, output, "ReferenceError: initCart is not defined")
	assert.Contains(t, output, "console.log left in source")
	assert.Contains(t, output, "image without alt attribute")
}

func TestRenderResult_ShowsIssueSeverityTags(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "error")
	assert.Contains(t, output, "warn")
	assert.Contains(t, output, "1 errors")
	assert.Contains(t, output, "1 warnings")
}

func TestRenderResult_ShowsIssueLocation(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "src/app.js:12")
	assert.Contains(t, output, "mobile")
}

func TestRenderResult_ErrorsBeforeWarnings(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	errorIdx := indexOf(output, "ReferenceError: initCart is not defined")
	warnIdx := indexOf(output, "console.log left in source")
	assert.True(t, errorIdx < warnIdx, "errors should appear before warnings")
}

func TestRenderResult_DoesNotReorderResultIssues(t *testing.T) {
	result := sampleResult()
	tui.RenderResult(result)
	assert.Equal(t, domain.SeverityWarning, result.Issues[0].Severity)
}

func TestRenderResult_AccessibilityBar(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "accessibility")
	assert.Contains(t, output, "█")
	assert.Contains(t, output, "85")
}

func TestRenderResult_StatusIndicators(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "●", "should use ● indicators for stages that ran")
	assert.Contains(t, output, "○", "should use ○ for skipped stages")
}

func TestRenderResult_Footer(t *testing.T) {
	output := tui.RenderResult(sampleResult())
	assert.Contains(t, output, "completed in 3s")
	assert.Contains(t, output, "abc1234")
	assert.NotContains(t, output, "abc1234def5678", "commit hash should be shortened")
}

func TestRenderResult_NoIssues(t *testing.T) {
	result := sampleResult()
	result.Issues = nil
	output := tui.RenderResult(result)
	assert.Contains(t, output, "No issues found.")
}

func TestRenderResult_SkipsStagesThatDidNotRun(t *testing.T) {
	result := sampleResult()
	result.Stages.Runtime = nil
	result.Stages.UI = nil
	output := tui.RenderResult(result)
	assert.NotContains(t, output, "runtime")
	assert.NotContains(t, output, "viewports")
}

func TestRenderDetect_ShowsProjectFields(t *testing.T) {
	info := &domain.ProjectInfo{
		Kind:         domain.KindReact,
		Name:         "shop-frontend",
		EntryPoint:   "src/index.jsx",
		BuildCommand: []string{"npm", "run", "build"},
		StartCommand: []string{"npm", "start"},
		DefaultPort:  3000,
		Dependencies: map[string]string{"react": "^18.0.0"},
	}

	output := tui.RenderDetect(info)
	assert.Contains(t, output, "react")
	assert.Contains(t, output, "shop-frontend")
	assert.Contains(t, output, "src/index.jsx")
	assert.Contains(t, output, "npm run build")
	assert.Contains(t, output, "npm start")
	assert.Contains(t, output, "3000")
	assert.Contains(t, output, "1 declared")
}

func TestRenderHistory_Empty(t *testing.T) {
	output := tui.RenderHistory(nil)
	assert.Contains(t, output, "No run history found.")
}

func TestRenderHistory_ShowsEntriesWithTrend(t *testing.T) {
	entries := []domain.RunEntry{
		{Timestamp: "2026-02-23T10:00:00Z", Score: 47, Grade: "F", CommitHash: "aaaa111122223333"},
		{Timestamp: "2026-02-24T10:00:00Z", Score: 62, Grade: "C", CommitHash: "bbbb111122223333"},
		{Timestamp: "2026-02-25T10:00:00Z", Score: 55, Grade: "D"},
	}

	output := tui.RenderHistory(entries)
	assert.Contains(t, output, "Run History")
	assert.Contains(t, output, "2026-02-23")
	assert.Contains(t, output, "47/100")
	assert.Contains(t, output, "62/100")
	assert.Contains(t, output, "↑15")
	assert.Contains(t, output, "↓7")
	assert.Contains(t, output, "aaaa111")
	assert.Contains(t, output, "·······", "missing commit hash should show placeholder")
}

func indexOf(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
