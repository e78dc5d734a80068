package domain

import "time"

// StaticResult holds the outcome of the static analysis stage.
type StaticResult struct {
	Status        string  `json:"status"`
	Issues        []Issue `json:"issues"`
	FilesAnalyzed int     `json:"files_analyzed"`
	Counts        Counts  `json:"counts"`
}

// BuildResult holds the outcome of the build stage.
type BuildResult struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	BuildTimeMs int64            `json:"build_time_ms,omitempty"`
	Stdout      string           `json:"stdout,omitempty"`
	Stderr      string           `json:"stderr,omitempty"`
	Artifacts   map[string]int64 `json:"artifacts,omitempty"`
}

// RuntimeResult holds the outcome of the process-start stage.
type RuntimeResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	StartupTimeMs int64  `json:"startup_time_ms,omitempty"`
	URL           string `json:"url,omitempty"`
	ResponseCode  int    `json:"response_code,omitempty"`
	Output        string `json:"output,omitempty"`
}

// UIResult holds the outcome of the browser validation stage.
type UIResult struct {
	Status             string       `json:"status"`
	Message            string       `json:"message"`
	Issues             []Issue      `json:"issues"`
	Screenshots        []Screenshot `json:"screenshots,omitempty"`
	PageTitle          string       `json:"page_title,omitempty"`
	LoadTimeMs         int64        `json:"load_time_ms,omitempty"`
	AccessibilityScore *int         `json:"accessibility_score,omitempty"`
}

// StageResults maps stage name to its typed result. Nil means the stage did
// not run (not requested or not reached).
type StageResults struct {
	Static  *StaticResult  `json:"static,omitempty"`
	Build   *BuildResult   `json:"build,omitempty"`
	Runtime *RuntimeResult `json:"runtime,omitempty"`
	UI      *UIResult      `json:"ui,omitempty"`
}

// Statuses returns the status of every stage that ran, keyed by stage name.
func (s StageResults) Statuses() map[string]string {
	out := make(map[string]string)
	if s.Static != nil {
		out[StageStatic] = s.Static.Status
	}
	if s.Build != nil {
		out[StageBuild] = s.Build.Status
	}
	if s.Runtime != nil {
		out[StageRuntime] = s.Runtime.Status
	}
	if s.UI != nil {
		out[StageUI] = s.UI.Status
	}
	return out
}

// Failed counts stages that ran and reported fail.
func (s StageResults) Failed() int {
	n := 0
	for _, st := range s.Statuses() {
		if st == StatusFail {
			n++
		}
	}
	return n
}

// ValidationResult is the aggregate root for one run. It is created once by
// the orchestrator, immutable after the run completes, and is the only
// contract toward report renderers.
type ValidationResult struct {
	RunID       string        `json:"run_id"`
	Status      string        `json:"overall_status"`
	Score       int           `json:"overall_score"`
	Project     *ProjectInfo  `json:"project"`
	Stages      StageResults  `json:"stages"`
	Issues      []Issue       `json:"issues"`
	Screenshots []Screenshot  `json:"screenshots,omitempty"`
	CommitHash  string        `json:"commit_hash,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"duration_ms"`
}

// Passed reports whether the run finished with overall pass status.
func (r *ValidationResult) Passed() bool { return r.Status == StatusPass }

func (r *ValidationResult) Grade() string { return GradeFor(r.Score) }

// GradeFor maps a 0-100 score to a letter grade.
func GradeFor(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// ComputeScore folds issue counts and failed stages into the 0-100 aggregate
// score. Each tier is capped so a single noisy stage cannot zero the score on
// its own; the result is clamped at 0.
func ComputeScore(errors, warnings, failedStages int) int {
	score := 100 - 10*min(5, errors) - 3*min(10, warnings) - 10*min(2, failedStages)
	if score < 0 {
		return 0
	}
	return score
}

// DeriveStatus computes the overall status: fail iff any stage failed or any
// error-severity issue exists; pass iff nothing failed and no error or
// warning exists; warn otherwise.
func DeriveStatus(failedStages int, c Counts) string {
	switch {
	case failedStages > 0 || c.Errors > 0:
		return StatusFail
	case c.Warnings > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RunEntry is one recorded validation run, kept per project for trends.
type RunEntry struct {
	RunID      string `json:"run_id"`
	Timestamp  string `json:"timestamp"`
	Score      int    `json:"score"`
	Grade      string `json:"grade"`
	Status     string `json:"status"`
	CommitHash string `json:"commit_hash,omitempty"`
}

// HistoryEntryFor derives the history record from a finished run.
func HistoryEntryFor(result *ValidationResult) RunEntry {
	return RunEntry{
		RunID:      result.RunID,
		Timestamp:  result.StartedAt.UTC().Format(time.RFC3339),
		Score:      result.Score,
		Grade:      result.Grade(),
		Status:     result.Status,
		CommitHash: result.CommitHash,
	}
}
