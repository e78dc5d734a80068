package domain

// ProjectInfo describes a detected project. It is produced once by the
// detector and consumed read-only by every later stage.
type ProjectInfo struct {
	Kind         Kind              `json:"kind"`
	Name         string            `json:"name"`
	RootPath     string            `json:"root_path"`
	EntryPoint   string            `json:"entry_point,omitempty"`
	BuildCommand []string          `json:"build_command,omitempty"`
	StartCommand []string          `json:"start_command,omitempty"`
	DefaultPort  int               `json:"default_port,omitempty"`
	HealthPath   string            `json:"health_path,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	ExcludePaths []string          `json:"exclude_paths,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
}

// HasDependency reports whether the project declares the named dependency.
func (p *ProjectInfo) HasDependency(name string) bool {
	_, ok := p.Dependencies[name]
	return ok
}

// Issue represents a single defect finding. It is the common currency across
// all stages; fields beyond severity/category/message are optional and
// stage-specific.
type Issue struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Stage    string `json:"stage,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Code     string `json:"code,omitempty"`
	Viewport string `json:"viewport,omitempty"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue categories emitted by the static analyzer.
const (
	CategorySyntax   = "syntax"
	CategoryImport   = "import"
	CategoryLint     = "lint"
	CategorySecurity = "security"
	CategoryType     = "type"
)

// Issue categories emitted by the UI validator.
const (
	CategoryJSError         = "jsError"
	CategoryResourceFailure = "resourceFailure"
	CategoryLayout          = "layout"
	CategoryAccessibility   = "accessibility"
	CategoryNavigation      = "navigation"
)

// Stage statuses. Pass/Warn/Fail also serve as the overall run status;
// Skip is stage-only.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Stage names, used as keys in the aggregate result and in --stages filters.
const (
	StageStatic  = "static"
	StageBuild   = "build"
	StageRuntime = "runtime"
	StageUI      = "ui"
)

// AllStages lists the selectable stages in pipeline order.
var AllStages = []string{StageStatic, StageBuild, StageRuntime, StageUI}

// IsStage reports whether name is a known stage name.
func IsStage(name string) bool {
	for _, s := range AllStages {
		if s == name {
			return true
		}
	}
	return false
}

// Counts tallies issues by severity.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// CountIssues tallies the given issues by severity.
func CountIssues(issues []Issue) Counts {
	var c Counts
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		default:
			c.Infos++
		}
	}
	return c
}

// StatusFromIssues derives a stage status from its issue list:
// fail on any error, warn on any warning, pass otherwise.
func StatusFromIssues(issues []Issue) string {
	c := CountIssues(issues)
	switch {
	case c.Errors > 0:
		return StatusFail
	case c.Warnings > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

// Viewport is a named screen-size configuration for UI validation.
type Viewport struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultViewports returns the standard mobile/tablet/desktop matrix.
func DefaultViewports() []Viewport {
	return []Viewport{
		{Name: "mobile", Width: 375, Height: 812},
		{Name: "tablet", Width: 768, Height: 1024},
		{Name: "desktop", Width: 1920, Height: 1080},
	}
}

// Screenshot references a captured page image for one viewport.
type Screenshot struct {
	Viewport string `json:"viewport"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path"`
}
