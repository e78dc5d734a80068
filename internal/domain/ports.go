package domain

import "context"

// Ports implemented by outbound adapters. The application layer depends on
// these interfaces, never on concrete adapters.

// ProjectDetector classifies a directory into a ProjectInfo.
// It fails with ErrNotFound / ErrNotDirectory for bad paths.
type ProjectDetector interface {
	Detect(path string) (*ProjectInfo, error)
}

// StaticAnalyzer runs syntax, import, lint and security checks. Defects in
// the target become issues; the error return is reserved for filesystem
// failures on the root path itself.
type StaticAnalyzer interface {
	Analyze(ctx context.Context, info *ProjectInfo) (*StaticResult, error)
}

// BuildValidator installs dependencies when needed and runs the kind's build
// step under a bounded timeout.
type BuildValidator interface {
	Validate(ctx context.Context, info *ProjectInfo) (*BuildResult, error)
}

// RuntimeValidator starts the project's server process and polls it to
// readiness. With autoStop the process is terminated before Validate
// returns; otherwise it stays alive until Stop, which is idempotent and must
// always be called by the owner of the run.
type RuntimeValidator interface {
	Validate(ctx context.Context, info *ProjectInfo, autoStop bool) (*RuntimeResult, error)
	Stop() error
}

// UIValidator drives a headless browser against a live URL across the given
// viewports. A missing browser capability yields a skip result, not an error.
type UIValidator interface {
	Validate(ctx context.Context, url string, viewports []Viewport) (*UIResult, error)
}

// Source is a resolved project input. Temporary sources live in a private
// working area and are removed by Cleanup.
type Source struct {
	Path      string
	Origin    string
	Temporary bool
	cleanup   func() error
}

// NewSource builds a Source; cleanup may be nil for as-is directories.
func NewSource(path, origin string, temporary bool, cleanup func() error) *Source {
	return &Source{Path: path, Origin: origin, Temporary: temporary, cleanup: cleanup}
}

// Cleanup removes the private working area, if any. Safe to call twice.
func (s *Source) Cleanup() error {
	if s.cleanup == nil {
		return nil
	}
	fn := s.cleanup
	s.cleanup = nil
	return fn()
}

// SourceResolver turns a raw input (directory, archive path, repository URL)
// into a local directory.
type SourceResolver interface {
	Resolve(ctx context.Context, input string) (*Source, error)
}

// ConfigLoader loads per-target overrides from the project root.
type ConfigLoader interface {
	Load(projectPath string) (TargetConfig, error)
}

// GitInfo exposes version-control metadata of the target.
type GitInfo interface {
	IsGitRepo(projectPath string) bool
	CommitHash(projectPath string) (string, error)
}

// ReportWriter serializes a ValidationResult to an output artifact.
type ReportWriter interface {
	WriteJSON(result *ValidationResult, path string) error
	WriteHTML(result *ValidationResult, path string) error
}

// RunHistory records validation runs per project so score trends survive
// between invocations.
type RunHistory interface {
	Append(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}
