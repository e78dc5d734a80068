package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/preflightci/preflight/internal/domain"
)

// ValidateService orchestrates the validation pipeline:
// resolve source → detect kind → static analysis → build → runtime → browser UI → aggregate.
// Stage failures in the target project become result data; only detection
// failures and infrastructure errors surface as returned errors.
type ValidateService struct {
	resolver     domain.SourceResolver
	detector     domain.ProjectDetector
	configLoader domain.ConfigLoader
	analyzer     domain.StaticAnalyzer
	builder      domain.BuildValidator
	runtime      domain.RuntimeValidator
	ui           domain.UIValidator
	git          domain.GitInfo
}

// NewValidateService creates a new ValidateService with all required dependencies.
func NewValidateService(
	resolver domain.SourceResolver,
	detector domain.ProjectDetector,
	configLoader domain.ConfigLoader,
	analyzer domain.StaticAnalyzer,
	builder domain.BuildValidator,
	runtime domain.RuntimeValidator,
	ui domain.UIValidator,
	git domain.GitInfo,
) *ValidateService {
	return &ValidateService{
		resolver: resolver, detector: detector, configLoader: configLoader,
		analyzer: analyzer, builder: builder, runtime: runtime, ui: ui, git: git,
	}
}

// RunOptions selects and tunes pipeline stages for one run.
type RunOptions struct {
	Stages      []string          // subset of domain.AllStages; empty runs all
	SkipUI      bool              // drop the ui stage even when selected
	KeepAlive   bool              // leave a ready server running after the run
	KeepWorkdir bool              // keep temporary checkouts for inspection
	Viewports   []domain.Viewport // ui viewport matrix; defaults when empty

	// Progress, when set, is called once per completed stage.
	Progress func(stage, status string)
}

func (o RunOptions) notify(stage, status string) {
	if o.Progress != nil {
		o.Progress(stage, status)
	}
}

// Validate runs the pipeline against input, which may be a local directory,
// an archive path, or a remote repository reference.
func (s *ValidateService) Validate(ctx context.Context, input string, opts RunOptions) (*domain.ValidationResult, error) {
	started := time.Now()

	// 1. Resolve the input to a local working directory
	src, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("resolving source: %w", err)
	}
	if !opts.KeepWorkdir {
		defer src.Cleanup()
	}

	// 2. Detect the project kind; detection failure aborts the run
	info, err := s.detector.Detect(src.Path)
	if err != nil {
		return nil, fmt.Errorf("detecting project: %w", err)
	}

	// 3. Apply per-target overrides from .preflight.yaml
	cfg, err := s.configLoader.Load(src.Path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	info = cfg.Apply(info)

	result := &domain.ValidationResult{
		RunID:     uuid.NewString(),
		Project:   info,
		StartedAt: started,
	}

	wants := stageSet(opts)

	// 4. Static analysis
	if wants[domain.StageStatic] {
		static, err := s.analyzer.Analyze(ctx, info)
		if err != nil {
			return nil, fmt.Errorf("static analysis: %w", err)
		}
		result.Stages.Static = static
		result.Issues = append(result.Issues, static.Issues...)
		opts.notify(domain.StageStatic, static.Status)
	}

	// 5. Build
	if wants[domain.StageBuild] {
		build, err := s.builder.Validate(ctx, info)
		if err != nil {
			return nil, fmt.Errorf("build stage: %w", err)
		}
		result.Stages.Build = build
		opts.notify(domain.StageBuild, build.Status)
	}

	// 6. Runtime; the server is kept alive only for the ui stage or
	// an explicit keep-alive request
	uiPlanned := wants[domain.StageUI]
	if wants[domain.StageRuntime] {
		autoStop := !uiPlanned && !opts.KeepAlive
		runtime, err := s.runtime.Validate(ctx, info, autoStop)
		if err != nil {
			return nil, fmt.Errorf("runtime stage: %w", err)
		}
		if !opts.KeepAlive {
			defer s.runtime.Stop()
		}
		result.Stages.Runtime = runtime
		opts.notify(domain.StageRuntime, runtime.Status)

		// 7. Browser validation requires a live URL from a ready server
		if uiPlanned && runtime.Status == domain.StatusPass && runtime.URL != "" {
			viewports := opts.Viewports
			if len(viewports) == 0 {
				viewports = domain.DefaultViewports()
			}
			ui, err := s.ui.Validate(ctx, runtime.URL, viewports)
			if err != nil {
				return nil, fmt.Errorf("ui stage: %w", err)
			}
			result.Stages.UI = ui
			result.Issues = append(result.Issues, ui.Issues...)
			result.Screenshots = ui.Screenshots
			opts.notify(domain.StageUI, ui.Status)
		}
	}

	// 8. Aggregate score and status
	counts := domain.CountIssues(result.Issues)
	failed := result.Stages.Failed()
	result.Score = domain.ComputeScore(counts.Errors, counts.Warnings, failed)
	result.Status = domain.DeriveStatus(failed, counts)

	// 9. Attach version-control metadata when available
	if s.git.IsGitRepo(src.Path) {
		if hash, err := s.git.CommitHash(src.Path); err == nil {
			result.CommitHash = hash
		}
	}

	result.Duration = time.Since(started)
	result.DurationMs = result.Duration.Milliseconds()
	return result, nil
}

// stageSet expands the stage filter into a lookup. An empty filter selects
// every stage; SkipUI always wins over the filter.
func stageSet(opts RunOptions) map[string]bool {
	wants := make(map[string]bool, len(domain.AllStages))
	if len(opts.Stages) == 0 {
		for _, st := range domain.AllStages {
			wants[st] = true
		}
	} else {
		for _, st := range opts.Stages {
			wants[st] = true
		}
	}
	if opts.SkipUI {
		wants[domain.StageUI] = false
	}
	return wants
}
