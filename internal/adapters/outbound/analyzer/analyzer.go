// Package analyzer implements the static analysis stage: syntax validation
// with native parsers, best-effort import resolution, optional external
// linters, and a security anti-pattern scan. Defects in the target become
// issues, never errors.
package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/preflightci/preflight/internal/domain"
)

// StaticAnalyzer implements domain.StaticAnalyzer.
type StaticAnalyzer struct{}

func New() *StaticAnalyzer {
	return &StaticAnalyzer{}
}

func (a *StaticAnalyzer) Analyze(ctx context.Context, info *domain.ProjectInfo) (*domain.StaticResult, error) {
	// 1. Enumerate text-like files (skip dirs, excludes, .gitignore)
	files, err := enumerateFiles(info.RootPath, info.ExcludePaths)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", info.RootPath, err)
	}

	probe := newToolProbe()
	var issues []domain.Issue

	// 2. Per-file syntax checks with language-native parsers
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		issues = append(issues, checkSyntax(ctx, f, probe)...)
	}

	// 3. Best-effort import resolution (info severity only)
	for _, f := range files {
		issues = append(issues, checkImports(info.RootPath, f)...)
	}

	// 4. External linter for the detected kind, when present on PATH
	if ctx.Err() == nil {
		issues = append(issues, runLinters(ctx, info, probe)...)
	}

	// 5. Security anti-pattern scan over every text-like file
	for _, f := range files {
		issues = append(issues, scanSecurity(f)...)
	}

	sortIssues(issues)
	for i := range issues {
		issues[i].Stage = domain.StageStatic
	}

	return &domain.StaticResult{
		Status:        domain.StatusFromIssues(issues),
		Issues:        issues,
		FilesAnalyzed: len(files),
		Counts:        domain.CountIssues(issues),
	}, nil
}

// sortIssues orders findings by file, line, category and message so repeated
// runs over an unmodified tree produce identical output.
func sortIssues(issues []domain.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Message < b.Message
	})
}
