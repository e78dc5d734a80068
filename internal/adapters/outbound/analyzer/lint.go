package analyzer

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
)

// runLinters invokes the linter matching the detected kind when its binary
// is on PATH. Linter findings are advisory: eslint "error" level maps to
// warning, everything else to info, so lint strictness alone never fails a
// run the way a syntax error does.
func runLinters(ctx context.Context, info *domain.ProjectInfo, probe *toolProbe) []domain.Issue {
	switch {
	case info.Kind.IsNodeFamily():
		return runESLint(ctx, info.RootPath, probe)
	case info.Kind == domain.KindGo:
		return runGoVet(ctx, info.RootPath, probe)
	case info.Kind.IsPythonFamily():
		return runFlake8(ctx, info.RootPath, probe)
	}
	return nil
}

// eslintMessage mirrors one entry of eslint's --format json output.
type eslintMessage struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type eslintFile struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

func runESLint(ctx context.Context, root string, probe *toolProbe) []domain.Issue {
	eslint, ok := probe.path("eslint")
	if !ok {
		return nil
	}

	cmd := exec.CommandContext(ctx, eslint, "--format", "json", "--no-color", ".")
	cmd.Dir = root
	out, _ := cmd.Output() // nonzero exit just means findings exist

	var files []eslintFile
	if err := json.Unmarshal(out, &files); err != nil {
		return nil // config error or unparseable output: treat as absent
	}

	var issues []domain.Issue
	for _, f := range files {
		rel := f.FilePath
		if r, err := filepath.Rel(root, f.FilePath); err == nil {
			rel = filepath.ToSlash(r)
		}
		for _, m := range f.Messages {
			sev := domain.SeverityInfo
			if m.Severity == 2 {
				sev = domain.SeverityWarning
			}
			issues = append(issues, domain.Issue{
				Severity: sev,
				Category: domain.CategoryLint,
				File:     rel,
				Line:     m.Line,
				Column:   m.Column,
				Code:     m.RuleID,
				Message:  m.Message,
			})
		}
	}
	return issues
}

var vetLineRe = regexp.MustCompile(`^(.+\.go):(\d+):(\d+): (.+)$`)

func runGoVet(ctx context.Context, root string, probe *toolProbe) []domain.Issue {
	goBin, ok := probe.path("go")
	if !ok {
		return nil
	}

	cmd := exec.CommandContext(ctx, goBin, "vet", "./...")
	cmd.Dir = root
	out, _ := cmd.CombinedOutput()

	var issues []domain.Issue
	for _, line := range strings.Split(string(out), "\n") {
		m := vetLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		issues = append(issues, domain.Issue{
			Severity: domain.SeverityWarning,
			Category: domain.CategoryLint,
			File:     strings.TrimPrefix(filepath.ToSlash(m[1]), "./"),
			Line:     lineNo,
			Column:   col,
			Code:     "govet",
			Message:  m[4],
		})
	}
	return issues
}

var flake8LineRe = regexp.MustCompile(`^(.+?):(\d+):(\d+): ([A-Z]\d+) (.+)$`)

func runFlake8(ctx context.Context, root string, probe *toolProbe) []domain.Issue {
	flake8, ok := probe.path("flake8")
	if !ok {
		return nil
	}

	cmd := exec.CommandContext(ctx, flake8, "--format=default", ".")
	cmd.Dir = root
	out, _ := cmd.Output()

	var issues []domain.Issue
	for _, line := range strings.Split(string(out), "\n") {
		m := flake8LineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		issues = append(issues, domain.Issue{
			Severity: domain.SeverityWarning,
			Category: domain.CategoryLint,
			File:     strings.TrimPrefix(filepath.ToSlash(m[1]), "./"),
			Line:     lineNo,
			Column:   col,
			Code:     m[4],
			Message:  m[5],
		})
	}
	return issues
}
