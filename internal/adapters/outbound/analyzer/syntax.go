package analyzer

import (
	"context"
	"encoding/json"
	"go/parser"
	"go/scanner"
	"go/token"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
	"gopkg.in/yaml.v3"
)

const maxSyntaxIssuesPerFile = 5

// checkSyntax validates one file with the parser native to its extension.
// Languages without a native Go parser fall through to checkExternalSyntax.
func checkSyntax(ctx context.Context, f sourceFile, probe *toolProbe) []domain.Issue {
	switch f.ext {
	case ".go":
		return checkGoSyntax(f)
	case ".json":
		return checkJSONSyntax(f)
	case ".yaml", ".yml":
		return checkYAMLSyntax(f)
	case ".js", ".mjs":
		return checkNodeSyntax(ctx, f, probe)
	case ".py":
		return checkPythonSyntax(ctx, f, probe)
	}
	return nil
}

func checkGoSyntax(f sourceFile) []domain.Issue {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, f.rel, f.data, parser.AllErrors)
	if err == nil {
		return nil
	}

	var issues []domain.Issue
	if list, ok := err.(scanner.ErrorList); ok {
		for i, e := range list {
			if i >= maxSyntaxIssuesPerFile {
				break
			}
			issues = append(issues, domain.Issue{
				Severity: domain.SeverityError,
				Category: domain.CategorySyntax,
				File:     f.rel,
				Line:     e.Pos.Line,
				Column:   e.Pos.Column,
				Message:  e.Msg,
			})
		}
		return issues
	}
	return []domain.Issue{{
		Severity: domain.SeverityError,
		Category: domain.CategorySyntax,
		File:     f.rel,
		Message:  err.Error(),
	}}
}

func checkJSONSyntax(f sourceFile) []domain.Issue {
	var v any
	err := json.Unmarshal(f.data, &v)
	if err == nil {
		return nil
	}

	issue := domain.Issue{
		Severity: domain.SeverityError,
		Category: domain.CategorySyntax,
		File:     f.rel,
		Message:  err.Error(),
	}
	if serr, ok := err.(*json.SyntaxError); ok {
		issue.Line = lineAtOffset(f.data, serr.Offset)
	}
	return []domain.Issue{issue}
}

func lineAtOffset(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line := 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

func checkYAMLSyntax(f sourceFile) []domain.Issue {
	var v any
	err := yaml.Unmarshal(f.data, &v)
	if err == nil {
		return nil
	}

	issue := domain.Issue{
		Severity: domain.SeverityError,
		Category: domain.CategorySyntax,
		File:     f.rel,
		Message:  strings.TrimPrefix(err.Error(), "yaml: "),
	}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		issue.Line, _ = strconv.Atoi(m[1])
	}
	return []domain.Issue{issue}
}

// nodeErrRe matches the location line node prints before a SyntaxError.
var nodeErrRe = regexp.MustCompile(`(?m)^(?:.*):(\d+)\s*$`)

// checkNodeSyntax runs `node --check` on a single file. Without a node
// binary on PATH the check is silently skipped.
func checkNodeSyntax(ctx context.Context, f sourceFile, probe *toolProbe) []domain.Issue {
	node, ok := probe.path("node")
	if !ok {
		return nil
	}

	out, err := exec.CommandContext(ctx, node, "--check", f.abs).CombinedOutput()
	if err == nil {
		return nil
	}
	if _, isExit := err.(*exec.ExitError); !isExit {
		return nil
	}

	issue := domain.Issue{
		Severity: domain.SeverityError,
		Category: domain.CategorySyntax,
		File:     f.rel,
		Message:  firstSyntaxMessage(string(out)),
	}
	if m := nodeErrRe.FindStringSubmatch(string(out)); m != nil {
		issue.Line, _ = strconv.Atoi(m[1])
	}
	return []domain.Issue{issue}
}

var pyErrRe = regexp.MustCompile(`File "(?:[^"]+)", line (\d+)`)

// checkPythonSyntax byte-compiles a single file. Without a python3 binary on
// PATH the check is silently skipped.
func checkPythonSyntax(ctx context.Context, f sourceFile, probe *toolProbe) []domain.Issue {
	python, ok := probe.path("python3")
	if !ok {
		return nil
	}

	out, err := exec.CommandContext(ctx, python, "-m", "py_compile", f.abs).CombinedOutput()
	if err == nil {
		return nil
	}
	if _, isExit := err.(*exec.ExitError); !isExit {
		return nil
	}

	issue := domain.Issue{
		Severity: domain.SeverityError,
		Category: domain.CategorySyntax,
		File:     f.rel,
		Message:  firstSyntaxMessage(string(out)),
	}
	if m := pyErrRe.FindStringSubmatch(string(out)); m != nil {
		issue.Line, _ = strconv.Atoi(m[1])
	}
	return []domain.Issue{issue}
}

// firstSyntaxMessage extracts the most useful line from interpreter output:
// the last non-empty line mentioning an error, or the last line overall.
func firstSyntaxMessage(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(line, "Error") {
			return line
		}
	}
	if len(lines) > 0 {
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return "syntax check failed"
}

// toolProbe caches PATH lookups for external tools so each binary is probed
// once per stage. A negative probe is a typed skip, never an error.
type toolProbe struct {
	found map[string]string
}

func newToolProbe() *toolProbe {
	return &toolProbe{found: make(map[string]string)}
}

func (p *toolProbe) path(name string) (string, bool) {
	if cached, ok := p.found[name]; ok {
		return cached, cached != ""
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		resolved = ""
	}
	p.found[name] = resolved
	return resolved, resolved != ""
}
