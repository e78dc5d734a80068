package analyzer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
)

// Relative-path imports in JS/TS sources. Bare module specifiers resolve
// through node_modules and are not checked here.
var (
	requireRe = regexp.MustCompile(`require\(\s*['"](\.{1,2}/[^'"]+)['"]\s*\)`)
	importRe  = regexp.MustCompile(`(?:import|export)\s+(?:[^'"]*\s+from\s+)?['"](\.{1,2}/[^'"]+)['"]`)
)

// jsResolveExts are the extension candidates tried when an import omits one.
var jsResolveExts = []string{"", ".js", ".mjs", ".jsx", ".ts", ".tsx", ".json", ".vue"}

// checkImports records unresolvable relative imports at info severity.
// Resolution is best-effort; bundler aliases and dynamic paths make false
// positives expected, so this never escalates beyond info.
func checkImports(root string, f sourceFile) []domain.Issue {
	switch f.ext {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".vue":
	default:
		return nil
	}

	var issues []domain.Issue
	seen := map[string]bool{}
	lines := strings.Split(string(f.data), "\n")
	for i, line := range lines {
		for _, re := range []*regexp.Regexp{requireRe, importRe} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				spec := m[1]
				if seen[spec] {
					continue
				}
				seen[spec] = true
				if resolvesLocally(root, f.rel, spec) {
					continue
				}
				issues = append(issues, domain.Issue{
					Severity: domain.SeverityInfo,
					Category: domain.CategoryImport,
					File:     f.rel,
					Line:     i + 1,
					Message:  "unresolved import " + spec,
				})
			}
		}
	}
	return issues
}

func resolvesLocally(root, fromRel, spec string) bool {
	base := filepath.Join(root, filepath.Dir(fromRel), filepath.FromSlash(spec))
	for _, ext := range jsResolveExts {
		if st, err := os.Stat(base + ext); err == nil && !st.IsDir() {
			return true
		}
	}
	// directory import with an index file
	if st, err := os.Stat(base); err == nil && st.IsDir() {
		for _, ext := range jsResolveExts[1:] {
			if _, err := os.Stat(filepath.Join(base, "index"+ext)); err == nil {
				return true
			}
		}
	}
	return false
}
