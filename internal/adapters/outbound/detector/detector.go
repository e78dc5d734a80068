// Package detector classifies a directory into a project kind and derives
// the entry point, dependency list and suggested commands for later stages.
package detector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/preflightci/preflight/internal/domain"
)

// ProjectDetector implements domain.ProjectDetector. Classification probes
// manifest files in a fixed priority order so ambiguous projects resolve
// deterministically.
type ProjectDetector struct{}

func New() *ProjectDetector {
	return &ProjectDetector{}
}

// nodeFrameworks is the sub-classification priority for package.json
// projects. Meta-frameworks come before the frameworks they wrap, so a
// project depending on both next and react resolves to nextjs.
var nodeFrameworks = []struct {
	marker string
	kind   domain.Kind
}{
	{"next", domain.KindNextJS},
	{"nuxt", domain.KindNuxt},
	{"react", domain.KindReact},
	{"vue", domain.KindVue},
	{"express", domain.KindExpress},
}

// pythonFrameworks is the sub-classification priority for Python manifests.
var pythonFrameworks = []struct {
	marker string
	kind   domain.Kind
}{
	{"django", domain.KindDjango},
	{"flask", domain.KindFlask},
	{"fastapi", domain.KindFastAPI},
}

func (d *ProjectDetector) Detect(path string) (*domain.ProjectInfo, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotDirectory, path)
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	kind, name, deps, pkg := classify(root)
	if name == "" {
		name = filepath.Base(root)
	}

	spec := domain.SpecFor(kind)
	info := &domain.ProjectInfo{
		Kind:         kind,
		Name:         name,
		RootPath:     root,
		DefaultPort:  spec.DefaultPort,
		HealthPath:   spec.HealthPath,
		Dependencies: deps,
	}
	info.EntryPoint = resolveEntryPoint(root, kind, spec.EntryCandidates)
	info.BuildCommand = buildCommand(spec, pkg)
	info.StartCommand = startCommand(spec, pkg, info.EntryPoint)
	return info, nil
}

// classify walks the manifest priority chain: package.json family first, then
// other language manifests, then loose-source fallbacks, then the static
// markup marker. Manifest parse failures never abort detection; they only
// cost the dependency map.
func classify(root string) (domain.Kind, string, map[string]string, *packageJSON) {
	// 1. package.json family, sub-classified by declared dependencies
	if pkg := readPackageJSON(root); pkg != nil {
		deps := pkg.allDependencies()
		for _, fw := range nodeFrameworks {
			if _, ok := deps[fw.marker]; ok {
				return fw.kind, pkg.Name, deps, pkg
			}
		}
		return domain.KindNode, pkg.Name, deps, pkg
	}

	// 2. go.mod
	if fileExists(root, "go.mod") {
		name, deps := readGoMod(root)
		return domain.KindGo, name, deps, nil
	}

	// 3. Cargo.toml
	if fileExists(root, "Cargo.toml") {
		name, deps := readCargoToml(root)
		return domain.KindRust, name, deps, nil
	}

	// 4. Python manifests, sub-classified by declared dependencies
	if hasAnyFile(root, "pyproject.toml", "requirements.txt", "setup.py", "Pipfile") {
		name, deps := readPythonManifests(root)
		for _, fw := range pythonFrameworks {
			if _, ok := deps[fw.marker]; ok {
				return fw.kind, name, deps, nil
			}
		}
		return domain.KindPython, name, deps, nil
	}

	// 5. loose Python sources without a manifest
	if hasFileWithExt(root, ".py") {
		return domain.KindPython, "", map[string]string{}, nil
	}

	// 6. static markup marker
	if fileExists(root, "index.html") || fileExists(root, "index.htm") || hasFileWithExt(root, ".html") {
		return domain.KindStaticHTML, "", map[string]string{}, nil
	}

	return domain.KindUnknown, "", map[string]string{}, nil
}

// resolveEntryPoint tries the kind's candidate list in order; first existing
// file wins. Go projects without a root main.go fall back to the first
// cmd/*/main.go.
func resolveEntryPoint(root string, kind domain.Kind, candidates []string) string {
	for _, c := range candidates {
		if kind == domain.KindGo && c == "cmd" {
			if m := firstCmdMain(root); m != "" {
				return m
			}
			continue
		}
		if fileExists(root, c) {
			return c
		}
	}
	return ""
}

func firstCmdMain(root string) string {
	matches, err := filepath.Glob(filepath.Join(root, "cmd", "*", "main.go"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	rel, err := filepath.Rel(root, matches[0])
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// buildCommand materializes the kind's build command. For kinds whose build
// step is optional, the command is included only when the manifest actually
// declares a build script; the build stage then sees "no command" instead of
// guessing from package-manager error text.
func buildCommand(spec domain.KindSpec, pkg *packageJSON) []string {
	if len(spec.BuildCommand) == 0 {
		return nil
	}
	if spec.BuildOptional && pkg != nil {
		if _, ok := pkg.Scripts["build"]; !ok {
			return nil
		}
	}
	return append([]string(nil), spec.BuildCommand...)
}

// startCommand materializes the start command template. Node kinds prefer a
// declared package.json script; otherwise the kind's argv template is used
// with {entry} and {module} resolved now and {port} left for the runtime
// stage.
func startCommand(spec domain.KindSpec, pkg *packageJSON, entry string) []string {
	if pkg != nil {
		for _, script := range spec.StartScripts {
			if _, ok := pkg.Scripts[script]; ok {
				return []string{"npm", "run", script}
			}
		}
	}
	if len(spec.StartCommand) == 0 {
		return nil
	}

	out := make([]string, 0, len(spec.StartCommand))
	for _, arg := range spec.StartCommand {
		if strings.Contains(arg, "{entry}") {
			if entry == "" {
				return nil
			}
			arg = strings.ReplaceAll(arg, "{entry}", entry)
		}
		if strings.Contains(arg, "{module}") {
			if entry == "" {
				return nil
			}
			mod := strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry))
			arg = strings.ReplaceAll(arg, "{module}", mod)
		}
		out = append(out, arg)
	}
	return out
}

func fileExists(root string, rel string) bool {
	st, err := os.Stat(filepath.Join(root, rel))
	return err == nil && !st.IsDir()
}

func hasAnyFile(root string, names ...string) bool {
	for _, n := range names {
		if fileExists(root, n) {
			return true
		}
	}
	return false
}

// hasFileWithExt reports whether any file with the extension exists in the
// root or one directory below it. Deeper nesting without a manifest is not
// treated as evidence.
func hasFileWithExt(root, ext string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			return true
		}
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == "node_modules" {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		for _, se := range sub {
			if !se.IsDir() && strings.EqualFold(filepath.Ext(se.Name()), ext) {
				return true
			}
		}
	}
	return false
}
