package detector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// packageJSON is the subset of package.json the detector cares about.
type packageJSON struct {
	Name            string            `json:"name"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *packageJSON) allDependencies() map[string]string {
	deps := make(map[string]string, len(p.Dependencies)+len(p.DevDependencies))
	for name, spec := range p.Dependencies {
		deps[name] = spec
	}
	for name, spec := range p.DevDependencies {
		deps[name] = spec
	}
	return deps
}

// readPackageJSON returns nil when the file is absent. An unparseable
// package.json still marks the project as node family, just with no
// dependency information.
func readPackageJSON(root string) *packageJSON {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return &packageJSON{}
	}
	return &pkg
}

func readGoMod(root string) (string, map[string]string) {
	deps := map[string]string{}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", deps
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return "", deps
	}
	for _, r := range mf.Require {
		if r.Indirect {
			continue
		}
		deps[r.Mod.Path] = r.Mod.Version
	}
	name := ""
	if mf.Module != nil {
		name = filepath.Base(mf.Module.Mod.Path)
	}
	return name, deps
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

func readCargoToml(root string) (string, map[string]string) {
	deps := map[string]string{}
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return "", deps
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", deps
	}
	for name, v := range m.Dependencies {
		deps[strings.ToLower(name)] = cargoVersion(v)
	}
	return m.Package.Name, deps
}

// cargoVersion stringifies a Cargo dependency value, which is either a bare
// version string or an inline table with a version key.
func cargoVersion(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if ver, ok := t["version"].(string); ok {
			return ver
		}
	}
	return "*"
}

type pyProject struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// readPythonManifests merges pyproject.toml (PEP 621 and poetry tables) with
// requirements.txt. Names are lowercased for framework matching.
func readPythonManifests(root string) (string, map[string]string) {
	deps := map[string]string{}
	name := ""

	if data, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		var p pyProject
		if err := toml.Unmarshal(data, &p); err == nil {
			name = p.Project.Name
			if name == "" {
				name = p.Tool.Poetry.Name
			}
			for _, req := range p.Project.Dependencies {
				n, spec := splitRequirement(req)
				if n != "" {
					deps[n] = spec
				}
			}
			for n, v := range p.Tool.Poetry.Dependencies {
				n = strings.ToLower(n)
				if n == "python" {
					continue
				}
				if s, ok := v.(string); ok {
					deps[n] = s
				} else {
					deps[n] = "*"
				}
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if i := strings.Index(line, "#"); i >= 0 {
				line = strings.TrimSpace(line[:i])
			}
			if line == "" || strings.HasPrefix(line, "-") {
				continue
			}
			if n, spec := splitRequirement(line); n != "" {
				deps[n] = spec
			}
		}
	}

	return name, deps
}

// splitRequirement splits a PEP 508 requirement ("Flask>=2.0,<3") into a
// lowercased name and the remaining version spec.
func splitRequirement(req string) (string, string) {
	req = strings.TrimSpace(req)
	cut := len(req)
	for i, r := range req {
		if strings.ContainsRune("=<>!~[;( ", r) {
			cut = i
			break
		}
	}
	name := strings.ToLower(strings.TrimSpace(req[:cut]))
	spec := strings.TrimSpace(req[cut:])
	if spec == "" {
		spec = "*"
	}
	return name, spec
}
