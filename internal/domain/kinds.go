package domain

import "time"

// Kind identifies the classified category of a project. It determines which
// commands, ports and defaults apply in every stage.
type Kind string

const (
	KindStaticHTML Kind = "static-html"
	KindReact      Kind = "react"
	KindNextJS     Kind = "nextjs"
	KindVue        Kind = "vue"
	KindNuxt       Kind = "nuxt"
	KindExpress    Kind = "express"
	KindNode       Kind = "node"
	KindFlask      Kind = "flask"
	KindDjango     Kind = "django"
	KindFastAPI    Kind = "fastapi"
	KindPython     Kind = "python"
	KindGo         Kind = "go"
	KindRust       Kind = "rust"
	KindUnknown    Kind = "unknown"
)

// ValidKinds enumerates all recognized project kinds.
var ValidKinds = []Kind{
	KindStaticHTML, KindReact, KindNextJS, KindVue, KindNuxt,
	KindExpress, KindNode, KindFlask, KindDjango, KindFastAPI,
	KindPython, KindGo, KindRust, KindUnknown,
}

// IsValidKind reports whether k is a recognized kind.
func IsValidKind(k Kind) bool {
	for _, v := range ValidKinds {
		if v == k {
			return true
		}
	}
	return false
}

// KindSpec is the per-kind configuration table entry. Command slices are argv
// lists, never shell strings; start commands may carry {port} and {entry}
// placeholders substituted by the runtime stage. An empty BuildCommand with
// CompileEach false means the kind has no build step.
type KindSpec struct {
	InstallCommand []string
	InstallDir     string
	InstallTimeout time.Duration

	BuildCommand  []string
	BuildOptional bool
	CompileEach   bool
	BuildTimeout  time.Duration
	ArtifactGlobs []string

	StartCommand []string
	StartScripts []string
	DefaultPort  int
	HealthPath   string
	StartTimeout time.Duration

	EntryCandidates []string
	SourceExts      []string
}

// kindSpecs is consulted once per run via SpecFor; stages never re-derive
// kind behavior ad hoc.
var kindSpecs = map[Kind]KindSpec{
	KindStaticHTML: {
		StartCommand:    []string{"python3", "-m", "http.server", "{port}", "--bind", "127.0.0.1"},
		DefaultPort:     8080,
		HealthPath:      "/",
		StartTimeout:    10 * time.Second,
		EntryCandidates: []string{"index.html", "index.htm"},
		SourceExts:      []string{".html", ".htm", ".css", ".js"},
	},
	KindReact: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildTimeout:    5 * time.Minute,
		ArtifactGlobs:   []string{"build", "dist"},
		StartScripts:    []string{"start", "dev"},
		DefaultPort:     3000,
		HealthPath:      "/",
		StartTimeout:    45 * time.Second,
		EntryCandidates: []string{"src/index.js", "src/index.jsx", "src/index.tsx", "src/main.jsx", "src/main.tsx"},
		SourceExts:      []string{".js", ".jsx", ".ts", ".tsx", ".css", ".html"},
	},
	KindNextJS: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildTimeout:    10 * time.Minute,
		ArtifactGlobs:   []string{".next"},
		StartScripts:    []string{"start", "dev"},
		DefaultPort:     3000,
		HealthPath:      "/",
		StartTimeout:    60 * time.Second,
		EntryCandidates: []string{"app/page.tsx", "app/page.js", "pages/index.tsx", "pages/index.js"},
		SourceExts:      []string{".js", ".jsx", ".ts", ".tsx", ".css", ".html"},
	},
	KindVue: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildTimeout:    5 * time.Minute,
		ArtifactGlobs:   []string{"dist"},
		StartScripts:    []string{"dev", "serve", "start"},
		DefaultPort:     5173,
		HealthPath:      "/",
		StartTimeout:    45 * time.Second,
		EntryCandidates: []string{"src/main.js", "src/main.ts"},
		SourceExts:      []string{".vue", ".js", ".ts", ".css", ".html"},
	},
	KindNuxt: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildTimeout:    10 * time.Minute,
		ArtifactGlobs:   []string{".output", ".nuxt"},
		StartScripts:    []string{"dev", "preview", "start"},
		DefaultPort:     3000,
		HealthPath:      "/",
		StartTimeout:    60 * time.Second,
		EntryCandidates: []string{"app.vue", "nuxt.config.ts", "nuxt.config.js"},
		SourceExts:      []string{".vue", ".js", ".ts", ".css", ".html"},
	},
	KindExpress: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildOptional:   true,
		BuildTimeout:    5 * time.Minute,
		StartScripts:    []string{"start"},
		StartCommand:    []string{"node", "{entry}"},
		DefaultPort:     3000,
		HealthPath:      "/",
		StartTimeout:    30 * time.Second,
		EntryCandidates: []string{"server.js", "app.js", "index.js", "src/server.js", "src/app.js", "src/index.js"},
		SourceExts:      []string{".js", ".mjs", ".ts", ".json"},
	},
	KindNode: {
		InstallCommand:  []string{"npm", "install", "--no-audit", "--no-fund"},
		InstallDir:      "node_modules",
		InstallTimeout:  5 * time.Minute,
		BuildCommand:    []string{"npm", "run", "build"},
		BuildOptional:   true,
		BuildTimeout:    5 * time.Minute,
		StartScripts:    []string{"start"},
		StartCommand:    []string{"node", "{entry}"},
		DefaultPort:     3000,
		HealthPath:      "/",
		StartTimeout:    30 * time.Second,
		EntryCandidates: []string{"index.js", "main.js", "server.js", "app.js", "src/index.js"},
		SourceExts:      []string{".js", ".mjs", ".ts", ".json"},
	},
	KindFlask: {
		CompileEach:     true,
		BuildTimeout:    2 * time.Minute,
		StartCommand:    []string{"python3", "{entry}"},
		DefaultPort:     5000,
		HealthPath:      "/",
		StartTimeout:    30 * time.Second,
		EntryCandidates: []string{"app.py", "main.py", "run.py", "wsgi.py"},
		SourceExts:      []string{".py"},
	},
	KindDjango: {
		CompileEach:     true,
		BuildTimeout:    2 * time.Minute,
		StartCommand:    []string{"python3", "manage.py", "runserver", "127.0.0.1:{port}"},
		DefaultPort:     8000,
		HealthPath:      "/",
		StartTimeout:    30 * time.Second,
		EntryCandidates: []string{"manage.py"},
		SourceExts:      []string{".py"},
	},
	KindFastAPI: {
		CompileEach:     true,
		BuildTimeout:    2 * time.Minute,
		StartCommand:    []string{"python3", "-m", "uvicorn", "{module}:app", "--host", "127.0.0.1", "--port", "{port}"},
		DefaultPort:     8000,
		HealthPath:      "/",
		StartTimeout:    30 * time.Second,
		EntryCandidates: []string{"main.py", "app.py"},
		SourceExts:      []string{".py"},
	},
	KindPython: {
		CompileEach:     true,
		BuildTimeout:    2 * time.Minute,
		StartCommand:    []string{"python3", "{entry}"},
		DefaultPort:     8000,
		HealthPath:      "/",
		StartTimeout:    20 * time.Second,
		EntryCandidates: []string{"main.py", "app.py", "run.py", "server.py"},
		SourceExts:      []string{".py"},
	},
	KindGo: {
		BuildCommand:    []string{"go", "build", "./..."},
		BuildTimeout:    3 * time.Minute,
		StartCommand:    []string{"go", "run", "."},
		DefaultPort:     8080,
		HealthPath:      "/",
		StartTimeout:    45 * time.Second,
		EntryCandidates: []string{"main.go", "cmd"},
		SourceExts:      []string{".go"},
	},
	KindRust: {
		BuildCommand:    []string{"cargo", "build"},
		BuildTimeout:    10 * time.Minute,
		ArtifactGlobs:   []string{"target/debug"},
		StartCommand:    []string{"cargo", "run"},
		DefaultPort:     8000,
		HealthPath:      "/",
		StartTimeout:    2 * time.Minute,
		EntryCandidates: []string{"src/main.rs"},
		SourceExts:      []string{".rs"},
	},
	KindUnknown: {
		SourceExts: []string{".js", ".py", ".go", ".rs", ".html", ".css"},
	},
}

// SpecFor returns the configuration table entry for a kind. Unrecognized
// kinds get the Unknown entry.
func SpecFor(k Kind) KindSpec {
	if spec, ok := kindSpecs[k]; ok {
		return spec
	}
	return kindSpecs[KindUnknown]
}

// HasBuild reports whether the kind defines any build step, either a build
// command or per-file compilation.
func (ks KindSpec) HasBuild() bool {
	return len(ks.BuildCommand) > 0 || ks.CompileEach
}

// HasStart reports whether the kind defines a start command or start-script
// candidates.
func (ks KindSpec) HasStart() bool {
	return len(ks.StartCommand) > 0 || len(ks.StartScripts) > 0
}

// IsNodeFamily reports whether the kind is driven by a package.json manifest.
func (k Kind) IsNodeFamily() bool {
	switch k {
	case KindReact, KindNextJS, KindVue, KindNuxt, KindExpress, KindNode:
		return true
	}
	return false
}

// IsPythonFamily reports whether the kind runs on a Python interpreter.
func (k Kind) IsPythonFamily() bool {
	switch k {
	case KindFlask, KindDjango, KindFastAPI, KindPython:
		return true
	}
	return false
}
