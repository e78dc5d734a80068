package analyzer

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
)

// skipDirs are dependency, build and VCS directories never analyzed.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".next":        true,
	".nuxt":        true,
	".output":      true,
	"venv":         true,
	".venv":        true,
	".cache":       true,
	"coverage":     true,
}

// textExts are file extensions scanned even when outside the kind's source
// set: config and env files carry secrets too.
var textExts = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true,
	".vue": true, ".py": true, ".go": true, ".rs": true,
	".html": true, ".htm": true, ".css": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".env": true, ".ini": true, ".cfg": true, ".conf": true, ".sh": true,
}

const (
	maxFiles    = 2000
	maxScanSize = 1 << 20 // per-file read cap
)

// sourceFile is one enumerated file with its content preloaded.
type sourceFile struct {
	rel  string
	abs  string
	ext  string
	data []byte
}

// enumerateFiles walks the project root collecting text-like files, honoring
// built-in skip dirs, configured exclude paths and the target's .gitignore.
// Only errors on the root itself are returned; unreadable children are
// silently dropped.
func enumerateFiles(root string, excludePaths []string) ([]sourceFile, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	ignore := loadGitIgnore(root)
	extraSkip := make(map[string]bool, len(excludePaths))
	for _, p := range excludePaths {
		extraSkip[strings.TrimSuffix(filepath.ToSlash(p), "/")] = true
	}

	var files []sourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if skipDirs[d.Name()] || extraSkip[rel] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if ignored(ignore, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if len(files) >= maxFiles {
			return filepath.SkipAll
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !textExts[ext] && strings.HasPrefix(d.Name(), ".env") {
			ext = ".env"
		}
		if !textExts[ext] {
			return nil
		}
		if extraSkip[rel] || ignored(ignore, rel, false) {
			return nil
		}

		data, readErr := readCapped(path)
		if readErr != nil || isBinary(data) {
			return nil
		}
		files = append(files, sourceFile{rel: rel, abs: path, ext: ext, data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func loadGitIgnore(root string) gitignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gitignore.New(bytes.NewReader(data), root, nil)
}

func ignored(ignore gitignore.GitIgnore, rel string, isDir bool) bool {
	if ignore == nil {
		return false
	}
	match := ignore.Relative(rel, isDir)
	return match != nil && match.Ignore()
}

func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxScanSize))
}

func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
