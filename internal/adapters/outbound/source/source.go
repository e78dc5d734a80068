// Package source resolves a validation input into a local directory. Plain
// directories are used as-is; archives are extracted and repository
// references shallow-cloned into private working areas that the run cleans
// up afterwards.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/google/uuid"

	"github.com/preflightci/preflight/internal/domain"
)

// Resolver implements domain.SourceResolver.
type Resolver struct {
	workRoot string // parent for temp working areas; os.TempDir when empty
}

func New() *Resolver {
	return &Resolver{}
}

func NewWithWorkRoot(root string) *Resolver {
	return &Resolver{workRoot: root}
}

func (r *Resolver) Resolve(ctx context.Context, input string) (*domain.Source, error) {
	// 1. Existing local paths win over reference syntax
	if st, err := os.Stat(input); err == nil {
		if st.IsDir() {
			abs, absErr := filepath.Abs(input)
			if absErr != nil {
				return nil, absErr
			}
			return domain.NewSource(abs, "directory", false, nil), nil
		}
		if isArchive(input) {
			return r.extract(input)
		}
		return nil, fmt.Errorf("%w: %s is neither a directory, an archive, nor a repository reference",
			domain.ErrUnsupportedSource, input)
	}

	// 2. Remote repository references get a shallow clone
	if isRepoRef(input) {
		return r.clone(ctx, input)
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, input)
}

func (r *Resolver) extract(archivePath string) (*domain.Source, error) {
	dir, err := r.workDir()
	if err != nil {
		return nil, err
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		err = extractZip(archivePath, dir)
	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		err = extractTarGz(archivePath, dir)
	default:
		err = fmt.Errorf("%w: unsupported archive format %s", domain.ErrUnsupportedSource, filepath.Ext(archivePath))
	}
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("extracting %s: %w", archivePath, err)
	}

	return domain.NewSource(flattenRoot(dir), "archive", true, cleanup), nil
}

func (r *Resolver) clone(ctx context.Context, url string) (*domain.Source, error) {
	dir, err := r.workDir()
	if err != nil {
		return nil, err
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}

	return domain.NewSource(dir, "repository", true, cleanup), nil
}

func (r *Resolver) workDir() (string, error) {
	root := r.workRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "preflight-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating working area: %w", err)
	}
	return dir, nil
}

func isArchive(path string) bool {
	return strings.HasSuffix(path, ".zip") ||
		strings.HasSuffix(path, ".tar.gz") ||
		strings.HasSuffix(path, ".tgz")
}

func isRepoRef(input string) bool {
	for _, prefix := range []string{"http://", "https://", "git://", "ssh://", "git@"} {
		if strings.HasPrefix(input, prefix) {
			return true
		}
	}
	return false
}

// flattenRoot descends into a single top-level directory, the shape GitHub
// archive downloads have, so manifests end up at the project root.
func flattenRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
