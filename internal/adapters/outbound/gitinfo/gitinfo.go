// Package gitinfo reads version-control metadata from validated projects so
// results can be pinned to the exact commit they describe.
package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// GitInfoAdapter implements domain.GitInfo using go-git.
type GitInfoAdapter struct{}

func New() *GitInfoAdapter {
	return &GitInfoAdapter{}
}

// IsGitRepo reports whether the project root is inside a git repository.
func (g *GitInfoAdapter) IsGitRepo(projectPath string) bool {
	_, err := git.PlainOpen(projectPath)
	return err == nil
}

// CommitHash returns the full HEAD commit hash of the project's repository.
// An empty repository (no commits yet) is an error.
func (g *GitInfoAdapter) CommitHash(projectPath string) (string, error) {
	repo, err := git.PlainOpen(projectPath)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// ShortHash abbreviates a commit hash for display.
func ShortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
