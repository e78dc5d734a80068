package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchIgnored(t *testing.T) {
	root := "/project"

	tests := []struct {
		name    string
		changed string
		ignored bool
	}{
		{"source file", "src/app.js", false},
		{"root file", "index.html", false},
		{"dependency dir", "node_modules/express/index.js", true},
		{"vcs dir", ".git/HEAD", true},
		{"own history write", ".preflight/history/runs.json", true},
		{"nested build output", "packages/web/dist/bundle.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := watchIgnored(root, filepath.Join(root, tt.changed))
			assert.Equal(t, tt.ignored, got)
		})
	}
}

func TestAddWatchRecursive(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{
		"src/components",
		"node_modules/express",
		".git/objects",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.js"), []byte("console.log(1)\n"), 0644))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addWatchRecursive(watcher, root))

	watched := watcher.WatchList()
	assert.Contains(t, watched, root)
	assert.Contains(t, watched, filepath.Join(root, "src"))
	assert.Contains(t, watched, filepath.Join(root, "src", "components"))
	for _, w := range watched {
		assert.NotContains(t, w, "node_modules")
		assert.NotContains(t, w, ".git")
	}
}
