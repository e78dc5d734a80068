package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightci/preflight/internal/adapters/inbound/cli"
)

func TestInitCmd_CreatesConfigFile(t *testing.T) {
	dir := writeSite(t)

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", dir})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(dir, ".preflight.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: static-html")
	assert.Contains(t, string(data), "# health_path:")
}

func TestInitCmd_KindOverride(t *testing.T) {
	dir := writeSite(t)

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", dir, "--kind", "express"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(dir, ".preflight.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: express")
}

func TestInitCmd_FailsIfExists(t *testing.T) {
	dir := writeSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".preflight.yaml"), []byte("existing"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", dir})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	dir := writeSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".preflight.yaml"), []byte("old"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", dir, "--force"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(dir, ".preflight.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind:")
	assert.NotEqual(t, "old", string(data))
}

func TestInitCmd_InvalidKind(t *testing.T) {
	dir := writeSite(t)

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", dir, "--kind", "cobol-mainframe"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
