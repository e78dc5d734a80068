package cli_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightci/preflight/internal/adapters/inbound/cli"
	"github.com/preflightci/preflight/internal/domain"
)

func TestHistoryCommand_Empty(t *testing.T) {
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", t.TempDir()})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No run history found")
}

func TestHistoryCommand_AfterRun(t *testing.T) {
	dir := writeSite(t)

	run := cli.NewRootCmdForTest()
	run.SetOut(new(bytes.Buffer))
	run.SetArgs([]string{"validate", dir, "--stages", "static", "--json"})
	require.NoError(t, run.Execute())

	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"history", dir, "--json"})
	require.NoError(t, cmd.Execute())

	var entries []domain.RunEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 100, entries[0].Score)
	assert.Equal(t, domain.StatusPass, entries[0].Status)
	assert.NotEmpty(t, entries[0].RunID)
}
