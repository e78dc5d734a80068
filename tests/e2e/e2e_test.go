package e2e_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightci/preflight/internal/domain"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build binary before running tests
	dir, err := os.MkdirTemp("", "preflight-e2e")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "preflight")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../..")
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func fixturePath(name string) string {
	abs, _ := filepath.Abs(filepath.Join("../../testdata", name))
	return abs
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return string(out), exitCode
}

// --- Validate Tests ---

func TestE2E_Validate(t *testing.T) {
	out, code := run(t, "validate", fixturePath("static-site"), "--stages", "static,build", "--no-history")
	assert.Equal(t, 0, code, "output: %s", out)
	assert.Contains(t, out, "preflight")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "100")
}

func TestE2E_ValidateJSON(t *testing.T) {
	out, code := run(t, "validate", fixturePath("static-site"), "--stages", "static,build", "--no-history", "--json")
	assert.Equal(t, 0, code, "output: %s", out)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.StatusPass, result.Status)
	assert.Equal(t, 100, result.Score)
	require.NotNil(t, result.Stages.Static)
	assert.Equal(t, domain.StatusPass, result.Stages.Static.Status)
	require.NotNil(t, result.Stages.Build)
	assert.Equal(t, domain.StatusSkip, result.Stages.Build.Status, "static sites have no build step")
	assert.NotEmpty(t, result.RunID)
}

func TestE2E_ValidateRuntime(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	out, code := run(t, "validate", fixturePath("static-site"), "--stages", "static,build,runtime", "--no-history", "--json")
	assert.Equal(t, 0, code, "output: %s", out)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Stages.Runtime)
	assert.Equal(t, domain.StatusPass, result.Stages.Runtime.Status)
	assert.Contains(t, result.Stages.Runtime.URL, "http://127.0.0.1:")
}

func TestE2E_ValidateBrokenFails(t *testing.T) {
	out, code := run(t, "validate", fixturePath("broken-site"), "--stages", "static", "--no-history")
	assert.Equal(t, 1, code, "syntax errors in the target should fail the run")
	assert.Contains(t, out, "FAIL")
}

func TestE2E_ValidateMinScore(t *testing.T) {
	_, code := run(t, "validate", fixturePath("static-site"), "--stages", "static", "--no-history", "--min-score", "999")
	assert.Equal(t, 1, code, "should exit 1 when below minimum")
}

// --- Detect Tests ---

func TestE2E_Detect(t *testing.T) {
	out, code := run(t, "detect", fixturePath("static-site"), "--json")
	assert.Equal(t, 0, code, "output: %s", out)

	var info domain.ProjectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, domain.KindStaticHTML, info.Kind)
	assert.Equal(t, "index.html", info.EntryPoint)
}

// --- History Tests ---

func TestE2E_HistoryRecorded(t *testing.T) {
	fixture := fixturePath("static-site")
	defer os.RemoveAll(filepath.Join(fixture, ".preflight"))

	_, code := run(t, "validate", fixture, "--stages", "static")
	assert.Equal(t, 0, code)

	out, code := run(t, "history", fixture, "--json")
	assert.Equal(t, 0, code)

	var entries []domain.RunEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, 100, entries[0].Score)
	assert.Equal(t, domain.StatusPass, entries[0].Status)
}

// --- Init Tests ---

func TestE2E_InitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<!doctype html><html><body>hi</body></html>"), 0644))

	out, code := run(t, "init", dir)
	assert.Equal(t, 0, code, "output: %s", out)

	data, err := os.ReadFile(filepath.Join(dir, ".preflight.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: static-html")

	_, code = run(t, "init", dir)
	assert.Equal(t, 1, code, "refuses to overwrite without --force")
}

// --- Version Test ---

func TestE2E_Version(t *testing.T) {
	out, code := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "preflight")
}
