package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightci/preflight/internal/adapters/outbound/browser"
	"github.com/preflightci/preflight/internal/domain"
)

func TestValidate_SkipsWithoutBrowser(t *testing.T) {
	v := browser.New(browser.Options{ChromePath: "/nonexistent/chrome-binary"})

	result, err := v.Validate(context.Background(), "http://127.0.0.1:1/", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkip, result.Status)
	assert.Contains(t, result.Message, "no Chrome")
}

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome or Chromium available")
}

// stubAxe satisfies the audit contract without hitting the network: one
// critical violation, always.
const stubAxe = `window.axe = {
  run: function() {
    return Promise.resolve({
      violations: [
        { id: "image-alt", impact: "critical", help: "Images must have alternate text", nodes: [{}] }
      ]
    });
  }
};`

const testPage = `<!DOCTYPE html>
<html>
<head><title>Preflight Fixture</title><link rel="stylesheet" href="/missing.css"></head>
<body>
  <h1>Welcome</h1>
  <p>A visible paragraph of content for the layout checks to find.</p>
  <script>undefinedFunctionCall();</script>
</body>
</html>`

func TestValidate_RealBrowser(t *testing.T) {
	requireChrome(t)
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testPage))
		case "/axe.js":
			w.Header().Set("Content-Type", "application/javascript")
			w.Write([]byte(stubAxe))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	shotDir := t.TempDir()
	v := browser.New(browser.Options{
		AxeScriptURL:  srv.URL + "/axe.js",
		ScreenshotDir: shotDir,
		NavTimeout:    45 * time.Second,
	})

	viewports := []domain.Viewport{{Name: "desktop", Width: 1280, Height: 800}}
	result, err := v.Validate(context.Background(), srv.URL+"/", viewports)

	require.NoError(t, err)
	require.NotEqual(t, domain.StatusSkip, result.Status, "message: %s", result.Message)
	assert.Equal(t, "Preflight Fixture", result.PageTitle)
	assert.Greater(t, result.LoadTimeMs, int64(0))

	categories := map[string]bool{}
	for _, is := range result.Issues {
		categories[is.Category] = true
		assert.Equal(t, "desktop", is.Viewport)
		assert.Equal(t, domain.StageUI, is.Stage)
	}
	assert.True(t, categories[domain.CategoryJSError], "uncaught script error recorded: %+v", result.Issues)
	assert.True(t, categories[domain.CategoryResourceFailure], "missing stylesheet recorded: %+v", result.Issues)
	assert.True(t, categories[domain.CategoryAccessibility], "stubbed audit violation recorded: %+v", result.Issues)

	require.NotNil(t, result.AccessibilityScore)
	assert.Equal(t, 95, *result.AccessibilityScore, "one violated rule costs five points")

	require.Len(t, result.Screenshots, 1)
	st, statErr := os.Stat(result.Screenshots[0].Path)
	require.NoError(t, statErr)
	assert.Greater(t, st.Size(), int64(0))

	// a page with a JS error cannot pass the UI stage
	assert.Equal(t, domain.StatusFail, result.Status)
}

func TestValidate_BlankPage(t *testing.T) {
	requireChrome(t)
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><head></head><body></body></html>"))
	}))
	defer srv.Close()

	v := browser.New(browser.Options{
		AxeScriptURL:  srv.URL + "/no-axe-here.js",
		ScreenshotDir: t.TempDir(),
	})

	result, err := v.Validate(context.Background(), srv.URL, []domain.Viewport{{Name: "desktop", Width: 1280, Height: 800}})

	require.NoError(t, err)
	require.NotEqual(t, domain.StatusSkip, result.Status)
	assert.Equal(t, domain.StatusFail, result.Status)

	var blank bool
	for _, is := range result.Issues {
		if is.Code == "blank-page" {
			blank = true
			assert.Equal(t, domain.SeverityError, is.Severity)
		}
	}
	assert.True(t, blank, "blank page detected: %+v", result.Issues)
	assert.Nil(t, result.AccessibilityScore, "no audit ran, no score")
	assert.Contains(t, result.Message, "accessibility audit unavailable")
}
