package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preflightci/preflight/internal/adapters/outbound/analyzer"
	"github.com/preflightci/preflight/internal/adapters/outbound/config"
	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/adapters/outbound/gitinfo"
	"github.com/preflightci/preflight/internal/adapters/outbound/source"
	"github.com/preflightci/preflight/internal/domain"
)

// Fakes for the process-spawning stages so orchestration tests stay hermetic.

type fakeBuilder struct {
	result *domain.BuildResult
	err    error
	called bool
}

func (f *fakeBuilder) Validate(ctx context.Context, info *domain.ProjectInfo) (*domain.BuildResult, error) {
	f.called = true
	return f.result, f.err
}

type fakeRuntime struct {
	result    *domain.RuntimeResult
	err       error
	called    bool
	autoStops []bool
	stops     int
	seenPort  int
}

func (f *fakeRuntime) Validate(ctx context.Context, info *domain.ProjectInfo, autoStop bool) (*domain.RuntimeResult, error) {
	f.called = true
	f.autoStops = append(f.autoStops, autoStop)
	f.seenPort = info.DefaultPort
	return f.result, f.err
}

func (f *fakeRuntime) Stop() error {
	f.stops++
	return nil
}

type fakeUI struct {
	result *domain.UIResult
	called bool
	gotURL string
}

func (f *fakeUI) Validate(ctx context.Context, url string, viewports []domain.Viewport) (*domain.UIResult, error) {
	f.called = true
	f.gotURL = url
	return f.result, nil
}

func writeStaticSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	html := "<!DOCTYPE html>\n<html><head><title>ok</title></head><body><p>hello</p></body></html>\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(html), 0644))
	return dir
}

func newPipeline(b *fakeBuilder, r *fakeRuntime, u *fakeUI) *ValidateService {
	return NewValidateService(
		source.New(),
		detector.New(),
		config.New(),
		analyzer.New(),
		b, r, u,
		gitinfo.New(),
	)
}

func passingFakes() (*fakeBuilder, *fakeRuntime, *fakeUI) {
	b := &fakeBuilder{result: &domain.BuildResult{Status: domain.StatusSkip, Message: "no build step"}}
	r := &fakeRuntime{result: &domain.RuntimeResult{Status: domain.StatusPass, Message: "server ready", URL: "http://127.0.0.1:9999/"}}
	u := &fakeUI{result: &domain.UIResult{
		Status:  domain.StatusWarn,
		Message: "1 viewport checked, 1 issue found",
		Issues: []domain.Issue{
			{Severity: domain.SeverityWarning, Category: domain.CategoryLayout, Stage: domain.StageUI, Viewport: "mobile", Message: "horizontal overflow"},
		},
		Screenshots: []domain.Screenshot{{Viewport: "mobile", Width: 375, Height: 812, Path: "/tmp/shot.png"}},
	}}
	return b, r, u
}

func TestValidate_FullPipeline(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, domain.KindStaticHTML, result.Project.Kind)
	require.NotNil(t, result.Stages.Static)
	require.NotNil(t, result.Stages.Build)
	require.NotNil(t, result.Stages.Runtime)
	require.NotNil(t, result.Stages.UI)

	assert.True(t, b.called)
	assert.True(t, r.called)
	assert.True(t, u.called)
	assert.Equal(t, "http://127.0.0.1:9999/", u.gotURL)

	// one warning from the ui stage, no failed stages
	assert.Equal(t, 97, result.Score)
	assert.Equal(t, domain.StatusWarn, result.Status)
	require.Len(t, result.Screenshots, 1)
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
}

func TestValidate_FlattensStageIssues(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{})
	require.NoError(t, err)

	found := false
	for _, issue := range result.Issues {
		if issue.Stage == domain.StageUI && issue.Message == "horizontal overflow" {
			found = true
		}
	}
	assert.True(t, found, "ui issues should be flattened into the aggregate list")
}

func TestValidate_UIRequiresReadyRuntime(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	r.result = &domain.RuntimeResult{Status: domain.StatusFail, Message: "process exited before becoming ready (exit 1)"}
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{})
	require.NoError(t, err)

	assert.False(t, u.called, "ui stage must not run without a live URL")
	assert.Nil(t, result.Stages.UI)
	assert.Equal(t, domain.StatusFail, result.Status)
	assert.Equal(t, 90, result.Score, "one failed stage costs 10 points")
}

func TestValidate_SkipUIOption(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{SkipUI: true})
	require.NoError(t, err)

	assert.False(t, u.called)
	assert.Nil(t, result.Stages.UI)
	require.Len(t, r.autoStops, 1)
	assert.True(t, r.autoStops[0], "without a ui stage the server should not outlive the runtime stage")
}

func TestValidate_ServerKeptAliveForUI(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	_, err := svc.Validate(context.Background(), dir, RunOptions{})
	require.NoError(t, err)

	require.Len(t, r.autoStops, 1)
	assert.False(t, r.autoStops[0], "server must stay alive for the ui stage")
	assert.GreaterOrEqual(t, r.stops, 1, "server must be stopped after the ui stage")
}

func TestValidate_StageFilter(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{Stages: []string{domain.StageStatic}})
	require.NoError(t, err)

	assert.NotNil(t, result.Stages.Static)
	assert.Nil(t, result.Stages.Build)
	assert.Nil(t, result.Stages.Runtime)
	assert.False(t, b.called)
	assert.False(t, r.called)
	assert.False(t, u.called)
}

func TestValidate_ConfigOverridesApplied(t *testing.T) {
	dir := writeStaticSite(t)
	cfg := "port: 4321\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".preflight.yaml"), []byte(cfg), 0644))

	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{SkipUI: true})
	require.NoError(t, err)

	assert.Equal(t, 4321, result.Project.DefaultPort)
	assert.Equal(t, 4321, r.seenPort, "runtime stage should see the configured port")
}

func TestValidate_MissingInputFatal(t *testing.T) {
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	_, err := svc.Validate(context.Background(), "/nonexistent/project-path", RunOptions{})
	require.Error(t, err)
	assert.False(t, b.called, "stages must not run when resolution fails")
}

func TestValidate_BuildInfrastructureErrorPropagates(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	b.result = nil
	b.err = errors.New("workdir vanished")
	svc := newPipeline(b, r, u)

	_, err := svc.Validate(context.Background(), dir, RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build stage")
	assert.False(t, r.called, "pipeline stops on infrastructure errors")
}

func TestValidate_StaticIssuesLowerScore(t *testing.T) {
	dir := writeStaticSite(t)
	broken := "{ \"name\": \"x\", }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(broken), 0644))

	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	result, err := svc.Validate(context.Background(), dir, RunOptions{Stages: []string{domain.StageStatic}})
	require.NoError(t, err)

	require.NotNil(t, result.Stages.Static)
	assert.Equal(t, domain.StatusFail, result.Status)
	assert.Less(t, result.Score, 100)
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, domain.CategorySyntax, result.Issues[0].Category)
}

func TestValidate_ReportsStageProgress(t *testing.T) {
	dir := writeStaticSite(t)
	b, r, u := passingFakes()
	svc := newPipeline(b, r, u)

	var seen []string
	opts := RunOptions{Progress: func(stage, status string) {
		seen = append(seen, stage+":"+status)
	}}

	_, err := svc.Validate(context.Background(), dir, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"static:pass",
		"build:skip",
		"runtime:pass",
		"ui:warn",
	}, seen)
}

func TestStageSet(t *testing.T) {
	all := stageSet(RunOptions{})
	for _, st := range domain.AllStages {
		assert.True(t, all[st], "empty filter should select %s", st)
	}

	only := stageSet(RunOptions{Stages: []string{domain.StageBuild, domain.StageRuntime}})
	assert.False(t, only[domain.StageStatic])
	assert.True(t, only[domain.StageBuild])
	assert.True(t, only[domain.StageRuntime])
	assert.False(t, only[domain.StageUI])

	noUI := stageSet(RunOptions{Stages: []string{domain.StageUI}, SkipUI: true})
	assert.False(t, noUI[domain.StageUI], "SkipUI wins over the filter")
}
