// Package builder implements the build stage: dependency install when the
// kind needs one, then the kind's build command (or per-file compilation for
// source-only kinds) under a bounded timeout.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/preflightci/preflight/internal/domain"
)

const outputTailBytes = 4 * 1024

// BuildRunner implements domain.BuildValidator.
type BuildRunner struct {
	// timeoutOverride replaces the per-kind timeouts when set; used by watch
	// mode and tests.
	timeoutOverride time.Duration
}

func New() *BuildRunner {
	return &BuildRunner{}
}

func NewWithTimeout(timeout time.Duration) *BuildRunner {
	return &BuildRunner{timeoutOverride: timeout}
}

func (b *BuildRunner) Validate(ctx context.Context, info *domain.ProjectInfo) (*domain.BuildResult, error) {
	spec := domain.SpecFor(info.Kind)

	// 1. Source-only kinds compile every file instead of running a build
	if spec.CompileEach {
		return b.compileSources(ctx, info, spec)
	}

	// 2. No materialized build command means no build step: either the kind
	// has none, or its optional build script is not declared
	if len(info.BuildCommand) == 0 {
		if len(spec.BuildCommand) > 0 && spec.BuildOptional {
			return skipResult("no build script declared"), nil
		}
		return skipResult(fmt.Sprintf("no build step for %s projects", info.Kind)), nil
	}

	// 3. Capability probe for the build tool
	tool := info.BuildCommand[0]
	if _, err := exec.LookPath(tool); err != nil {
		return skipResult(fmt.Sprintf("%s not found on PATH", tool)), nil
	}

	// 4. Install dependencies first when the cache dir is absent or empty
	if res := b.installIfNeeded(ctx, info, spec); res != nil {
		return res, nil
	}

	// 5. Run the build under its timeout
	start := time.Now()
	stdout, stderr, exitCode, err := b.run(ctx, info, info.BuildCommand, b.timeout(spec.BuildTimeout))
	elapsed := time.Since(start)

	result := &domain.BuildResult{
		BuildTimeMs: elapsed.Milliseconds(),
		Stdout:      tail(stdout),
		Stderr:      tail(stderr),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.Status = domain.StatusFail
		result.Message = fmt.Sprintf("build timed out after %s", b.timeout(spec.BuildTimeout))
	case exitCode != 0:
		result.Status = domain.StatusFail
		result.Message = fmt.Sprintf("build failed (exit %d)", exitCode)
	case err != nil:
		result.Status = domain.StatusFail
		result.Message = fmt.Sprintf("build could not run: %v", err)
	default:
		result.Status = domain.StatusPass
		result.Message = fmt.Sprintf("build completed in %s", elapsed.Round(time.Millisecond))
		result.Artifacts = artifactSizes(info.RootPath, spec.ArtifactGlobs)
	}
	return result, nil
}

// installIfNeeded runs the kind's dependency install command when the
// dependency cache directory is missing or empty. It returns a non-nil
// result only when the install step itself decides the stage.
func (b *BuildRunner) installIfNeeded(ctx context.Context, info *domain.ProjectInfo, spec domain.KindSpec) *domain.BuildResult {
	if len(spec.InstallCommand) == 0 || spec.InstallDir == "" {
		return nil
	}
	if dirPopulated(filepath.Join(info.RootPath, spec.InstallDir)) {
		return nil
	}

	start := time.Now()
	stdout, stderr, exitCode, err := b.run(ctx, info, spec.InstallCommand, b.timeout(spec.InstallTimeout))

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.BuildResult{
			Status:      domain.StatusFail,
			Message:     fmt.Sprintf("dependency install timed out after %s", b.timeout(spec.InstallTimeout)),
			BuildTimeMs: time.Since(start).Milliseconds(),
			Stdout:      tail(stdout),
			Stderr:      tail(stderr),
		}
	}
	if err != nil || exitCode != 0 {
		return &domain.BuildResult{
			Status:      domain.StatusFail,
			Message:     fmt.Sprintf("dependency install failed (exit %d)", exitCode),
			BuildTimeMs: time.Since(start).Milliseconds(),
			Stdout:      tail(stdout),
			Stderr:      tail(stderr),
		}
	}
	return nil
}

const maxCompileFailures = 10

// compileSources byte-compiles every source file of the kind individually,
// failing only if at least one file fails. The failing file list in the
// message is capped.
func (b *BuildRunner) compileSources(ctx context.Context, info *domain.ProjectInfo, spec domain.KindSpec) (*domain.BuildResult, error) {
	python, err := exec.LookPath("python3")
	if err != nil {
		return skipResult("python3 not found on PATH"), nil
	}

	files, err := sourcesByExt(info.RootPath, ".py")
	if err != nil {
		return nil, fmt.Errorf("enumerating sources in %s: %w", info.RootPath, err)
	}
	if len(files) == 0 {
		return skipResult("no source files to compile"), nil
	}

	tctx, cancel := context.WithTimeout(ctx, b.timeout(spec.BuildTimeout))
	defer cancel()

	start := time.Now()
	var failed []string
	var lastErr bytes.Buffer
	for _, f := range files {
		cmd := exec.CommandContext(tctx, python, "-m", "py_compile", filepath.Join(info.RootPath, f))
		cmd.Dir = info.RootPath
		out, runErr := cmd.CombinedOutput()
		if tctx.Err() != nil {
			return &domain.BuildResult{
				Status:      domain.StatusFail,
				Message:     fmt.Sprintf("compile check timed out after %s", b.timeout(spec.BuildTimeout)),
				BuildTimeMs: time.Since(start).Milliseconds(),
			}, nil
		}
		if runErr != nil {
			failed = append(failed, f)
			lastErr.Reset()
			lastErr.Write(out)
		}
	}

	result := &domain.BuildResult{BuildTimeMs: time.Since(start).Milliseconds()}
	if len(failed) > 0 {
		listed := failed
		if len(listed) > maxCompileFailures {
			listed = listed[:maxCompileFailures]
		}
		suffix := ""
		if len(failed) > len(listed) {
			suffix = fmt.Sprintf(" (+%d more)", len(failed)-len(listed))
		}
		result.Status = domain.StatusFail
		result.Message = fmt.Sprintf("%d of %d files failed to compile: %s%s",
			len(failed), len(files), strings.Join(listed, ", "), suffix)
		result.Stderr = tail(lastErr.Bytes())
		return result, nil
	}

	result.Status = domain.StatusPass
	result.Message = fmt.Sprintf("%d files compiled", len(files))
	return result, nil
}

func (b *BuildRunner) run(ctx context.Context, info *domain.ProjectInfo, argv []string, timeout time.Duration) (stdout, stderr []byte, exitCode int, err error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(tctx, argv[0], argv[1:]...)
	cmd.Dir = info.RootPath
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.Env = mergedEnv(info.Env)

	runErr := cmd.Run()
	if tctx.Err() == context.DeadlineExceeded {
		return outBuf.Bytes(), errBuf.Bytes(), -1, context.DeadlineExceeded
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return outBuf.Bytes(), errBuf.Bytes(), -1, runErr
	}
	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}

func (b *BuildRunner) timeout(kindTimeout time.Duration) time.Duration {
	if b.timeoutOverride > 0 {
		return b.timeoutOverride
	}
	if kindTimeout > 0 {
		return kindTimeout
	}
	return 2 * time.Minute
}

func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

func skipResult(msg string) *domain.BuildResult {
	return &domain.BuildResult{Status: domain.StatusSkip, Message: msg}
}

// tail keeps the last chunk of command output, where build errors live.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) <= outputTailBytes {
		return s
	}
	return "..." + s[len(s)-outputTailBytes:]
}

func dirPopulated(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// sourcesByExt lists files with the extension, skipping dependency dirs.
func sourcesByExt(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" ||
				name == "__pycache__" || name == "venv" || name == "dist" || name == "build" || name == "target") {
				if path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				files = append(files, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	return files, err
}

const maxArtifactWalk = 1000

// artifactSizes probes the configured artifact globs and records sizes.
// Directories record their recursive size, bounded to keep probing cheap.
func artifactSizes(root string, globs []string) map[string]int64 {
	if len(globs) == 0 {
		return nil
	}
	sizes := make(map[string]int64)
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(root, g))
		if err != nil {
			continue
		}
		for _, m := range matches {
			rel, relErr := filepath.Rel(root, m)
			if relErr != nil {
				continue
			}
			st, statErr := os.Stat(m)
			if statErr != nil {
				continue
			}
			if !st.IsDir() {
				sizes[filepath.ToSlash(rel)] = st.Size()
				continue
			}
			var total int64
			count := 0
			_ = filepath.WalkDir(m, func(path string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				count++
				if count > maxArtifactWalk {
					return filepath.SkipAll
				}
				if fi, infoErr := d.Info(); infoErr == nil {
					total += fi.Size()
				}
				return nil
			})
			sizes[filepath.ToSlash(rel)] = total
		}
	}
	if len(sizes) == 0 {
		return nil
	}
	return sizes
}
