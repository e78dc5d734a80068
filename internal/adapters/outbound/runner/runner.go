// Package runner implements the runtime stage: it allocates a free port,
// spawns the project's start command as a supervised child process, drains
// the process output into a bounded ring buffer, and polls the health URL
// until the server is ready, crashed, or timed out. Process lifecycle moves
// through NotStarted, PortAllocated, ProcessSpawned, one of Ready, Crashed
// or TimedOut, and finally Stopped.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/preflightci/preflight/internal/domain"
)

const (
	ringLines         = 100
	healthPollEvery   = time.Second
	healthHTTPTimeout = 2 * time.Second
	gracefulStopWait  = 3 * time.Second
	defaultStartWait  = 30 * time.Second
)

// ProcessRunner implements domain.RuntimeValidator. It supervises at most
// one child process at a time; a new Validate call replaces the session.
type ProcessRunner struct {
	mu      sync.Mutex
	current *session

	startTimeout time.Duration // override; zero means per-kind
	pollEvery    time.Duration
}

func New() *ProcessRunner {
	return &ProcessRunner{pollEvery: healthPollEvery}
}

// NewWithTimings overrides the per-kind startup timeout and the poll
// interval; watch mode uses short timings to keep iteration fast.
func NewWithTimings(startTimeout, pollEvery time.Duration) *ProcessRunner {
	if pollEvery <= 0 {
		pollEvery = healthPollEvery
	}
	return &ProcessRunner{startTimeout: startTimeout, pollEvery: pollEvery}
}

func (r *ProcessRunner) Validate(ctx context.Context, info *domain.ProjectInfo, autoStop bool) (*domain.RuntimeResult, error) {
	spec := domain.SpecFor(info.Kind)

	// 1. No start configuration means there is nothing to supervise
	if len(info.StartCommand) == 0 {
		return skipResult(fmt.Sprintf("no start command for %s projects", info.Kind)), nil
	}

	// 2. Capability probe for the interpreter or tool
	toolPath, err := exec.LookPath(info.StartCommand[0])
	if err != nil {
		return skipResult(fmt.Sprintf("%s not found on PATH", info.StartCommand[0])), nil
	}

	// 3. Allocate a free port near the kind's default
	port, err := FindFreePort(info.DefaultPort)
	if err != nil {
		return failResult(err.Error(), ""), nil
	}

	// 4. Materialize argv and environment with the chosen port. The command
	// is never wrapped in a shell: the resolved executable runs with its
	// arguments as a list.
	argv := substitutePort(info.StartCommand, port)
	argv[0] = toolPath

	// 5. Spawn supervised, output drained into the ring buffer
	s, err := spawn(argv, info, port)
	if err != nil {
		return failResult(fmt.Sprintf("could not start process: %v", err), ""), nil
	}
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()

	// 6. Poll until ready, crashed, or timed out
	url := healthURL(info, spec, port)
	result, pollErr := r.poll(ctx, s, url, r.waitFor(spec))
	if pollErr != nil {
		// Cancellation propagates into an immediate graceful-then-forced stop.
		r.release(s)
		return nil, pollErr
	}

	// 7. The process survives the call only for a ready server the caller
	// wants kept alive; every other outcome tears it down here.
	if autoStop || result.Status != domain.StatusPass {
		r.release(s)
	}
	return result, nil
}

// Stop terminates the current session's process if one is still running.
// It is safe to call multiple times and with no session at all.
func (r *ProcessRunner) Stop() error {
	r.mu.Lock()
	s := r.current
	r.current = nil
	r.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.stop()
}

func (r *ProcessRunner) release(s *session) {
	_ = s.stop()
	r.mu.Lock()
	if r.current == s {
		r.current = nil
	}
	r.mu.Unlock()
}

func (r *ProcessRunner) waitFor(spec domain.KindSpec) time.Duration {
	if r.startTimeout > 0 {
		return r.startTimeout
	}
	if spec.StartTimeout > 0 {
		return spec.StartTimeout
	}
	return defaultStartWait
}

func (r *ProcessRunner) poll(ctx context.Context, s *session, url string, timeout time.Duration) (*domain.RuntimeResult, error) {
	client := &http.Client{Timeout: healthHTTPTimeout}
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	start := time.Now()
	lastCode := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-s.waitDone:
			return failResult(
				fmt.Sprintf("process exited before becoming ready (exit %d)", s.exitCode()),
				s.tailAfterExit()), nil

		case <-deadline.C:
			res := failResult(fmt.Sprintf("server did not respond within %s", timeout), s.ring.Tail())
			res.ResponseCode = lastCode
			return res, nil

		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue // not accepting connections yet
			}
			resp.Body.Close()
			lastCode = resp.StatusCode
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 400:
				return &domain.RuntimeResult{
					Status:        domain.StatusPass,
					Message:       fmt.Sprintf("server ready in %s", time.Since(start).Round(time.Millisecond)),
					StartupTimeMs: time.Since(start).Milliseconds(),
					URL:           url,
					ResponseCode:  resp.StatusCode,
				}, nil
			case resp.StatusCode >= 500:
				res := failResult(fmt.Sprintf("health check returned HTTP %d", resp.StatusCode), s.ring.Tail())
				res.ResponseCode = resp.StatusCode
				return res, nil
			}
			// 4xx means the server is up but the path is not served yet;
			// keep polling until the deadline
		}
	}
}

// session owns one spawned process: the command handle, its output ring,
// and the wait bookkeeping shared between the drain and stop paths.
type session struct {
	cmd       *exec.Cmd
	ring      *ringBuffer
	waitDone  chan struct{}
	drainDone chan struct{}
	stopOnce  sync.Once
}

// tailAfterExit waits briefly for the drain goroutine to flush the last
// output lines after the process exits, then returns the ring tail.
func (s *session) tailAfterExit() string {
	select {
	case <-s.drainDone:
	case <-time.After(time.Second):
	}
	return s.ring.Tail()
}

func spawn(argv []string, info *domain.ProjectInfo, port int) (*session, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = info.RootPath
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.Env = runEnv(info.Env, port)
	// Own process group so stop signals reach npm-style wrapper children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, err
	}
	// Close the parent's write end; the reader hits EOF when the child exits.
	pw.Close()

	s := &session{
		cmd:       cmd,
		ring:      newRingBuffer(ringLines),
		waitDone:  make(chan struct{}),
		drainDone: make(chan struct{}),
	}

	go func() {
		defer close(s.drainDone)
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 0, 64*1024), 256*1024)
		for sc.Scan() {
			s.ring.Append(sc.Text())
		}
		pr.Close()
	}()

	go func() {
		_ = cmd.Wait()
		close(s.waitDone)
	}()

	return s, nil
}

// stop sends SIGTERM to the process group, waits briefly, and escalates to
// SIGKILL. Idempotent; a no-op when the process already exited.
func (s *session) stop() error {
	s.stopOnce.Do(func() {
		select {
		case <-s.waitDone:
			return
		default:
		}
		pgid := -s.cmd.Process.Pid
		_ = syscall.Kill(pgid, syscall.SIGTERM)
		select {
		case <-s.waitDone:
		case <-time.After(gracefulStopWait):
			_ = syscall.Kill(pgid, syscall.SIGKILL)
			<-s.waitDone
		}
	})
	return nil
}

func (s *session) exitCode() int {
	if s.cmd.ProcessState != nil {
		return s.cmd.ProcessState.ExitCode()
	}
	return -1
}

func substitutePort(argv []string, port int) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = strings.ReplaceAll(arg, "{port}", strconv.Itoa(port))
	}
	return out
}

func runEnv(extra map[string]string, port int) []string {
	env := os.Environ()
	env = append(env, "PORT="+strconv.Itoa(port))
	for k, v := range extra {
		env = append(env, k+"="+strings.ReplaceAll(v, "{port}", strconv.Itoa(port)))
	}
	return env
}

func healthURL(info *domain.ProjectInfo, spec domain.KindSpec, port int) string {
	path := info.HealthPath
	if path == "" {
		path = spec.HealthPath
	}
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, path)
}

func skipResult(msg string) *domain.RuntimeResult {
	return &domain.RuntimeResult{Status: domain.StatusSkip, Message: msg}
}

func failResult(msg, output string) *domain.RuntimeResult {
	return &domain.RuntimeResult{Status: domain.StatusFail, Message: msg, Output: output}
}
