// Package procexec is the Process Executor: it runs an external binary to
// completion capturing stdout/stderr/exit code, or launches a supervised
// background child and hands back a handle.
//
// Grounded on kcli's internal/runner/kubectl.go (RunKubectl/CaptureKubectl/
// NewKubectlCmd), generalized here to any binary name so the Kubectl,
// Kustomize, and Minikube adapters (internal/kube) can share one
// implementation instead of three copies.
package procexec

import (
	"os/exec"
	"strings"
)

// Result is the outcome of a synchronous Run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded reports whether the process exited zero.
func (r Result) Succeeded() bool { return r.ExitCode == 0 }

// Run executes bin with args to completion, capturing stdout/stderr
// separately. stdin, when non-empty, is piped to the child's standard
// input (used by `kubectl apply -f -`).
func Run(bin string, args []string, stdin string) (Result, error) {
	cmd := exec.Command(bin, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// Not an ExitError (e.g. binary missing): surface as-is, let the
			// caller distinguish ExecutableMissing from ToolFailed.
			return Result{}, runErr
		}
	}
	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// Handle supervises a background child process (e.g. `kubectl port-forward`).
type Handle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Start launches bin with args in the background, discarding its stdout and
// stderr (matching the Python predecessor's subprocess.Popen(..., stdout=
// DEVNULL, stderr=DEVNULL)). The caller must eventually call Terminate. A
// background goroutine reaps the child as soon as it exits so IsAlive never
// reads a stale or zombie state.
func Start(bin string, args []string) (*Handle, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// PID returns the child's process ID.
func (h *Handle) PID() int {
	if h == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// IsAlive reports whether the child is still running.
func (h *Handle) IsAlive() bool {
	if h == nil || h.cmd.Process == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Terminate kills the child process if it is still alive and waits for it
// to be reaped. Safe to call more than once; subsequent calls are no-ops.
func (h *Handle) Terminate() {
	if h == nil || h.cmd.Process == nil {
		return
	}
	if !h.IsAlive() {
		return
	}
	_ = h.cmd.Process.Kill()
	<-h.done
}
