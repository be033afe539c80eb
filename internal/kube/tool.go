// Package kube wraps the three CLI tools devexy shells out to —
// kubectl, kustomize, and minikube — each as a thin typed adapter over
// internal/procexec. Grounded on the Python predecessor's
// devexy/tools/tool.py (the shared Tool.exec/Tool.start base) and its
// kubectl.py/kustomize.py/minikube.py subclasses, plus kcli's
// internal/runner/kubectl.go for the Go shelling-out idiom.
package kube

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/sycdan/devexy/internal/procexec"
)

// Tool is the common base every adapter embeds: one binary name plus the
// exec/start primitives used to drive it.
type Tool struct {
	Bin string
}

// Exec runs a subcommand to completion and returns its stdout. A non-zero
// exit produces a *ToolError; a missing binary produces an
// *ExecutableMissingError. stdin, when non-empty, is piped to the child.
func (t Tool) Exec(stdin string, args ...string) (string, error) {
	result, err := procexec.Run(t.Bin, args, stdin)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &ExecutableMissingError{Bin: t.Bin}
		}
		var pathErr *exec.Error
		if errors.As(err, &pathErr) {
			return "", &ExecutableMissingError{Bin: t.Bin}
		}
		return "", err
	}
	if !result.Succeeded() {
		return "", &ToolError{
			Bin:      t.Bin,
			Args:     args,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			ExitCode: result.ExitCode,
		}
	}
	return result.Stdout, nil
}

// Start launches a subcommand in the background and returns a handle the
// caller must eventually Terminate.
func (t Tool) Start(args ...string) (*procexec.Handle, error) {
	return procexec.Start(t.Bin, args)
}

// stderrContains is the substring-matching helper the kubectl adapter uses
// to classify a ToolError's stderr, mirroring the
// Python predecessor's `"AlreadyExists" in e.stderr` / `"NotFound" in
// e.stderr` checks rather than parsing structured error output.
func stderrContains(err error, substr string) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return strings.Contains(toolErr.Stderr, substr)
	}
	return false
}
