package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyPATH points PATH at a directory with no executables, so kube adapter
// IsInstalled checks fail deterministically without touching the real
// minikube/kustomize/kubectl on the test host.
func emptyPATH(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	emptyPATH(t)
	out, err := execRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestMkStartFailsWhenMinikubeNotInstalled(t *testing.T) {
	emptyPATH(t)
	_, err := execRoot(t, "mk", "start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minikube is not installed")
}

func TestMkStopNoopWhenMinikubeNotInstalled(t *testing.T) {
	emptyPATH(t)
	out, err := execRoot(t, "mk", "stop")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMkInspectFailsOnInvalidKustomizeRoot(t *testing.T) {
	emptyPATH(t)
	writeFakeTool(t, "minikube")
	writeFakeTool(t, "kustomize")

	_, err := execRoot(t, "mk", "inspect", "--kustomize-root", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kustomize root directory")
}

func TestLogsTailPrintsLastLines(t *testing.T) {
	emptyPATH(t)
	path, err := logFilePath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	out, err := execRoot(t, "logs", "--lines", "2")
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", out)
}

func TestLogsReportsMissingFile(t *testing.T) {
	emptyPATH(t)
	out, err := execRoot(t, "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "Log file not found")
}

// writeFakeTool drops an always-succeeding executable named name onto PATH,
// standing in for minikube/kustomize/kubectl in CLI-level tests that only
// need IsInstalled() to report true.
func writeFakeTool(t *testing.T, name string) {
	t.Helper()
	dirs := filepath.SplitList(os.Getenv("PATH"))
	require.NotEmpty(t, dirs)
	path := filepath.Join(dirs[0], name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}
