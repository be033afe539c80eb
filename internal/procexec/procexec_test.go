package procexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdoutAndExitCode(t *testing.T) {
	result, err := Run("echo", []string{"hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.True(t, result.Succeeded())
}

func TestRunCapturesNonZeroExit(t *testing.T) {
	result, err := Run("sh", []string{"-c", "echo oops >&2; exit 3"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Succeeded())
	assert.Contains(t, result.Stderr, "oops")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run("devexy-definitely-not-a-real-binary", nil, "")
	assert.Error(t, err)
}

func TestRunPipesStdin(t *testing.T) {
	result, err := Run("cat", nil, "piped content")
	require.NoError(t, err)
	assert.Equal(t, "piped content", result.Stdout)
}

func TestHandleStartAndTerminate(t *testing.T) {
	h, err := Start("sleep", []string{"5"})
	require.NoError(t, err)
	assert.True(t, h.IsAlive())
	assert.NotZero(t, h.PID())

	h.Terminate()
	assert.False(t, h.IsAlive())

	// Terminate must be idempotent.
	h.Terminate()
}

func TestHandleIsAliveAfterNaturalExit(t *testing.T) {
	h, err := Start("sh", []string{"-c", "exit 0"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return !h.IsAlive()
	}, 2*time.Second, 20*time.Millisecond)
}
