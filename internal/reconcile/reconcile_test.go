package reconcile

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
)

const overlayYAML = `
kind: Deployment
metadata:
  name: web
  namespace: app
spec:
  replicas: 3
  template:
    spec:
      containers:
        - name: api
          ports:
            - containerPort: 80
`

// fakeBinDispatch writes a shell script that branches on argv[1] (the
// kubectl/kustomize subcommand) so one fake binary can stand in for the
// whole adapter surface a reconciliation pass exercises.
func fakeBinDispatch(t *testing.T, script string) string {
	t.Helper()
	path := t.TempDir() + "/fake"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestApplyOverlayFreshDeploymentForcesZeroReplicas(t *testing.T) {
	kustomizeBin := fakeBinDispatch(t, fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\n", overlayYAML))
	kubectlBin := fakeBinDispatch(t, `#!/bin/sh
case "$1" in
  create) echo "namespace/app created" ;;
  get) echo 'Error: NotFound' >&2; exit 1 ;;
  apply) echo "deployment.apps/web created" ;;
esac
`)

	store, err := cache.OpenAt(t.TempDir())
	require.NoError(t, err)

	rc := New(kube.NewKubectlWithBin(kubectlBin), kube.NewKustomizeWithBin(kustomizeBin), store, zap.NewNop())
	result, err := rc.ApplyOverlay("/any/overlay")
	require.NoError(t, err)

	require.Len(t, result.Resources, 1)
	replicas, ok := result.Resources[0].DocReplicas()
	require.True(t, ok)
	assert.Equal(t, 0, replicas)
	assert.Equal(t, 1, result.Changed)
}

func TestApplyOverlayPreservesExistingReplicas(t *testing.T) {
	kustomizeBin := fakeBinDispatch(t, fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\n", overlayYAML))
	kubectlBin := fakeBinDispatch(t, `#!/bin/sh
case "$1" in
  create) echo "namespace/app created" ;;
  get) echo '{"metadata":{"name":"web","namespace":"app"},"spec":{"replicas":2}}' ;;
  apply) echo "deployment.apps/web configured" ;;
esac
`)

	store, err := cache.OpenAt(t.TempDir())
	require.NoError(t, err)

	rc := New(kube.NewKubectlWithBin(kubectlBin), kube.NewKustomizeWithBin(kustomizeBin), store, zap.NewNop())
	result, err := rc.ApplyOverlay("/any/overlay")
	require.NoError(t, err)

	replicas, ok := result.Resources[0].DocReplicas()
	require.True(t, ok)
	assert.Equal(t, 2, replicas)
}
