package resource

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/manifest"
)

func fakeKubectl(t *testing.T, script string) *kube.Kubectl {
	t.Helper()
	path := t.TempDir() + "/fake-kubectl"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return kube.NewKubectlWithBin(path)
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.OpenAt(t.TempDir())
	require.NoError(t, err)
	return store
}

func deploymentDoc() manifest.Doc {
	docs, _, err := manifest.DecodeStream(`
kind: Deployment
metadata:
  name: web
  namespace: app
  annotations:
    devexy/local-port: "8080"
spec:
  replicas: 3
  template:
    spec:
      containers:
        - name: api
          ports:
            - containerPort: 80
`)
	if err != nil {
		panic(err)
	}
	return docs[0]
}

func TestApplySkipsSubprocessWhenHashUnchanged(t *testing.T) {
	k := fakeKubectl(t, "#!/bin/sh\necho 'deployment.apps/web created'\n")
	res := New(deploymentDoc(), k, testStore(t), zap.NewNop())

	assert.Equal(t, Changed, res.Apply())
	assert.Equal(t, Unchanged, res.Apply())
}

func TestApplyFailedOnToolError(t *testing.T) {
	k := fakeKubectl(t, "#!/bin/sh\necho 'boom' >&2\nexit 1\n")
	res := New(deploymentDoc(), k, testStore(t), zap.NewNop())
	assert.Equal(t, Failed, res.Apply())
}

func TestSetReplicasMutatesWorkingDoc(t *testing.T) {
	k := fakeKubectl(t, "#!/bin/sh\necho 'ok'\n")
	res := New(deploymentDoc(), k, testStore(t), zap.NewNop())
	res.SetReplicas(0)
	replicas, ok := res.DocReplicas()
	require.True(t, ok)
	assert.Equal(t, 0, replicas)
}

func TestToggleRoutingModeThenRestoreContainerRestoresOriginal(t *testing.T) {
	k := fakeKubectl(t, "#!/bin/sh\necho 'ok'\n")
	res := New(deploymentDoc(), k, testStore(t), zap.NewNop())

	require.NoError(t, res.ToggleRoutingMode())
	container := manifest.FirstContainer(res.Doc())
	assert.Equal(t, manifest.ReverseProxyContainerName, container["name"])
	containers := containersOf(t, res.Doc())
	assert.Len(t, containers, 1, "reverse mode must collapse to a single container")

	original := map[string]any{"name": "api", "ports": []any{map[string]any{"containerPort": 80}}}
	res.RestoreContainer(original)
	restored := manifest.FirstContainer(res.Doc())
	assert.Equal(t, "api", restored["name"])
}

func TestIsProxyingReflectsClusterObservedCacheRecord(t *testing.T) {
	store := testStore(t)
	k := fakeKubectl(t, "#!/bin/sh\necho 'ok'\n")
	res := New(deploymentDoc(), k, store, zap.NewNop())

	assert.False(t, res.IsProxying(), "never polled: reports false")

	require.NoError(t, res.ToggleRoutingMode())
	assert.False(t, res.IsProxying(), "working-doc mutation alone must not flip IsProxying")

	require.NoError(t, store.Save(res.Key(), &cache.Record{ProxyInstalled: true}))
	assert.True(t, res.IsProxying())
}

func containersOf(t *testing.T, doc manifest.Doc) []any {
	t.Helper()
	spec, _ := doc["spec"].(map[string]any)
	template, _ := spec["template"].(map[string]any)
	templateSpec, _ := template["spec"].(map[string]any)
	containers, _ := templateSpec["containers"].([]any)
	return containers
}

func TestIsScalable(t *testing.T) {
	k := fakeKubectl(t, "#!/bin/sh\necho 'ok'\n")
	res := New(deploymentDoc(), k, testStore(t), zap.NewNop())
	assert.True(t, res.IsScalable())
}
