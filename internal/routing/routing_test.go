package routing

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/manifest"
	"github.com/sycdan/devexy/internal/resource"
)

func fakeKubectl(t *testing.T, script string) *kube.Kubectl {
	t.Helper()
	path := t.TempDir() + "/fake-kubectl"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return kube.NewKubectlWithBin(path)
}

func testResource(t *testing.T) *resource.Resource {
	t.Helper()
	res, _ := testResourceWithStore(t)
	return res
}

func testResourceWithStore(t *testing.T) (*resource.Resource, *cache.Store) {
	t.Helper()
	docs, _, err := manifest.DecodeStream(`
kind: Deployment
metadata:
  name: web
  namespace: app
  annotations:
    devexy/local-port: "8080"
spec:
  replicas: 1
  template:
    spec:
      containers:
        - name: api
          ports:
            - containerPort: 80
`)
	require.NoError(t, err)
	store, err := cache.OpenAt(t.TempDir())
	require.NoError(t, err)
	k := fakeKubectl(t, "#!/bin/sh\necho ok\n")
	return resource.New(docs[0], k, store, zap.NewNop()), store
}

func TestToggleRoutingModeRestoresOriginalContainerName(t *testing.T) {
	s := New(zap.NewNop())
	res := testResource(t)

	proxying, err := s.ToggleRoutingMode(res)
	require.NoError(t, err)
	assert.True(t, proxying)
	container := manifest.FirstContainer(res.Doc())
	assert.Equal(t, manifest.ReverseProxyContainerName, container["name"])

	proxying, err = s.ToggleRoutingMode(res)
	require.NoError(t, err)
	assert.False(t, proxying)

	container = manifest.FirstContainer(res.Doc())
	assert.Equal(t, "api", container["name"])
}

func TestStartForwardingRefusedWhenProxying(t *testing.T) {
	s := New(zap.NewNop())
	res := testResource(t)

	_, err := s.ToggleRoutingMode(res)
	require.NoError(t, err)

	assert.False(t, s.StartForwarding(res))
}

func TestEnableServicesStartsForwardingWhenNotProxying(t *testing.T) {
	s := New(zap.NewNop())
	res, _ := testResourceWithStore(t)

	s.EnableServices(context.Background(), res)

	assert.True(t, res.IsForwarding())
	res.StopStatusPoller()
	res.StopPortForward()
}

func TestEnableServicesSkipsForwardingWhenCacheSaysProxying(t *testing.T) {
	s := New(zap.NewNop())
	res, store := testResourceWithStore(t)
	require.NoError(t, store.Save(res.Key(), &cache.Record{ProxyInstalled: true}))

	s.EnableServices(context.Background(), res)

	assert.False(t, res.IsForwarding())
	res.StopStatusPoller()
}
