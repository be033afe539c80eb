package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentYAML = `
apiVersion: apps/v1
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
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: web-config
---
just a string
---
`

func TestDecodeStreamSkipsNonMappingsAndNulls(t *testing.T) {
	docs, skipped, err := DecodeStream(deploymentYAML)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "Deployment", Kind(docs[0]))
	assert.Equal(t, "ConfigMap", Kind(docs[1]))
}

func TestDecodeStreamMalformedYAML(t *testing.T) {
	_, _, err := DecodeStream("kind: [unterminated")
	assert.Error(t, err)
}

func TestEncodeIsDeterministicAndSortsKeys(t *testing.T) {
	doc := Doc{"b": 1, "a": map[string]any{"z": 1, "y": 2}}
	out1, err := Encode(doc)
	require.NoError(t, err)
	out2, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
	assert.True(t, indexBefore(out1, "a:", "b:"))
	assert.True(t, indexBefore(out1, "y:", "z:"))
}

func TestHashCanonicalRoundTripsThroughDecodeEncode(t *testing.T) {
	docs, _, err := DecodeStream(deploymentYAML)
	require.NoError(t, err)
	h1, err := HashCanonical(docs[0])
	require.NoError(t, err)

	encoded, err := Encode(docs[0])
	require.NoError(t, err)
	reDecoded, _, err := DecodeStream(encoded)
	require.NoError(t, err)
	h2, err := HashCanonical(reDecoded[0])
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}

func TestAccessors(t *testing.T) {
	docs, _, err := DecodeStream(deploymentYAML)
	require.NoError(t, err)
	web := docs[0]

	assert.Equal(t, "web", Name(web))
	assert.Equal(t, "app", Namespace(web))
	assert.Equal(t, "app/deployment/web", Key(web))

	replicas, ok := Replicas(web)
	require.True(t, ok)
	assert.Equal(t, 3, replicas)

	container := FirstContainer(web)
	require.NotNil(t, container)
	assert.Equal(t, "api", container["name"])

	port, ok := InferTargetPort(web)
	require.True(t, ok)
	assert.Equal(t, 80, port)

	localPort, ok := LocalPort(web)
	require.True(t, ok)
	assert.Equal(t, 8080, localPort)
}

func TestNameFallsBackToStableHashWhenAbsent(t *testing.T) {
	doc := Doc{"kind": "ConfigMap"}
	name := Name(doc)
	assert.NotEmpty(t, name)
	assert.Equal(t, name, Name(doc))
}

func TestInferTargetPortTable(t *testing.T) {
	cases := []struct {
		name string
		doc  Doc
		want int
		ok   bool
	}{
		{
			name: "pod",
			doc: Doc{"kind": "Pod", "spec": map[string]any{
				"containers": []any{map[string]any{"ports": []any{map[string]any{"containerPort": 8080}}}},
			}},
			want: 8080, ok: true,
		},
		{
			name: "service",
			doc: Doc{"kind": "Service", "spec": map[string]any{
				"ports": []any{map[string]any{"port": 80, "targetPort": 9376}},
			}},
			want: 80, ok: true,
		},
		{
			name: "configmap has no port",
			doc:  Doc{"kind": "ConfigMap"},
			want: 0, ok: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := InferTargetPort(tc.doc)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsScalableClosedSet(t *testing.T) {
	assert.True(t, IsScalable("Deployment"))
	assert.True(t, IsScalable("replicaset"))
	assert.True(t, IsScalable("StatefulSet"))
	assert.False(t, IsScalable("Pod"))
	assert.False(t, IsScalable("Service"))
}

func TestIsProxyInstalled(t *testing.T) {
	doc := Doc{"kind": "Deployment", "spec": map[string]any{
		"template": map[string]any{
			"spec": map[string]any{
				"containers": []any{ReverseProxyContainer(80, 8080)},
			},
		},
	}}
	assert.True(t, IsProxyInstalled(doc))
}

func indexBefore(s, a, b string) bool {
	ia := indexOf(s, a)
	ib := indexOf(s, b)
	return ia >= 0 && ib >= 0 && ia < ib
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
