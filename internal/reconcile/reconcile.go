// Package reconcile drives the core apply pipeline: kustomize build ->
// document stream -> namespace ensure -> per-resource apply, preserving
// existing replica counts for scalable kinds and defaulting new scalable
// resources to zero replicas.
//
// Grounded on the Python predecessor's devexy/commands/minikube/inspect.py
// (apply_cluster_config/ensure_namespaces/_iter_resources) and
// devexy/commands/workon.py's near-identical apply_cluster_config.
package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/manifest"
	"github.com/sycdan/devexy/internal/resource"
)

// Result tallies the outcome of one reconciliation pass.
type Result struct {
	Resources []*resource.Resource
	Unchanged int
	Changed   int
	Skipped   int
}

// Summary renders the one-line tally devexy's CLI prints after a pass.
func (r Result) Summary() string {
	return fmt.Sprintf("%d unchanged, %d applied, %d skipped", r.Unchanged, r.Changed, r.Skipped)
}

// Reconciler owns the kustomize build -> apply pipeline.
type Reconciler struct {
	kubectl   *kube.Kubectl
	kustomize *kube.Kustomize
	store     *cache.Store
	logger    *zap.Logger
}

// New returns a Reconciler wired to the given adapters and cache store.
func New(kubectl *kube.Kubectl, kustomize *kube.Kustomize, store *cache.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{kubectl: kubectl, kustomize: kustomize, store: store, logger: logger.Named("reconcile")}
}

// ApplyOverlay builds overlayDir with kustomize, decodes the resulting YAML
// stream into Resources, ensures every referenced namespace exists, then
// applies each resource — forcing new scalable workloads to zero replicas
// and preserving the cluster's current replica count for existing ones.
func (rc *Reconciler) ApplyOverlay(overlayDir string) (Result, error) {
	yamlOutput, err := rc.kustomize.Build(overlayDir)
	if err != nil {
		return Result{}, fmt.Errorf("loading cluster configuration: %w", err)
	}

	docs, skipped, err := manifest.DecodeStream(yamlOutput)
	if err != nil {
		return Result{}, fmt.Errorf("parsing kustomize output: %w", err)
	}
	if skipped > 0 {
		rc.logger.Warn("skipped non-mapping documents in kustomize output", zap.Int("count", skipped))
	}

	resources := make([]*resource.Resource, 0, len(docs))
	for _, doc := range docs {
		resources = append(resources, resource.New(doc, rc.kubectl, rc.store, rc.logger))
	}

	rc.ensureNamespaces(resources)

	result := Result{Resources: resources}
	for _, res := range resources {
		if res.IsScalable() {
			rc.setInitialReplicas(res)
		}

		switch res.Apply() {
		case resource.Changed:
			result.Changed++
		case resource.Unchanged:
			result.Unchanged++
		case resource.Failed:
			result.Skipped++
		}
	}

	return result, nil
}

// ensureNamespaces creates every distinct namespace referenced by
// resources, tolerating ones that already exist.
func (rc *Reconciler) ensureNamespaces(resources []*resource.Resource) {
	seen := map[string]bool{}
	for _, res := range resources {
		ns := res.Namespace()
		if ns == "" || seen[ns] {
			continue
		}
		seen[ns] = true
		if _, err := rc.kubectl.CreateNamespaceIfNotExists(ns); err != nil {
			rc.logger.Warn("failed to ensure namespace", zap.String("namespace", ns), zap.Error(err))
		}
	}
}

// setInitialReplicas forces a new scalable resource's replica count to zero
// and preserves an existing one's current count.
func (rc *Reconciler) setInitialReplicas(res *resource.Resource) {
	current, err := rc.kubectl.GetCurrentState(res.Kind(), res.Name(), res.Namespace())
	if err != nil {
		rc.logger.Warn("failed to query existing state for replica preservation",
			zap.String("key", res.Key()), zap.Error(err))
		return
	}
	if current == nil {
		res.SetReplicas(0)
		return
	}
	replicas, ok := manifest.Replicas(manifest.Doc(current))
	if !ok {
		res.SetReplicas(0)
		return
	}
	res.SetReplicas(replicas)
}
