// Package resource implements the Resource entity: it binds one manifest
// document to its cache record and its two optional background
// activities — a status poller and a port-forward child.
//
// Grounded on the Python predecessor's devexy/k8s/models/resource.py
// (apply/set_replicas/get_local_port/_infer_target_port/_monitor_state/
// start_port_forward/stop_port_forward), adapted from its implicit
// thread-per-instance-at-construction-time style to explicit Start/Stop
// methods the Routing Supervisor and the CLI call when they decide a
// background activity should run — idiomatic Go favors a constructor with
// no side effects over one that silently spawns goroutines.
package resource

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/cleanup"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/manifest"
	"github.com/sycdan/devexy/internal/procexec"
)

// ApplyOutcome classifies the result of Resource.Apply for tallying by the
// Reconciler.
type ApplyOutcome int

const (
	// Unchanged covers both "the hash already matches the last applied
	// hash, no subprocess call made" and "kubectl itself reported no
	// change".
	Unchanged ApplyOutcome = iota
	Changed
	Failed
)

func (o ApplyOutcome) String() string {
	switch o {
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// Resource is the central entity: a manifest document, its cache record,
// and its two optional background activities.
type Resource struct {
	key       string
	kind      string
	name      string
	namespace string

	kubectl *kube.Kubectl
	store   *cache.Store
	logger  *zap.Logger

	mu  sync.RWMutex
	doc manifest.Doc

	pollerMu     sync.Mutex
	pollerCancel context.CancelFunc

	pfMu   sync.Mutex
	pfHand *procexec.Handle
}

// New constructs a Resource from doc, loading its cache record (best-effort
// — a missing or corrupt record loads as empty, never an error).
func New(doc manifest.Doc, kubectl *kube.Kubectl, store *cache.Store, logger *zap.Logger) *Resource {
	key := manifest.Key(doc)
	return &Resource{
		key:       key,
		kind:      manifest.Kind(doc),
		name:      manifest.Name(doc),
		namespace: manifest.Namespace(doc),
		kubectl:   kubectl,
		store:     store,
		logger:    logger.Named("resource").With(zap.String("key", key)),
		doc:       doc,
	}
}

func (r *Resource) Key() string       { return r.key }
func (r *Resource) Kind() string      { return r.kind }
func (r *Resource) Name() string      { return r.name }
func (r *Resource) Namespace() string { return r.namespace }

// IsScalable reports whether this resource's kind belongs to the closed
// scalable-kinds set.
func (r *Resource) IsScalable() bool { return manifest.IsScalable(r.kind) }

// Doc returns the current working document. Callers must not mutate the
// returned map directly; use SetReplicas/ToggleRoutingMode.
func (r *Resource) Doc() manifest.Doc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc
}

// SetReplicas mutates the working document's spec.replicas.
func (r *Resource) SetReplicas(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.doc["spec"].(map[string]any)
	if !ok {
		spec = map[string]any{}
		r.doc["spec"] = spec
	}
	spec["replicas"] = n
}

// DocReplicas returns the working document's spec.replicas.
func (r *Resource) DocReplicas() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return manifest.Replicas(r.doc)
}

// LocalPort returns the localhost port this resource should be routed
// through, read from the devexy/local-port annotation.
func (r *Resource) LocalPort() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	port, ok := manifest.LocalPort(r.doc)
	if !ok {
		if _, present := manifest.Annotations(r.doc)[manifest.LocalPortAnnotation]; present {
			r.logger.Warn("malformed devexy/local-port annotation, treating as absent")
		}
	}
	return port, ok
}

// InferTargetPort infers the container port this resource's workload
// listens on.
func (r *Resource) InferTargetPort() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	port, ok := manifest.InferTargetPort(r.doc)
	if !ok {
		r.logger.Warn("could not infer target port")
	}
	return port, ok
}

// YAML renders the working document as canonical YAML.
func (r *Resource) YAML() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return manifest.Encode(r.doc)
}

// StateHash is the SHA-1 of the working document's canonical YAML.
func (r *Resource) StateHash() (string, error) {
	yamlContent, err := r.YAML()
	if err != nil {
		return "", err
	}
	return manifest.QuickHash(yamlContent), nil
}

// Apply applies the working document if its hash differs from the last
// successfully applied hash, skipping the kubectl subprocess entirely when
// it doesn't — this is the idempotence optimization Resource.Apply is
// specified to perform.
func (r *Resource) Apply() ApplyOutcome {
	currentHash, err := r.StateHash()
	if err != nil {
		r.logger.Error("failed to hash working document", zap.Error(err))
		return Failed
	}

	rec := r.store.Load(r.key)
	if rec.LastAppliedHash == currentHash {
		r.logger.Debug("no changes detected, skipping apply")
		return Unchanged
	}

	yamlContent, err := r.YAML()
	if err != nil {
		r.logger.Error("failed to encode working document", zap.Error(err))
		return Failed
	}

	changed, err := r.kubectl.Apply(yamlContent)
	if err != nil {
		r.logger.Error("apply failed", zap.Error(err))
		return Failed
	}

	rec.LastAppliedHash = currentHash
	if err := r.store.Save(r.key, rec); err != nil {
		r.logger.Warn("failed to persist cache record", zap.Error(err))
	}

	if changed {
		return Changed
	}
	return Unchanged
}

// IsProxying reports whether this resource's cluster-observed first
// container was the devexy reverse-proxy stand-in as of the last successful
// status poll, per the persisted proxy_installed cache field. A resource
// never yet polled reports false.
func (r *Resource) IsProxying() bool {
	return r.store.Load(r.key).ProxyInstalled
}

// IsForwarding reports whether this resource currently has a live
// kubectl port-forward child.
func (r *Resource) IsForwarding() bool {
	r.pfMu.Lock()
	defer r.pfMu.Unlock()
	return r.pfHand != nil && r.pfHand.IsAlive()
}

// ToggleRoutingMode replaces the working document's pod-template containers
// with the single devexy reverse-proxy container, leaving the replica count
// on the document untouched. It only switches into reverse mode: when the
// first container already is the proxy it returns an error and changes
// nothing (RestoreContainer undoes the switch). Also returns an error if
// there is no container or the local port cannot be determined (reverse
// mode needs it to build the proxy_pass target).
func (r *Resource) ToggleRoutingMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	spec, _ := r.doc["spec"].(map[string]any)
	template, _ := spec["template"].(map[string]any)
	templateSpec, _ := template["spec"].(map[string]any)
	containers, _ := templateSpec["containers"].([]any)

	if len(containers) == 0 {
		return errNoContainer
	}
	first, _ := containers[0].(map[string]any)

	if name, _ := first["name"].(string); name == manifest.ReverseProxyContainerName {
		// Currently proxying: restore is handled by the caller, which keeps
		// the original container snapshot (see routing.Supervisor).
		return errAlreadyProxying
	}

	localPort, ok := manifest.LocalPort(r.doc)
	if !ok {
		return errNoLocalPort
	}

	containerPort, ok := manifest.InferTargetPort(r.doc)
	if !ok {
		containerPort = manifest.DefaultReverseProxyContainerPort
	}

	templateSpec["containers"] = []any{manifest.ReverseProxyContainer(containerPort, localPort)}
	return nil
}

// RestoreContainer replaces the working document's first container with
// original, used to undo ToggleRoutingMode.
func (r *Resource) RestoreContainer(original map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, _ := r.doc["spec"].(map[string]any)
	template, _ := spec["template"].(map[string]any)
	templateSpec, _ := template["spec"].(map[string]any)
	containers, _ := templateSpec["containers"].([]any)
	if len(containers) == 0 {
		containers = []any{original}
	} else {
		containers[0] = original
	}
	templateSpec["containers"] = containers
}

// FirstContainerSnapshot returns a shallow copy of the working document's
// first container, for callers that need to remember it before toggling.
func (r *Resource) FirstContainerSnapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := manifest.FirstContainer(r.doc)
	if c == nil {
		return nil
	}
	snapshot := make(map[string]any, len(c))
	for k, v := range c {
		snapshot[k] = v
	}
	return snapshot
}

// StartStatusPoller launches a background goroutine that refreshes this
// resource's cached status from the cluster on a jittered [1s, 2s]
// interval, matching the predecessor's random.uniform(1, 2) cadence chosen
// to avoid thundering-herd polling of the API server. Stopped by
// StopStatusPoller or when ctx is cancelled.
func (r *Resource) StartStatusPoller(ctx context.Context) {
	r.pollerMu.Lock()
	defer r.pollerMu.Unlock()
	if r.pollerCancel != nil {
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	r.pollerCancel = cancel

	go func() {
		for {
			select {
			case <-pollCtx.Done():
				return
			default:
			}
			r.pollOnce()
			jitter := time.Duration(1000+rand.Intn(1000)) * time.Millisecond
			select {
			case <-pollCtx.Done():
				return
			case <-time.After(jitter):
			}
		}
	}()
}

// StopStatusPoller stops this resource's background status poller, if
// running.
func (r *Resource) StopStatusPoller() {
	r.pollerMu.Lock()
	defer r.pollerMu.Unlock()
	if r.pollerCancel != nil {
		r.pollerCancel()
		r.pollerCancel = nil
	}
}

func (r *Resource) pollOnce() {
	doc, err := r.kubectl.GetCurrentState(r.kind, r.name, r.namespace)
	rec := r.store.Load(r.key)
	if err != nil || doc == nil {
		r.logger.Warn("failed to poll status", zap.Error(err))
		return
	}
	status, _ := doc["status"].(map[string]any)
	rec.Status = status
	rec.ObservedAt = time.Now().UTC().Format(time.RFC3339)
	rec.ProxyInstalled = manifest.IsProxyInstalled(manifest.Doc(doc))
	if err := r.store.Save(r.key, rec); err != nil {
		r.logger.Warn("failed to persist polled status", zap.Error(err))
	}
}

// ObservedStatus returns the last polled .status subobject, or an empty map
// if this resource has never been successfully polled.
func (r *Resource) ObservedStatus() map[string]any {
	rec := r.store.Load(r.key)
	if rec.Status == nil {
		return map[string]any{}
	}
	return rec.Status
}

// StartPortForward starts a kubectl port-forward child for this resource's
// local/target port pair, registering its termination with the process-wide
// cleanup registry so it is never leaked on interrupt or normal exit.
// Returns false (not an error) when a local port or target port cannot be
// determined, or when a forward is already active.
func (r *Resource) StartPortForward() bool {
	r.pfMu.Lock()
	defer r.pfMu.Unlock()

	if r.pfHand != nil && r.pfHand.IsAlive() {
		r.logger.Warn("port forwarding already active")
		return false
	}

	localPort, ok := r.LocalPort()
	if !ok {
		r.logger.Warn("skipping port forward: no local port defined")
		return false
	}
	targetPort, ok := r.InferTargetPort()
	if !ok {
		r.logger.Warn("skipping port forward: no target port inferable")
		return false
	}

	handle, err := r.kubectl.PortForward(r.kind, r.name, r.namespace, localPort, targetPort)
	if err != nil {
		r.logger.Error("failed to start port forward", zap.Error(err))
		return false
	}
	r.pfHand = handle
	cleanup.Register(func() { handle.Terminate() })
	r.logger.Info("started port forwarding", zap.Int("local_port", localPort))
	return true
}

// StopPortForward stops this resource's active port-forward child, if any.
func (r *Resource) StopPortForward() bool {
	r.pfMu.Lock()
	defer r.pfMu.Unlock()
	if r.pfHand == nil || !r.pfHand.IsAlive() {
		return false
	}
	r.pfHand.Terminate()
	return true
}

var (
	errNoContainer     = sentinelError("resource has no first container")
	errAlreadyProxying = sentinelError("resource is already proxying")
	errNoLocalPort     = sentinelError("resource has no devexy/local-port annotation")
)

type sentinelError string

func (e sentinelError) Error() string { return string(e) }
