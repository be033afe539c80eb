// Package routing is the Routing Supervisor: it starts and stops port
// forwards and reverse-proxy injection per resource, and guarantees the
// two modes are mutually exclusive — a resource is either forwarding
// (cluster port -> localhost) or proxying (localhost -> cluster), never
// both.
//
// Grounded on kcli's internal/ui/portforward.go (PortForwardManager: a
// mutex-guarded entry list with Start/Stop/StopAll/Count) adapted from
// kubectl-specific port-forwarding to devexy's two-mode routing model, and
// on the Python predecessor's devexy/k8s/utils.py (get_reverse_proxy_
// container) for the proxy-toggle semantics.
package routing

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/resource"
)

// Supervisor tracks, per resource key, the original first-container
// snapshot captured before switching into reverse-proxy mode, so a second
// toggle can restore it exactly.
type Supervisor struct {
	logger *zap.Logger

	mu        sync.Mutex
	snapshots map[string]map[string]any
}

// New returns an empty Supervisor.
func New(logger *zap.Logger) *Supervisor {
	return &Supervisor{
		logger:    logger.Named("routing"),
		snapshots: map[string]map[string]any{},
	}
}

// StartForwarding starts a kubectl port-forward for res. Returns false
// (not an error) when the Supervisor has this resource in reverse-proxy
// mode — forwarding and proxying are mutually exclusive — or when
// StartPortForward itself declines (missing local/target port, already
// forwarding).
func (s *Supervisor) StartForwarding(res *resource.Resource) bool {
	if s.isProxyingUnderSupervision(res) {
		s.logger.Warn("refusing to start forwarding: resource is in reverse-proxy mode", zap.String("key", res.Key()))
		return false
	}
	return res.StartPortForward()
}

// StopForwarding stops res's active port-forward child, if any.
func (s *Supervisor) StopForwarding(res *resource.Resource) bool {
	return res.StopPortForward()
}

// EnableServices starts res's status poller and, unless res is already in
// reverse-proxy mode, its port-forward. Mirrors the predecessor's
// Resource.enable_services(), invoked once for every resource before the
// interactive table is shown and again whenever a resource is scaled up
// from zero via the table's "s" key.
func (s *Supervisor) EnableServices(ctx context.Context, res *resource.Resource) {
	res.StartStatusPoller(ctx)
	if !res.IsProxying() {
		s.StartForwarding(res)
	}
}

// ToggleRoutingMode switches res between forward mode (untouched container,
// routed via kubectl port-forward) and reverse mode (first container
// replaced by the devexy-reverse-proxy container, routed via an in-cluster
// proxy pointing back at host.minikube.internal:<local_port>). The two
// modes are mutually exclusive: entering reverse mode stops any active
// port-forward first; leaving it does not automatically resume one.
func (s *Supervisor) ToggleRoutingMode(res *resource.Resource) (proxying bool, err error) {
	if s.isProxyingUnderSupervision(res) {
		s.mu.Lock()
		original := s.snapshots[res.Key()]
		delete(s.snapshots, res.Key())
		s.mu.Unlock()

		if original == nil {
			original = map[string]any{}
		}
		res.RestoreContainer(original)
		return false, nil
	}

	snapshot := res.FirstContainerSnapshot()
	if res.IsForwarding() {
		res.StopPortForward()
	}

	if toggleErr := res.ToggleRoutingMode(); toggleErr != nil {
		return false, toggleErr
	}

	s.mu.Lock()
	s.snapshots[res.Key()] = snapshot
	s.mu.Unlock()
	return true, nil
}

// isProxyingUnderSupervision reports whether this Supervisor itself put res
// into reverse-proxy mode and hasn't restored it yet. Unlike
// Resource.IsProxying (which reflects the last cluster-observed poll and
// can lag by up to the poller's jittered interval), this is immediate and
// authoritative for the decisions the Supervisor makes within its own
// lifetime — repeated "m" presses must flip modes deterministically even
// before the next status poll lands.
func (s *Supervisor) isProxyingUnderSupervision(res *resource.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[res.Key()]
	return ok
}
