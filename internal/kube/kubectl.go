package kube

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sycdan/devexy/internal/procexec"
)

// DefaultNamespace matches Kubernetes' own default namespace. The adapter
// methods always take an explicit namespace; this constant is not used by
// them.
const DefaultNamespace = "default"

// Kubectl adapts the kubectl binary.
type Kubectl struct {
	Tool
}

// NewKubectl returns a Kubectl adapter using the "kubectl" binary on PATH.
func NewKubectl() *Kubectl {
	return &Kubectl{Tool{Bin: "kubectl"}}
}

// NewKubectlWithBin returns a Kubectl adapter using an explicit binary
// path, letting tests and alternate kubectl-compatible tools (e.g. a
// kubeconfig-scoped wrapper script) stand in for "kubectl" on PATH.
func NewKubectlWithBin(bin string) *Kubectl {
	return &Kubectl{Tool{Bin: bin}}
}

// Apply runs `kubectl apply -f -` with yamlContent on stdin. It reports
// whether the applied content actually changed cluster state, reading
// kubectl's own stdout convention: a response ending in "unchanged" means
// nothing was modified.
func (k *Kubectl) Apply(yamlContent string) (changed bool, err error) {
	out, err := k.Exec(yamlContent, "apply", "-f", "-")
	if err != nil {
		return false, err
	}
	if strings.HasSuffix(strings.TrimSpace(out), "unchanged") {
		return false, nil
	}
	return true, nil
}

// CreateNamespaceIfNotExists creates namespace, returning false (not an
// error) if it already exists.
func (k *Kubectl) CreateNamespaceIfNotExists(namespace string) (created bool, err error) {
	_, err = k.Exec("", "create", "namespace", namespace)
	if err == nil {
		return true, nil
	}
	if stderrContains(err, "AlreadyExists") {
		return false, nil
	}
	return false, fmt.Errorf("creating namespace %s: %w", namespace, err)
}

// ResourceExists checks for kind/name in namespace via a lightweight
// `-o name` lookup.
func (k *Kubectl) ResourceExists(kind, name, namespace string) (bool, error) {
	args := []string{"get", strings.ToLower(kind), name, "-o", "name"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	_, err := k.Exec("", args...)
	if err == nil {
		return true, nil
	}
	if stderrContains(err, "NotFound") {
		return false, nil
	}
	return false, fmt.Errorf("checking resource %s/%s/%s: %w", namespace, kind, name, err)
}

// GetCurrentState fetches a single resource's live manifest as a generic
// map, or nil if it does not exist.
func (k *Kubectl) GetCurrentState(kind, name, namespace string) (map[string]any, error) {
	out, err := k.Exec("", "get", kind, name, "-n", namespace, "-o", "json")
	if err != nil {
		if stderrContains(err, "NotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("getting current state for %s/%s in %s: %w", kind, name, namespace, err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("decoding current state for %s/%s: %w", kind, name, err)
	}
	return doc, nil
}

// GetLastAppliedDoc fetches a resource's live state and extracts the
// kubectl.kubernetes.io/last-applied-configuration annotation, decoded back
// into a map. Returns nil if the resource or the annotation is absent.
func (k *Kubectl) GetLastAppliedDoc(kind, name, namespace string) (map[string]any, error) {
	doc, err := k.GetCurrentState(kind, name, namespace)
	if err != nil || doc == nil {
		return nil, err
	}
	return lastAppliedConfiguration(doc), nil
}

// PortForward starts `kubectl port-forward <kind>/<name> <local>:<target>
// -n <namespace>` in the background.
func (k *Kubectl) PortForward(kind, name, namespace string, localPort, targetPort int) (*procexec.Handle, error) {
	resourceKey := fmt.Sprintf("%s/%s", strings.ToLower(kind), name)
	portMapping := fmt.Sprintf("%d:%d", localPort, targetPort)
	return k.Start("port-forward", resourceKey, portMapping, "-n", namespace)
}

// GetResourceDocs lists every resource of kind in namespace.
func (k *Kubectl) GetResourceDocs(kind, namespace string) ([]map[string]any, error) {
	out, err := k.Exec("", "get", kind, "-n", namespace, "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("fetching resources of kind %s: %w", kind, err)
	}
	var list struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("decoding resources of kind %s: %w", kind, err)
	}
	return list.Items, nil
}

// GetNamespaces lists every namespace name in the cluster.
func (k *Kubectl) GetNamespaces() ([]string, error) {
	out, err := k.Exec("", "get", "namespaces", "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("fetching namespaces: %w", err)
	}
	var list struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("decoding namespaces: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		if meta, ok := item["metadata"].(map[string]any); ok {
			if name, ok := meta["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// lastAppliedConfiguration extracts and decodes the
// kubectl.kubernetes.io/last-applied-configuration annotation from a live
// resource document, mirroring devexy/k8s/utils.py's
// get_last_applied_configuration.
func lastAppliedConfiguration(doc map[string]any) map[string]any {
	meta, ok := doc["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	annotations, ok := meta["annotations"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := annotations["kubectl.kubernetes.io/last-applied-configuration"].(string)
	if !ok || raw == "" {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return parsed
}
