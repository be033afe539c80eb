// Package manifest is the Manifest Codec: it parses a multi-document YAML
// stream into manifest documents, serialises a document back to canonical
// YAML for stable hashing, and exposes typed accessors over the generic
// document shape Kubernetes manifests share.
//
// Grounded on the Python predecessor's devexy/k8s/utils.py and
// devexy/utils/k8s.py (get_kind/get_spec/get_first_container/get_replicas/
// get_local_port/dict_to_yaml/yaml_to_dicts), reworked so encode() produces
// a deterministic key-sorted byte stream via gopkg.in/yaml.v3's Node tree
// instead of relying on a library flag.
package manifest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultNamespace is used for documents that omit metadata.namespace,
// matching kubectl's own implicit namespace.
const DefaultNamespace = "default"

// DefaultKind is used when a document omits kind.
const DefaultKind = "Resource"

// LocalPortAnnotation names the annotation devexy reads to learn which
// localhost port a workload should be routed through.
const LocalPortAnnotation = "devexy/local-port"

// LastAppliedAnnotation is the standard kubectl annotation workon reads to
// reconstruct a resource's intended spec.
const LastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"

// ReverseProxyContainerName is the container name devexy installs when a
// resource is switched to reverse routing mode.
const ReverseProxyContainerName = "devexy-reverse-proxy"

// Doc is a manifest document: an unordered mapping of string keys to
// arbitrary values, exactly as YAML/JSON decodes it.
type Doc map[string]any

// ParseError wraps a YAML decode failure from DecodeStream.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing manifest stream: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// DecodeStream parses a multi-document YAML stream, yielding only
// mapping-typed documents. Non-mapping, non-null documents are skipped (the
// caller may log via the returned skipped count); null documents (blank
// `---` separated sections) are silently dropped.
func DecodeStream(content string) (docs []Doc, skipped int, err error) {
	dec := yaml.NewDecoder(strings.NewReader(content))
	for {
		var node yaml.Node
		decErr := dec.Decode(&node)
		if decErr != nil {
			if decErr.Error() == "EOF" {
				break
			}
			return nil, skipped, &ParseError{Err: decErr}
		}
		if node.Kind == 0 {
			continue
		}
		var raw any
		if err := node.Decode(&raw); err != nil {
			return nil, skipped, &ParseError{Err: err}
		}
		if raw == nil {
			continue
		}
		m, ok := asStringKeyedMap(raw)
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, Doc(m))
	}
	return docs, skipped, nil
}

// asStringKeyedMap normalizes yaml.v3's map[string]any decode (keys are
// already strings for mapping nodes) into a Doc, rejecting non-mapping
// top-level documents (e.g. a bare scalar or sequence).
func asStringKeyedMap(raw any) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	return m, ok
}

// Encode renders doc as canonical YAML: keys sorted recursively, block
// style, no tags. Two documents with identical logical content always
// produce identical bytes.
func Encode(doc Doc) (string, error) {
	node := toSortedNode(map[string]any(doc))
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// toSortedNode converts a decoded value into a yaml.Node tree with every
// mapping's keys sorted, since yaml.v3 otherwise preserves Go map
// iteration order (undefined) rather than sorting automatically.
func toSortedNode(v any) *yaml.Node {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			node.Content = append(node.Content, keyNode, toSortedNode(val[k]))
		}
		return node
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			node.Content = append(node.Content, toSortedNode(item))
		}
		return node
	default:
		var node yaml.Node
		_ = node.Encode(val)
		return &node
	}
}

// QuickHash is the fast content fingerprint (SHA-1 hex), used as the
// apply-identity hash and the cache filename stem.
func QuickHash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SecureHash is the stable path identifier (SHA-256 hex), used to derive
// the per-overlay cache directory from an absolute kustomize root.
func SecureHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashCanonical returns QuickHash(Encode(doc)), used as apply-identity.
func HashCanonical(doc Doc) (string, error) {
	encoded, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return QuickHash(encoded), nil
}

// Kind returns the document's kind, defaulting to DefaultKind when absent.
func Kind(doc Doc) string {
	if v, ok := doc["kind"].(string); ok && v != "" {
		return v
	}
	return DefaultKind
}

// Metadata returns the document's metadata mapping, or an empty one.
func Metadata(doc Doc) map[string]any {
	if m, ok := doc["metadata"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Name returns the document's name, defaulting to a stable hash of its
// canonical YAML when metadata.name is absent (so every document, even one
// missing a name, is still uniquely keyable).
func Name(doc Doc) string {
	if v, ok := Metadata(doc)["name"].(string); ok && v != "" {
		return v
	}
	if hash, err := HashCanonical(doc); err == nil {
		return hash
	}
	return ""
}

// Namespace returns the document's namespace, defaulting to DefaultNamespace.
func Namespace(doc Doc) string {
	if v, ok := Metadata(doc)["namespace"].(string); ok && v != "" {
		return v
	}
	return DefaultNamespace
}

// Annotations returns the document's annotation map as string→string,
// coercing non-string values to their string form.
func Annotations(doc Doc) map[string]string {
	out := map[string]string{}
	raw, ok := Metadata(doc)["annotations"].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// Key returns the resource identity key: lower(namespace/kind/name).
func Key(doc Doc) string {
	return strings.ToLower(fmt.Sprintf("%s/%s/%s", Namespace(doc), Kind(doc), Name(doc)))
}

// Spec returns the document's spec mapping, or an empty one.
func Spec(doc Doc) map[string]any {
	if m, ok := doc["spec"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// scalableKinds is the closed set of kinds that participate in replica
// preservation, status polling, and routing.
var scalableKinds = map[string]bool{
	"deployment":  true,
	"replicaset":  true,
	"statefulset": true,
}

// IsScalable reports whether kind belongs to the closed scalable-kinds set.
func IsScalable(kind string) bool {
	return scalableKinds[strings.ToLower(kind)]
}

// Replicas returns spec.replicas, or ok=false when absent or non-numeric.
func Replicas(doc Doc) (int, bool) {
	return intField(Spec(doc), "replicas")
}

// FirstContainer returns the document's first container: spec.containers[0]
// for pods, spec.template.spec.containers[0] for scalable workloads.
// Returns nil if there is no such container.
func FirstContainer(doc Doc) map[string]any {
	var containers []any
	if strings.EqualFold(Kind(doc), "pod") {
		containers = sliceField(Spec(doc), "containers")
	} else {
		template, _ := Spec(doc)["template"].(map[string]any)
		if template != nil {
			containers = sliceField(mapField(template, "spec"), "containers")
		}
	}
	if len(containers) == 0 {
		return nil
	}
	c, _ := containers[0].(map[string]any)
	return c
}

// LocalPort parses the devexy/local-port annotation as an integer. A
// missing annotation or a malformed value both report ok=false; the caller
// is expected to log a warning in the malformed case.
func LocalPort(doc Doc) (int, bool) {
	raw, ok := Annotations(doc)[LocalPortAnnotation]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// InferTargetPort infers the container port a workload listens on: for
// pod/scalable kinds, the first container's first containerPort; for
// service, the first port's `port`; otherwise none. Traversal errors are
// swallowed to (0, false) — the caller logs a warning.
func InferTargetPort(doc Doc) (int, bool) {
	kind := strings.ToLower(Kind(doc))
	switch {
	case kind == "pod" || IsScalable(kind):
		c := FirstContainer(doc)
		if c == nil {
			return 0, false
		}
		ports := sliceField(c, "ports")
		if len(ports) == 0 {
			return 0, false
		}
		return intField(asMap(ports[0]), "containerPort")
	case kind == "service":
		ports := sliceField(Spec(doc), "ports")
		if len(ports) == 0 {
			return 0, false
		}
		return intField(asMap(ports[0]), "port")
	default:
		return 0, false
	}
}

// IsProxyInstalled reports whether the workload's first container is the
// devexy reverse-proxy stand-in.
func IsProxyInstalled(doc Doc) bool {
	c := FirstContainer(doc)
	if c == nil {
		return false
	}
	name, _ := c["name"].(string)
	return name == ReverseProxyContainerName
}

// LastAppliedConfiguration extracts and decodes the standard kubectl
// last-applied-configuration annotation back into a Doc, or nil if absent
// or malformed.
func LastAppliedConfiguration(doc Doc) Doc {
	raw, ok := Annotations(doc)[LastAppliedAnnotation]
	if !ok || raw == "" {
		return nil
	}
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return Doc(parsed)
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func sliceField(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// intField extracts an integer-valued field, accepting both int and float64
// (YAML/JSON numeric decode can produce either depending on the path).
func intField(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
