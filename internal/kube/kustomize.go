package kube

// Kustomize adapts the kustomize binary.
type Kustomize struct {
	Tool
}

// NewKustomize returns a Kustomize adapter using the "kustomize" binary on
// PATH.
func NewKustomize() *Kustomize {
	return &Kustomize{Tool{Bin: "kustomize"}}
}

// NewKustomizeWithBin returns a Kustomize adapter using an explicit binary
// path, for tests and alternate kustomize-compatible binaries.
func NewKustomizeWithBin(bin string) *Kustomize {
	return &Kustomize{Tool{Bin: bin}}
}

// IsInstalled reports whether kustomize is reachable on PATH.
func (k *Kustomize) IsInstalled() bool {
	_, err := k.Exec("", "version")
	return err == nil
}

// Build runs `kustomize build <path>` and returns the rendered YAML stream.
func (k *Kustomize) Build(path string) (string, error) {
	return k.Exec("", "build", path)
}
