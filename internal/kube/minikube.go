package kube

// Minikube adapts the minikube binary.
type Minikube struct {
	Tool
}

// NewMinikube returns a Minikube adapter using the "minikube" binary on
// PATH.
func NewMinikube() *Minikube {
	return &Minikube{Tool{Bin: "minikube"}}
}

// NewMinikubeWithBin returns a Minikube adapter using an explicit binary
// path, for tests and alternate minikube-compatible binaries.
func NewMinikubeWithBin(bin string) *Minikube {
	return &Minikube{Tool{Bin: bin}}
}

// IsInstalled reports whether minikube is reachable on PATH.
func (m *Minikube) IsInstalled() bool {
	_, err := m.Exec("", "version")
	return err == nil
}

// IsInitialized reports whether a minikube cluster exists and is reachable
// (`minikube status` exits zero).
func (m *Minikube) IsInitialized() bool {
	_, err := m.Exec("", "status")
	return err == nil
}

// Delete tears down the minikube cluster. Errors are swallowed to a bool,
// matching the predecessor's best-effort Minikube.delete().
func (m *Minikube) Delete() bool {
	_, err := m.Exec("", "delete")
	return err == nil
}

// Start brings the minikube cluster up. Errors are swallowed to a bool,
// matching the predecessor's best-effort Minikube.start().
func (m *Minikube) Start() bool {
	_, err := m.Exec("", "start")
	return err == nil
}

// Stop halts the minikube cluster without deleting it.
func (m *Minikube) Stop() bool {
	_, err := m.Exec("", "stop")
	return err == nil
}
