// Package cli assembles devexy's cobra command tree: version, mk
// (start/stop/inspect), workon, and logs.
//
// Grounded on kcli's internal/cli/root.go for the cobra wiring shape
// (SilenceUsage/SilenceErrors, a shared *app carrying config across
// subcommands) and on the Python predecessor's devexy/main.py (its
// settings.NOISY switch, here config.Config.Noisy, read from DEVEXY_NOISY)
// and devexy/utils/cli.py (begin/ok/fail/say).
package cli

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/sycdan/devexy/internal/cleanup"
	"github.com/sycdan/devexy/internal/config"
	"github.com/sycdan/devexy/internal/logging"
	"github.com/sycdan/devexy/internal/version"
)

// app carries the resolved configuration and root logger to every
// subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds devexy's root cobra command.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	logging.Configure(cfg.Noisy)

	a := &app{
		cfg:    cfg,
		logger: logging.Get("cli"),
	}

	root := &cobra.Command{
		Use:           "devexy",
		Short:         "Reconcile kustomize-built manifests with a local minikube cluster",
		Long:          "devexy builds a kustomize overlay, applies it to a minikube cluster, and provides an interactive table for scaling workloads and routing traffic between the laptop and the cluster.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cleanup.InstallSignalHandler()
		},
	}

	root.AddCommand(
		newVersionCmd(),
		newMkCmd(a),
		newWorkonCmd(a),
		newLogsCmd(a),
	)

	return root
}
