package cli

import (
	"github.com/spf13/cobra"

	"github.com/sycdan/devexy/internal/kube"
)

func newMkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mk",
		Short: "Manage the local minikube cluster",
	}
	cmd.AddCommand(
		newMkStartCmd(a),
		newMkStopCmd(a),
		newMkInspectCmd(a),
	)
	return cmd
}

func newMkStartCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the minikube cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			mk := kube.NewMinikube()

			if !mk.IsInstalled() {
				return fail("minikube is not installed")
			}

			if force {
				begin(out, "deleting cluster")
				if mk.Delete() {
					ok(out, "")
				} else {
					return fail("")
				}
			}

			if mk.IsInitialized() {
				ok(out, "cluster already started")
				return nil
			}

			begin(out, "starting cluster")
			if mk.Start() {
				ok(out, "")
				return nil
			}
			return fail("")
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete the cluster before starting it")
	return cmd
}

func newMkStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			mk := kube.NewMinikube()
			if !mk.IsInstalled() {
				return nil
			}
			begin(out, "stopping cluster")
			mk.Stop()
			ok(out, "")
			return nil
		},
	}
}
