package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/reconcile"
	"github.com/sycdan/devexy/internal/resource"
	"github.com/sycdan/devexy/internal/routing"
	"github.com/sycdan/devexy/internal/tui"
)

func newMkInspectCmd(a *app) *cobra.Command {
	var kustomizeRoot string
	var overlay string
	var rebuild bool

	cmd := &cobra.Command{
		Use:     "inspect",
		Aliases: []string{"i"},
		Short:   "Inspect the cluster and toggle services interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			mk := kube.NewMinikube()
			if !mk.IsInstalled() {
				return fail("minikube is not installed")
			}
			kustomize := kube.NewKustomize()
			if !kustomize.IsInstalled() {
				return fail("kustomize is not installed")
			}

			rootPath, err := filepath.Abs(kustomizeRoot)
			if err != nil {
				return fail(err.Error())
			}
			if info, statErr := os.Stat(rootPath); statErr != nil || !info.IsDir() {
				return fail("invalid kustomize root directory: " + kustomizeRoot)
			}

			overlayDir := filepath.Join(rootPath, "overlays", overlay)
			if info, statErr := os.Stat(overlayDir); statErr != nil || !info.IsDir() {
				return fail("invalid overlay directory: " + overlayDir)
			}
			if a.cfg.Noisy {
				say(out, "using overlay "+overlayDir)
			}

			if rebuild {
				begin(out, "deleting cluster")
				if mk.Delete() {
					ok(out, "")
				} else {
					return fail("")
				}
			}

			if !mk.IsInitialized() {
				begin(out, "creating cluster")
				if mk.Start() {
					ok(out, "")
				} else {
					return fail("")
				}
			}

			store, err := cache.Open(rootPath)
			if err != nil {
				return fail("failed to open state cache: " + err.Error())
			}

			kubectl := kube.NewKubectl()
			rc := reconcile.New(kubectl, kustomize, store, a.logger)

			begin(out, "applying configuration")
			result, err := rc.ApplyOverlay(overlayDir)
			if err != nil {
				return fail(err.Error())
			}
			if result.Skipped > 0 {
				return fail(result.Summary() + " (encountered errors during apply)")
			}
			ok(out, result.Summary())

			scalable := make([]*resource.Resource, 0, len(result.Resources))
			for _, res := range result.Resources {
				if res.IsScalable() {
					scalable = append(scalable, res)
				}
			}
			if len(scalable) == 0 {
				say(out, "no scalable resources found.")
				return nil
			}

			return runInteractiveTable(scalable, a)
		},
	}

	cmd.Flags().StringVar(&kustomizeRoot, "kustomize-root", a.cfg.KustomizeRoot, "path to the kustomize root directory (above overlays)")
	cmd.Flags().StringVar(&overlay, "overlay", a.cfg.KustomizeOverlay, "name of the kustomize overlay to use")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "destroy and restart the cluster before using it")
	return cmd
}

// runInteractiveTable enables status polling and forwarding for every
// resource, runs the bubbletea program, and stops every poller and any live
// port forward on exit — regardless of how the program quits.
func runInteractiveTable(resources []*resource.Resource, a *app) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisor := routing.New(a.logger)
	for _, res := range resources {
		supervisor.EnableServices(ctx, res)
	}
	defer func() {
		for _, res := range resources {
			res.StopStatusPoller()
			res.StopPortForward()
		}
	}()

	model := tui.New(ctx, resources, supervisor)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}
