package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sycdan/devexy/internal/cache"
	"github.com/sycdan/devexy/internal/kube"
	"github.com/sycdan/devexy/internal/manifest"
	"github.com/sycdan/devexy/internal/reconcile"
	"github.com/sycdan/devexy/internal/resource"
)

// scalableKinds is the closed set workon queries the cluster for, mirroring
// manifest's own scalable-kinds set (kept separate here so the cluster
// query order matches the predecessor's SCALABLE_KINDS iteration).
var scalableKinds = []string{"deployment", "replicaset", "statefulset"}

func newWorkonCmd(a *app) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "workon",
		Short: "Forward ports between localhost and the cluster, or vice versa",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			kubectl := kube.NewKubectl()

			rootPath, err := filepath.Abs(a.cfg.KustomizeRoot)
			if err != nil {
				return fail(err.Error())
			}
			store, err := cache.Open(rootPath)
			if err != nil {
				return fail("failed to open state cache: " + err.Error())
			}

			if apply {
				begin(out, "clearing state cache")
				if err := store.ClearAll(); err != nil {
					a.logger.Warn("failed to clear state cache", zap.Error(err))
				}
				ok(out, "")

				kustomize := kube.NewKustomize()
				if !kustomize.IsInstalled() {
					return fail("kustomize is not installed")
				}
				rc := reconcile.New(kubectl, kustomize, store, a.logger)

				begin(out, "applying configuration")
				result, err := rc.ApplyOverlay(a.cfg.OverlayDir())
				if err != nil {
					return fail(err.Error())
				}
				if result.Skipped > 0 {
					return fail(result.Summary() + " (encountered errors during apply)")
				}
				ok(out, result.Summary())
			}

			namespaces, err := kubectl.GetNamespaces()
			if err != nil {
				return fail("failed to list namespaces: " + err.Error())
			}

			var found []*resource.Resource
			begin(out, "querying cluster for scalable resources")
			for _, namespace := range namespaces {
				for _, kind := range scalableKinds {
					docs, err := kubectl.GetResourceDocs(kind, namespace)
					if err != nil {
						return fail("failed while querying " + kind + " resources: " + err.Error())
					}
					for _, doc := range docs {
						lastApplied := manifest.LastAppliedConfiguration(manifest.Doc(doc))
						if lastApplied == nil {
							a.logger.Warn("resource has no last applied configuration",
								zap.String("key", manifest.Key(manifest.Doc(doc))))
							continue
						}
						found = append(found, resource.New(lastApplied, kubectl, store, a.logger))
					}
				}
			}
			if len(found) == 0 {
				return fail("no scalable resources found")
			}
			ok(out, fmt.Sprintf("%d scalable resources found", len(found)))

			return runInteractiveTable(found, a)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "apply the current YAML state to the cluster before connecting")
	return cmd
}
