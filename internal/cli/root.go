// Package cli implements trackerctl, an operator tool that drives the same
// engine as the HTTP API.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/workflow"
)

type Engine interface {
	Catalog() *domain.Catalog
	View(ctx context.Context, projectID string) (workflow.StatusView, error)
	RecordUploadAndAdvance(ctx context.Context, projectID string, up workflow.Upload) (workflow.UploadResult, error)
	ChangeStatus(ctx context.Context, projectID string, target domain.StatusID) (workflow.StatusChange, error)
	Reconcile(ctx context.Context, projectID string) (workflow.StatusChange, error)
	History(ctx context.Context, projectID string) ([]domain.Transition, error)
}

// App holds what the subcommands act on. Migrate is nil when no database
// is configured.
type App struct {
	Engine  Engine
	Migrate func(ctx context.Context) error
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Inspect and drive project document workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCatalogCmd(app),
		newMigrateCmd(app),
		newStatusCmd(app),
		newUploadCmd(app),
		newReconcileCmd(app),
		newHistoryCmd(app),
	)

	return root
}
