package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/workflow"
)

func newCatalogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the active status catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := domain.MarshalCatalog(app.Engine.Catalog())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Migrate == nil {
				return errors.New("migrate needs POSTGRES_DSN")
			}
			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show a project's status, or move it with --to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if to != "" {
				change, err := app.Engine.ChangeStatus(cmd.Context(), args[0], domain.StatusID(to))
				if err != nil {
					return err
				}
				printChange(cmd, change)
				return nil
			}

			view, err := app.Engine.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "project:   %s\n", view.ProjectID)
			fmt.Fprintf(out, "status:    %s (%d/%d)\n", view.Label, view.Order, view.TotalStatuses)
			if view.ShowProgress {
				fmt.Fprintf(out, "documents: %d/%d\n", view.CompletedDocuments, view.TotalDocuments)
			}
			if view.NextDocument != nil {
				fmt.Fprintf(out, "next:      %s\n", view.NextDocument.Label)
			}
			if view.IsTerminal {
				fmt.Fprintln(out, "terminal:  yes")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Move to this status (lifecycle model)")
	return cmd
}

func newUploadCmd(app *App) *cobra.Command {
	var documentType string
	var uploadID string

	cmd := &cobra.Command{
		Use:   "upload <project-id> <file>",
		Short: "Upload a document and advance the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			res, err := app.Engine.RecordUploadAndAdvance(cmd.Context(), args[0], workflow.Upload{
				ID:           uploadID,
				FileName:     filepath.Base(args[1]),
				DocumentType: domain.DocumentType(documentType),
				Content:      content,
			})
			if res.Document.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s as %s (upload %s)\n", res.Document.FileName, res.Document.DocumentType, res.Document.ID)
			}
			if err != nil {
				if domain.Retryable(err) && res.Document.ID != "" {
					return fmt.Errorf("%w; rerun with --upload-id %s or run reconcile", err, res.Document.ID)
				}
				return err
			}
			printChange(cmd, res.StatusChange)
			return nil
		},
	}

	cmd.Flags().StringVar(&documentType, "type", "", "Document type (required)")
	cmd.Flags().StringVar(&uploadID, "upload-id", "", "Reuse an upload id to retry an earlier attempt")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newReconcileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <project-id>",
		Short: "Advance a project to the status its stored documents unlock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := app.Engine.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printChange(cmd, change)
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <project-id>",
		Short: "List a project's status transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Engine.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tFROM\tTO\tTRIGGER\tDOCUMENT")
			for _, t := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.CreatedAt.Format(time.RFC3339), t.From, t.To, t.Trigger, t.DocumentType)
			}
			return tw.Flush()
		},
	}
}

func printChange(cmd *cobra.Command, change workflow.StatusChange) {
	if change.Advanced {
		fmt.Fprintf(cmd.OutOrStdout(), "status: %s -> %s\n", change.PreviousStatusID, change.StatusID)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status: %s (unchanged)\n", change.StatusID)
}
