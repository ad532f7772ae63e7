package main

import (
	"context"
	"errors"

	"github.com/aretw0/dona/internal/cli"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/spf13/cobra"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:     "rm N|ID...",
	Aliases: []string{"delete"},
	Short:   "Delete tasks",
	Long:    `Deletes tasks by number (as numbered by 'dona ls') or ID. Unknown IDs are ignored.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app, _ := openApp(ctx, cmd, nil)
		defer app.Close()

		// Resolve every reference against one listing so numbers don't shift mid-way.
		list, err := app.Tasks().List(ctx)
		exitOnError(err)

		ids := make([]domain.TaskID, 0, len(args))
		for _, ref := range args {
			task, err := cli.ResolveTask(list, ref)
			if errors.Is(err, domain.ErrTaskNotFound) {
				// Deleting something already gone is not an error.
				ids = append(ids, domain.TaskID(ref))
				continue
			}
			exitOnError(err)
			ids = append(ids, task.ID)
		}

		for _, id := range ids {
			exitOnError(app.Tasks().Delete(ctx, id))
		}
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
