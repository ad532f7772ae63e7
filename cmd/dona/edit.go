package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/dona/internal/cli"
	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit N|ID [TEXT...]",
	Short: "Change the text or star of a task",
	Long: `Replaces the text of task N (as numbered by 'dona ls') or of the task with
the given ID. Without TEXT only the star flag changes. The creation time and the
completion flag are kept.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app, _ := openApp(ctx, cmd, nil)
		defer app.Close()

		list, err := app.Tasks().List(ctx)
		exitOnError(err)
		task, err := cli.ResolveTask(list, args[0])
		exitOnError(err)

		title := task.Title
		if len(args) > 1 {
			title = strings.Join(args[1:], " ")
		}
		starred := task.IsStarred
		if cmd.Flags().Changed("star") {
			starred, _ = cmd.Flags().GetBool("star")
		}

		updated, err := app.Tasks().Update(ctx, task.ID, title, starred)
		exitOnError(err)
		fmt.Println(updated.ID)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().Bool("star", false, "Set the star flag (--star=false removes it)")
}
