package main

import (
	"context"
	"fmt"

	"github.com/aretw0/dona/internal/cli"
	"github.com/spf13/cobra"
)

// doneCmd represents the done command
var doneCmd = &cobra.Command{
	Use:   "done N|ID",
	Short: "Mark a task done, or not done again",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app, _ := openApp(ctx, cmd, nil)
		defer app.Close()

		list, err := app.Tasks().List(ctx)
		exitOnError(err)
		task, err := cli.ResolveTask(list, args[0])
		exitOnError(err)

		toggled, err := app.Tasks().ToggleCompleted(ctx, task.ID)
		exitOnError(err)

		state := "open"
		if toggled.IsCompleted {
			state = "done"
		}
		fmt.Printf("%s %s\n", toggled.ID, state)
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
