package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		starred, _ := cmd.Flags().GetBool("star")

		ctx := context.Background()
		app, _ := openApp(ctx, cmd, nil)
		defer app.Close()

		task, err := app.Tasks().Create(ctx, strings.Join(args, " "), starred)
		exitOnError(err)
		fmt.Println(task.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().BoolP("star", "s", false, "Star the new task")
}
