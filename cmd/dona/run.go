package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/dona/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive task screen",
	Long: `Shows the task list and reads commands line by line.
Type a task to add it; :help lists the other commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		app, cfg := openApp(sigCtx, cmd, nil)
		defer app.Close()

		renderer := newRenderer(cfg, plain)
		ctrl := app.Controller(renderer.Theme())
		screen := cli.NewScreen(ctrl, renderer, os.Stdout, cli.WithScreenLogger(app.Logger()))

		err := screen.Run(sigCtx, os.Stdin)
		if sigCtx.Signal() == os.Interrupt {
			fmt.Printf("[CTRL+C]\n")
		}
		if err := cli.HandleExecutionError(err); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("plain", false, "Disable colors and styled markdown")

	// 'run' is the default if no command is provided.
	rootCmd.Run = runCmd.Run
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
