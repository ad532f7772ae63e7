package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/dona/internal/cli"
	"github.com/aretw0/dona/internal/presentation/tui"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/spf13/cobra"
)

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		watchMode, _ := cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		app, cfg := openApp(sigCtx, cmd, nil)
		defer app.Close()

		renderer := newRenderer(cfg, plain || jsonMode)
		show := func() {
			if err := printList(sigCtx, app.Tasks(), renderer, jsonMode); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
		show()

		if !watchMode {
			return
		}
		dir := cli.WatchPath(cfg)
		if dir == "" {
			fmt.Printf("Error: --watch needs the file or loam backend, not %s\n", cfg.Backend)
			os.Exit(1)
		}
		cli.PrintSystemMessage(os.Stdout, "Watching '%s' for changes...", dir)
		exitOnError(cli.Watch(sigCtx, dir, app.Logger(), show))
	},
}

func printList(ctx context.Context, store *tasks.Store, renderer *tui.Renderer, jsonMode bool) error {
	list, err := store.List(ctx)
	if err != nil {
		return err
	}

	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	out, err := renderer.RenderList(list)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().Bool("json", false, "Print the tasks as JSON")
	lsCmd.Flags().Bool("plain", false, "Disable colors and styled markdown")
	lsCmd.Flags().BoolP("watch", "w", false, "Re-print the list whenever the stored files change")
}
