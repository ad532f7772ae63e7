package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/dona/internal/export"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the task list",
	Long:  `Writes every task, newest first, as JSON, CSV, Markdown or a printable PDF.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		ctx := context.Background()
		app, _ := openApp(ctx, cmd, nil)
		defer app.Close()

		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			exitOnError(err)
			defer f.Close()
			w = f
		}

		exitOnError(export.NewExporter(app.Tasks()).Export(ctx, w, format))
		if output != "" && output != "-" {
			fmt.Fprintf(os.Stderr, "Exported tasks to %s\n", output)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "json", "Output format: "+strings.Join(export.Formats(), ", "))
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}
