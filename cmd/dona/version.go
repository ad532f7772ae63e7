package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/dona"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dona",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dona version %s\n", strings.TrimSpace(dona.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
