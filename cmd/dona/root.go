package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/dona"
	"github.com/aretw0/dona/internal/cli"
	"github.com/aretw0/dona/internal/config"
	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/internal/presentation/tui"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dona",
	Short: "dona is a small to-do list",
	Long: `dona keeps a list of tasks you can star, complete, edit and delete.
Tasks live in a local Loam repository by default; files, Redis and MySQL backends
are available through configuration (dona.yaml, .env or DONA_* variables).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to the config file (default ./dona.yaml if present)")
	flags.String("env-file", ".env", "Path to a dotenv file with DONA_* settings")
	flags.String("backend", "", "Storage backend: memory, file, loam, redis or mysql")
	flags.String("data-dir", "", "Directory for the file and loam backends")
	flags.String("theme", "", "Color theme: light, dark or auto")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
}

// flagSettings maps persistent flags onto config fields. Flags win over every other source.
var flagSettings = map[string]func(*config.Config, string){
	"backend":    func(c *config.Config, v string) { c.Backend = v },
	"data-dir":   func(c *config.Config, v string) { c.DataDir = v },
	"theme":      func(c *config.Config, v string) { c.Theme = v },
	"log-level":  func(c *config.Config, v string) { c.LogLevel = v },
	"log-format": func(c *config.Config, v string) { c.LogFormat = v },
}

// loadConfig resolves the effective configuration or exits.
func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.LoadOptions{ConfigPath: path, EnvFile: envFile})
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	for name, apply := range flagSettings {
		if cmd.Flags().Changed(name) {
			value, _ := cmd.Flags().GetString(name)
			apply(&cfg, value)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// createLogger configures the application logger. It always writes to Stderr.
func createLogger(cfg config.Config) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	return logging.New(level, cfg.LogFormat)
}

// openApp loads the configuration and opens the task list or exits.
func openApp(ctx context.Context, cmd *cobra.Command, reg prometheus.Registerer) (*dona.App, config.Config) {
	cfg := loadConfig(cmd)
	app, err := cli.OpenApp(ctx, cfg, createLogger(cfg), reg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return app, cfg
}

// newRenderer builds a renderer for stdout, plain when it is not a terminal.
func newRenderer(cfg config.Config, plain bool) *tui.Renderer {
	theme, _ := domain.ParseTheme(cfg.Theme)

	var opts []tui.Option
	if plain || !cli.IsTerminal(os.Stdout) {
		opts = append(opts, tui.WithPlain())
	}
	renderer, err := tui.NewRenderer(theme, opts...)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return renderer
}

// exitOnError prints err and exits with status 1.
func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
