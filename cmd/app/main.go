package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/casefolio/internal"
	pkgconfig "github.com/starford/casefolio/pkg/config"
)

var version = "dev"

type runFunc func(context.Context, ...internal.Option) error

// loadConfig reads the config file. The default path may be absent, in
// which case built-in defaults apply; an explicit path must exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func action(run runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if dir := cmd.String("content"); dir != "" {
			cfg.Content.Dir = dir
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "casefolio",
		Usage:   "Case-study portfolio: content loader, HTTP API, MCP server and terminal browser",
		Version: version,
		Action:  action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "content",
				Usage:   "Override the case content directory",
				Sources: cli.EnvVars("CASEFOLIO_CONTENT_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API, SSE events and assets (default)",
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the case library to an MCP client over stdio",
				Action: action(internal.RunMCP),
			},
			{
				Name:   "browse",
				Usage:  "Browse the portfolio in the terminal",
				Action: action(internal.RunBrowse),
			},
			{
				Name:   "manifest",
				Usage:  "Measure public images and write the image manifest",
				Action: action(internal.BuildManifest),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
