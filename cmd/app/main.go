package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/hunlearn/internal"
	pkgconfig "github.com/starford/hunlearn/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func seed(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.Seed(ctx, opts...)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Printf("seeded: %d updated, %d unchanged, %d removed\n", rep.Updated, rep.Skipped, rep.Removed)
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.MCP(ctx, opts...)
}

func contentInit(_ context.Context, cmd *cli.Command) error {
	n, err := internal.InitContent(cmd.String("dir"), cmd.Bool("force"))
	if err != nil {
		return fmt.Errorf("content init: %w", err)
	}
	fmt.Printf("wrote %d content files to %s\n", n, cmd.String("dir"))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "hunlearn",
		Usage:   "Hungarian learning backend for Korean pastors",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "seed",
				Usage:  "Load vocabulary and theological terms into the database",
				Action: seed,
			},
			{
				Name:   "mcp",
				Usage:  "Serve learning tools over MCP stdio",
				Action: mcp,
			},
			{
				Name:  "content",
				Usage: "Manage learning content files",
				Commands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the built-in content into a directory for editing",
						Action: contentInit,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "dir",
								Usage: "Target directory",
								Value: "content",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite existing files",
							},
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
