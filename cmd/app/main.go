package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/snlxnet/bridge/internal"
	pkgconfig "github.com/snlxnet/bridge/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func runPublish(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunPublish(ctx, opts...)
}

func runPreview(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunPreview(ctx, opts...)
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunHistory(ctx, int(cmd.Int("limit")), opts...)
}

func runUpgrade(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunUpgrade(ctx, opts...)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:  "bridge",
		Usage: "Publish a Markdown vault to a public site and a private blob store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "bridge.yaml",
				Value:       "bridge.yaml",
				Sources:     cli.EnvVars("BRIDGE_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "publish",
				Usage:  "Classify notes, diff against the ledger, and push changes to both sinks",
				Action: runPublish,
			},
			{
				Name:   "preview",
				Usage:  "Serve the rendered public site locally with live reload",
				Action: runPreview,
			},
			{
				Name:  "history",
				Usage: "Show recent publish runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to show",
						Value: 10,
					},
				},
				Action: runHistory,
			},
			{
				Name:   "upgrade",
				Usage:  "Trigger a blob store upgrade and print its status",
				Action: runUpgrade,
			},
			{
				Name:   "mcp",
				Usage:  "Serve publish tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
