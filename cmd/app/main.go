package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/recall/internal"
	pkgconfig "github.com/starford/recall/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func importDir(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("import: directory argument is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := internal.RunImport(ctx, internal.ImportOptions{
		Dir:    dir,
		Owner:  cmd.String("owner"),
		Public: cmd.Bool("public"),
	}, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("created=%d updated=%d unchanged=%d failed=%d\n", st.Created, st.Updated, st.Unchanged, st.Failed)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "recall",
		Usage:  "Personal knowledge store with keyword retrieval and grounded AI answers",
		Action: serve,
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
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "import",
				Usage:     "Import a directory of Markdown files once",
				ArgsUsage: "<dir>",
				Action:    importDir,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner of imported items (defaults to auth.owner)",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Import as public items",
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
