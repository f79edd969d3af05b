package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
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

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunExport(cfg, internal.ExportParams{
		DocPath:   cmd.String("doc"),
		OutPrefix: cmd.String("out-prefix"),
		Matcher:   cmd.String("matcher"),
		Pretty:    cmd.Bool("pretty"),
	}, os.Stdout)
}

func extract(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunExtract(cfg, internal.ExtractParams{
		DocPath:  cmd.String("doc"),
		Position: int(cmd.Int("position")),
		Inherit:  cmd.Bool("inherit"),
		Subtree:  cmd.Bool("subtree"),
	}, os.Stdout)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	docFlag := &cli.StringFlag{
		Name:     "doc",
		Usage:    "Relative path to the outline document",
		Required: true,
	}

	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Outline document metadata extraction with batch JSON export, full-text search, and MCP tools",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API, file watcher, and SSE event stream",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "export",
				Usage:  "Write one JSON artifact per matching heading of a document",
				Action: export,
				Flags: []cli.Flag{
					configFlag,
					docFlag,
					&cli.StringFlag{Name: "out-prefix", Usage: "Directory prefix under the export root"},
					&cli.StringFlag{Name: "matcher", Usage: "Tag match expression (e.g. work|TODO=DONE)"},
					&cli.BoolFlag{Name: "pretty", Usage: "Indent the JSON artifacts"},
				},
			},
			{
				Name:   "extract",
				Usage:  "Print the record assembled at a byte position in a document",
				Action: extract,
				Flags: []cli.Flag{
					configFlag,
					docFlag,
					&cli.IntFlag{Name: "position", Usage: "Byte offset into the document"},
					&cli.BoolFlag{Name: "inherit", Usage: "Inherit ancestor and file tags"},
					&cli.BoolFlag{Name: "subtree", Usage: "Select the whole subtree as content"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
