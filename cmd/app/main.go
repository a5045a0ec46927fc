package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/richtext"
	"github.com/starford/folio/internal/seed"
	pkgconfig "github.com/starford/folio/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// runMCP serves MCP over stdio. Logs go to stderr so stdout stays a clean
// protocol stream.
func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)

	st, err := internal.OpenStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := internal.NewService(cfg, st, logger)
	return mcpserver.New(svc, cfg.Render.Sanitize).ServeStdio()
}

func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// runRender renders a rich-text JSON file to stdout. Diagnostics are
// printed to stderr.
func runRender(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	res := richtext.RenderJSON(data, internal.RenderOptions(cfg.Render)...)
	out := res.HTML()
	if cmd.Bool("inner") {
		out = res.InnerHTML()
	}
	if cmd.Bool("sanitize") {
		out = richtext.Sanitize(out)
	}
	fmt.Fprintln(cmd.Root().Writer, out)
	for _, d := range res.Diagnostics {
		fmt.Fprintln(cmd.Root().ErrWriter, d.String())
	}
	if res.Failed {
		return fmt.Errorf("render failed")
	}
	return nil
}

// runSeed loads a YAML fixture into the configured database.
func runSeed(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)

	f, err := os.Open(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	fixture, err := seed.Parse(f)
	if err != nil {
		return err
	}

	st, err := internal.OpenStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rep, err := seed.Load(ctx, internal.NewService(cfg, st, logger), fixture, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "created %v, skipped %v\n", rep.Created, rep.Skipped)
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "folio",
		Usage:  "Blog content server with a rich-text renderer, media library and MCP tools",
		Action: run,
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
				Usage:  "Serve the HTTP API (default)",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:      "render",
				Usage:     "Render a rich-text JSON file to HTML",
				ArgsUsage: "FILE (or - for stdin)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "sanitize", Usage: "Run the output through the HTML policy"},
					&cli.BoolFlag{Name: "inner", Usage: "Omit the wrapper element"},
				},
				Action: runRender,
			},
			{
				Name:      "seed",
				Usage:     "Load a YAML fixture of categories, tags, users and posts",
				ArgsUsage: "FILE",
				Action:    runSeed,
			},
		},
	}
}

func main() {
	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
