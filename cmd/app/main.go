package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultdigest/internal"
	"github.com/starford/vaultdigest/internal/digest"
	pkgconfig "github.com/starford/vaultdigest/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func appOptions(cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
}

// applyDigestFlags overrides configured digest options with the flags that
// were given explicitly.
func applyDigestFlags(cmd *cli.Command, o *digest.Options) {
	if cmd.IsSet("destination") {
		o.Destination = cmd.String("destination")
	}
	if cmd.IsSet("title") {
		o.Title = cmd.String("title")
	}
	if cmd.IsSet("include-content") {
		o.IncludeContent = cmd.Bool("include-content")
	}
	if cmd.IsSet("max-bytes") {
		o.MaxBytes = digest.ByteLimit(cmd.Int("max-bytes"))
	}
	if cmd.IsSet("exclude") {
		o.Exclude = cmd.String("exclude")
	}
	if cmd.IsSet("sort") {
		o.Sort = digest.SortMode(cmd.String("sort"))
	}
	if cmd.IsSet("heading-level") {
		o.HeadingLevel = int(cmd.Int("heading-level"))
	}
	if cmd.IsSet("keep-frontmatter") {
		o.KeepFrontmatter = cmd.Bool("keep-frontmatter")
	}
	if cmd.IsSet("on-read-error") {
		o.OnReadError = digest.ReadErrorPolicy(cmd.String("on-read-error"))
	}
	if cmd.IsSet("workers") {
		o.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("skip-destination") {
		o.SkipDestination = cmd.Bool("skip-destination")
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyDigestFlags(cmd, &cfg.Digest)
	if err := cfg.Digest.Validate(); err != nil {
		return fmt.Errorf("invalid digest options: %w", err)
	}

	if err := internal.Generate(ctx, appOptions(cfg)...); err != nil {
		return err
	}

	if cmd.Bool("save") {
		if err := pkgconfig.SaveSection(cmd.String("config"), "digest", cfg.Digest); err != nil {
			return fmt.Errorf("save digest options: %w", err)
		}
	}
	return nil
}

func random(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch {
	case cmd.Bool("reset"):
		cfg.Random = digest.DefaultRandomOptions()
	case cmd.IsSet("exclude"):
		cfg.Random.Exclude = cmd.StringSlice("exclude")
	}
	cfg.Random = cfg.Random.Normalize()
	if err := cfg.Random.Validate(); err != nil {
		return fmt.Errorf("invalid random options: %w", err)
	}

	if cmd.Bool("reset") || cmd.Bool("save") {
		if err := pkgconfig.SaveSection(cmd.String("config"), "random", cfg.Random); err != nil {
			return fmt.Errorf("save random options: %w", err)
		}
	}
	return internal.Random(ctx, appOptions(cfg)...)
}

func verify(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Verify(ctx, cmd.Args().First(), appOptions(cfg)...)
}

func history(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.History(ctx, int(cmd.Int("limit")), appOptions(cfg)...)
}

func watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Watch(ctx, appOptions(cfg)...)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("no-watch") {
		cfg.Watch.Enabled = !cmd.Bool("no-watch")
	}
	if err := internal.Run(ctx, appOptions(cfg)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, appOptions(cfg)...)
}

func digestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "destination", Aliases: []string{"o"}, Usage: "Vault-relative output path"},
		&cli.StringFlag{Name: "title", Usage: "Digest title"},
		&cli.BoolFlag{Name: "include-content", Usage: "Include note bodies (--include-content=false for an index only)"},
		&cli.IntFlag{Name: "max-bytes", Usage: "Per-note body byte limit"},
		&cli.StringFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Comma-separated folder prefixes to skip"},
		&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Section order: path, name, modified or created"},
		&cli.IntFlag{Name: "heading-level", Usage: "Section heading depth, 1 to 6"},
		&cli.BoolFlag{Name: "keep-frontmatter", Usage: "Keep each note's YAML frontmatter"},
		&cli.StringFlag{Name: "on-read-error", Usage: "abort or skip when a note cannot be read"},
		&cli.IntFlag{Name: "workers", Usage: "Concurrent note reads"},
		&cli.BoolFlag{Name: "skip-destination", Usage: "Leave the previous digest out of the new one"},
		&cli.BoolFlag{Name: "save", Usage: "Persist the effective digest options to the config file"},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "vaultdigest",
		Usage:   "Aggregate a Markdown vault into a single navigable digest document",
		Version: version,
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
				Name:   "generate",
				Usage:  "Generate the digest once and write it into the vault",
				Flags:  digestFlags(),
				Action: generate,
			},
			{
				Name:  "random",
				Usage: "Print the path of a randomly chosen note",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Folder to skip (repeatable, replaces the configured list)"},
					&cli.BoolFlag{Name: "save", Usage: "Persist the effective exclusion list to the config file"},
					&cli.BoolFlag{Name: "reset", Usage: "Restore and persist the default exclusion list (MOC)"},
				},
				Action: random,
			},
			{
				Name:      "verify",
				Usage:     "Check that a written digest's contents match its sections",
				ArgsUsage: "[path]",
				Action:    verify,
			},
			{
				Name:  "history",
				Usage: "List recent digest runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of runs"},
				},
				Action: history,
			},
			{
				Name:   "watch",
				Usage:  "Regenerate the digest whenever the vault changes",
				Action: watch,
			},
			{
				Name:  "serve",
				Usage: "Serve the HTTP API, event stream and vault watcher",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-watch", Usage: "Do not regenerate on vault changes"},
				},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the digest tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
