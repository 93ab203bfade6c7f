package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/campusnav/internal/version"
	campusnav "github.com/kailas-cloud/campusnav/pkg/sdk"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "campusnavctl",
		Usage:   "Manage and query the campus building index",
		Version: fmt.Sprintf("%s (%s, %s)", version.Version, version.Commit, version.Date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "driver",
				Usage:   "Store driver (valkey, redis, badger, sqlite)",
				Value:   "badger",
				EnvVars: []string{"CAMPUSNAV_DB_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Valkey/Redis address",
				Value:   "localhost:6379",
				EnvVars: []string{"CAMPUSNAV_DB_ADDR"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Valkey/Redis password",
				EnvVars: []string{"CAMPUSNAV_DB_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"d"},
				Usage:   "Badger directory or SQLite DSN",
				Value:   "data/campusnav",
				EnvVars: []string{"CAMPUSNAV_DB_PATH"},
			},
			&cli.StringFlag{
				Name:  "key-prefix",
				Usage: "Key namespace for KV stores",
				Value: "campusnav:",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load the campus building dataset",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "replace (wipe first) or missing (add absent ids only)",
						Value: "missing",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML dataset file (default: bundled dataset)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 8,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search buildings",
				ArgsUsage: "[query]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Exact category filter"},
					&cli.StringFlag{Name: "department", Usage: "Exact department filter"},
					&cli.Float64Flag{Name: "lat", Usage: "Your latitude"},
					&cli.Float64Flag{Name: "lng", Usage: "Your longitude"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results", Value: 10},
					&cli.BoolFlag{Name: "json", Usage: "Print results as JSON"},
				},
			},
			{
				Name:   "export-geojson",
				Usage:  "Write all buildings as a GeoJSON FeatureCollection",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check store connectivity",
				Action: healthCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level})))
	return nil
}

// openClient builds an SDK client from the global store flags.
func openClient(c *cli.Context) (*campusnav.Client, error) {
	opts := []campusnav.Option{
		campusnav.WithLogger(slog.Default()),
		campusnav.WithKeyPrefix(c.String("key-prefix")),
	}
	switch driver := c.String("driver"); driver {
	case "valkey":
		opts = append(opts, campusnav.WithValkey(c.String("addr"), c.String("password")))
	case "redis":
		opts = append(opts, campusnav.WithRedis(c.String("addr"), c.String("password")))
	case "badger":
		opts = append(opts, campusnav.WithBadger(c.String("path")))
	case "sqlite":
		opts = append(opts, campusnav.WithSQLite(c.String("path")))
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
	if c.IsSet("workers") {
		opts = append(opts, campusnav.WithSeedWorkers(c.Int("workers")))
	}

	client, err := campusnav.New(c.Context, opts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return client, nil
}
