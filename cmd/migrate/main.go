package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"truthgoals/internal/logging"
	"truthgoals/internal/storage/ch"
	"truthgoals/internal/storage/sqlite"
	"truthgoals/migrations"
)

// environment holds the connection settings shared with the service
type environment struct {
	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"clickhouse"`
	SQLitePath         string `env:"SQLITE_PATH" envDefault:"truthgoals.db"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	ClickHouseHost     string `env:"CLICKHOUSE_HOST" envDefault:"localhost"`
	ClickHousePort     int    `env:"CLICKHOUSE_PORT" envDefault:"9000"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" envDefault:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `env:"CLICKHOUSE_USE_TLS"`
}

type options struct {
	env        environment
	backend    string
	sqlitePath string
	dir        string
	logLevel   string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg environment
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse environment: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg environment) *cobra.Command {
	opts := &options{env: cfg}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the reading progress schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.backend, "backend", cfg.StorageBackend, "storage backend: clickhouse or sqlite")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "migrations", "migrations source directory used by create")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level")

	root.AddCommand(
		providerCmd(opts, "up", "Apply all pending migrations", func(ctx context.Context, p *goose.Provider, logger *zap.Logger) error {
			results, err := p.Up(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			for _, result := range results {
				logger.Info("Applied migration", zap.Int64("version", result.Source.Version), zap.Duration("duration", result.Duration))
			}
			logger.Info("Migrations completed successfully", zap.Int("applied", len(results)))
			return nil
		}),
		providerCmd(opts, "down", "Roll back the most recent migration", func(ctx context.Context, p *goose.Provider, logger *zap.Logger) error {
			result, err := p.Down(ctx)
			if err != nil {
				return fmt.Errorf("failed to rollback migration: %w", err)
			}
			logger.Info("Rollback completed successfully", zap.Int64("version", result.Source.Version))
			return nil
		}),
		providerCmd(opts, "status", "Show migration status", func(ctx context.Context, p *goose.Provider, logger *zap.Logger) error {
			statuses, err := p.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			for _, status := range statuses {
				applied := "pending"
				if status.State == goose.StateApplied {
					applied = status.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%-6d %-20s %s\n", status.Source.Version, applied, filepath.Base(status.Source.Path))
			}
			return nil
		}),
		providerCmd(opts, "version", "Print the current schema version", func(ctx context.Context, p *goose.Provider, logger *zap.Logger) error {
			version, err := p.GetDBVersion(ctx)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Println(strconv.FormatInt(version, 10))
			return nil
		}),
		createCmd(opts),
	)

	return root
}

// providerCmd opens the configured backend and runs fn against its migration provider
func providerCmd(opts *options, use, short string, fn func(context.Context, *goose.Provider, *zap.Logger) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Level: opts.logLevel})
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, dialect, err := openDB(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("Connected to database", zap.String("backend", opts.backend))

			provider, err := migrations.NewProvider(db, dialect)
			if err != nil {
				return err
			}
			return fn(cmd.Context(), provider, logger)
		},
	}
}

func createCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <migration_name>",
		Short: "Create a new SQL migration for the selected backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dialectDir, err := dialectFor(opts.backend)
			if err != nil {
				return err
			}
			dir := filepath.Join(opts.dir, dialectDir)
			if err := goose.Create(nil, dir, args[0], "sql"); err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			return nil
		},
	}
}

func dialectFor(backend string) (goose.Dialect, string, error) {
	switch backend {
	case "clickhouse":
		return goose.DialectClickHouse, migrations.ClickHouseDir, nil
	case "sqlite":
		return goose.DialectSQLite3, migrations.SQLiteDir, nil
	default:
		return "", "", fmt.Errorf("unknown backend %q (expected clickhouse or sqlite)", backend)
	}
}

func openDB(opts *options) (*sql.DB, goose.Dialect, error) {
	dialect, _, err := dialectFor(opts.backend)
	if err != nil {
		return nil, "", err
	}

	if dialect == goose.DialectSQLite3 {
		store, err := sqlite.Open(opts.sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return store.DB(), dialect, nil
	}

	db := ch.OpenSQL(ch.Options(
		opts.env.ClickHouseHost,
		opts.env.ClickHousePort,
		opts.env.ClickHouseDatabase,
		opts.env.ClickHouseUser,
		opts.env.ClickHousePassword,
		opts.env.ClickHouseUseTLS,
	))
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}
	return db, dialect, nil
}
