package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/portfolio-site/backend/config"
	"github.com/portfolio-site/backend/database"
)

// env is the raw configuration map shared by every command, filled in by loadEnvironment.
var env map[string]string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio-blog",
		Short:         "Blog backend for the portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvironment(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd(), newCategoriesCmd())
	return root
}

// loadEnvironment reads .env, overlays SSM parameters when SSM_PARAMETER_PATH is set, and
// configures the global logger.
func loadEnvironment(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}
	env = config.New()
	setupLogging(config.GetString(env, "LOG_LEVEL", "info"), config.GetString(env, "LOG_FORMAT", "json"))

	prefix := config.GetString(env, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := config.NewSSMClient(ctx, config.GetString(env, "AWS_REGION", "us-east-1"))
	if err != nil {
		return err
	}
	return overlayParameters(ctx, client, prefix)
}

// overlayParameters merges Parameter Store values into env. LOG_LEVEL and LOG_FORMAT may come
// from the store, so logging is configured again afterwards.
func overlayParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, prefix string) error {
	n, err := config.OverlaySSM(ctx, env, client, prefix)
	if err != nil {
		return err
	}
	setupLogging(config.GetString(env, "LOG_LEVEL", "info"), config.GetString(env, "LOG_FORMAT", "json"))
	log.Info().Int("parameters", n).Str("path", prefix).Msg("loaded configuration from SSM")
	return nil
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// openDatabase connects with gorm's log routed through zerolog.
func openDatabase(cfg config.Database) (*gorm.DB, database.Database, error) {
	gormLevel := logger.Warn
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gormLevel = logger.Info
	}
	gormLogger := database.NewLogger(log.With().Str("component", "gorm").Logger(), gormLevel)

	log.Info().Str("type", cfg.Type).Msg("Connecting to database")
	db, err := database.Open(cfg, gormLogger)
	if err != nil {
		return nil, database.Database{}, fmt.Errorf("connect to database: %w", err)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, database.Database{}, fmt.Errorf("test database connection: %w", err)
	}
	return db, database.New(db), nil
}
