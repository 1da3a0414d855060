package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/portfolio-site/backend/api"
	"github.com/portfolio-site/backend/assets"
	"github.com/portfolio-site/backend/auth"
	"github.com/portfolio-site/backend/blog"
	"github.com/portfolio-site/backend/config"
	"github.com/portfolio-site/backend/content"
	"github.com/portfolio-site/backend/models"
	"github.com/portfolio-site/backend/taxonomy"
)

func newServeCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(env)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, currentDB, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if autoMigrate {
				if err := currentDB.Migrate(ctx); err != nil {
					return err
				}
			}

			images, local, err := newAssetStore(ctx, cfg.Assets)
			if err != nil {
				return err
			}

			service := blog.NewService(currentDB.BlogPostRepo(), images,
				blog.WithPolicy(content.NewPolicy(cfg.Blog.SanitizeHTML)),
				blog.WithDefaultAuthor(cfg.Blog.DefaultAuthor),
				blog.WithExcerptWordLimit(cfg.Blog.ExcerptWordLimit),
				blog.WithMaxImageBytes(cfg.Assets.MaxImageBytes),
			)

			deps := api.Dependencies{
				Service:  service,
				Verifier: auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
				Ping:     currentDB.Ping,
			}
			if local != nil {
				deps.Uploads = local
			}
			server, err := api.NewServer(cfg, deps)
			if err != nil {
				return fmt.Errorf("initialize server: %w", err)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Run(gctx, cfg.ShutdownTimeout)
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info().Msgf("Closing server: %v", context.Cause(gctx))
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

// newAssetStore builds the configured image store wrapped in the retry policy. The local store is
// also returned so the API can serve it under /uploads/; it is nil for S3.
func newAssetStore(ctx context.Context, cfg config.Assets) (assets.Store, *assets.LocalStore, error) {
	var (
		store assets.Store
		local *assets.LocalStore
	)
	switch cfg.Backend {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		store = assets.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.S3PublicBaseURL)
		log.Info().Str("bucket", cfg.S3Bucket).Msg("storing images in S3")
	default:
		var err error
		local, err = assets.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare upload dir: %w", err)
		}
		store = local
		log.Info().Str("dir", local.Root()).Msg("storing images on local disk")
	}
	return assets.NewRetrying(store, cfg.UploadAttempts, cfg.RetryDelay, clock.WallClock), local, nil
}

func newMigrateCmd() *cobra.Command {
	var report bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(env)
			db, currentDB, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if report {
				mismatches, err := models.ColumnMismatchReport(db, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if mismatches > 0 {
					return fmt.Errorf("%d column mismatches", mismatches)
				}
				return nil
			}

			if err := currentDB.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("schema is up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&report, "report", false, "only report columns that differ from the models")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin bearer token for the authoring client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(env)
			if cfg.Auth.JWTSecret == "" || len(cfg.Auth.JWTSecret) < 32 {
				return cfg.Validate()
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to BLOG_TOKEN_TTL)")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	var grouped bool
	cmd := &cobra.Command{
		Use:   "categories [query]",
		Short: "List the category catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if grouped {
				for _, g := range taxonomy.Groups() {
					fmt.Fprintf(out, "%s\n  %s\n", g.Name, strings.Join(g.Labels, ", "))
				}
				return nil
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			for _, label := range taxonomy.Search(query) {
				fmt.Fprintln(out, label)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&grouped, "groups", false, "print labels grouped by theme")
	return cmd
}
