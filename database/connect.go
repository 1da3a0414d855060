package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/portfolio-site/backend/config"
)

// Open connects to the configured database. Postgres (and Supabase) connections get read
// replicas registered through dbresolver when DB_REPLICA_DSNS is set.
func Open(cfg config.Database, gormLogger logger.Interface) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	gormConfig := &gorm.Config{
		PrepareStmt: false,
		Logger:      gormLogger,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Type {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath+"?_pragma=busy_timeout(5000)"), gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection serializes the view increments.
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	case "supa", "postgres":
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true,
		}), gormConfig)
		if err != nil {
			return nil, err
		}
		if len(cfg.ReplicaDSNs) > 0 {
			replicas := make([]gorm.Dialector, 0, len(cfg.ReplicaDSNs))
			for _, dsn := range cfg.ReplicaDSNs {
				replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
			}
			err = db.Use(dbresolver.Register(dbresolver.Config{
				Replicas: replicas,
				Policy:   dbresolver.RandomPolicy{},
			}).SetMaxIdleConns(5).SetConnMaxLifetime(time.Hour))
			if err != nil {
				return nil, fmt.Errorf("register read replicas: %w", err)
			}
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.Type)
}

// NewLogger routes gorm's statement log through zerolog.
func NewLogger(z zerolog.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(zerologWriter{z}, logger.Config{
		SlowThreshold:             2 * time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type zerologWriter struct {
	z zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	w.z.Info().Str("component", "gorm").Msg(msg)
}
