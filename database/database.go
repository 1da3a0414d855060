package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/models"
)

type Database struct {
	db           *gorm.DB
	blogPostRepo *BlogPostRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:           db,
		blogPostRepo: NewBlogPostRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) BlogPostRepo() *BlogPostRepo {
	return d.blogPostRepo
}

// Migrate brings the schema up to date with the models.
func (d Database) Migrate(ctx context.Context) error {
	if d.db == nil {
		return errs.NewBadRequestError("database is not configured")
	}
	if err := models.Migrate(d.db.WithContext(ctx)); err != nil {
		return errs.NewDatabaseError("migrate", "schema", err)
	}
	return nil
}

// Ping checks that the primary connection is usable.
func (d Database) Ping(ctx context.Context) error {
	if d.db == nil {
		return errors.New("database is not configured")
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
