package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/portfolio-site/backend/config"
	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/models"
)

func newTestDatabase(t *testing.T) Database {
	t.Helper()
	db, err := Open(config.Database{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "blog.db")}, nil)
	require.NoError(t, err)
	d := New(db)
	require.NoError(t, d.Migrate(context.Background()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return d
}

func addPost(t *testing.T, repo *BlogPostRepo, title, category string, published bool, tags ...string) *models.BlogPost {
	t.Helper()
	p := &models.BlogPost{
		Title:     title,
		Excerpt:   "<p>excerpt</p>",
		Content:   "<p>content</p>",
		Category:  category,
		Tags:      datatypes.JSONSlice[string](tags),
		Author:    "Admin",
		Published: published,
	}
	require.NoError(t, repo.Add(context.Background(), p))
	// created_at ordering needs distinct timestamps
	time.Sleep(2 * time.Millisecond)
	return p
}

func TestAddAssignsIDAndTimestamps(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	p := addPost(t, repo, "Hello", "Go", true, "a", "b")

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, []string{"a", "b"}, got.TagList())
	assert.Equal(t, int64(0), got.Views)
	assert.True(t, got.Published)
}

func TestDraftIsStoredAsDraft(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	p := addPost(t, repo, "Draft", "Go", false)

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
}

func TestListFiltersAndOrder(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	first := addPost(t, repo, "first", "Go", true)
	second := addPost(t, repo, "second", "Rust", true)
	draft := addPost(t, repo, "draft", "Go", false)

	all, err := repo.List(ctx, PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{draft.ID, second.ID, first.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	goCategory, published := "Go", true
	got, err := repo.List(ctx, PostFilter{Category: &goCategory, Published: &published})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	none := "go"
	got, err = repo.List(ctx, PostFilter{Category: &none})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindByIDMissing(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, errs.IsNotFound(err))
}

func TestUpdateFields(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	p := addPost(t, repo, "old", "Go", true, "x")

	got, err := repo.UpdateFields(ctx, p.ID, map[string]any{
		"title":     "new",
		"published": false,
		"tags":      datatypes.JSONSlice[string]{"y", "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.False(t, got.Published)
	assert.Equal(t, []string{"y", "z"}, got.TagList())
	assert.Equal(t, "Go", got.Category)
	assert.Equal(t, p.CreatedAt.Unix(), got.CreatedAt.Unix())

	_, err = repo.UpdateFields(ctx, uuid.New(), map[string]any{"title": "x"})
	assert.True(t, errs.IsNotFound(err))

	same, err := repo.UpdateFields(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", same.Title)
}

func TestDelete(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	p := addPost(t, repo, "bye", "Go", true)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.FindByID(ctx, p.ID)
	assert.True(t, errs.IsNotFound(err))

	err = repo.Delete(ctx, p.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestIncrementViews(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	p := addPost(t, repo, "views", "Go", true)
	before, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	got, err := repo.IncrementViews(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.True(t, before.UpdatedAt.Equal(got.UpdatedAt))

	got, err = repo.IncrementViews(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	_, err = repo.IncrementViews(ctx, uuid.New(), false)
	assert.True(t, errs.IsNotFound(err))
}

func TestIncrementViewsSkipsDraftsWhenPublishedOnly(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	draft := addPost(t, repo, "draft", "Go", false)

	_, err := repo.IncrementViews(ctx, draft.ID, true)
	assert.True(t, errs.IsNotFound(err))

	got, err := repo.FindByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Views)
}

func TestIncrementViewsConcurrent(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	ctx := context.Background()
	p := addPost(t, repo, "popular", "Go", true)

	const readers = 20
	var g errgroup.Group
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			_, err := repo.IncrementViews(ctx, p.ID, true)
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(readers), got.Views)
}

func TestTagCounts(t *testing.T) {
	repo := newTestDatabase(t).BlogPostRepo()
	addPost(t, repo, "a", "Go", true, "go", "web")
	addPost(t, repo, "b", "Go", true, "go", "api")
	addPost(t, repo, "c", "Go", false, "secret", "go")

	got, err := repo.TagCounts(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{"go", 2}, {"api", 1}, {"web", 1}}, got)

	got, err = repo.TagCounts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, TagCount{"go", 3}, got[0])
	assert.Len(t, got, 4)
}
