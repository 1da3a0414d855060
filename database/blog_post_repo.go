package database

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/models"
)

const blogPostEntity = "blog post"

// PostFilter narrows List. Nil fields do not filter.
type PostFilter struct {
	Category  *string
	Published *bool
}

// TagCount is one tag and the number of posts carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type BlogPostRepo struct {
	db *gorm.DB
}

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{db}
}

// List returns posts matching filter, newest first.
func (r *BlogPostRepo) List(ctx context.Context, filter PostFilter) ([]*models.BlogPost, error) {
	q := r.db.WithContext(ctx).Model(&models.BlogPost{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Published != nil {
		q = q.Where("published = ?", *filter.Published)
	}

	blogPosts := []*models.BlogPost{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&blogPosts).Error; err != nil {
		return nil, storeErr("list", err)
	}
	return blogPosts, nil
}

// FindByID returns a blog post by its ID
func (r *BlogPostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	if err := r.db.WithContext(ctx).First(&blogPost, "id = ?", id).Error; err != nil {
		return nil, storeErr("find", err)
	}
	return &blogPost, nil
}

// Add inserts a new blog post. ID, CreatedAt and UpdatedAt are filled in on success.
func (r *BlogPostRepo) Add(ctx context.Context, blogPost *models.BlogPost) error {
	if err := r.db.WithContext(ctx).Create(blogPost).Error; err != nil {
		return storeErr("create", err)
	}
	return nil
}

// UpdateFields writes only the given columns and returns the stored record.
func (r *BlogPostRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.BlogPost, error) {
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BlogPost{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&blogPost, "id = ?", id).Error
	})
	if err != nil {
		return nil, storeErr("update", err)
	}
	return &blogPost, nil
}

// Delete removes a blog post from the database by id
func (r *BlogPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.BlogPost{})
	if res.Error != nil {
		return storeErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeErr("delete", gorm.ErrRecordNotFound)
	}
	return nil
}

// IncrementViews adds one view with a single UPDATE ... SET views = views + 1 and reads the row
// back in the same transaction. With publishedOnly, drafts are treated as missing.
func (r *BlogPostRepo) IncrementViews(ctx context.Context, id uuid.UUID, publishedOnly bool) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.BlogPost{}).Where("id = ?", id)
		if publishedOnly {
			q = q.Where("published = ?", true)
		}
		res := q.UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&blogPost, "id = ?", id).Error
	})
	if err != nil {
		return nil, storeErr("read", err)
	}
	return &blogPost, nil
}

// TagCounts tallies tags across posts, most used first then alphabetical.
func (r *BlogPostRepo) TagCounts(ctx context.Context, publishedOnly bool) ([]TagCount, error) {
	q := r.db.WithContext(ctx).Model(&models.BlogPost{}).Select("tags")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var rows []models.BlogPost
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeErr("list tags of", err)
	}

	counts := map[string]int{}
	for _, row := range rows {
		for _, tag := range row.TagList() {
			counts[tag]++
		}
	}
	result := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		result = append(result, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result, nil
}

func storeErr(operation string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewNotFound("Blog")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.NewDatabaseError(operation, blogPostEntity, err)
}
