// Package blog owns the lifecycle of blog posts: authoring, publishing, reading and view
// counting. Every operation takes the caller's auth.Capability; anonymous readers only ever see
// published posts.
package blog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/portfolio-site/backend/assets"
	"github.com/portfolio-site/backend/auth"
	"github.com/portfolio-site/backend/content"
	"github.com/portfolio-site/backend/database"
	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Store is the record store the service persists to. database.BlogPostRepo implements it.
type Store interface {
	List(ctx context.Context, filter database.PostFilter) ([]*models.BlogPost, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	Add(ctx context.Context, blogPost *models.BlogPost) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID, publishedOnly bool) (*models.BlogPost, error)
	TagCounts(ctx context.Context, publishedOnly bool) ([]database.TagCount, error)
}

// Filter narrows List. Nil fields do not filter.
type Filter struct {
	Category  *string
	Published *bool
}

// PostInput is a partial post as submitted by the authoring client. Nil means "not supplied".
type PostInput struct {
	Title       *string
	Excerpt     *string
	Content     *string
	Image       *string
	Category    *string
	Tags        *[]string
	Author      *string
	Published   *bool
	PublishDate *string
	PublishTime *string
}

type Service struct {
	store            Store
	images           assets.Store
	policy           *content.Policy
	clock            clock.Clock
	defaultAuthor    string
	excerptWordLimit int
	maxImageBytes    int64
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithPolicy(p *content.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithDefaultAuthor(author string) Option {
	return func(s *Service) {
		if author = strings.TrimSpace(author); author != "" {
			s.defaultAuthor = author
		}
	}
}

func WithExcerptWordLimit(n int) Option {
	return func(s *Service) { s.excerptWordLimit = n }
}

func WithMaxImageBytes(n int64) Option {
	return func(s *Service) { s.maxImageBytes = n }
}

func NewService(store Store, images assets.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		images:           images,
		policy:           content.NewPolicy(true),
		clock:            clock.WallClock,
		defaultAuthor:    "Admin",
		excerptWordLimit: 400,
		maxImageBytes:    10 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns posts newest first. Callers without admin rights only see published posts and
// may not ask for drafts.
func (s *Service) List(ctx context.Context, c auth.Capability, f Filter) ([]*models.BlogPost, error) {
	filter := database.PostFilter{Published: f.Published}
	if f.Category != nil && *f.Category != "" {
		filter.Category = f.Category
	}
	if !c.IsAdmin() {
		if f.Published != nil && !*f.Published {
			return nil, errs.NewInsufficientRoleError(auth.RoleAdmin)
		}
		published := true
		filter.Published = &published
	}
	return s.store.List(ctx, filter)
}

// GetByID returns a post and counts the read. Drafts are invisible to non-admin callers and
// reading one does not count.
func (s *Service) GetByID(ctx context.Context, c auth.Capability, id uuid.UUID) (*models.BlogPost, error) {
	return s.store.IncrementViews(ctx, id, !c.IsAdmin())
}

// GetByCategory returns the published posts whose category equals category exactly.
func (s *Service) GetByCategory(ctx context.Context, category string) ([]*models.BlogPost, error) {
	published := true
	return s.store.List(ctx, database.PostFilter{Category: &category, Published: &published})
}

// Create validates in, uploads the image if any, then persists the post. Nothing is stored when
// the upload fails.
func (s *Service) Create(ctx context.Context, c auth.Capability, in PostInput, image *assets.Upload) (*models.BlogPost, error) {
	if err := c.RequireAdmin(); err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		Author:    s.defaultAuthor,
		Published: true,
		Tags:      datatypes.JSONSlice[string]{},
	}

	var err error
	if post.Title, err = requiredText("title", in.Title); err != nil {
		return nil, err
	}
	if post.Excerpt, err = s.requiredHTML("excerpt", in.Excerpt); err != nil {
		return nil, err
	}
	if post.Content, err = s.requiredHTML("content", in.Content); err != nil {
		return nil, err
	}
	if post.Category, err = requiredText("category", in.Category); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		post.Tags = cleanTags(*in.Tags)
	}
	if in.Author != nil {
		if author := strings.TrimSpace(*in.Author); author != "" {
			post.Author = author
		}
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	now := s.clock.Now().UTC()
	if post.PublishDate, err = layoutField("publishDate", in.PublishDate, DateLayout); err != nil {
		return nil, err
	}
	if post.PublishDate == "" {
		post.PublishDate = now.Format(DateLayout)
	}
	if post.PublishTime, err = layoutField("publishTime", in.PublishTime, TimeLayout); err != nil {
		return nil, err
	}
	if post.PublishTime == "" {
		post.PublishTime = now.Format(TimeLayout)
	}

	if in.Image != nil {
		post.Image = strings.TrimSpace(*in.Image)
	}
	if image != nil {
		if post.Image, err = s.storeImage(ctx, *image); err != nil {
			return nil, err
		}
	}

	s.checkExcerptLength(post.Excerpt)
	if err := s.store.Add(ctx, post); err != nil {
		return nil, err
	}

	log.Info().Str("component", "blog").Str("id", post.ID.String()).Bool("published", post.Published).Msg("blog post created")
	return post, nil
}

// Update writes only the supplied fields. A supplied required field may not be empty. The image
// is uploaded before anything is written; the previous image is left in the asset store.
func (s *Service) Update(ctx context.Context, c auth.Capability, id uuid.UUID, in PostInput, image *assets.Upload) (*models.BlogPost, error) {
	if err := c.RequireAdmin(); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title, err := requiredText("title", in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Excerpt != nil {
		excerpt, err := s.requiredHTML("excerpt", in.Excerpt)
		if err != nil {
			return nil, err
		}
		s.checkExcerptLength(excerpt)
		fields["excerpt"] = excerpt
	}
	if in.Content != nil {
		body, err := s.requiredHTML("content", in.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = body
	}
	if in.Category != nil {
		category, err := requiredText("category", in.Category)
		if err != nil {
			return nil, err
		}
		fields["category"] = category
	}
	if in.Tags != nil {
		fields["tags"] = cleanTags(*in.Tags)
	}
	if in.Author != nil {
		author := strings.TrimSpace(*in.Author)
		if author == "" {
			author = s.defaultAuthor
		}
		fields["author"] = author
	}
	if in.Published != nil {
		fields["published"] = *in.Published
	}
	if in.PublishDate != nil {
		date, err := layoutField("publishDate", in.PublishDate, DateLayout)
		if err != nil {
			return nil, err
		}
		if date != "" {
			fields["publish_date"] = date
		}
	}
	if in.PublishTime != nil {
		at, err := layoutField("publishTime", in.PublishTime, TimeLayout)
		if err != nil {
			return nil, err
		}
		if at != "" {
			fields["publish_time"] = at
		}
	}
	if in.Image != nil {
		fields["image"] = strings.TrimSpace(*in.Image)
	}

	if image != nil {
		if _, err := s.store.FindByID(ctx, id); err != nil {
			return nil, err
		}
		url, err := s.storeImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		fields["image"] = url
	}

	post, err := s.store.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	log.Info().Str("component", "blog").Str("id", id.String()).Int("fields", len(fields)).Msg("blog post updated")
	return post, nil
}

// Delete permanently removes a post. Its image stays in the asset store.
func (s *Service) Delete(ctx context.Context, c auth.Capability, id uuid.UUID) error {
	if err := c.RequireAdmin(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("component", "blog").Str("id", id.String()).Msg("blog post deleted")
	return nil
}

// UploadContentImage stores an image referenced from post content and returns its URL.
func (s *Service) UploadContentImage(ctx context.Context, c auth.Capability, image assets.Upload) (string, error) {
	if err := c.RequireAdmin(); err != nil {
		return "", err
	}
	return s.storeImage(ctx, image)
}

// Tags returns tag usage over the posts c may see.
func (s *Service) Tags(ctx context.Context, c auth.Capability) ([]database.TagCount, error) {
	return s.store.TagCounts(ctx, !c.IsAdmin())
}

func (s *Service) storeImage(ctx context.Context, image assets.Upload) (string, error) {
	checked, err := assets.Inspect(image, s.maxImageBytes)
	if err != nil {
		return "", err
	}
	return s.images.Put(ctx, checked)
}

func (s *Service) requiredHTML(field string, value *string) (string, error) {
	if value == nil {
		return "", errs.NewMissingRequiredFieldError(field)
	}
	clean := s.policy.Sanitize(*value)
	if content.IsBlank(clean) {
		return "", errs.NewMissingRequiredFieldError(field)
	}
	return clean, nil
}

func (s *Service) checkExcerptLength(excerpt string) {
	if s.excerptWordLimit <= 0 {
		return
	}
	if n := content.WordCount(excerpt); n > s.excerptWordLimit {
		log.Warn().Str("component", "blog").Int("words", n).Int("limit", s.excerptWordLimit).Msg("excerpt is longer than recommended")
	}
}

func requiredText(field string, value *string) (string, error) {
	if value == nil {
		return "", errs.NewMissingRequiredFieldError(field)
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return "", errs.NewMissingRequiredFieldError(field)
	}
	return v, nil
}

// layoutField returns the trimmed value, "" when absent or empty, or an error when it does not
// parse with layout.
func layoutField(field string, value *string, layout string) (string, error) {
	if value == nil {
		return "", nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse(layout, v); err != nil {
		return "", errs.NewInvalidFieldError(field, "expected format "+layout)
	}
	return v, nil
}

func cleanTags(tags []string) datatypes.JSONSlice[string] {
	clean := datatypes.JSONSlice[string]{}
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			clean = append(clean, tag)
		}
	}
	return clean
}
