package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlogPost represents a complete blog post with metadata
type BlogPost struct {
	ID          uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title       string                      `json:"title" db:"title" gorm:"type:text;not null"`
	Excerpt     string                      `json:"excerpt" db:"excerpt" gorm:"type:text;not null"`
	Content     string                      `json:"content" db:"content" gorm:"type:text;not null"`
	Image       string                      `json:"image" db:"image" gorm:"type:text;not null;default:''"`
	Category    string                      `json:"category" db:"category" gorm:"type:text;not null;index:idx_blog_post_category_published,priority:1"`
	Tags        datatypes.JSONSlice[string] `json:"tags" db:"tags"`
	Author      string                      `json:"author" db:"author" gorm:"type:text;not null"`
	Published   bool                        `json:"published" db:"published" gorm:"not null;index:idx_blog_post_category_published,priority:2"`
	PublishDate string                      `json:"publishDate" db:"publish_date" gorm:"type:text;not null;default:''"`
	PublishTime string                      `json:"publishTime" db:"publish_time" gorm:"type:text;not null;default:''"`
	Views       int64                       `json:"views" db:"views" gorm:"not null;default:0"`
	CreatedAt   time.Time                   `json:"createdAt" db:"created_at" gorm:"not null;index:idx_blog_post_created_at,sort:desc"`
	UpdatedAt   time.Time                   `json:"updatedAt" db:"updated_at" gorm:"not null"`
}

// BeforeCreate assigns the id on insert so every dialect gets the same identifiers.
func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Tags == nil {
		p.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}

// TagList returns the tags as a plain slice, never nil.
func (p BlogPost) TagList() []string {
	if p.Tags == nil {
		return []string{}
	}
	return []string(p.Tags)
}

// SplitTags turns the comma separated form value into an ordered tag list.
// "a, b,,c " becomes ["a", "b", "c"].
func SplitTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// JoinTags is the inverse of SplitTags, used to refill authoring forms.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
