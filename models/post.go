package models

import "time"

// Post statuses. Drafts are visible only to their author.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post represents a blog post created by a user.
// ViewsCount/LikesCount/CommentsCount are denormalized counters and must
// only be mutated through SQL-level increments, never read-modify-write.
type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AuthorID      uint       `gorm:"index;not null" json:"author_id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Slug          string     `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       string     `gorm:"size:500" json:"excerpt"`
	Status        string     `gorm:"size:10;index;default:'draft'" json:"status"`
	ViewsCount    uint       `gorm:"not null;default:0" json:"views_count"`
	LikesCount    uint       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount uint       `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
	Author        User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Tags          []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	Comments      []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Tag labels posts. Names are normalized (trimmed, lower-cased) before
// lookup-or-create, so uniqueness is case-insensitive by construction.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:60;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	Posts     []Post    `gorm:"many2many:post_tags;" json:"-"`
}
