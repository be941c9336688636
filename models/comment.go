package models

import "time"

// Comment is a reply to a post. ParentID forms a self-referential tree:
// nil marks a top-level comment, everything else is a nested reply.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ParentID   *uint     `gorm:"index" json:"parent_id"`
	LikesCount uint      `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Author     User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}

// CommentLike marks that a user liked a comment, at most once.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
