package models

import "time"

// Like marks that a user liked a post. The (post, user) pair is unique;
// its presence toggles the post's likes_count.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark saves a post for a user. Toggled like a Like but with no
// counter side effect.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
}
