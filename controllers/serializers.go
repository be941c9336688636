package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/models"
)

// Explicit field projections per entity and view. Every handler answers
// through one of these so input fields and output fields never blur.

func userPublicView(u models.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	}
}

func authorView(u models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"profile_picture": u.Profile.ProfilePicture,
	}
}

func profileView(u models.User) gin.H {
	return gin.H{
		"username":        u.Username,
		"email":           u.Email,
		"bio":             u.Profile.Bio,
		"profile_picture": u.Profile.ProfilePicture,
	}
}

func tagView(t models.Tag) gin.H {
	return gin.H{
		"id":   t.ID,
		"name": t.Name,
		"slug": t.Slug,
	}
}

func tagViews(tags []models.Tag) []gin.H {
	out := make([]gin.H, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagView(t))
	}
	return out
}

// readingTime estimates minutes to read at 200 words per minute, never
// reporting less than one minute.
func readingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := words / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

func postListView(p models.Post, liked, bookmarked bool) gin.H {
	return gin.H{
		"id":             p.ID,
		"title":          p.Title,
		"slug":           p.Slug,
		"excerpt":        p.Excerpt,
		"author":         authorView(p.Author),
		"tags":           tagViews(p.Tags),
		"status":         p.Status,
		"views_count":    p.ViewsCount,
		"likes_count":    p.LikesCount,
		"comments_count": p.CommentsCount,
		"reading_time":   readingTime(p.Content),
		"is_liked":       liked,
		"is_bookmarked":  bookmarked,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
		"published_at":   p.PublishedAt,
	}
}

func postDetailView(p models.Post, liked, bookmarked bool, comments []gin.H) gin.H {
	view := postListView(p, liked, bookmarked)
	view["content"] = p.Content
	view["comments"] = comments
	return view
}

func commentView(c models.Comment, callerID uint, liked bool, replies []gin.H) gin.H {
	isAuthor := callerID != 0 && c.AuthorID == callerID
	return gin.H{
		"id":          c.ID,
		"post_id":     c.PostID,
		"author":      authorView(c.Author),
		"content":     c.Content,
		"parent_id":   c.ParentID,
		"replies":     replies,
		"likes_count": c.LikesCount,
		"can_edit":    isAuthor,
		"can_delete":  isAuthor,
		"is_liked":    liked,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

// buildCommentTree nests replies under their parents, annotating each
// node for the caller. Input order (newest-first) is preserved at every
// depth.
func buildCommentTree(comments []models.Comment, callerID uint, likedSet map[uint]bool) []gin.H {
	children := make(map[uint][]models.Comment)
	var roots []models.Comment
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var render func(nodes []models.Comment) []gin.H
	render = func(nodes []models.Comment) []gin.H {
		out := make([]gin.H, 0, len(nodes))
		for _, c := range nodes {
			out = append(out, commentView(c, callerID, likedSet[c.ID], render(children[c.ID])))
		}
		return out
	}
	return render(roots)
}

// likedPostSet returns the subset of postIDs the user has liked, in one query.
func likedPostSet(db *gorm.DB, userID uint, postIDs []uint) map[uint]bool {
	set := make(map[uint]bool)
	if userID == 0 || len(postIDs) == 0 {
		return set
	}
	var ids []uint
	db.Model(&models.Like{}).Where("user_id = ? AND post_id IN ?", userID, postIDs).Pluck("post_id", &ids)
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// bookmarkedPostSet returns the subset of postIDs the user has bookmarked.
func bookmarkedPostSet(db *gorm.DB, userID uint, postIDs []uint) map[uint]bool {
	set := make(map[uint]bool)
	if userID == 0 || len(postIDs) == 0 {
		return set
	}
	var ids []uint
	db.Model(&models.Bookmark{}).Where("user_id = ? AND post_id IN ?", userID, postIDs).Pluck("post_id", &ids)
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// likedCommentSet returns the ids of the post's comments the user has liked.
func likedCommentSet(db *gorm.DB, userID uint, postID uint) map[uint]bool {
	set := make(map[uint]bool)
	if userID == 0 {
		return set
	}
	var ids []uint
	db.Model(&models.CommentLike{}).
		Joins("JOIN comments ON comments.id = comment_likes.comment_id").
		Where("comment_likes.user_id = ? AND comments.post_id = ?", userID, postID).
		Pluck("comment_likes.comment_id", &ids)
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func postListViews(db *gorm.DB, posts []models.Post, callerID uint) []gin.H {
	ids := postIDs(posts)
	liked := likedPostSet(db, callerID, ids)
	bookmarked := bookmarkedPostSet(db, callerID, ids)
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postListView(p, liked[p.ID], bookmarked[p.ID]))
	}
	return out
}
