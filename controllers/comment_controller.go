package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/utils"
)

// CommentController manages threaded comments and comment likes.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// ListPostComments returns the post's comments as nested trees, newest
// roots first.
func (c *CommentController) ListPostComments(ctx *gin.Context) {
	callerID, _ := getUserID(ctx)

	var post models.Post
	if err := c.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	var comments []models.Comment
	err := c.db.Preload("Author.Profile").
		Where("post_id = ?", post.ID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list comments")
		return
	}

	tree := buildCommentTree(comments, callerID, likedCommentSet(c.db, callerID, post.ID))
	utils.Success(ctx, gin.H{"items": tree})
}

// CreatePostComment adds a comment (optionally a reply) to the post and
// refreshes the post's comments_count.
func (c *CommentController) CreatePostComment(ctx *gin.Context) {
	type request struct {
		Content  string `json:"content" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	var post models.Post
	if err := c.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "comment cannot be empty")
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil || parent.PostID != post.ID {
			utils.Error(ctx, http.StatusBadRequest, 40042, "parent comment does not belong to this post")
			return
		}
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: userID,
		Content:  content,
		ParentID: req.ParentID,
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return recountComments(tx, post.ID)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create comment")
		return
	}

	if err := c.db.Preload("Author.Profile").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}
	utils.Created(ctx, gin.H{"comment": commentView(comment, userID, false, []gin.H{})})
}

// GetComment returns a single comment with its nested replies.
func (c *CommentController) GetComment(ctx *gin.Context) {
	callerID, _ := getUserID(ctx)

	var comment models.Comment
	if err := c.db.Preload("Author.Profile").First(&comment, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}

	var siblings []models.Comment
	err := c.db.Preload("Author.Profile").
		Where("post_id = ?", comment.PostID).
		Order("created_at DESC").
		Find(&siblings).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}

	likedSet := likedCommentSet(c.db, callerID, comment.PostID)
	children := make(map[uint][]models.Comment)
	for _, s := range siblings {
		if s.ParentID != nil {
			children[*s.ParentID] = append(children[*s.ParentID], s)
		}
	}
	var render func(nodes []models.Comment) []gin.H
	render = func(nodes []models.Comment) []gin.H {
		out := make([]gin.H, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, commentView(n, callerID, likedSet[n.ID], render(children[n.ID])))
		}
		return out
	}

	utils.Success(ctx, gin.H{"comment": commentView(comment, callerID, likedSet[comment.ID], render(children[comment.ID]))})
}

// UpdateComment lets the author edit the content.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	type request struct {
		Content string `json:"content" binding:"required"`
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}

	var comment models.Comment
	if err := c.db.Preload("Author.Profile").First(&comment, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40303, "you can only edit your own comments")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "comment cannot be empty")
		return
	}

	comment.Content = content
	if err := c.db.Save(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to update comment")
		return
	}

	likedSet := likedCommentSet(c.db, userID, comment.PostID)
	utils.Success(ctx, gin.H{"comment": commentView(comment, userID, likedSet[comment.ID], []gin.H{})})
}

// DeleteComment removes the comment and every reply beneath it, with
// their likes, then refreshes the post's comments_count.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}
	if comment.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40304, "you can only delete your own comments")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		// Breadth-first walk of the reply tree.
		ids := []uint{comment.ID}
		frontier := []uint{comment.ID}
		for len(frontier) > 0 {
			var next []uint
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &next).Error; err != nil {
				return err
			}
			ids = append(ids, next...)
			frontier = next
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return recountComments(tx, comment.PostID)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to delete comment")
		return
	}

	utils.NoContent(ctx)
}

// Reply creates a direct child of the given comment on the same post.
func (c *CommentController) Reply(ctx *gin.Context) {
	type request struct {
		Content string `json:"content" binding:"required"`
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid request payload")
		return
	}

	var parent models.Comment
	if err := c.db.First(&parent, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "comment cannot be empty")
		return
	}

	reply := models.Comment{
		PostID:   parent.PostID,
		AuthorID: userID,
		Content:  content,
		ParentID: &parent.ID,
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return recountComments(tx, parent.PostID)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create comment")
		return
	}

	if err := c.db.Preload("Author.Profile").First(&reply, reply.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}
	utils.Created(ctx, gin.H{"comment": commentView(reply, userID, false, []gin.H{})})
}

// LikeComment toggles the caller's like on the comment.
func (c *CommentController) LikeComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
		return
	}

	status := ""
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var like models.CommentLike
		err := tx.Where("comment_id = ? AND user_id = ?", comment.ID, userID).First(&like).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(&models.CommentLike{CommentID: comment.ID, UserID: userID}).Error; err != nil {
				return err
			}
			status = "liked"
			return tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
		case err != nil:
			return err
		default:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			status = "unliked"
			return tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
				UpdateColumn("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
		}
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to toggle like")
		return
	}

	var likesCount uint
	if err := c.db.Raw("SELECT likes_count FROM comments WHERE id = ?", comment.ID).Scan(&likesCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load comment")
		return
	}
	utils.Success(ctx, gin.H{"status": status, "likes_count": likesCount})
}

// recountComments stores the authoritative comment count on the post.
func recountComments(tx *gorm.DB, postID uint) error {
	var n int64
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("comments_count", n).Error
}
