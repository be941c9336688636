package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/utils"
)

// TagController exposes read-only tag endpoints. Tags come into being
// through post creation, never directly.
type TagController struct {
	db *gorm.DB
}

// NewTagController creates a new TagController instance.
func NewTagController(db *gorm.DB) *TagController {
	return &TagController{db: db}
}

type tagWithCount struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	PostsCount int64  `json:"posts_count"`
}

// ListTags returns all tags with their published-post counts, most used
// first.
func (t *TagController) ListTags(ctx *gin.Context) {
	var tags []tagWithCount
	err := t.db.Model(&models.Tag{}).
		Select("tags.id, tags.name, tags.slug, COUNT(posts.id) AS posts_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id AND posts.status = ?", models.StatusPublished).
		Group("tags.id, tags.name, tags.slug").
		Order("posts_count DESC, tags.name ASC").
		Scan(&tags).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list tags")
		return
	}

	utils.Success(ctx, gin.H{"items": tags})
}

// GetTag returns a single tag by id.
func (t *TagController) GetTag(ctx *gin.Context) {
	var tag models.Tag
	if err := t.db.First(&tag, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "tag not found")
		return
	}
	utils.Success(ctx, gin.H{"tag": tagView(tag)})
}

// TagPosts returns the tag's published posts, newest first.
func (t *TagController) TagPosts(ctx *gin.Context) {
	callerID, _ := getUserID(ctx)
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var tag models.Tag
	if err := t.db.First(&tag, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "tag not found")
		return
	}

	query := t.db.Model(&models.Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ? AND posts.status = ?", tag.ID, models.StatusPublished)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count posts")
		return
	}

	var posts []models.Post
	err := query.
		Preload("Author.Profile").
		Preload("Tags").
		Order("posts.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"tag":        tagView(tag),
		"items":      postListViews(t.db, posts, callerID),
		"pagination": paginationEnvelope(page, pageSize, total),
	})
}
