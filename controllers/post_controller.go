package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/utils"
)

// PostController manages post CRUD plus the social actions around posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// orderableFields whitelists the ordering query param. A "-" prefix
// flips to descending.
var orderableFields = map[string]bool{
	"created_at":   true,
	"views_count":  true,
	"likes_count":  true,
	"published_at": true,
}

func orderClause(param string) string {
	field := param
	dir := "ASC"
	if strings.HasPrefix(param, "-") {
		field = param[1:]
		dir = "DESC"
	}
	if !orderableFields[field] {
		return "posts.created_at DESC"
	}
	return "posts." + field + " " + dir
}

// visibleScope limits a query to posts the caller may see: published
// for everyone, plus the caller's own posts in any status.
func visibleScope(q *gorm.DB, callerID uint) *gorm.DB {
	if callerID == 0 {
		return q.Where("posts.status = ?", models.StatusPublished)
	}
	return q.Where("posts.status = ? OR posts.author_id = ?", models.StatusPublished, callerID)
}

// ListPosts returns paginated posts with author and tag information.
// Supported filters: status, author, tag (slug), search, ordering.
func (p *PostController) ListPosts(ctx *gin.Context) {
	callerID, _ := getUserID(ctx)
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := visibleScope(p.db.Model(&models.Post{}), callerID)

	// The status filter narrows visibility, never widens it: anonymous
	// callers asking for drafts get an empty list.
	if status := strings.TrimSpace(ctx.Query("status")); status != "" {
		query = query.Where("posts.status = ?", status)
	}
	if author := strings.TrimSpace(ctx.Query("author")); author != "" {
		query = query.Where("posts.author_id = ?", author)
	}
	if tagSlug := strings.TrimSpace(ctx.Query("tag")); tagSlug != "" {
		sub := p.db.Model(&models.Tag{}).
			Select("post_tags.post_id").
			Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
			Where("tags.slug = ?", tagSlug)
		query = query.Where("posts.id IN (?)", sub)
	}
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		// Subquery keeps results deduplicated when several tags match.
		sub := p.db.Model(&models.Post{}).
			Select("posts.id").
			Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ? OR LOWER(tags.name) LIKE ?",
				pattern, pattern, pattern)
		query = query.Where("posts.id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	err := query.
		Preload("Author.Profile").
		Preload("Tags").
		Order(orderClause(ctx.Query("ordering"))).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      postListViews(p.db, posts, callerID),
		"pagination": paginationEnvelope(page, pageSize, total),
	})
}

// GetPost returns the full post detail with nested comment trees and
// atomically counts the view. /posts/trending and /posts/my-posts share
// the route parameter, so they dispatch from here.
func (p *PostController) GetPost(ctx *gin.Context) {
	switch ctx.Param("id") {
	case "trending":
		p.Trending(ctx)
		return
	case "my-posts":
		p.MyPosts(ctx)
		return
	}

	postID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	callerID, _ := getUserID(ctx)

	// Counted before the read, as a SQL-level increment: concurrent
	// requests must not lose views. Every retrieval counts, author and
	// repeat visitors included.
	res := p.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	var post models.Post
	if err := p.db.Preload("Author.Profile").Preload("Tags").First(&post, postID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	var comments []models.Comment
	if err := p.db.Preload("Author.Profile").
		Where("post_id = ?", post.ID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comments")
		return
	}
	tree := buildCommentTree(comments, callerID, likedCommentSet(p.db, callerID, post.ID))

	liked := likedPostSet(p.db, callerID, []uint{post.ID})
	bookmarked := bookmarkedPostSet(p.db, callerID, []uint{post.ID})
	utils.Success(ctx, gin.H{"post": postDetailView(post, liked[post.ID], bookmarked[post.ID], tree)})
}

type postInput struct {
	Title   string   `json:"title" binding:"required,min=1"`
	Content string   `json:"content" binding:"required"`
	Excerpt string   `json:"excerpt"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

// CreatePost creates a post authored by the caller. Tag names are
// normalized and looked-up-or-created.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req postInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if status != models.StatusDraft && status != models.StatusPublished {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid status")
		return
	}

	post := models.Post{
		AuthorID: userID,
		Title:    title,
		Content:  content,
		Excerpt:  utils.SanitizePlain(strings.TrimSpace(req.Excerpt)),
		Status:   status,
	}
	if post.Excerpt == "" {
		post.Excerpt = makeExcerpt(content)
	}
	if status == models.StatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		slug, err := uniquePostSlug(tx, title)
		if err != nil {
			return err
		}
		post.Slug = slug
		tags, err := upsertTags(tx, req.Tags)
		if err != nil {
			return err
		}
		post.Tags = tags
		return tx.Create(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create post")
		return
	}

	if err := p.db.Preload("Author.Profile").Preload("Tags").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Created(ctx, gin.H{"post": postDetailView(post, false, false, []gin.H{})})
}

// UpdatePost lets the author edit fields; a provided tag list fully
// replaces the post's tag set.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	type request struct {
		Title   *string   `json:"title"`
		Content *string   `json:"content"`
		Excerpt *string   `json:"excerpt"`
		Status  *string   `json:"status"`
		Tags    *[]string `json:"tags"`
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid request payload")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	if post.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	if req.Title != nil {
		title := utils.SanitizePlain(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40031, "title cannot be empty")
			return
		}
		post.Title = title
	}
	if req.Content != nil {
		post.Content = utils.Sanitize(*req.Content)
	}
	if req.Excerpt != nil {
		post.Excerpt = utils.SanitizePlain(strings.TrimSpace(*req.Excerpt))
	}
	if post.Excerpt == "" {
		post.Excerpt = makeExcerpt(post.Content)
	}
	if req.Status != nil {
		status := *req.Status
		if status != models.StatusDraft && status != models.StatusPublished {
			utils.Error(ctx, http.StatusBadRequest, 40032, "invalid status")
			return
		}
		// published_at latches on the first transition to published.
		if status == models.StatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Status = status
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if req.Tags != nil {
			tags, err := upsertTags(tx, *req.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	if err := p.db.Preload("Author.Profile").Preload("Tags").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	liked := likedPostSet(p.db, userID, []uint{post.ID})
	bookmarked := bookmarkedPostSet(p.db, userID, []uint{post.ID})
	utils.Success(ctx, gin.H{"post": postDetailView(post, liked[post.ID], bookmarked[post.ID], []gin.H{})})
}

// DeletePost removes the post and everything hanging off it in one
// transaction: comments and their likes, likes, bookmarks, tag links.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	if post.AuthorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", post.ID)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to delete post")
		return
	}

	utils.NoContent(ctx)
}

// LikePost toggles the caller's like: first call creates the Like and
// increments likes_count, the next removes it and decrements.
func (p *PostController) LikePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	status := ""
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var like models.Like
		err := tx.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&like).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(&models.Like{PostID: post.ID, UserID: userID}).Error; err != nil {
				return err
			}
			status = "liked"
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
		case err != nil:
			return err
		default:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			status = "unliked"
			// Floored in SQL so concurrent unlikes cannot go negative.
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
		}
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to toggle like")
		return
	}

	var likesCount uint
	if err := p.db.Raw("SELECT likes_count FROM posts WHERE id = ?", post.ID).Scan(&likesCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"status": status, "likes_count": likesCount})
}

// BookmarkPost toggles the caller's bookmark; no counter side effect.
func (p *PostController) BookmarkPost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	var bookmark models.Bookmark
	err := p.db.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&bookmark).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		if err := p.db.Create(&models.Bookmark{PostID: post.ID, UserID: userID}).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to bookmark post")
			return
		}
		utils.Success(ctx, gin.H{"status": "bookmarked"})
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to bookmark post")
	default:
		if err := p.db.Delete(&bookmark).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to bookmark post")
			return
		}
		utils.Success(ctx, gin.H{"status": "unbookmarked"})
	}
}

// Trending ranks published posts by views_count + 2*likes_count, top 10.
func (p *PostController) Trending(ctx *gin.Context) {
	callerID, _ := getUserID(ctx)

	var posts []models.Post
	err := p.db.
		Preload("Author.Profile").
		Preload("Tags").
		Where("status = ?", models.StatusPublished).
		Order("views_count + 2 * likes_count DESC").
		Limit(10).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{"items": postListViews(p.db, posts, callerID)})
}

// MyPosts returns everything the caller has authored, drafts included.
func (p *PostController) MyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := p.db.Model(&models.Post{}).Where("author_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	err := query.
		Preload("Author.Profile").
		Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      postListViews(p.db, posts, userID),
		"pagination": paginationEnvelope(page, pageSize, total),
	})
}

// ListBookmarks returns the caller's bookmarks, newest first, with the
// bookmarked post embedded.
func (p *PostController) ListBookmarks(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var bookmarks []models.Bookmark
	err := p.db.
		Preload("Post.Author.Profile").
		Preload("Post.Tags").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list bookmarks")
		return
	}

	ids := make([]uint, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.PostID)
	}
	liked := likedPostSet(p.db, userID, ids)

	items := make([]gin.H, 0, len(bookmarks))
	for _, b := range bookmarks {
		items = append(items, gin.H{
			"id":         b.ID,
			"post":       postListView(b.Post, liked[b.PostID], true),
			"created_at": b.CreatedAt,
		})
	}
	utils.Success(ctx, gin.H{"items": items})
}

// makeExcerpt derives an excerpt from the first 200 characters of the
// content, stripped of markup.
func makeExcerpt(content string) string {
	plain := utils.SanitizePlain(content)
	runes := []rune(plain)
	if len(runes) <= 200 {
		return plain
	}
	return string(runes[:200]) + "..."
}

// uniquePostSlug derives a slug from the title, probing numeric suffixes
// until the candidate is free.
func uniquePostSlug(tx *gorm.DB, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "post"
	}
	for counter := 0; ; counter++ {
		candidate := utils.DedupSlug(base, counter)
		var n int64
		if err := tx.Model(&models.Post{}).Where("slug = ?", candidate).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
	}
}

// upsertTags normalizes tag names (trimmed, lower-cased) and returns the
// matching Tag rows, creating missing ones.
func upsertTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := tx.Where(models.Tag{Name: name}).
			Attrs(models.Tag{Slug: utils.Slugify(name)}).
			FirstOrCreate(&tag).Error
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
