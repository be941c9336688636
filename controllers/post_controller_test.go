package controllers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscribe/scribe/models"
)

func TestCreatePostDefaults(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	long := strings.Repeat("word ", 100)
	post := createPost(t, r, access, gin.H{"title": "Hello World", "content": long})

	assert.Equal(t, "draft", post["status"])
	assert.Equal(t, "hello-world", post["slug"])
	assert.Nil(t, post["published_at"])
	// Excerpt is derived from the first 200 characters of the content.
	excerpt := post["excerpt"].(string)
	assert.True(t, strings.HasSuffix(excerpt, "..."))
	assert.LessOrEqual(t, len(excerpt), 203)
}

func TestCreatePublishedPostSetsPublishedAt(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	post := createPost(t, r, access, gin.H{
		"title":   "Go Rocks",
		"content": "short body",
		"status":  "published",
		"tags":    []string{"Go", " web "},
	})
	assert.Equal(t, "published", post["status"])
	assert.NotNil(t, post["published_at"])
	assert.Equal(t, "short body", post["excerpt"])

	tags := post["tags"].([]any)
	require.Len(t, tags, 2)
	names := []string{
		tags[0].(map[string]any)["name"].(string),
		tags[1].(map[string]any)["name"].(string),
	}
	// Tag names are normalized before lookup-or-create.
	assert.ElementsMatch(t, []string{"go", "web"}, names)
}

func TestCreatePostValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/posts", gin.H{"title": "x", "content": "y"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/posts", gin.H{"content": "y"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/posts", gin.H{"title": "x", "content": "y", "status": "archived"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlugDeduplication(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	first := createPost(t, r, access, gin.H{"title": "My Title", "content": "a"})
	second := createPost(t, r, access, gin.H{"title": "My Title", "content": "b"})
	third := createPost(t, r, access, gin.H{"title": "My Title", "content": "c"})

	assert.Equal(t, "my-title", first["slug"])
	assert.Equal(t, "my-title-1", second["slug"])
	assert.Equal(t, "my-title-2", third["slug"])
}

func TestListVisibility(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	otherAccess, _, _ := signup(t, r, "bob")

	createPost(t, r, access, gin.H{"title": "Draft One", "content": "d", "status": "draft"})
	createPost(t, r, access, gin.H{"title": "Published One", "content": "p", "status": "published"})

	// Anonymous callers see only published posts.
	w := doJSON(r, http.MethodGet, "/api/v1/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Published One", items[0].(map[string]any)["title"])

	// The author also sees their own drafts.
	w = doJSON(r, http.MethodGet, "/api/v1/posts", nil, access)
	items = decode(t, w).Data["items"].([]any)
	assert.Len(t, items, 2)

	// Other users do not see someone else's drafts.
	w = doJSON(r, http.MethodGet, "/api/v1/posts", nil, otherAccess)
	items = decode(t, w).Data["items"].([]any)
	assert.Len(t, items, 1)

	// The status filter narrows, it never widens: anonymous callers
	// asking for drafts get nothing.
	w = doJSON(r, http.MethodGet, "/api/v1/posts?status=draft", nil, "")
	items = decode(t, w).Data["items"].([]any)
	assert.Empty(t, items)

	w = doJSON(r, http.MethodGet, "/api/v1/posts?status=draft", nil, access)
	items = decode(t, w).Data["items"].([]any)
	assert.Len(t, items, 1)
}

func TestGetPostCountsViews(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	post := createPost(t, r, access, gin.H{"title": "Viewed", "content": "body", "status": "published"})

	w := doJSON(r, http.MethodGet, postPath(post, ""), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w).Data["post"].(map[string]any)
	assert.Equal(t, float64(1), detail["views_count"])
	assert.Equal(t, "body", detail["content"])

	w = doJSON(r, http.MethodGet, postPath(post, ""), nil, "")
	detail = decode(t, w).Data["post"].(map[string]any)
	assert.Equal(t, float64(2), detail["views_count"])
}

func TestGetPostNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/posts/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/posts/not-a-number", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePost(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	otherAccess, _, _ := signup(t, r, "bob")

	post := createPost(t, r, access, gin.H{
		"title":   "Original",
		"content": "body",
		"tags":    []string{"go", "web"},
	})

	w := doJSON(r, http.MethodPatch, postPath(post, ""), gin.H{"title": "Hacked"}, otherAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Publishing a draft latches published_at.
	w = doJSON(r, http.MethodPatch, postPath(post, ""), gin.H{
		"title":  "Updated",
		"status": "published",
		"tags":   []string{"go", "redis"},
	}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w).Data["post"].(map[string]any)
	assert.Equal(t, "Updated", updated["title"])
	assert.NotNil(t, updated["published_at"])
	// Slug is permanent once assigned.
	assert.Equal(t, "original", updated["slug"])

	// The tag list is replaced wholesale.
	tags := updated["tags"].([]any)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"go", "redis"}, names)

	firstPublishedAt := updated["published_at"]

	// Unpublish and republish: published_at keeps its first value.
	w = doJSON(r, http.MethodPatch, postPath(post, ""), gin.H{"status": "draft"}, access)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPatch, postPath(post, ""), gin.H{"status": "published"}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, firstPublishedAt, decode(t, w).Data["post"].(map[string]any)["published_at"])
}

func TestDeletePostCascades(t *testing.T) {
	r, db := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	otherAccess, _, _ := signup(t, r, "bob")

	post := createPost(t, r, access, gin.H{"title": "Doomed", "content": "body", "status": "published"})

	w := doJSON(r, http.MethodPost, postPath(post, "/like"), nil, otherAccess)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, postPath(post, "/bookmark"), nil, otherAccess)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, postPath(post, "/comments"), gin.H{"content": "hi"}, otherAccess)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodDelete, postPath(post, ""), nil, otherAccess)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, postPath(post, ""), nil, access)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	var n int64
	db.Model(&models.Like{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Bookmark{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Comment{}).Count(&n)
	assert.Zero(t, n)

	w = doJSON(r, http.MethodGet, postPath(post, ""), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeToggle(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	post := createPost(t, r, access, gin.H{"title": "Likeable", "content": "body", "status": "published"})

	w := doJSON(r, http.MethodPost, postPath(post, "/like"), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, postPath(post, "/like"), nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w).Data
	assert.Equal(t, "liked", data["status"])
	assert.Equal(t, float64(1), data["likes_count"])

	// The detail view reflects the like for the caller.
	w = doJSON(r, http.MethodGet, postPath(post, ""), nil, access)
	detail := decode(t, w).Data["post"].(map[string]any)
	assert.Equal(t, true, detail["is_liked"])

	w = doJSON(r, http.MethodPost, postPath(post, "/like"), nil, access)
	data = decode(t, w).Data
	assert.Equal(t, "unliked", data["status"])
	assert.Equal(t, float64(0), data["likes_count"])
}

func TestBookmarkToggleAndList(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	post := createPost(t, r, access, gin.H{"title": "Keeper", "content": "body", "status": "published"})

	w := doJSON(r, http.MethodGet, "/api/v1/bookmarks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, postPath(post, "/bookmark"), nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bookmarked", decode(t, w).Data["status"])

	w = doJSON(r, http.MethodGet, "/api/v1/bookmarks", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 1)
	saved := items[0].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, "Keeper", saved["title"])
	assert.Equal(t, true, saved["is_bookmarked"])

	w = doJSON(r, http.MethodPost, postPath(post, "/bookmark"), nil, access)
	assert.Equal(t, "unbookmarked", decode(t, w).Data["status"])

	w = doJSON(r, http.MethodGet, "/api/v1/bookmarks", nil, access)
	assert.Empty(t, decode(t, w).Data["items"])
}

func TestTrendingRanking(t *testing.T) {
	r, db := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	low := createPost(t, r, access, gin.H{"title": "Low", "content": "c", "status": "published"})
	mid := createPost(t, r, access, gin.H{"title": "Mid", "content": "c", "status": "published"})
	high := createPost(t, r, access, gin.H{"title": "High", "content": "c", "status": "published"})
	createPost(t, r, access, gin.H{"title": "Hidden Draft", "content": "c", "status": "draft"})

	// Likes weigh double: 10 likes beat 15 views.
	seed := func(post map[string]any, views, likes uint) {
		db.Model(&models.Post{}).Where("id = ?", uint(post["id"].(float64))).
			Updates(map[string]any{"views_count": views, "likes_count": likes})
	}
	seed(low, 1, 0)
	seed(mid, 15, 0)
	seed(high, 0, 10)

	w := doJSON(r, http.MethodGet, "/api/v1/posts/trending", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "High", items[0].(map[string]any)["title"])
	assert.Equal(t, "Mid", items[1].(map[string]any)["title"])
	assert.Equal(t, "Low", items[2].(map[string]any)["title"])
}

func TestMyPosts(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	otherAccess, _, _ := signup(t, r, "bob")

	createPost(t, r, access, gin.H{"title": "Mine Draft", "content": "c"})
	createPost(t, r, access, gin.H{"title": "Mine Published", "content": "c", "status": "published"})
	createPost(t, r, otherAccess, gin.H{"title": "Theirs", "content": "c", "status": "published"})

	w := doJSON(r, http.MethodGet, "/api/v1/posts/my-posts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/posts/my-posts", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w).Data
	items := data["items"].([]any)
	assert.Len(t, items, 2)
	assert.NotNil(t, data["pagination"])
}

func TestSearchAndFilters(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	createPost(t, r, access, gin.H{"title": "Intro to Golang", "content": "channels and goroutines", "status": "published", "tags": []string{"go"}})
	createPost(t, r, access, gin.H{"title": "Cooking Pasta", "content": "boil water", "status": "published", "tags": []string{"food"}})

	// Search matches title, content, and tag names, case-insensitively.
	for _, q := range []string{"golang", "GOROUTINES", "go"} {
		w := doJSON(r, http.MethodGet, "/api/v1/posts?search="+q, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		items := decode(t, w).Data["items"].([]any)
		require.NotEmpty(t, items, q)
		assert.Equal(t, "Intro to Golang", items[0].(map[string]any)["title"], q)
	}

	w := doJSON(r, http.MethodGet, "/api/v1/posts?tag=food", nil, "")
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Cooking Pasta", items[0].(map[string]any)["title"])

	w = doJSON(r, http.MethodGet, "/api/v1/posts?search=nothing-matches", nil, "")
	assert.Empty(t, decode(t, w).Data["items"])
}

func TestOrdering(t *testing.T) {
	r, db := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	a := createPost(t, r, access, gin.H{"title": "A", "content": "c", "status": "published"})
	b := createPost(t, r, access, gin.H{"title": "B", "content": "c", "status": "published"})

	db.Model(&models.Post{}).Where("id = ?", uint(a["id"].(float64))).Update("views_count", 5)
	db.Model(&models.Post{}).Where("id = ?", uint(b["id"].(float64))).Update("views_count", 9)

	w := doJSON(r, http.MethodGet, "/api/v1/posts?ordering=-views_count", nil, "")
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].(map[string]any)["title"])

	w = doJSON(r, http.MethodGet, "/api/v1/posts?ordering=views_count", nil, "")
	items = decode(t, w).Data["items"].([]any)
	assert.Equal(t, "A", items[0].(map[string]any)["title"])

	// Unknown fields fall back to the default ordering instead of erroring.
	w = doJSON(r, http.MethodGet, "/api/v1/posts?ordering=password", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPagination(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	for _, title := range []string{"One", "Two", "Three"} {
		createPost(t, r, access, gin.H{"title": title, "content": "c", "status": "published"})
	}

	w := doJSON(r, http.MethodGet, "/api/v1/posts?page=1&page_size=2", nil, "")
	data := decode(t, w).Data
	assert.Len(t, data["items"].([]any), 2)
	pagination := data["pagination"].(map[string]any)
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])

	w = doJSON(r, http.MethodGet, "/api/v1/posts?page=2&page_size=2", nil, "")
	assert.Len(t, decode(t, w).Data["items"].([]any), 1)
}
