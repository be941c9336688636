package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTagsWithCounts(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	createPost(t, r, access, gin.H{"title": "One", "content": "c", "status": "published", "tags": []string{"go"}})
	createPost(t, r, access, gin.H{"title": "Two", "content": "c", "status": "published", "tags": []string{"go", "rust"}})
	// Draft posts do not count toward tag usage.
	createPost(t, r, access, gin.H{"title": "Hidden", "content": "c", "status": "draft", "tags": []string{"rust", "zig"}})

	w := doJSON(r, http.MethodGet, "/api/v1/tags", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode(t, w).Data["items"].([]any)
	require.Len(t, items, 3)

	first := items[0].(map[string]any)
	assert.Equal(t, "go", first["name"])
	assert.Equal(t, float64(2), first["posts_count"])

	second := items[1].(map[string]any)
	assert.Equal(t, "rust", second["name"])
	assert.Equal(t, float64(1), second["posts_count"])

	third := items[2].(map[string]any)
	assert.Equal(t, "zig", third["name"])
	assert.Equal(t, float64(0), third["posts_count"])
}

func TestGetTag(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")
	post := createPost(t, r, access, gin.H{"title": "One", "content": "c", "status": "published", "tags": []string{"go"}})

	tag := post["tags"].([]any)[0].(map[string]any)
	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/v1/tags/%.0f", tag["id"].(float64)), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w).Data["tag"].(map[string]any)
	assert.Equal(t, "go", view["name"])
	assert.Equal(t, "go", view["slug"])

	w = doJSON(r, http.MethodGet, "/api/v1/tags/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagPostsPublishedOnly(t *testing.T) {
	r, _ := newTestRouter(t)
	access, _, _ := signup(t, r, "alice")

	post := createPost(t, r, access, gin.H{"title": "Visible", "content": "c", "status": "published", "tags": []string{"go"}})
	createPost(t, r, access, gin.H{"title": "Invisible", "content": "c", "status": "draft", "tags": []string{"go"}})

	tag := post["tags"].([]any)[0].(map[string]any)
	path := fmt.Sprintf("/api/v1/tags/%.0f/posts", tag["id"].(float64))

	// Drafts stay hidden even from their author on the tag listing.
	w := doJSON(r, http.MethodGet, path, nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w).Data
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Visible", items[0].(map[string]any)["title"])
	assert.Equal(t, "go", data["tag"].(map[string]any)["name"])
	assert.NotNil(t, data["pagination"])

	w = doJSON(r, http.MethodGet, "/api/v1/tags/9999/posts", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
