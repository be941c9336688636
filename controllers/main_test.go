package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/routes"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", gin.TestMode)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestRouter builds the full API against an in-memory SQLite database.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh connection would see a fresh empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Like{},
		&models.Bookmark{},
	))

	return routes.SetupRouter(db), db
}

type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func doJSON(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// signup registers a user through the API and logs in, returning the
// token pair and the user id.
func signup(t *testing.T, r http.Handler, username string) (access, refresh string, userID uint) {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/api/v1/register", gin.H{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "passw0rd1",
		"password2": "passw0rd1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/v1/login", gin.H{
		"username": username,
		"password": "passw0rd1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	access = env.Data["access"].(string)
	refresh = env.Data["refresh"].(string)
	user := env.Data["user"].(map[string]any)
	userID = uint(user["id"].(float64))
	return access, refresh, userID
}

// createPost creates a post through the API and returns its view.
func createPost(t *testing.T, r http.Handler, token string, body gin.H) map[string]any {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/posts", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w).Data["post"].(map[string]any)
}

func postPath(post map[string]any, suffix string) string {
	return fmt.Sprintf("/api/v1/posts/%.0f%s", post["id"].(float64), suffix)
}
