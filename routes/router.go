package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openscribe/scribe/config"
	"github.com/openscribe/scribe/controllers"
	"github.com/openscribe/scribe/middleware"
	"github.com/openscribe/scribe/utils"
)

// SetupRouter wires middleware, controllers, and routes into a gin engine.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	if utils.Logger != nil {
		router.Use(middleware.ZapLogger(utils.Logger))
		router.Use(middleware.ZapRecovery(utils.Logger))
	} else {
		router.Use(gin.Recovery())
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := controllers.NewAuthController(db)
	posts := controllers.NewPostController(db)
	comments := controllers.NewCommentController(db)
	tags := controllers.NewTagController(db)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", auth.Register)
		v1.POST("/login", auth.Login)
		v1.POST("/login/refresh", auth.Refresh)
		v1.POST("/logout", auth.Logout)
		v1.GET("/profile", middleware.AuthRequired(), auth.GetProfile)
		v1.PUT("/profile/update", middleware.AuthRequired(), auth.UpdateProfile)
		v1.PATCH("/profile/update", middleware.AuthRequired(), auth.UpdateProfile)

		v1.GET("/posts", middleware.AuthOptional(), posts.ListPosts)
		v1.POST("/posts", middleware.AuthRequired(), posts.CreatePost)
		// /posts/trending and /posts/my-posts ride the :id parameter and
		// dispatch inside GetPost.
		v1.GET("/posts/:id", middleware.AuthOptional(), posts.GetPost)
		v1.PUT("/posts/:id", middleware.AuthRequired(), posts.UpdatePost)
		v1.PATCH("/posts/:id", middleware.AuthRequired(), posts.UpdatePost)
		v1.DELETE("/posts/:id", middleware.AuthRequired(), posts.DeletePost)
		v1.POST("/posts/:id/like", middleware.AuthRequired(), posts.LikePost)
		v1.POST("/posts/:id/bookmark", middleware.AuthRequired(), posts.BookmarkPost)

		v1.GET("/posts/:id/comments", middleware.AuthOptional(), comments.ListPostComments)
		v1.POST("/posts/:id/comments", middleware.AuthRequired(), comments.CreatePostComment)
		v1.GET("/comments/:id", middleware.AuthOptional(), comments.GetComment)
		v1.PUT("/comments/:id", middleware.AuthRequired(), comments.UpdateComment)
		v1.PATCH("/comments/:id", middleware.AuthRequired(), comments.UpdateComment)
		v1.DELETE("/comments/:id", middleware.AuthRequired(), comments.DeleteComment)
		v1.POST("/comments/:id/reply", middleware.AuthRequired(), comments.Reply)
		v1.POST("/comments/:id/like", middleware.AuthRequired(), comments.LikeComment)

		v1.GET("/tags", middleware.AuthOptional(), tags.ListTags)
		v1.GET("/tags/:id", middleware.AuthOptional(), tags.GetTag)
		v1.GET("/tags/:id/posts", middleware.AuthOptional(), tags.TagPosts)

		v1.GET("/bookmarks", middleware.AuthRequired(), posts.ListBookmarks)
	}

	return router
}
