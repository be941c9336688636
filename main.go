package main

import (
	"log"

	"github.com/openscribe/scribe/config"
	"github.com/openscribe/scribe/models"
	"github.com/openscribe/scribe/routes"
	"github.com/openscribe/scribe/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Like{},
		&models.Bookmark{},
	)

	router := routes.SetupRouter(db)

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}
