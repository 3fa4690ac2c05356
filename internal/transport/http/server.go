package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"

	"postshare/internal/config"
	"postshare/internal/database"
	"postshare/internal/handler"
	"postshare/internal/repository"
	"postshare/internal/service"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Wire repositories and services
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	authService := service.NewAuthService(userRepo, cfg)
	postService := service.NewPostService(postRepo, userRepo)

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	dispatcher := handler.NewDispatcher(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewPostHandler(postService),
	)

	router := NewRouter(RouterConfig{
		Dispatcher:      dispatcher,
		MediaHandler:    handler.NewMediaHandler(mediaService),
		ResolveIdentity: authService.ResolveIdentity,
	})

	// 4. Serve
	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
