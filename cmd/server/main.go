package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"secondbrain/internal/api"
	"secondbrain/internal/api/handlers"
	"secondbrain/internal/api/middleware"
	"secondbrain/internal/engine/agent"
	"secondbrain/internal/engine/content"
	"secondbrain/internal/engine/tags"
	"secondbrain/internal/pkg/logger"
	"secondbrain/internal/platform/audit"
	"secondbrain/internal/platform/auth"
	"secondbrain/internal/platform/config"
	"secondbrain/internal/platform/database"
	"secondbrain/internal/platform/repositories"
	"secondbrain/internal/platform/storage"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	contentRepo := content.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	contentSvc := content.NewService(contentRepo, membershipRepo, tagRepo)
	tagManager := tags.NewManager(db, contentRepo, tagRepo, membershipRepo)
	agentSvc := agent.NewService(cfg.Agent)
	auditLog := audit.NewLogger(db)

	store, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(userRepo, tokenSvc)
	userHandler := handlers.NewUserHandler(userRepo, membershipRepo)
	orgHandler := handlers.NewOrgHandler(orgRepo, userRepo, membershipRepo)
	tagHandler := handlers.NewTagHandler(tagRepo, membershipRepo)
	contentHandler := handlers.NewContentHandler(contentSvc, tagManager, attachmentRepo, store, auditLog, cfg.Storage.MaxUploadBytes)
	agentHandler := handlers.NewAgentHandler(userRepo, agentSvc)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	uploadsDir := ""
	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		uploadsDir = cfg.Storage.Local.BasePath
	}

	router := api.NewRouter(&api.Dependencies{
		HealthHandler:  healthHandler,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		OrgHandler:     orgHandler,
		TagHandler:     tagHandler,
		ContentHandler: contentHandler,
		AgentHandler:   agentHandler,
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
		UploadsDir:     uploadsDir,
	})

	handler := middleware.CORS(cfg.CORS)(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Store(context.Background(), cfg.S3)
	case "local", "":
		return storage.NewLocalStore(cfg.Local), nil
	}
	return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
}
