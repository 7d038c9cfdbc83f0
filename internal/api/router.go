package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "secondbrain/internal/api/context"
	"secondbrain/internal/api/handlers"
	"secondbrain/internal/api/middleware"
)

type Dependencies struct {
	HealthHandler  *handlers.HealthHandler
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	OrgHandler     *handlers.OrgHandler
	TagHandler     *handlers.TagHandler
	ContentHandler *handlers.ContentHandler
	AgentHandler   *handlers.AgentHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter

	// UploadsDir, when set, is served under /uploads so URLs minted by the
	// local storage backend resolve. Empty for the S3 backend.
	UploadsDir string
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	if deps.UploadsDir != "" {
		router.ServeFiles("/uploads/*filepath", http.Dir(deps.UploadsDir))
	}

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))
	router.POST("/api/v1/auth/verify", wrap(deps.AuthHandler.Verify))

	// Middleware references
	authMid := deps.AuthMiddleware
	read := deps.RateLimiter.Limit("api_read")
	write := deps.RateLimiter.Limit("api_write")
	agentLimit := deps.RateLimiter.Limit("agent")

	// Current user
	router.GET("/api/v1/users/me",
		chain(deps.UserHandler.Me, authMid.Require, read))
	router.PATCH("/api/v1/users/me",
		chain(deps.UserHandler.UpdateProfile, authMid.Require, write))
	router.GET("/api/v1/users/me/api-keys",
		chain(deps.UserHandler.APIKeys, authMid.Require, read))
	router.PUT("/api/v1/users/me/api-keys",
		chain(deps.UserHandler.SetAPIKey, authMid.Require, write))

	// Organization management
	router.POST("/api/v1/organizations",
		chain(deps.OrgHandler.Create, authMid.Require, write))
	router.GET("/api/v1/organizations",
		chain(deps.OrgHandler.ListMine, authMid.Require, read))
	router.GET("/api/v1/organizations/:id",
		chain(deps.OrgHandler.Get, authMid.Require, read))
	router.GET("/api/v1/organizations/:id/members",
		chain(deps.OrgHandler.ListMembers, authMid.Require, read))
	router.POST("/api/v1/organizations/:id/members",
		chain(deps.OrgHandler.AddMember, authMid.Require, write))
	router.PATCH("/api/v1/organizations/:id/members/:userId",
		chain(deps.OrgHandler.UpdateMember, authMid.Require, write))
	router.DELETE("/api/v1/organizations/:id/members/:userId",
		chain(deps.OrgHandler.RemoveMember, authMid.Require, write))

	// Tags
	router.POST("/api/v1/tags",
		chain(deps.TagHandler.Create, authMid.Require, write))
	router.GET("/api/v1/tags",
		chain(deps.TagHandler.List, authMid.Require, read))

	// Content. Reads take an optional token so PUBLIC items stay reachable
	// without one; every write requires authentication.
	router.GET("/api/v1/content",
		chain(deps.ContentHandler.List, authMid.Optional, read))
	router.GET("/api/v1/content/:id",
		chain(deps.ContentHandler.Get, authMid.Optional, read))
	router.POST("/api/v1/content",
		chain(deps.ContentHandler.Create, authMid.Require, write))
	router.PATCH("/api/v1/content/:id",
		chain(deps.ContentHandler.Update, authMid.Require, write))
	router.DELETE("/api/v1/content/:id",
		chain(deps.ContentHandler.Delete, authMid.Require, write))
	router.POST("/api/v1/content/:id/tags/:tagId",
		chain(deps.ContentHandler.AttachTag, authMid.Require, write))
	router.DELETE("/api/v1/content/:id/tags/:tagId",
		chain(deps.ContentHandler.DetachTag, authMid.Require, write))
	router.POST("/api/v1/content/:id/attachments",
		chain(deps.ContentHandler.Upload, authMid.Require, write))

	// Agent proxy
	router.POST("/api/v1/agent/chat",
		chain(deps.AgentHandler.Chat, authMid.Require, agentLimit))
	router.POST("/api/v1/agent/image",
		chain(deps.AgentHandler.Image, authMid.Require, agentLimit))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
