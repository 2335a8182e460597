package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupProposalRoutes(v1, c)
	}

	return router
}

func setupProposalRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := middleware.AuthMiddleware(c.JWTManager)
	admin := middleware.AdminMiddleware()

	proposals := v1.Group("/proposals", auth)
	{
		// Member submissions
		proposals.POST("/books", c.ProposalHandler.CreateBook)
		proposals.POST("/authors", c.ProposalHandler.CreateAuthor)
		proposals.GET("/mine", c.ProposalHandler.ListMine)

		// Visible to admins and the submitter; the service enforces which.
		proposals.GET("/:id", c.ProposalHandler.GetByID)

		// Moderation
		proposals.GET("", admin, c.ProposalHandler.List)
		proposals.PATCH("/:id", admin, c.ProposalHandler.Update)
		proposals.POST("/:id/approve", admin, c.ProposalHandler.Approve)
		proposals.POST("/:id/reject", admin, c.ProposalHandler.Reject)
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"backend":   appCtx.Config.App.Backend,
			"services":  gin.H{},
		}
		services := gin.H{}

		if appCtx.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			dbStatus := "ok"
			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = "unreachable"
				health["status"] = "degraded"
			}
			services["database"] = dbStatus
		}

		if appCtx.Cache != nil {
			cacheStatus := "ok"
			if err := appCtx.Cache.Ping(c.Request.Context()); err != nil {
				cacheStatus = "unreachable"
				health["status"] = "degraded"
			}
			services["cache"] = cacheStatus
		}

		health["services"] = services

		statusCode := 200
		if health["status"] != "ok" {
			statusCode = 503
		}
		c.JSON(statusCode, health)
	}
}
