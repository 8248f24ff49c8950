// Package api wires HTTP routes and middleware.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oszuidwest/zwfm-crudread/internal/api/handlers"
	"github.com/oszuidwest/zwfm-crudread/internal/auth"
	"github.com/oszuidwest/zwfm-crudread/internal/config"
	"github.com/oszuidwest/zwfm-crudread/internal/utils"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
	"github.com/oszuidwest/zwfm-crudread/pkg/version"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// SetupRouter configures and returns the main API router with all routes and middleware.
func SetupRouter(cfg *config.Config, readSvc handlers.ReadService, authService *auth.Service) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	h := handlers.NewHandlers(readSvc, authService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestLogger())
	r.Use(corsMiddleware(cfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	})

	v1 := r.Group("/api/v1")
	v1.Use(authService.Middleware())
	{
		v1.GET("/resources", h.ListResources)

		read := authService.RequirePermission(":resource", auth.ActionRead)
		v1.GET("/read/:resource", read, h.Read)
		v1.POST("/read/:resource", read, h.Read)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.ProblemNotFound(c, "Endpoint not found")
	})

	return r
}

// requestIDMiddleware reuses a well-formed incoming request ID or creates
// one, exposes it on the response and stores it for problem trace IDs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(utils.TraceIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		client, _ := auth.ClientName(c)
		logger.Info("%s %s %d %s client=%q request_id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Microsecond), client, c.GetString(utils.TraceIDKey))
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If no allowed origins are configured, disable CORS (secure by default)
		if cfg.Server.AllowedOrigins == "" {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		if isAllowedOrigin(origin, cfg.Server.AllowedOrigins) {
			// Delete any existing CORS headers that might be set by proxies
			c.Writer.Header().Del("Access-Control-Allow-Origin")
			c.Writer.Header().Del("Access-Control-Allow-Headers")
			c.Writer.Header().Del("Access-Control-Allow-Methods")

			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the comma-separated list of allowed origins
func isAllowedOrigin(origin string, allowedOrigins string) bool {
	if origin == "" {
		return false
	}

	for allowed := range strings.SplitSeq(allowedOrigins, ",") {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}

	return false
}
