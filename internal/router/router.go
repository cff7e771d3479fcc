package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anishka-v/eco-dining/internal/auth"
	"github.com/anishka-v/eco-dining/internal/live"
	"github.com/anishka-v/eco-dining/internal/logger"
	"github.com/anishka-v/eco-dining/internal/metrics"
	"github.com/anishka-v/eco-dining/internal/middleware"
	"github.com/anishka-v/eco-dining/internal/report"
	"github.com/anishka-v/eco-dining/internal/scan"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const ServiceName = "dining-waste-tracker"

type Deps struct {
	Log     *slog.Logger
	Metrics *metrics.Metrics

	Auth    *auth.Service
	Tokens  *auth.Tokens
	Scans   *scan.Service
	Reports *report.Service
	Live    *live.Hub

	AuthRequired    bool
	DefaultSchoolID string
	CORSOrigins     []string
	MaxUploadBytes  int64
}

func New(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(d.Metrics.Middleware())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	// ───────────────────────── PUBLIC ─────────────────────────
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// ───────────────────────── AUTH ─────────────────────────
	// Staff accounts are created by an admin; only login is public.
	if d.Auth != nil {
		authHandler := auth.NewHandler(d.Auth)
		authGroup := r.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register",
				middleware.AuthMiddleware(d.Tokens),
				middleware.RequireRole(auth.RoleAdmin),
				authHandler.Register,
			)
		}
	}

	// ───────────────────────── DINING API ─────────────────────────
	api := r.Group("/api")
	if d.AuthRequired {
		api.Use(
			middleware.AuthMiddleware(d.Tokens),
			middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin),
		)
	}
	api.Use(
		middleware.BodyLimit(scan.MaxRequestBytes(d.MaxUploadBytes)),
		middleware.SchoolScope(d.DefaultSchoolID, d.AuthRequired),
	)
	{
		scanHandler := scan.NewHandler(d.Scans, d.MaxUploadBytes)
		api.POST("/scan", scanHandler.Scan)
		api.GET("/scans/recent", scanHandler.Recent)

		reportHandler := report.NewHandler(d.Reports)
		api.GET("/daily-report", reportHandler.Daily)
		api.GET("/weekly-report", reportHandler.Weekly)
		api.GET("/insights", reportHandler.Insights)

		if d.Live != nil {
			api.GET("/live", d.Live.ServeWS)
		}
	}

	return r
}

// corsConfig allows the listed origins with credentials. An empty list or "*"
// allows any origin without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
