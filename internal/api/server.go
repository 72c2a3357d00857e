package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/fixture"
)

type Server struct {
	router *gin.Engine
	port   int
	server *http.Server
}

func NewServer(port int, env *fixture.Env) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler := NewHandler(env)

	// Public sitemap documents
	router.GET("/sitemap.xml", handler.RenderSitemap)
	router.GET("/sitemaps/:id/sitemap.xml", handler.RenderSitemapByID)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		languages := api.Group("/languages")
		{
			languages.GET("", handler.ListLanguages)
			languages.POST("", handler.requireCapability(auth.AdministerLanguages), handler.EnsureLanguage)
		}

		sitemaps := api.Group("/sitemaps")
		{
			sitemaps.GET("", handler.ListSitemaps)
			sitemaps.POST("/reset", handler.requireCapability(auth.AdministerXMLSitemap), handler.ResetSitemaps)
		}

		api.POST("/links", handler.requireCapability(auth.AdministerXMLSitemap), handler.SaveLink)
		api.DELETE("/sessions", handler.requireCapability(), handler.Logout)
	}

	return &Server{
		router: router,
		port:   port,
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
