package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/fixture"
	"github.com/romangod6/xmlsitemap/internal/language"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/sitemap"
	"go.uber.org/zap"
)

const sessionKey = "session"

type Handler struct {
	env    *fixture.Env
	logger *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ensureLanguageRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type resetSitemapsRequest struct {
	Contexts []models.SitemapContext `json:"contexts"`
}

type saveLinkRequest struct {
	Loc        string     `json:"loc" binding:"required"`
	Language   string     `json:"language"`
	Type       string     `json:"type"`
	LastMod    *time.Time `json:"lastmod"`
	ChangeFreq int        `json:"changefreq"`
	Priority   *float64   `json:"priority"`
	Status     *bool      `json:"status"`
}

func NewHandler(env *fixture.Env) *Handler {
	return &Handler{env: env, logger: env.Logger.Named("api")}
}

func (h *Handler) ListLanguages(c *gin.Context) {
	languages, err := h.env.Languages.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch languages", err)
		return
	}

	if languages == nil {
		languages = []*models.Language{}
	}

	c.JSON(http.StatusOK, languages)
}

func (h *Handler) EnsureLanguage(c *gin.Context) {
	var req ensureLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid language data"})
		return
	}

	lang, err := h.env.Languages.EnsureLanguage(c.Request.Context(), req.Code, req.Name)
	if errors.Is(err, language.ErrInvalidCode) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to save language", err)
		return
	}

	c.JSON(http.StatusOK, lang)
}

func (h *Handler) ListSitemaps(c *gin.Context) {
	sitemaps, err := h.env.Sitemaps.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to fetch sitemaps", err)
		return
	}

	if sitemaps == nil {
		sitemaps = []*models.Sitemap{}
	}

	c.JSON(http.StatusOK, sitemaps)
}

func (h *Handler) ResetSitemaps(c *gin.Context) {
	var req resetSitemapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid sitemap contexts"})
		return
	}

	sitemaps, err := h.env.Sitemaps.ResetAndSeed(c.Request.Context(), req.Contexts)
	if errors.Is(err, sitemap.ErrUnknownLanguage) ||
		errors.Is(err, sitemap.ErrDuplicateContext) ||
		errors.Is(err, language.ErrInvalidCode) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to reset sitemaps", err)
		return
	}

	if session := sessionFrom(c); session != nil {
		h.logger.Info("sitemaps reset via API", zap.String("actor", session.Actor.Name), zap.Int("count", len(sitemaps)))
	}

	c.JSON(http.StatusCreated, sitemaps)
}

func (h *Handler) SaveLink(c *gin.Context) {
	var req saveLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid link data"})
		return
	}

	lang := models.LanguageNone
	if req.Language != "" && req.Language != models.LanguageNone {
		registered, err := h.env.Languages.Get(c.Request.Context(), req.Language)
		if errors.Is(err, language.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		if err != nil {
			h.internalError(c, "Failed to check language", err)
			return
		}
		if registered == nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Language is not registered"})
			return
		}
		lang = registered.Code
	}

	link := models.NewLink(req.Loc, lang)
	if req.Type != "" {
		link.Type = req.Type
	}
	link.LastMod = req.LastMod
	link.ChangeFreq = req.ChangeFreq
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Priority must be between 0.0 and 1.0"})
			return
		}
		link.Priority = *req.Priority
	}
	if req.Status != nil {
		link.Status = *req.Status
	}

	if err := h.env.Store.SaveLink(c.Request.Context(), link); err != nil {
		h.internalError(c, "Failed to save link", err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// RenderSitemap serves the sitemap for ?language=, falling back to
// Accept-Language negotiation.
func (h *Handler) RenderSitemap(c *gin.Context) {
	ctx := c.Request.Context()

	lang := c.Query("language")
	if lang == "" {
		matched, err := h.env.Languages.Match(ctx, c.GetHeader("Accept-Language"))
		if errors.Is(err, language.ErrNoLanguages) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
			return
		}
		if err != nil {
			h.internalError(c, "Failed to negotiate language", err)
			return
		}
		lang = matched
	}

	sm, err := h.env.Sitemaps.Get(ctx, models.SitemapContext{models.ContextLanguage: lang})
	if err != nil {
		h.internalError(c, "Failed to fetch sitemap", err)
		return
	}

	h.writeSitemap(c, sm)
}

func (h *Handler) RenderSitemapByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid sitemap ID"})
		return
	}

	sm, err := h.env.Sitemaps.GetByID(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "Failed to fetch sitemap", err)
		return
	}

	h.writeSitemap(c, sm)
}

// writeSitemap serves the urlset of a single-chunk sitemap. Larger sitemaps
// are served as an index at page 0 and one urlset per ?page=N.
func (h *Handler) writeSitemap(c *gin.Context, sm *models.Sitemap) {
	if sm == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	page := 0
	if p := c.Query("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid page"})
			return
		}
		page = n
	}

	set, chunks, err := h.env.Builder.BuildChunk(c.Request.Context(), sm, max(page, 1))
	if errors.Is(err, sitemap.ErrChunkNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap page not found"})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to build sitemap", err)
		return
	}

	var buf bytes.Buffer
	if page == 0 && chunks > 1 {
		index := h.env.Builder.BuildIndex(sm, chunks, func(chunk int) string {
			query := c.Request.URL.Query()
			query.Set("page", strconv.Itoa(chunk))
			return c.Request.URL.Path + "?" + query.Encode()
		})
		err = sitemap.WriteIndex(&buf, index)
	} else {
		err = sitemap.Write(&buf, set)
	}
	if err != nil {
		h.internalError(c, "Failed to render sitemap", err)
		return
	}

	if lang := sm.Context.Language(); lang != "" {
		c.Header("Content-Language", lang)
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}

// Logout ends the caller's session.
func (h *Handler) Logout(c *gin.Context) {
	session := sessionFrom(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Missing session token"})
		return
	}

	h.env.Accounts.Logout(session.Token)
	c.Status(http.StatusNoContent)
}

// requireCapability admits requests carrying a live session token whose actor
// holds every listed capability.
func (h *Handler) requireCapability(capabilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Missing session token"})
			return
		}

		session, err := h.env.Accounts.Session(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid session token"})
			return
		}

		if err := session.Require(capabilities...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func (h *Handler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
}

// sessionFrom returns the session stored by requireCapability, if any.
func sessionFrom(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return nil
}
