package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/middleware"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/klass-lk/blogboot/internal/store"
)

// SiteController exposes pages, site config and the admin maintenance
// endpoints.
type SiteController struct {
	siteService *service.SiteService
	visits      *middleware.VisitCounter
}

func NewSiteController(siteService *service.SiteService, visits *middleware.VisitCounter) *SiteController {
	return &SiteController{
		siteService: siteService,
		visits:      visits,
	}
}

func (c *SiteController) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/pages", Handler: c.GetPages},
		{Method: "GET", Path: "/pages/:slug", Handler: c.GetPage},
		{Method: "PUT", Path: "/pages/:slug", Handler: c.UpsertPage},
		{Method: "GET", Path: "/config", Handler: c.GetConfig},
		{Method: "PUT", Path: "/config", Handler: c.UpdateConfig},
		{Method: "GET", Path: "/export", Handler: c.Export},
		{Method: "POST", Path: "/import", Handler: c.Import},
		{Method: "GET", Path: "/stats", Handler: c.Stats},
	}
}

func (c *SiteController) GetPages(ctx *gin.Context) {
	pages, err := c.siteService.ListPages()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pages)
}

func (c *SiteController) GetPage(ctx *gin.Context) {
	page, err := c.siteService.GetPage(ctx.Param("slug"))
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recordResponse(page))
}

func (c *SiteController) UpsertPage(ctx *gin.Context) {
	var fields store.Record
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request body"))
		return
	}
	fields["slug"] = ctx.Param("slug")
	if details := model.ValidatePage(fields); len(details) > 0 {
		server.SendValidationError(ctx, validationDetails(details))
		return
	}

	page, err := c.siteService.UpsertPage(fields)
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recordResponse(page))
}

func (c *SiteController) GetConfig(ctx *gin.Context) {
	config, err := c.siteService.GetConfig()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, config)
}

func (c *SiteController) UpdateConfig(ctx *gin.Context) {
	var patch store.Record
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request body"))
		return
	}
	config, err := c.siteService.UpdateConfig(patch)
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, config)
}

func (c *SiteController) Export(ctx *gin.Context) {
	dump, err := c.siteService.Export()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dump)
}

func (c *SiteController) Import(ctx *gin.Context) {
	var dump store.Dump
	if err := ctx.ShouldBindJSON(&dump); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request body"))
		return
	}
	if err := c.siteService.Import(dump); err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Import complete"})
}

func (c *SiteController) Stats(ctx *gin.Context) {
	counts, err := c.siteService.Stats()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"totalPosts":   counts.TotalPosts,
		"totalPages":   counts.TotalPages,
		"lastPostDate": counts.LastPostDate,
		"visits":       c.visits.Count(),
	})
}
