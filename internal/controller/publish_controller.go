package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/publish"
	"github.com/klass-lk/blogboot/internal/server"
)

type PublishController struct {
	publisher *publish.Publisher
}

func NewPublishController(publisher *publish.Publisher) *PublishController {
	return &PublishController{
		publisher: publisher,
	}
}

func (c *PublishController) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/generate-sitemap", Handler: c.GenerateSitemap},
		{Method: "POST", Path: "/generate-robots", Handler: c.GenerateRobots},
	}
}

type publishRequest struct {
	Content string `json:"content" binding:"required"`
}

func (c *PublishController) GenerateSitemap(ctx *gin.Context) {
	var request publishRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Content is required"))
		return
	}
	if err := c.publisher.PublishSitemap(request.Content); err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Sitemap generated"})
}

func (c *PublishController) GenerateRobots(ctx *gin.Context) {
	var request publishRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Content is required"))
		return
	}
	if err := c.publisher.PublishRobots(request.Content); err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Robots file generated"})
}
