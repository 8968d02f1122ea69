package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/klass-lk/blogboot/internal/store"
)

type PostController struct {
	postService *service.PostService
}

func NewPostController(postService *service.PostService) *PostController {
	return &PostController{
		postService: postService,
	}
}

func (c *PostController) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/posts", Handler: c.GetPosts},
		{Method: "GET", Path: "/posts/:id", Handler: c.GetPost},
		{Method: "POST", Path: "/posts", Handler: c.CreatePost},
		{Method: "PUT", Path: "/posts/:id", Handler: c.UpdatePost},
		{Method: "DELETE", Path: "/posts/:id", Handler: c.DeletePost},
	}
}

// recordResponse renders a single record as {id, fields}.
func recordResponse(record store.Record) gin.H {
	fields := store.Record{}
	for key, value := range record {
		if key == store.FieldID {
			continue
		}
		fields[key] = value
	}
	return gin.H{"id": record[store.FieldID], "fields": fields}
}

func validationDetails(details []model.FieldError) []gin.H {
	body := make([]gin.H, 0, len(details))
	for _, detail := range details {
		body = append(body, gin.H{"field": detail.Field, "message": detail.Message})
	}
	return body
}

func (c *PostController) GetPosts(ctx *gin.Context) {
	posts, err := c.postService.List()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, posts)
}

func (c *PostController) GetPost(ctx *gin.Context) {
	post, err := c.postService.Get(ctx.Param("id"))
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recordResponse(post))
}

func (c *PostController) CreatePost(ctx *gin.Context) {
	var fields store.Record
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request body"))
		return
	}
	if details := model.ValidatePost(fields); len(details) > 0 {
		server.SendValidationError(ctx, validationDetails(details))
		return
	}

	post, err := c.postService.Create(fields)
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, recordResponse(post))
}

func (c *PostController) UpdatePost(ctx *gin.Context) {
	var patch store.Record
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid request body"))
		return
	}
	if details := model.ValidatePostPatch(patch); len(details) > 0 {
		server.SendValidationError(ctx, validationDetails(details))
		return
	}

	post, err := c.postService.Update(ctx.Param("id"), patch)
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recordResponse(post))
}

func (c *PostController) DeletePost(ctx *gin.Context) {
	if err := c.postService.Delete(ctx.Param("id")); err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// PublicPostController serves the read-only endpoints the site itself uses.
type PublicPostController struct {
	postService *service.PostService
}

func NewPublicPostController(postService *service.PostService) *PublicPostController {
	return &PublicPostController{
		postService: postService,
	}
}

func (c *PublicPostController) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/posts", Handler: c.GetPosts},
		{Method: "GET", Path: "/posts/:slug", Handler: c.GetPost},
	}
}

func (c *PublicPostController) GetPosts(ctx *gin.Context) {
	posts, err := c.postService.List()
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, posts)
}

func (c *PublicPostController) GetPost(ctx *gin.Context) {
	post, err := c.postService.GetBySlug(ctx.Param("slug"))
	if err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, recordResponse(post))
}
