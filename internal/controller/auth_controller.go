package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/logging"
	"github.com/klass-lk/blogboot/internal/middleware"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/klass-lk/blogboot/internal/token"
)

type AuthController struct {
	authService *service.AuthService
	tokens      *token.Service
}

func NewAuthController(authService *service.AuthService, tokens *token.Service) *AuthController {
	return &AuthController{
		authService: authService,
		tokens:      tokens,
	}
}

func (c *AuthController) Routes() []server.Route {
	requireAuth := middleware.RequireAuth(c.tokens)
	return []server.Route{
		{Method: "POST", Path: "/login", Handler: c.Login},
		{Method: "POST", Path: "/refresh-token", Handler: c.Refresh},
		{Method: "POST", Path: "/logout", Handler: c.Logout, Middleware: []gin.HandlerFunc{requireAuth}},
	}
}

func (c *AuthController) Login(ctx *gin.Context) {
	var request model.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Password is required"))
		return
	}

	response, err := c.authService.Login(request.Password, ctx.ClientIP())
	logging.LogAuthAttempt(err == nil, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		server.SendError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        response.Token,
		"refreshToken": response.RefreshToken,
		"expiresIn":    response.ExpiresIn,
	})
}

func (c *AuthController) Refresh(ctx *gin.Context) {
	var request model.RefreshRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		server.SendError(ctx, server.NewApiError(http.StatusBadRequest, "VALIDATION_FAILED", "Refresh token is required"))
		return
	}

	response, err := c.authService.Refresh(request.RefreshToken, ctx.ClientIP())
	if err != nil {
		server.SendError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     response.Token,
		"expiresIn": response.ExpiresIn,
	})
}

func (c *AuthController) Logout(ctx *gin.Context) {
	raw, ok := middleware.TokenFrom(ctx)
	if !ok {
		server.SendError(ctx, server.ErrNoToken)
		return
	}
	if err := c.authService.Logout(raw); err != nil {
		server.SendError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}
