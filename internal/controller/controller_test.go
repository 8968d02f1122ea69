package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/blogboot/internal/middleware"
	"github.com/klass-lk/blogboot/internal/publish"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/klass-lk/blogboot/internal/store"
	"github.com/klass-lk/blogboot/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router *gin.Engine
	tokens *token.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	documents, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)

	tokens := token.NewService(token.Config{Secret: "test-secret"}, nil)
	authService := service.NewAuthService(tokens, "hunter2", "")
	postService := service.NewPostService(documents)
	siteService := service.NewSiteService(documents)
	publisher := publish.NewPublisher(publish.NewLocalFileService(t.TempDir()))
	visits := middleware.NewVisitCounter()

	srv := server.New()
	srv.RegisterGroups(
		server.RouterGroup{
			Path: "/api",
			Controllers: []server.Controller{
				NewAuthController(authService, tokens),
			},
		},
		server.RouterGroup{
			Path:       "/api",
			Middleware: []gin.HandlerFunc{middleware.RequireAuth(tokens)},
			Controllers: []server.Controller{
				NewPostController(postService),
				NewSiteController(siteService, visits),
				NewPublishController(publisher),
			},
		},
		server.RouterGroup{
			Path:       "/api/public",
			Middleware: []gin.HandlerFunc{middleware.OptionalAuth(tokens), visits.Middleware()},
			Controllers: []server.Controller{
				NewPublicPostController(postService),
			},
		},
	)
	return &testApp{router: srv.Engine(), tokens: tokens}
}

func (app *testApp) request(t *testing.T, method, path, authToken string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp := httptest.NewRecorder()
	app.router.ServeHTTP(resp, req)
	return resp
}

func (app *testApp) login(t *testing.T) string {
	t.Helper()
	resp := app.request(t, http.MethodPost, "/api/login", "", gin.H{"password": "hunter2"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	accessToken, _ := body["token"].(string)
	require.NotEmpty(t, accessToken)
	return accessToken
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestLoginAndRefreshFlow(t *testing.T) {
	app := newTestApp(t)

	resp := app.request(t, http.MethodPost, "/api/login", "", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, resp)["code"])

	resp = app.request(t, http.MethodPost, "/api/login", "", gin.H{"password": "hunter2"})
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["refreshToken"])
	assert.Equal(t, float64(7200), body["expiresIn"])

	refreshToken := body["refreshToken"].(string)
	resp = app.request(t, http.MethodPost, "/api/refresh-token", "", gin.H{"refreshToken": refreshToken})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, decodeBody(t, resp)["token"])

	accessToken := body["token"].(string)
	resp = app.request(t, http.MethodPost, "/api/refresh-token", "", gin.H{"refreshToken": accessToken})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "INVALID_TOKEN_TYPE", decodeBody(t, resp)["code"])
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	resp := app.request(t, http.MethodPost, "/api/logout", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/posts", accessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeBody(t, resp)["code"])
}

func TestPostCRUD(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	post := gin.H{
		"title":   "Hello World",
		"author":  "Jo",
		"date":    "2024-01-01",
		"content": "Body text",
		"excerpt": "Short",
	}
	resp := app.request(t, http.MethodPost, "/api/posts", accessToken, post)
	require.Equal(t, http.StatusCreated, resp.Code)

	created := decodeBody(t, resp)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	fields := created["fields"].(map[string]any)
	assert.Equal(t, "hello-world", fields["slug"])
	assert.NotContains(t, fields, "id")

	resp = app.request(t, http.MethodGet, "/api/posts", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0]["id"])
	assert.Equal(t, "Hello World", listed[0]["title"])

	resp = app.request(t, http.MethodPut, "/api/posts/"+id, accessToken, gin.H{"title": "Hello Again"})
	require.Equal(t, http.StatusOK, resp.Code)
	updated := decodeBody(t, resp)
	assert.Equal(t, "hello-again", updated["fields"].(map[string]any)["slug"])

	resp = app.request(t, http.MethodDelete, "/api/posts/"+id, accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Post deleted", decodeBody(t, resp)["message"])

	resp = app.request(t, http.MethodGet, "/api/posts/"+id, accessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPostValidationDetails(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	resp := app.request(t, http.MethodPost, "/api/posts", accessToken, gin.H{"title": "No body"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	details := body["details"].([]any)
	assert.NotEmpty(t, details)
}

func TestPublicEndpointsNeedNoToken(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	post := gin.H{
		"title":   "Public Post",
		"author":  "Jo",
		"date":    "2024-01-01",
		"content": "Body",
		"excerpt": "Short",
	}
	resp := app.request(t, http.MethodPost, "/api/posts", accessToken, post)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/public/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/public/posts/public-post", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "public-post", decodeBody(t, resp)["fields"].(map[string]any)["slug"])

	resp = app.request(t, http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "NO_TOKEN", decodeBody(t, resp)["code"])
}

func TestPagesAndConfig(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	resp := app.request(t, http.MethodPut, "/api/pages/about", accessToken, gin.H{"content": "About us"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodPut, "/api/pages/about", accessToken, gin.H{"content": "Rewritten"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/pages", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var pages []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pages))
	assert.Len(t, pages, 1)

	resp = app.request(t, http.MethodPut, "/api/config", accessToken, gin.H{"theme": "dark"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/config", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	config := decodeBody(t, resp)
	assert.Equal(t, "dark", config["theme"])
	assert.NotEmpty(t, config["lastUpdated"])
}

func TestStatsCountsVisits(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	app.request(t, http.MethodGet, "/api/public/posts", "", nil)
	app.request(t, http.MethodGet, "/api/public/posts", "", nil)
	app.request(t, http.MethodGet, "/api/public/posts", accessToken, nil)

	resp := app.request(t, http.MethodGet, "/api/stats", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	stats := decodeBody(t, resp)
	assert.Equal(t, float64(2), stats["visits"])
}

func TestGenerateSitemapAndRobots(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	sitemap := `<?xml version="1.0"?><urlset><url><loc>https://example.com/</loc></url></urlset>`
	resp := app.request(t, http.MethodPost, "/api/generate-sitemap", accessToken, gin.H{"content": sitemap})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodPost, "/api/generate-sitemap", accessToken, gin.H{"content": "<html></html>"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = app.request(t, http.MethodPost, "/api/generate-robots", accessToken, gin.H{"content": "User-agent: *\nAllow: /"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodPost, "/api/generate-robots", accessToken, gin.H{"content": "nothing here"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestExportImport(t *testing.T) {
	app := newTestApp(t)
	accessToken := app.login(t)

	post := gin.H{
		"title":   "Exported",
		"author":  "Jo",
		"date":    "2024-01-01",
		"content": "Body",
		"excerpt": "Short",
	}
	resp := app.request(t, http.MethodPost, "/api/posts", accessToken, post)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/export", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var dump map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &dump))
	assert.Len(t, dump["posts"], 1)

	resp = app.request(t, http.MethodPost, "/api/import", accessToken, dump)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.request(t, http.MethodGet, "/api/stats", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(1), decodeBody(t, resp)["totalPosts"])
}
