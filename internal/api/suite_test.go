package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/controller"
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

type apiSuite struct {
	t        *testing.T
	router   *gin.Engine
	resp     *http.Response
	respBody []byte
	storage  map[string]string
}

func newAPISuite(t *testing.T) *apiSuite {
	documents, err := store.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

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
				controller.NewAuthController(authService, tokens),
			},
		},
		server.RouterGroup{
			Path:       "/api",
			Middleware: []gin.HandlerFunc{middleware.RequireAuth(tokens)},
			Controllers: []server.Controller{
				controller.NewPostController(postService),
				controller.NewSiteController(siteService, visits),
				controller.NewPublishController(publisher),
			},
		},
		server.RouterGroup{
			Path:       "/api/public",
			Middleware: []gin.HandlerFunc{middleware.OptionalAuth(tokens), visits.Middleware()},
			Controllers: []server.Controller{
				controller.NewPublicPostController(postService),
			},
		},
	)

	return &apiSuite{
		t:       t,
		router:  srv.Engine(),
		storage: make(map[string]string),
	}
}

// expandPath substitutes {key} placeholders with values stored earlier in
// the scenario.
func (s *apiSuite) expandPath(path string) string {
	for key, value := range s.storage {
		path = strings.ReplaceAll(path, "{"+key+"}", value)
	}
	return path
}

func (s *apiSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]interface{})
	row := body.Rows[1]
	for j, cell := range row.Cells {
		data[headers[j].Value] = cell.Value
	}
	return json.Marshal(data)
}

func (s *apiSuite) send(method, path string, body []byte, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequest(method, s.expandPath(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+s.storage["authToken"])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.resp = w.Result()
	s.respBody, err = io.ReadAll(s.resp.Body)
	return err
}

func (s *apiSuite) iSendAPOSTRequestToWithBody(path string, body *godog.Table) error {
	payload, err := s.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return s.send("POST", path, payload, false)
}

func (s *apiSuite) iSendAnAuthenticatedPOSTRequestToWithBody(path string, body *godog.Table) error {
	payload, err := s.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return s.send("POST", path, payload, true)
}

func (s *apiSuite) iSendAnAuthenticatedPUTRequestToWithBody(path string, body *godog.Table) error {
	payload, err := s.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return s.send("PUT", path, payload, true)
}

func (s *apiSuite) iSendAGETRequestTo(path string) error {
	return s.send("GET", path, nil, false)
}

func (s *apiSuite) iSendAnAuthenticatedGETRequestTo(path string) error {
	return s.send("GET", path, nil, true)
}

func (s *apiSuite) iSendAnAuthenticatedDELETERequestTo(path string) error {
	return s.send("DELETE", path, nil, true)
}

func (s *apiSuite) theResponseStatusShouldBe(status int) error {
	if s.resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.resp.StatusCode, s.respBody)
	}
	return nil
}

func (s *apiSuite) theResponseFieldIsStoredAs(field, key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(s.respBody, &data); err != nil {
		return err
	}
	value, ok := data[field]
	if !ok {
		return fmt.Errorf("field %s not found in response", field)
	}
	s.storage[key] = fmt.Sprintf("%v", value)
	return nil
}

func (s *apiSuite) theResponseFieldShouldBe(field, expected string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(s.respBody, &data); err != nil {
		return err
	}
	value, ok := data[field]
	if !ok {
		return fmt.Errorf("field %s not found in response", field)
	}
	if actual := fmt.Sprintf("%v", value); actual != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, actual)
	}
	return nil
}

func (s *apiSuite) theResponseShouldListItems(count int) error {
	var items []interface{}
	if err := json.Unmarshal(s.respBody, &items); err != nil {
		return err
	}
	if len(items) != count {
		return fmt.Errorf("expected %d items, got %d", count, len(items))
	}
	return nil
}

func (s *apiSuite) register(ctx *godog.ScenarioContext) {
	ctx.Step(`^I send a POST request to "([^"]*)" with body$`, s.iSendAPOSTRequestToWithBody)
	ctx.Step(`^I send an authenticated POST request to "([^"]*)" with body$`, s.iSendAnAuthenticatedPOSTRequestToWithBody)
	ctx.Step(`^I send an authenticated PUT request to "([^"]*)" with body$`, s.iSendAnAuthenticatedPUTRequestToWithBody)
	ctx.Step(`^I send a GET request to "([^"]*)"$`, s.iSendAGETRequestTo)
	ctx.Step(`^I send an authenticated GET request to "([^"]*)"$`, s.iSendAnAuthenticatedGETRequestTo)
	ctx.Step(`^I send an authenticated DELETE request to "([^"]*)"$`, s.iSendAnAuthenticatedDELETERequestTo)
	ctx.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, s.theResponseFieldIsStoredAs)
	ctx.Step(`^the response "([^"]*)" field should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	ctx.Step(`^the response should list (\d+) items$`, s.theResponseShouldListItems)
}
