package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(f IssueFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(f)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestRepositoriesAvailable(t *testing.T) {
	r := newTestRouter(&fakeFetcher{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/repositories-available", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a bare JSON array: %v", err)
	}
	if len(body) != len(Repositories) || body[0] != Repositories[0] {
		t.Fatalf("expected %v, got %v", Repositories, body)
	}
}

func TestJobListingsUnknownRepository(t *testing.T) {
	r := newTestRouter(&fakeFetcher{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/job-listings?repository=evil/repo", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJobListingsFiltered(t *testing.T) {
	r := newTestRouter(&fakeFetcher{byRepo: map[string][]Listing{
		"backend-br/vagas": {{Title: "go", Repository: "backend-br/vagas"}},
	}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/job-listings?repository=backend-br/vagas", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "go" {
		t.Fatalf("unexpected items %+v", items)
	}
}
