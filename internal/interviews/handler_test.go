package interviews

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(now)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestInterviewCRUD(t *testing.T) {
	r := newTestRouter(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	rec := doJSON(r, http.MethodPost, "/api/v1/interviews",
		`{"company_name":"Acme","job_title":"Backend Engineer","skills":["go"],"next_interview_date":"2026-03-20"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Interview
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.NextInterviewDate.String() != "2026-03-20" {
		t.Fatalf("unexpected created interview %+v", created)
	}

	rec = doJSON(r, http.MethodGet, "/api/v1/interviews/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var upcoming []Interview
	if err := json.Unmarshal(rec.Body.Bytes(), &upcoming); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != created.ID {
		t.Fatalf("unexpected upcoming %+v", upcoming)
	}

	rec = doJSON(r, http.MethodPut, "/api/v1/interviews/"+created.ID, `{"notes":"bring portfolio"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated Interview
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Notes == nil || *updated.Notes != "bring portfolio" || updated.CompanyName != "Acme" {
		t.Fatalf("unexpected updated interview %+v", updated)
	}

	rec = doJSON(r, http.MethodPut, "/api/v1/interviews/"+created.ID, `{"next_interview_date":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cleared Interview
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared.NextInterviewDate != nil || cleared.Notes == nil || *cleared.Notes != "bring portfolio" {
		t.Fatalf("expected only next_interview_date cleared, got %+v", cleared)
	}

	rec = doJSON(r, http.MethodDelete, "/api/v1/interviews/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var deleted map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if deleted["detail"] != "interview deleted" {
		t.Fatalf("unexpected delete body %v", deleted)
	}

	rec = doJSON(r, http.MethodGet, "/api/v1/interviews/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateInterviewValidation(t *testing.T) {
	r := newTestRouter(time.Now().UTC())

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing company", `{"job_title":"Engineer"}`, "validation_error"},
		{"blank title", `{"company_name":"Acme","job_title":"   "}`, "validation_error"},
		{"bad date", `{"company_name":"Acme","job_title":"Engineer","next_interview_date":"soon"}`, "invalid_request"},
	}
	for _, tc := range cases {
		rec := doJSON(r, http.MethodPost, "/api/v1/interviews", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body.Error.Code != tc.code {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.code, body.Error.Code)
		}
	}
}

func TestListInterviewsEmpty(t *testing.T) {
	r := newTestRouter(time.Now().UTC())

	rec := doJSON(r, http.MethodGet, "/api/v1/interviews", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}
