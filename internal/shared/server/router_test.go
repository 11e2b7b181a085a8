package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"techstep-backend/internal/interviews"
	"techstep-backend/internal/jobs"
	"techstep-backend/internal/shared/config"
)

func testDeps() RouterDeps {
	return RouterDeps{
		Config:           config.Config{Env: "test", CORSAllowOrigin: []string{"http://localhost:5173"}},
		InterviewHandler: interviews.NewHandler(interviews.NewService(interviews.NewMemoryRepo(), 0)),
		JobsHandler:      jobs.NewHandler(jobs.NewService(jobs.NewClient("http://127.0.0.1:0", ""))),
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	r := NewRouter(testDeps())

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if body["ok"] != true || body["database"] != "memory" {
			t.Fatalf("%s: unexpected body %v", path, body)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(testDeps())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "feedback_tasks_submitted_total") {
		t.Fatalf("expected feedback counters, got %s", rec.Body.String())
	}
}

func TestDomainRoutesMounted(t *testing.T) {
	r := NewRouter(testDeps())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for interviews, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/repositories-available", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for repositories, got %d", rec.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
