package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pearcestephens/catalogmatch/config"
	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/infrastructure/cache"
	"github.com/pearcestephens/catalogmatch/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubCatalog is an in-memory domain.CatalogRepository
type stubCatalog struct {
	mu      sync.Mutex
	entries []domain.CatalogEntry
	err     error
}

func (s *stubCatalog) ListActive(ctx context.Context) ([]domain.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.CatalogEntry(nil), s.entries...), nil
}

func (s *stubCatalog) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func testEntries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{ID: "1", SKU: "SMK-RPM80-STR", Name: "SMOK RPM80 Pod Kit Strawberry", Brand: "SMOK", Model: "RPM80",
			Attributes: domain.Attributes{Flavor: "Strawberry", Nicotine: "3mg"}},
		{ID: "2", SKU: "VAP-GEN-MNG", Name: "Vaporesso Gen Pod Kit Mango", Brand: "Vaporesso", Model: "GEN"},
		{ID: "3", SKU: "SMK-NORD4", Name: "SMOK Nord 4 Kit", Brand: "SMOK", Model: "Nord 4"},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a test router backed by repo
func setupTestRouter(t *testing.T, repo domain.CatalogRepository) *gin.Engine {
	t.Helper()

	matcher, _ := usecase.NewMatcher(context.Background(), repo, usecase.DefaultMatcherConfig(), nil)
	memoryCache := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = memoryCache.Close() })

	service := usecase.NewMatchService(matcher, memoryCache, usecase.MatchServiceConfig{}, nil)
	return SetupRouter(testConfig(), NewHandler(service, nil), nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(t, &stubCatalog{entries: testEntries()})

		w, response := doJSON(t, router, "GET", "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "catalogmatch", response["service"])
		assert.EqualValues(t, 3, response["catalog_entries"])
	})

	t.Run("reports degraded catalog", func(t *testing.T) {
		router := setupTestRouter(t, &stubCatalog{err: errors.New("connection refused")})

		w, response := doJSON(t, router, "GET", "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", response["status"])
		assert.Contains(t, response["error"], "catalog unavailable")
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(t, &stubCatalog{})

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w, _ := doJSON(t, router, method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})

	t.Run("unconfigured service", func(t *testing.T) {
		router := SetupRouter(testConfig(), NewHandler(nil, nil), nil)

		w, response := doJSON(t, router, "GET", "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", response["status"])
	})
}

func TestMatchEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{entries: testEntries()})

	t.Run("matches product", func(t *testing.T) {
		w, response := doJSON(t, router, "POST", "/api/v1/match",
			`{"name":"SMOK RPM80 Pod Kit Strawberry","sku_or_model":"SMK-RPM80-STR"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, response["matched"])
		best, ok := response["best"].(map[string]any)
		require.True(t, ok, "best = %v", response["best"])
		assert.Equal(t, "1", best["catalog_entry_id"])
		assert.NotEmpty(t, response["match_level"])
	})

	t.Run("unmatched product is not an error", func(t *testing.T) {
		w, response := doJSON(t, router, "POST", "/api/v1/match", `{"name":"Garden Hose 20m"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, response["matched"])
		assert.Equal(t, "poor", response["match_level"])
		assert.Equal(t, []any{}, response["alternatives"])
	})

	t.Run("rejects missing name", func(t *testing.T) {
		w, response := doJSON(t, router, "POST", "/api/v1/match", `{"brand":"SMOK"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, response["error"], "invalid request")
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		w, _ := doJSON(t, router, "POST", "/api/v1/match", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
			w, _ := doJSON(t, router, method, "/api/v1/match", "")
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})

	t.Run("catalog unavailable returns 503 with result", func(t *testing.T) {
		down := setupTestRouter(t, &stubCatalog{err: errors.New("connection refused")})

		w, response := doJSON(t, down, "POST", "/api/v1/match", `{"name":"SMOK Nord 4 Kit"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		result, ok := response["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, result["matched"])
		assert.Equal(t, usecase.ReasonCatalogUnavailable, result["reason"])
	})
}

func TestMatchBatchEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{entries: testEntries()})

	t.Run("keeps input order", func(t *testing.T) {
		w, response := doJSON(t, router, "POST", "/api/v1/match/batch",
			`{"products":[{"name":"SMOK Nord 4 Kit"},{"name":""},{"name":"Vaporesso Gen Pod Kit Mango"}]}`)

		require.Equal(t, http.StatusOK, w.Code)
		results, ok := response["results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 3)

		first := results[0].(map[string]any)
		assert.Equal(t, "3", first["best"].(map[string]any)["catalog_entry_id"])
		second := results[1].(map[string]any)
		assert.Equal(t, usecase.ReasonNoName, second["reason"])
		third := results[2].(map[string]any)
		assert.Equal(t, "2", third["best"].(map[string]any)["catalog_entry_id"])
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		w, _ := doJSON(t, router, "POST", "/api/v1/match/batch", `{"products":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		items := make([]string, MaxBatchSize+1)
		for i := range items {
			items[i] = `{"name":"x"}`
		}
		w, _ := doJSON(t, router, "POST", "/api/v1/match/batch", `{"products":[`+strings.Join(items, ",")+`]}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestExtractEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{entries: testEntries()})

	w, response := doJSON(t, router, "POST", "/api/v1/extract", `{"text":"Vaporesso XROS 3 Pod Kit 3mg/ml"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vaporesso", response["brand"])
	assert.Equal(t, "3mg/ml", response["nicotine"])

	w, response = doJSON(t, router, "POST", "/api/v1/extract", `{"text":"plain text"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, response)
}

func TestCatalogEndpoints(t *testing.T) {
	repo := &stubCatalog{entries: testEntries()}
	router := setupTestRouter(t, repo)

	w, info := doJSON(t, router, "GET", "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, info["entries"])
	assert.EqualValues(t, 1, info["generation"])
	assert.NotEmpty(t, info["loaded_at"])

	w, refreshed := doJSON(t, router, "POST", "/api/v1/catalog/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, refreshed["generation"])

	repo.fail(errors.New("connection reset"))
	w, _ = doJSON(t, router, "POST", "/api/v1/catalog/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// The healthy snapshot stays in place after a failed refresh.
	w, info = doJSON(t, router, "GET", "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, info["entries"])
	assert.Nil(t, info["error"])
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{})
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w, response := doJSON(t, router, "GET", "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", response["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{entries: testEntries()})
	doJSON(t, router, "POST", "/api/v1/match", `{"name":"SMOK Nord 4 Kit"}`)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "catalogmatch_matching_results_total")
}

// TestJSONResponses tests that API responses are valid JSON
func TestJSONResponses(t *testing.T) {
	router := setupTestRouter(t, &stubCatalog{entries: testEntries()})

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/api/v1/catalog"},
		{"POST", "/api/v1/match"},
		{"POST", "/api/v1/extract"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			req := httptest.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			var response map[string]any
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		})
	}
}
