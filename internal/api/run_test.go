package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/config"
	"github.com/naka-gawa/repo-profiles/internal/gateway"
	"github.com/naka-gawa/repo-profiles/internal/usecase"
)

// newFakeGitHub serves two repositories for "adriangb" and 404 for anyone else.
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	type repo struct {
		languages map[string]int
		topics    []string
	}
	repos := map[string]repo{
		"repo1": {languages: map[string]int{"Python": 1024, "C": 2048}, topics: []string{"AI"}},
		"repo2": {languages: map[string]int{}, topics: []string{}},
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{profile}/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("profile") != "adriangb" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, []map[string]any{
			{"name": "repo1", "fork": false, "watchers": 0},
			{"name": "repo2", "fork": true, "watchers": 2},
		})
	})
	mux.HandleFunc("GET /repos/adriangb/{repo}/topics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"names": repos[r.PathValue("repo")].topics})
	})
	mux.HandleFunc("GET /repos/adriangb/{repo}/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, repos[r.PathValue("repo")].languages)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newFakeBitbucket serves two repositories for "adriangb" and 404 for anyone else.
func newFakeBitbucket(t *testing.T) *httptest.Server {
	t.Helper()
	watchers := map[string][]any{
		"repo1": {map[string]any{"display_name": "a"}, map[string]any{"display_name": "b"}},
		"repo2": {},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /2.0/repositories/{profile}/{$}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("profile") != "adriangb" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"values": []map[string]any{
			{"slug": "repo1", "language": "python"},
			{"slug": "repo2", "language": "", "parent": true},
		}})
	})
	mux.HandleFunc("GET /2.0/repositories/adriangb/{slug}/watchers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"values": watchers[r.PathValue("slug")]})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T, githubURL, bitbucketURL string) *echo.Echo {
	t.Helper()
	l := zap.NewNop()

	github, err := gateway.NewGitHubGateway(gateway.GitHubOptions{BaseURL: githubURL, Concurrency: 4, RequestTimeout: 5 * time.Second}, l)
	require.NoError(t, err)
	bitbucket := gateway.NewBitbucketGateway(gateway.BitbucketOptions{BaseURL: bitbucketURL + "/2.0", Concurrency: 4, RequestTimeout: 5 * time.Second}, l)
	t.Cleanup(github.Close)
	t.Cleanup(bitbucket.Close)

	aggregator := usecase.NewAggregator([]gateway.Provider{github, bitbucket}, time.Minute, l)
	return NewServer(&config.Config{Env: "test"}, l, aggregator)
}

func TestProfilesEndToEnd(t *testing.T) {
	e := newTestServer(t, newFakeGitHub(t).URL, newFakeBitbucket(t).URL)

	testCases := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "merged profile",
			path:           "/v1/profiles/adriangb",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"repositories":{"forked":2,"owned":2,"topics":["AI"]},"watchers":4,"languages":{"python":1,"c":1,"other":2}}`,
		},
		{
			name:           "profile absent from both providers",
			path:           "/v1/profiles/nobody",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Resource not found"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestRateLimitedProviderYields429(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer limited.Close()

	e := newTestServer(t, limited.URL, newFakeBitbucket(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/adriangb", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"Rate limit exceeded"}`, rec.Body.String())
}

func TestHealthcheckIgnoresProviders(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	down.Close()

	e := newTestServer(t, down.URL, down.URL)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
