package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"uni-directory/internal/common/config"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/observability"
)

// ==========================
// Test Helper Functions
// ==========================

func newFakeDirectoryAPI(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/universities/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/universities/":
			fmt.Fprint(w, `[
				{"id": 1, "name": "University of Dar es Salaam", "head_office": "Dar es Salaam", "university_type": "Public", "status": "Chartered"},
				{"id": 2, "name": "Sokoine University of Agriculture", "head_office": "Morogoro", "university_type": "Public"}
			]`)
		case "/api/universities/1/":
			fmt.Fprint(w, `{"id": 1, "name": "University of Dar es Salaam", "head_office": "Dar es Salaam", "status": "Chartered"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/api/programmes/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/programmes/":
			if r.URL.Query().Get("search") == "law" {
				fmt.Fprint(w, `{"count": 1, "results": [{"id": 9, "name": "Bachelor of Laws", "university_name": "University of Dar es Salaam", "award_level": "Bachelor"}]}`)
				return
			}
			fmt.Fprint(w, `{"count": 2, "results": [
				{"id": 7, "name": "BSc Computer Science", "university_name": "University of Dar es Salaam", "award_level": "Bachelor"},
				{"id": 9, "name": "Bachelor of Laws", "university_name": "University of Dar es Salaam", "award_level": "Bachelor"}
			]}`)
		case "/api/programmes/7/":
			fmt.Fprint(w, `{"id": 7, "name": "BSc Computer Science", "university_name": "University of Dar es Salaam",
				"courses": [{"code": "CS101", "name": "Programming I", "year": 1, "semester": 1, "credits": 12}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, apiURL string, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`app:
  name: unibrowse-test
api:
  base_url: %s/api
  timeout_ms: 2000
browsers:
  course-browser:
    enabled: true
    debounce_ms: 5
    page_size: 10
logging:
  level: error
  format: json
%s`, apiURL, extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ==========================
// Command Tests
// ==========================

func TestUniversitiesCommand(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	out, err := runCLI(t, "", "--config", cfgPath, "universities", "--region", "Morogoro")
	require.NoError(t, err)
	assert.Contains(t, out, "1 Institutions Found")
	assert.Contains(t, out, "[2] Sokoine University of Agriculture, Morogoro (Public)")
}

func TestProgrammeCommand(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	out, err := runCLI(t, "", "--config", cfgPath, "programme", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "BSc Computer Science")
	assert.Contains(t, out, "CS101 Programming I (12 credits)")
	assert.Contains(t, out, "/universities?search=University+of+Dar+es+Salaam")

	_, err = runCLI(t, "", "--config", cfgPath, "programme", "404")
	assert.Error(t, err)

	_, err = runCLI(t, "", "--config", cfgPath, "programme")
	assert.Error(t, err, "an id is required")
}

func TestUniversityCommand(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	out, err := runCLI(t, "", "--config", cfgPath, "university", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "University of Dar es Salaam [Accredited]")
	assert.Contains(t, out, "Browse all programmes: /courses?university=1")
}

func TestCoursesCommand(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	out, err := runCLI(t, "search law\nquit\n", "--config", cfgPath, "courses", "--query", "award_level=Bachelor")
	require.NoError(t, err)
	assert.Contains(t, out, "2 programmes found")
	assert.Contains(t, out, "1 programmes found")
	assert.Contains(t, out, "/courses?award_level=Bachelor&search=law")
}

func TestUniversitiesCommand_DisabledBrowser(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`api:
  base_url: %s/api
browsers:
  university-browser:
    enabled: false
    page_size: 10
logging:
  level: error
`, api.URL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := runCLI(t, "", "--config", path, "universities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestCachePurgedOnExit(t *testing.T) {
	api := newFakeDirectoryAPI(t)
	mr := miniredis.RunT(t)
	cfgPath := writeConfig(t, api.URL, fmt.Sprintf(`cache:
  enabled: true
  ttl_ms: 60000
  redis:
    address: %s
`, mr.Addr()))

	_, err := runCLI(t, "", "--config", cfgPath, "universities")
	require.NoError(t, err)
	assert.Empty(t, mr.Keys(), "session entries are removed when the command exits")
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "not-a-url", "")
	_, err := runCLI(t, "", "--config", cfgPath, "universities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

// ==========================
// Metrics Server Tests
// ==========================

func TestMetricsRouter(t *testing.T) {
	a := &app{
		cfg:       &config.Config{},
		zapLog:    zap.NewNop(),
		log:       logger.NewNoOpLogger(),
		obs:       observability.NewNoop(),
		sessionID: "session-1",
	}
	srv := httptest.NewServer(newMetricsRouter(a))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "session-1", health.Session)
	assert.Equal(t, "api", health.Backend)
	assert.False(t, health.Cache)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)

	notFound, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}
