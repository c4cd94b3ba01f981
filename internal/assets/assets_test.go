package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
)

func setupDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<html><title>home</title></html>",
		"app.js":           "console.log('hi')",
		"style.css":        "body{}",
		"data.json":        `{"a":1}`,
		"nested/page.html": "<p>nested</p>",
		"blob":             "%PDF-1.4 fake",
		"secret/key.txt":   "hunter2",
		"maps/app.js.map":  "{}",
		"big/bundle.js":    strings.Repeat("var x = 1;\n", 500),
	}
	for name, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	return dir
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServe(t *testing.T) {
	h, err := New(Config{Dir: setupDir(t), Exclude: []string{"secret/**", "**/*.map"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"root serves index", "/", http.StatusOK, "text/html", "<html><title>home</title></html>"},
		{"javascript", "/app.js", http.StatusOK, "text/javascript", "console.log('hi')"},
		{"css", "/style.css", http.StatusOK, "text/css", "body{}"},
		{"json", "/data.json", http.StatusOK, "application/json", `{"a":1}`},
		{"nested", "/nested/page.html", http.StatusOK, "text/html", "<p>nested</p>"},
		{"sniffed", "/blob", http.StatusOK, "application/pdf", "%PDF-1.4 fake"},
		{"missing", "/nope.html", http.StatusNotFound, "text/plain", "File not found"},
		{"directory", "/nested", http.StatusNotFound, "text/plain", "File not found"},
		{"traversal", "/../../etc/passwd", http.StatusNotFound, "text/plain", "File not found"},
		{"excluded dir", "/secret/key.txt", http.StatusNotFound, "text/plain", "File not found"},
		{"excluded glob", "/maps/app.js.map", http.StatusNotFound, "text/plain", "File not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.wantType), rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestServeReadFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}

	dir := setupDir(t)
	locked := filepath.Join(dir, "locked.html")
	require.NoError(t, os.WriteFile(locked, []byte("x"), 0o000))

	h, err := New(Config{Dir: dir})
	require.NoError(t, err)

	rec := get(t, h, "/locked.html")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to read the file", rec.Body.String())
}

func TestGzip(t *testing.T) {
	h, err := New(Config{Dir: setupDir(t), Gzip: true})
	require.NoError(t, err)

	rec := get(t, h, "/big/bundle.js", "Accept-Encoding", "gzip")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	plain := get(t, h, "/big/bundle.js")
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
}

func TestCORSHeaders(t *testing.T) {
	h, err := New(Config{Dir: setupDir(t)})
	require.NoError(t, err)

	rec := get(t, h, "/app.js", "Origin", "http://localhost:5173")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	m := monitoring.NewMetrics()
	h, err := New(Config{Dir: setupDir(t), Metrics: m})
	require.NoError(t, err)

	get(t, h, "/")
	get(t, h, "/missing")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetRequests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetRequests.WithLabelValues("404")))
}

func TestInvalidExclude(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir(), Exclude: []string{"[unclosed"}})

	var perr *PatternError
	assert.ErrorAs(t, err, &perr)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/wasm", ContentType("a.WASM", nil))
	assert.Equal(t, "image/svg+xml", ContentType("logo.svg", nil))
	assert.True(t, strings.HasPrefix(ContentType("README", []byte("plain words")), "text/plain"))
}
