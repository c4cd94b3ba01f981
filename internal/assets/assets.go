// Package assets serves a local directory under a custom URL scheme.
//
// Responses follow a fixed contract: "/" maps to index.html, a missing file
// is 404 with a plain text body "File not found", and a file that exists
// but cannot be read is 500 "Failed to read the file". Paths never escape
// the root directory.
package assets

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
)

const (
	indexFile    = "index.html"
	notFoundBody = "File not found"
	readFailBody = "Failed to read the file"
	textPlain    = "text/plain"
)

// Config configures an asset handler.
type Config struct {
	// Dir is the directory served at the scheme root.
	Dir string
	// Exclude lists doublestar patterns, relative to Dir, answered with 404.
	Exclude []string
	// Gzip compresses responses for clients that accept it.
	Gzip bool
	// Dev keeps gin in debug mode.
	Dev bool

	CORS    CORSConfig
	Metrics *monitoring.Metrics
	Logger  *logging.Logger
}

// New builds an http.Handler for cfg.Dir.
func New(cfg Config) (http.Handler, error) {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &PatternError{Pattern: pattern}
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.CORS.AllowOrigins == nil {
		cfg.CORS = DefaultCORSConfig()
	}

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(cfg.Metrics))
	router.Use(CORS(cfg.CORS))
	router.Use(requestLogger(cfg.Logger.Named(logging.ComponentAssets)))

	s := &server{dir: cfg.Dir, exclude: cfg.Exclude}
	router.GET("/*path", s.serve)
	router.HEAD("/*path", s.serve)

	if cfg.Gzip {
		return gzhttp.GzipHandler(router), nil
	}
	return router, nil
}

// PatternError reports an invalid exclude pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "assets: invalid exclude pattern " + e.Pattern
}

type server struct {
	dir     string
	exclude []string
}

func (s *server) serve(c *gin.Context) {
	rel, ok := s.resolve(c.Param("path"))
	if !ok {
		c.Data(http.StatusNotFound, textPlain, []byte(notFoundBody))
		return
	}

	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.Data(http.StatusNotFound, textPlain, []byte(notFoundBody))
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Data(http.StatusNotFound, textPlain, []byte(notFoundBody))
			return
		}
		c.Data(http.StatusInternalServerError, textPlain, []byte(readFailBody))
		return
	}

	c.Data(http.StatusOK, ContentType(rel, data), data)
}

// resolve maps a request path to a slash-separated path relative to the
// root. Cleaning against "/" collapses any ".." that would leave the root.
func (s *server) resolve(raw string) (string, bool) {
	if strings.ContainsRune(raw, 0) || strings.Contains(raw, "\\") {
		return "", false
	}

	rel := strings.TrimPrefix(path.Clean("/"+raw), "/")
	if rel == "" {
		rel = indexFile
	}

	for _, pattern := range s.exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return "", false
		}
	}
	return rel, true
}

func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("asset request",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
