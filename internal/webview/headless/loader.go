package headless

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
)

// ErrOffline is returned for network URLs, which are never fetched.
var ErrOffline = errors.New("headless: network access disabled")

// loader resolves page and script URLs without touching the network.
type loader struct {
	schemes map[string]http.Handler
}

// Resource is a loaded document or script.
type Resource struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

func (l loader) fetch(raw string) (Resource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Resource{}, fmt.Errorf("parse url %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)

	if h, ok := l.schemes[scheme]; ok {
		return serve(h, raw)
	}

	switch scheme {
	case "", "about":
		return Resource{URL: raw, Status: http.StatusOK, ContentType: "text/html"}, nil
	case "file":
		body, err := os.ReadFile(u.Path)
		if err != nil {
			return Resource{}, fmt.Errorf("read %s: %w", u.Path, err)
		}
		return Resource{URL: raw, Status: http.StatusOK, Body: body}, nil
	case "data":
		return decodeData(raw)
	default:
		return Resource{URL: raw}, fmt.Errorf("%w: %s", ErrOffline, raw)
	}
}

func serve(h http.Handler, raw string) (Resource, error) {
	req, err := http.NewRequest(http.MethodGet, raw, nil)
	if err != nil {
		return Resource{}, err
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Resource{}, err
	}
	return Resource{
		URL:         raw,
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// decodeData handles data:[<mediatype>][;base64],<data>.
func decodeData(raw string) (Resource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return Resource{}, fmt.Errorf("malformed data url")
	}

	res := Resource{URL: raw, Status: http.StatusOK, ContentType: strings.TrimSuffix(meta, ";base64")}
	if strings.HasSuffix(meta, ";base64") {
		body, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Resource{}, fmt.Errorf("data url: %w", err)
		}
		res.Body = body
		return res, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return Resource{}, fmt.Errorf("data url: %w", err)
	}
	res.Body = []byte(text)
	return res, nil
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
