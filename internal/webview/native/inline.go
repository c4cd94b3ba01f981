package native

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Inliner turns a custom scheme page into self-contained markup.
type Inliner struct {
	Schemes map[string]http.Handler
}

// Handles reports whether raw uses one of the custom schemes.
func (in Inliner) Handles(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, ok := in.Schemes[strings.ToLower(u.Scheme)]
	return ok
}

// Page fetches raw and inlines its same-scheme scripts and stylesheets.
func (in Inliner) Page(raw string) (string, error) {
	body, err := in.fetch(raw)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", raw, err)
	}
	base, _ := url.Parse(raw)

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		ref, ok := in.sameScheme(base, s.AttrOr("src", ""))
		if !ok {
			return
		}
		code, err := in.fetch(ref)
		if err != nil {
			return
		}
		s.RemoveAttr("src")
		s.SetText(string(code))
	})

	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		ref, ok := in.sameScheme(base, s.AttrOr("href", ""))
		if !ok {
			return
		}
		css, err := in.fetch(ref)
		if err != nil {
			return
		}
		s.ReplaceWithHtml("<style>\n" + string(css) + "\n</style>")
	})

	return doc.Html()
}

func (in Inliner) sameScheme(base *url.URL, ref string) (string, bool) {
	if base == nil || ref == "" {
		return "", false
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(r)
	if !strings.EqualFold(resolved.Scheme, base.Scheme) {
		return "", false
	}
	return resolved.String(), true
}

func (in Inliner) fetch(raw string) ([]byte, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	h, ok := in.Schemes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("no handler for scheme %q", u.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", raw, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}
