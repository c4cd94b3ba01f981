package headless

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is the parsed markup of the current page.
type Document struct {
	root *html.Node
	doc  *goquery.Document
}

// Script is a <script> element in document order.
type Script struct {
	Src    string
	Inline string
}

func parseDocument(markup string) (*Document, error) {
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

// Title returns the text of the first <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Query returns the elements matching a CSS selector. An invalid
// selector matches nothing.
func (d *Document) Query(selector string) []*html.Node {
	return d.doc.Find(selector).Nodes
}

// ByID finds the element with id.
func (d *Document) ByID(id string) *html.Node {
	node, err := htmlquery.Query(d.root, "//*[@id="+xpathLiteral(id)+"]")
	if err != nil {
		return nil
	}
	return node
}

// Scripts lists executable scripts. Data blocks such as
// type="application/json" are skipped.
func (d *Document) Scripts() []Script {
	var scripts []Script
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if kind, ok := s.Attr("type"); ok && !isScriptType(kind) {
			return
		}
		if src, ok := s.Attr("src"); ok && src != "" {
			scripts = append(scripts, Script{Src: src})
			return
		}
		scripts = append(scripts, Script{Inline: s.Text()})
	})
	return scripts
}

// HTML renders the document.
func (d *Document) HTML() string {
	return htmlquery.OutputHTML(d.root, true)
}

func isScriptType(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// element is the script-side view of a node.
func element(node *html.Node) map[string]any {
	attr := func(name string) string {
		return htmlquery.SelectAttr(node, name)
	}
	return map[string]any{
		"tagName":      strings.ToUpper(node.Data),
		"id":           attr("id"),
		"className":    attr("class"),
		"textContent":  htmlquery.InnerText(node),
		"innerHTML":    htmlquery.OutputHTML(node, false),
		"getAttribute": attr,
		"hasAttribute": func(name string) bool {
			for _, a := range node.Attr {
				if a.Key == name {
					return true
				}
			}
			return false
		},
	}
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
