package assets

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionTypes covers the types a bundled front end ships. Anything else
// is sniffed from content.
var extensionTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".css":   "text/css",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".wasm":  "application/wasm",
	".json":  "application/json",
	".map":   "application/json",
	".txt":   "text/plain",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentType picks a MIME type from the file extension, falling back to
// content sniffing.
func ContentType(name string, data []byte) string {
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}
