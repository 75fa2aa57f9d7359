package mime

import (
	"path/filepath"
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

type MIME = string

const (
	OctetStream MIME = "application/octet-stream"
	Plain       MIME = "text/plain"
	HTML        MIME = "text/html"
	CSS         MIME = "text/css"
	JS          MIME = "text/javascript"
	XML         MIME = "text/xml"
	JSON        MIME = "application/json"
	PDF         MIME = "application/pdf"
	ZIP         MIME = "application/zip"
	GZIP        MIME = "application/gzip"
	WASM        MIME = "application/wasm"
	BMP         MIME = "image/bmp"
	GIF         MIME = "image/gif"
	JPEG        MIME = "image/jpeg"
	PNG         MIME = "image/png"
	SVG         MIME = "image/svg+xml"
	ICO         MIME = "image/vnd.microsoft.icon"
	WEBP        MIME = "image/webp"
)

// Entry binds a file extension (without the leading dot) to a MIME type.
type Entry struct {
	Ext  string
	Type MIME
}

// Table is scanned in order, the first matching extension wins.
var Table = []Entry{
	{"bmp", BMP},
	{"css", CSS},
	{"html", HTML},
	{"htm", HTML},
	{"jpg", JPEG},
	{"jpeg", JPEG},
	{"js", JS},
	{"json", JSON},
	{"log", Plain},
	{"png", PNG},
	{"txt", Plain},
	{"xml", XML},
	{"gif", GIF},
	{"svg", SVG},
	{"ico", ICO},
	{"webp", WEBP},
	{"pdf", PDF},
	{"zip", ZIP},
	{"gz", GZIP},
	{"wasm", WASM},
}

// Lookup returns the MIME type for the file's extension, or otherwise if the extension
// is absent or not in the Table.
func Lookup(path string, otherwise MIME) MIME {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if len(ext) == 0 {
		return otherwise
	}

	for _, entry := range Table {
		if strcomp.EqualFold(entry.Ext, ext) {
			return entry.Type
		}
	}

	return otherwise
}

// IsText reports whether the primary type of the MIME is "text".
func IsText(m MIME) bool {
	primary, _, found := strings.Cut(m, "/")
	return found && strcomp.EqualFold(strings.TrimSpace(primary), "text")
}
