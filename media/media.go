// Package media stores uploaded identity documents.
package media

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// Storage saves a document and returns where it can be fetched from
type Storage interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SafeName strips directories and unusual characters from an uploaded file name
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	if strings.Trim(name, "._") == "" {
		return "document"
	}
	return name
}
