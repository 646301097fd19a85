// Package blob stores uploaded files and hands back the public path they
// are served under. Two backends exist: local disk (default) and S3.
package blob

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Store persists an uploaded file and returns the path clients use to
// fetch it (e.g. "public/projects/<name>").
type Store interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}

var extRe = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// uniqueName builds a collision-free stored filename, keeping only a safe
// lowercase extension from the client-supplied name.
func uniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extRe.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}
