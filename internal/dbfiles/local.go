// Package dbfiles locates the SQLite file of a selection, either in a local
// directory tree or in an S3 bucket mirrored into a local cache.
package dbfiles

import (
	"context"

	"github.com/JonMunkholm/rankview/internal/core"
)

// Local resolves selections under a directory laid out as
// <root>/<year>/data-<year>-<round>.db.
type Local struct {
	Root string
}

// NewLocal returns a resolver rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Resolve returns the file path. Whether the file exists is left to the
// reader, which reports ErrSourceUnavailable.
func (l *Local) Resolve(_ context.Context, sel core.Selection) (string, error) {
	return sel.DBPath(l.Root), nil
}
