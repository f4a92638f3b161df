// Package fileid derives document IDs for files picked up from watched folders.
package fileid

import (
	"path/filepath"

	"github.com/google/uuid"
)

// DocumentID returns a name-based UUID for path. The same cleaned absolute
// path always yields the same ID, so a changed file replaces its document.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(path)))).String()
}
