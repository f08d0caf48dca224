package driven

import (
	"context"
	"errors"
	"io"
)

// ErrContentNotFound indicates the raw content host has no file at the path.
var ErrContentNotFound = errors.New("content not found")

// ContentSource streams raw file content from the remote host.
type ContentSource interface {
	// OpenRaw opens the content of path at the tip of branch. The caller must
	// close the returned reader. Errors surfacing while reading are transport
	// failures in the middle of the stream.
	OpenRaw(ctx context.Context, repoFullName, branch, path string) (io.ReadCloser, error)
}
