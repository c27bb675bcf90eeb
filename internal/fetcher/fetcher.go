package fetcher

import (
	"context"
	"io"
)

// Fetcher retrieves a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
