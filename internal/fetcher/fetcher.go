// Package fetcher downloads Census distribution archives over HTTP and
// FTP and unpacks them locally. The Census Bureau mirrors the TIGER/Line
// products on both transports; HTTP is preferred and FTP is the
// fallback when the web mirror is throttling or unavailable.
package fetcher

import (
	"context"
	"io"
)

// Fetcher retrieves a remote file.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The caller
	// must close the returned reader.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path, returning
	// bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
