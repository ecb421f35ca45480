package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// ProgressFunc returns a writer that observes the bytes of one download.
// size is -1 when the host does not announce a length.
type ProgressFunc func(name string, size int64) io.Writer

// Fetcher downloads named blobs from a content host
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	progress   ProgressFunc
}

// NewFetcher creates a fetcher rooted at baseURL
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithProgress reports download progress through fn.
func (f *Fetcher) WithProgress(fn ProgressFunc) *Fetcher {
	f.progress = fn
	return f
}

// URL returns the download location of a blob.
func (f *Fetcher) URL(name string) string {
	return f.baseURL + "/" + strings.TrimLeft(name, "/")
}

// Fetch downloads a single blob into memory
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	url := f.URL(name)
	logrus.WithField("url", url).Debug("fetching artifact")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", name, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.progress != nil {
		body = io.TeeReader(resp.Body, f.progress(name, resp.ContentLength))
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
