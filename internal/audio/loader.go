package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/faiface/beep"
)

// StemLoader builds a seekable audio source for one stem locator.
// Implementations must return a source whose Seek works for the whole
// stream; the engine's batch seek depends on it.
type StemLoader interface {
	Load(ctx context.Context, locator string) (beep.StreamSeekCloser, beep.Format, error)
}

// HTTPLoader fetches stem audio from the separation service and decodes
// it. The whole stem is buffered in memory before decoding: stems are
// bounded by the upload size limit, and a buffered reader guarantees
// seekability regardless of transport.
type HTTPLoader struct {
	resolve func(string) string
	http    *http.Client
}

// NewHTTPLoader creates a loader. resolve maps a track's source locator
// to a fetchable URL (typically separation.Client.StemURL).
func NewHTTPLoader(resolve func(string) string) *HTTPLoader {
	return &HTTPLoader{
		resolve: resolve,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Load fetches and decodes one stem.
func (l *HTTPLoader) Load(ctx context.Context, locator string) (beep.StreamSeekCloser, beep.Format, error) {
	url := l.resolve(locator)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("fetch stem %s: %w", locator, err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("fetch stem %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, beep.Format{}, fmt.Errorf("fetch stem %s: status %d", locator, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("fetch stem %s: %w", locator, err)
	}

	return DecodeAudio(memFile{bytes.NewReader(data)}, locator)
}

// memFile adapts an in-memory buffer to the decoder's read-seek-close
// contract.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }
