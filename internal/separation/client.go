package separation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/dustin/go-humanize"
	"github.com/yarango582/tunesplit-web/api"
	tserrors "github.com/yarango582/tunesplit-web/pkg/errors"
)

// fileField is the multipart field name the service expects.
const fileField = "audioFile"

// Client communicates with the TuneSplit separation REST API.
type Client struct {
	baseURL   string
	maxUpload int64
	http      *http.Client
}

// NewClient creates a separation API client. maxUpload is the local
// upload size gate in bytes; oversized files are rejected before any
// network traffic.
func NewClient(baseURL string, maxUpload int64) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxUpload: maxUpload,
		http:      &http.Client{Timeout: 5 * time.Minute},
	}
}

// Analyze uploads an audio file and returns the separated stems in
// service order, volumes defaulted to 100. onProgress, when non-nil,
// receives coarse milestones in [0,100]: validated, request sent,
// response received, body parsed, tracks built. It is never called with
// a value lower than a previous one.
func (c *Client) Analyze(ctx context.Context, r io.Reader, fileName string, size int64, onProgress func(int)) ([]api.Track, error) {
	report := progressReporter(onProgress)

	if size > c.maxUpload {
		return nil, fmt.Errorf("%w: %s is %s, limit is %s",
			tserrors.ErrFileTooLarge, fileName,
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(c.maxUpload)))
	}
	report(0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, tserrors.NewSeparationError("upload", 0, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, tserrors.NewSeparationError("upload", 0, err)
	}
	if err := mw.Close(); err != nil {
		return nil, tserrors.NewSeparationError("upload", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return nil, tserrors.NewSeparationError("upload", 0, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	report(10)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, tserrors.NewSeparationError("analyze", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tserrors.NewSeparationError("analyze", resp.StatusCode, errors.New("unexpected status"))
	}
	report(80)

	var parsed api.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, tserrors.NewSeparationError("decode", resp.StatusCode, err)
	}
	report(90)

	tracks, err := mapInstruments(parsed.Instruments)
	if err != nil {
		return nil, tserrors.NewSeparationError("decode", resp.StatusCode, err)
	}
	report(100)

	return tracks, nil
}

// mapInstruments validates the service descriptors and maps them to
// tracks. The response order is preserved; the playback engine depends
// on it positionally.
func mapInstruments(instruments []api.Instrument) ([]api.Track, error) {
	if len(instruments) == 0 {
		return nil, errors.New("response contains no instruments")
	}

	tracks := make([]api.Track, 0, len(instruments))
	for i, in := range instruments {
		if in.Name == "" {
			return nil, fmt.Errorf("instrument %d has no name", i)
		}
		if in.File == "" {
			return nil, fmt.Errorf("instrument %q has no file", in.Name)
		}
		volume := 100
		if in.Volume != nil {
			volume = clampVolume(*in.Volume)
		}
		tracks = append(tracks, api.Track{
			Name:   in.Name,
			Volume: volume,
			Source: in.File,
		})
	}
	return tracks, nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// StemURL resolves a track's source path against the service base URL.
func (c *Client) StemURL(file string) string {
	if strings.HasPrefix(file, "/") {
		return c.baseURL + file
	}
	return c.baseURL + "/" + file
}

// SongName derives a display name for the uploaded file from its tags,
// falling back to the file name when no usable tag is present.
func SongName(r io.ReadSeeker, fileName string) string {
	if r != nil {
		m, err := tag.ReadFrom(r)
		// Leave the reader where the caller can reuse it for the upload.
		r.Seek(0, io.SeekStart)
		if err == nil {
			title := strings.TrimSpace(m.Title())
			artist := strings.TrimSpace(m.Artist())
			switch {
			case title != "" && artist != "":
				return artist + " - " + title
			case title != "":
				return title
			}
		}
	}
	return fileName
}

// progressReporter wraps the optional callback so milestones never go
// backwards and a nil callback costs nothing.
func progressReporter(fn func(int)) func(int) {
	if fn == nil {
		return func(int) {}
	}
	last := -1
	return func(p int) {
		if p > last {
			last = p
			fn(p)
		}
	}
}
