package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/tartampluch/notabene/internal/config"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// VCardFetcher retrieves a vCard stream from a remote location.
type VCardFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher implements VCardFetcher with net/http.
type HTTPFetcher struct {
	Client *http.Client

	// MaxBytes caps the raw response body. Zero means MaxHTTPResponseSize.
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with the configured timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: config.HTTPTimeout},
		MaxBytes: config.MaxHTTPResponseSize,
	}
}

var vcardMediaTypes = map[string]bool{
	"":                   true,
	config.MimeVCard:     true,
	config.MimeXVCard:    true,
	config.MimeDirectory: true,
	config.MimePlain:     true,
	config.MimeOctet:     true,
}

// Fetch downloads a vCard stream once and returns it as UTF-8. Reading past
// MaxBytes fails with ErrTooLarge instead of cutting the last card short.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query strings may hold tokens.
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path),
	)
	log.Debug(config.MsgFetchStart)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequest, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.AcceptVCard)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchStatus, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, fmt.Errorf("%s: %d %s", config.ErrFetchStatus, resp.StatusCode, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = config.MaxHTTPResponseSize
	}
	if resp.ContentLength > limit {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: %d > %d bytes", config.ErrTooLarge, resp.ContentLength, limit)
	}

	body, err := decodeBody(&cappedReader{r: resp.Body, left: limit, limit: limit}, resp.Header.Get(config.HeaderContentType), log)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	log.Info(config.MsgFetching, slog.Int64(config.LogKeyLength, resp.ContentLength))
	return readCloser{Reader: body, Closer: resp.Body}, nil
}

// decodeBody checks the media type and converts a non UTF-8 charset.
func decodeBody(r io.Reader, contentType string, log *slog.Logger) (io.Reader, error) {
	mediaType, params := "", map[string]string(nil)
	if contentType != "" {
		var err error
		mediaType, params, err = mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrContentType, err)
		}
	}
	if !vcardMediaTypes[mediaType] {
		return nil, fmt.Errorf("%s: %s", config.ErrContentType, mediaType)
	}

	charset := strings.ToLower(params[config.ParamCharset])
	if charset == "" || charset == config.CharsetUTF8 || charset == config.CharsetASCII {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", config.ErrCharset, charset)
	}
	log.Debug(config.MsgFetchDecode,
		slog.String(config.LogKeyMime, mediaType),
		slog.String(config.LogKeyCharset, charset))
	return transform.NewReader(r, enc.NewDecoder()), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// cappedReader fails once more than limit bytes are available.
type cappedReader struct {
	r     io.Reader
	left  int64
	limit int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		// One extra byte tells an exact fit from an overflow.
		var extra [1]byte
		n, err := c.r.Read(extra[:])
		if n > 0 {
			return 0, fmt.Errorf("%s: %d bytes", config.ErrTooLarge, c.limit)
		}
		return 0, err
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}

// OpenSource opens a vCard source: an http(s) URL through fetcher, anything
// else as a local file path.
func OpenSource(ctx context.Context, fetcher VCardFetcher, src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, config.SchemeHTTP+"://") || strings.HasPrefix(src, config.SchemeHTTPS+"://") {
		if fetcher == nil {
			fetcher = NewHTTPFetcher()
		}
		return fetcher.Fetch(ctx, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrOpenSource, err)
	}
	return f, nil
}
