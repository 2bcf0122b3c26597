// Package httpfetch implements repository.PageFetcher over net/http.
package httpfetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/user/site-crawler/internal/entity"
)

const defaultMaxBodyBytes = 10 << 20

// Options configures the fetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

// Fetcher performs GET requests and classifies the responses.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// New creates a Fetcher. Redirects are followed by the client.
func New(opts Options) *Fetcher {
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DisableCompression = true // decoded in decompressReader, brotli included
		t.ResponseHeaderTimeout = opts.Timeout
		transport = t
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:    opts.UserAgent,
		maxBodyBytes: maxBody,
	}
}

// Fetch retrieves u. Transport failures are classified as FETCH_ERROR rather
// than returned. The error return is reserved for ctx ending and programming
// mistakes, so an interrupted fetch is never reported as a page failure.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (entity.FetchOutcome, error) {
	if !isHTTP(u) {
		return entity.Failure(entity.FetchClientError), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return entity.FetchOutcome{}, fmt.Errorf("failed to build request for %s: %w", u, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entity.FetchOutcome{}, ctxErr
		}
		slog.Debug("Fetch failed", "url", u.String(), "error", err)
		return entity.Failure(entity.FetchError), nil
	}
	defer resp.Body.Close()

	status := classify(resp)
	if status != entity.FetchSuccess {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return entity.Failure(status), nil
	}

	body, err := f.readBody(resp)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entity.FetchOutcome{}, ctxErr
		}
		slog.Debug("Reading body failed", "url", u.String(), "error", err)
		return entity.Failure(entity.FetchError), nil
	}
	return entity.Success(body), nil
}

func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return "", err
	}
	reader = io.LimitReader(reader, f.maxBodyBytes)

	utf8Reader, err := charset.NewReader(reader, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to determine charset: %w", err)
	}
	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// classify maps an HTTP response onto a FetchStatus.
func classify(resp *http.Response) entity.FetchStatus {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		if isHTML(resp.Header.Get("Content-Type")) {
			return entity.FetchSuccess
		}
		return entity.FetchClientError
	case code == http.StatusNotFound:
		return entity.FetchNotFound
	case code >= 400 && code < 500:
		return entity.FetchClientError
	default:
		return entity.FetchServerError
	}
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// decompressReader wraps the body according to Content-Encoding.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
