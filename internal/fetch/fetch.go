// Package fetch retrieves quote pages over HTTP(S).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/logging"
)

//go:generate mockgen -source=fetch.go -destination=mock_fetch_test.go -package=fetch

// HTTPClient is the subset of *http.Client the fetcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls request headers, scheme policy and body streaming.
type Config struct {
	UserAgent    string
	RequireHTTPS bool
	ChunkSize    int
	MaxBodyBytes int64 // 0 = unlimited
}

// DefaultConfig returns the default fetch configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:    "kabuka-watcher/0.1",
		RequireHTTPS: true,
		ChunkSize:    32 << 10,
		MaxBodyBytes: 8 << 20,
	}
}

// NewHTTPClient returns an *http.Client with transport-level timeouts.
// Redirects are followed with the net/http defaults.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Fetcher downloads documents and decodes them as UTF-8 text.
type Fetcher struct {
	client HTTPClient
	cfg    Config
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher. A nil client gets NewHTTPClient(30s).
func NewFetcher(client HTTPClient, cfg Config, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = NewHTTPClient(30 * time.Second)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	return &Fetcher{client: client, cfg: cfg, logger: logger}
}

// Fetch issues a GET for rawURL and returns the body. Non-2xx responses fail
// immediately. Body chunks that are not valid UTF-8 are logged and dropped.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := f.validateURL(rawURL)
	if err != nil {
		return "", apperrors.NewFetchError(apperrors.FetchMalformedURL, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", apperrors.NewFetchError(apperrors.FetchMalformedURL, rawURL, err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	logger := logging.FromContext(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = f.logger
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		logging.LogFetch(logger, rawURL, 0, 0, time.Since(start), err)
		return "", apperrors.NewFetchError(apperrors.FetchTransport, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ferr := apperrors.NewHTTPStatusError(rawURL, resp.StatusCode)
		logging.LogFetch(logger, rawURL, resp.StatusCode, 0, time.Since(start), ferr)
		return "", ferr
	}

	body, err := f.readBody(logger, rawURL, resp.Body)
	logging.LogFetch(logger, rawURL, resp.StatusCode, len(body), time.Since(start), err)
	if err != nil {
		return "", err
	}
	return body, nil
}

func (f *Fetcher) validateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("url must be absolute")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if f.cfg.RequireHTTPS {
			return nil, fmt.Errorf("scheme %q not allowed, https required", u.Scheme)
		}
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

// readBody streams r chunk by chunk. A rune split across two reads is held
// back and prefixed to the next chunk.
func (f *Fetcher) readBody(logger zerolog.Logger, rawURL string, r io.Reader) (string, error) {
	var (
		body    strings.Builder
		carry   []byte
		read    int64
		index   int
		dropped int
	)
	buf := make([]byte, f.cfg.ChunkSize)

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			read += int64(n)
			if f.cfg.MaxBodyBytes > 0 && read > f.cfg.MaxBodyBytes {
				return "", apperrors.NewFetchError(apperrors.FetchTransport, rawURL,
					fmt.Errorf("body exceeds %d bytes", f.cfg.MaxBodyBytes))
			}

			chunk := make([]byte, 0, len(carry)+n)
			chunk = append(chunk, carry...)
			chunk = append(chunk, buf[:n]...)
			chunk, carry = splitIncompleteRune(chunk)

			if utf8.Valid(chunk) {
				body.Write(chunk)
			} else {
				dropped++
				logger.Warn().
					Str("url", rawURL).
					Int("chunk", index).
					Int("bytes", len(chunk)).
					Msg("Dropping body chunk with invalid UTF-8")
			}
			index++
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", apperrors.NewFetchError(apperrors.FetchTransport, rawURL, rerr)
		}
	}

	if len(carry) > 0 {
		dropped++
		logger.Warn().
			Str("url", rawURL).
			Int("bytes", len(carry)).
			Msg("Dropping truncated UTF-8 sequence at end of body")
	}
	if dropped > 0 {
		logger.Debug().Str("url", rawURL).Int("dropped_chunks", dropped).Msg("Body decoded with gaps")
	}

	return body.String(), nil
}

// splitIncompleteRune separates a trailing, incomplete but well-formed UTF-8
// prefix from b.
func splitIncompleteRune(b []byte) ([]byte, []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-(utf8.UTFMax-1); i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return b, nil
		}
		tail := make([]byte, len(b)-i)
		copy(tail, b[i:])
		return b[:i], tail
	}
	return b, nil
}
