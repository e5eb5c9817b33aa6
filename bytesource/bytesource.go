// Package bytesource provides the uniform random-access byte fetcher
// that every other layer of acog reads through: a file, HTTP(S),
// S3-compatible, or GCS URL all present the same ByteSource contract,
// backed by a shared chunked read-cache with single-flight dedup.
package bytesource

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ByteSource is a uniform random-access byte fetcher over a backend.
// Every read is a suspension point; implementations must be safe for
// concurrent use.
type ByteSource interface {
	// ReadAt returns exactly length bytes starting at offset, or an
	// error from the cogerr taxonomy (TransportError, OutOfRange,
	// Truncated, AuthError).
	ReadAt(ctx context.Context, offset, length int64) ([]byte, error)
	// Size returns the total byte length of the underlying object.
	Size(ctx context.Context) (int64, error)
	// URL returns the source URL, for error provenance.
	URL() string
	// Close releases any resources (open file handles, etc).
	Close() error
}

// Options configures chunking, caching and transport behaviour shared
// across backends. Constructed via functional options, matching the
// pattern used for buffered/adaptive TIFF readers in the example pack.
// The backends read only ChunkSize, CacheBudget and HTTPClient;
// MaxConcurrency, RequestTimeout and Logger are stored but no backend
// applies them, so requests are neither limited in number nor given a
// per-request deadline by these options. The retry backoff schedule is
// fixed (retryBackoff in retry.go) and not part of Options.
type Options struct {
	ChunkSize      int64
	CacheBudget    int64
	MaxConcurrency int
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

const (
	DefaultLocalChunkSize  = 16 * 1024
	DefaultRemoteChunkSize = 1 << 20
	DefaultCacheBudget     = 256 << 20
	DefaultMaxConcurrency  = 8
	DefaultRequestTimeout  = 30 * time.Second
)

type Option func(*Options)

func WithChunkSize(n int64) Option       { return func(o *Options) { o.ChunkSize = n } }
func WithCacheBudget(n int64) Option     { return func(o *Options) { o.CacheBudget = n } }
func WithMaxConcurrency(n int) Option    { return func(o *Options) { o.MaxConcurrency = n } }
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}
func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }
func WithLogger(l *slog.Logger) Option     { return func(o *Options) { o.Logger = l } }

func buildOptions(defaultChunkSize int64, opts []Option) *Options {
	o := &Options{
		ChunkSize:      defaultChunkSize,
		CacheBudget:    DefaultCacheBudget,
		MaxConcurrency: DefaultMaxConcurrency,
		RequestTimeout: DefaultRequestTimeout,
		HTTPClient:     http.DefaultClient,
		Logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
