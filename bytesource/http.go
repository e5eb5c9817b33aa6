package bytesource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flywave/acog/cogerr"
)

// rangeRequester abstracts the bits that differ between plain HTTP(S),
// S3-compatible and GCS backends: building the request (URL, headers,
// auth) for a byte range. Everything else — size discovery, 206
// validation, chunked caching, retry — is shared here, grounded on
// akhenakh-gedtm30api/geotiff/http_reader.go's HTTPRangeReader.
type rangeRequester interface {
	buildRequest(ctx context.Context, from, to int64) (*http.Request, error)
	displayURL() string
}

// HTTPSource is the shared ranged-GET implementation used by the plain
// HTTP(S) backend directly; OpenS3 and OpenGCS also return an
// HTTPSource, configured with their own rangeRequester.
type HTTPSource struct {
	client *http.Client
	req    rangeRequester
	size   int64
	cache  *chunkCache
}

func newHTTPSource(client *http.Client, req rangeRequester, chunkSize, budget int64) (*HTTPSource, error) {
	ctx := context.Background()
	size, err := headSize(ctx, client, req)
	if err != nil {
		return nil, err
	}
	h := &HTTPSource{client: client, req: req, size: size}
	h.cache = newChunkCache(chunkSize, budget, h.fetchChunk, req.displayURL())
	return h, nil
}

// headSize discovers content length via a one-byte ranged GET
// (bytes=0-0), honouring Content-Range, matching how the original
// source's S3/GCS backends have no dedicated HEAD step and instead rely
// on normal ranged GETs.
func headSize(ctx context.Context, client *http.Client, req rangeRequester) (int64, error) {
	r, err := req.buildRequest(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(r)
	if err != nil {
		return 0, cogerr.New(cogerr.TransportError, "headSize", err).WithURL(req.displayURL())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusPartialContent {
		var total int64
		if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes 0-0/%d", &total); err == nil {
			return total, nil
		}
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return 0, cogerr.Newf(cogerr.TransportError, "headSize", "could not determine size, status=%s", resp.Status).WithURL(req.displayURL())
}

func (h *HTTPSource) fetchChunk(ctx context.Context, chunkIndex int64) ([]byte, error) {
	off := chunkIndex * h.cache.chunkSize
	n := h.cache.chunkSize
	if off+n > h.size {
		n = h.size - off
	}
	if n <= 0 {
		return nil, cogerr.Newf(cogerr.OutOfRange, "HTTPSource.fetchChunk", "offset %d >= size %d", off, h.size).WithURL(h.req.displayURL()).WithOffset(off)
	}
	b, err := withRetry(ctx, func() ([]byte, error) {
		return h.rangeGET(ctx, off, off+n-1)
	})
	if err != nil && cogerr.Is(err, cogerr.AuthError) {
		if reauth, ok := h.req.(interface{ forceReauth() }); ok {
			reauth.forceReauth()
			return h.rangeGET(ctx, off, off+n-1)
		}
	}
	return b, err
}

func (h *HTTPSource) rangeGET(ctx context.Context, from, to int64) ([]byte, error) {
	req, err := h.req.buildRequest(ctx, from, to)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, cogerr.New(cogerr.TransportError, "HTTPSource.rangeGET", err).WithURL(h.req.displayURL()).WithOffset(from)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return nil, cogerr.Newf(cogerr.OutOfRange, "HTTPSource.rangeGET", "416 for range %d-%d", from, to).WithURL(h.req.displayURL()).WithOffset(from)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, cogerr.Newf(cogerr.AuthError, "HTTPSource.rangeGET", "status %s", resp.Status).WithURL(h.req.displayURL())
	}
	if resp.StatusCode != http.StatusPartialContent {
		return nil, cogerr.Newf(cogerr.TransportError, "HTTPSource.rangeGET", "status %s (want 206)", resp.Status).WithURL(h.req.displayURL()).WithOffset(from)
	}

	want := to - from + 1
	buf := make([]byte, want)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, cogerr.Newf(cogerr.TransportError, "HTTPSource.rangeGET", "truncated response: got %d want %d", n, want).WithURL(h.req.displayURL()).WithOffset(from)
		}
		return nil, cogerr.New(cogerr.TransportError, "HTTPSource.rangeGET", err).WithURL(h.req.displayURL()).WithOffset(from)
	}
	return buf, nil
}

func (h *HTTPSource) ReadAt(ctx context.Context, offset, length int64) ([]byte, error) {
	if offset < 0 || offset > h.size || (offset == h.size && length > 0) {
		return nil, cogerr.Newf(cogerr.OutOfRange, "HTTPSource.ReadAt", "offset %d out of range (size %d)", offset, h.size).WithURL(h.req.displayURL()).WithOffset(offset)
	}
	if offset+length > h.size {
		return nil, cogerr.New(cogerr.Truncated, "HTTPSource.ReadAt", io.ErrUnexpectedEOF).WithURL(h.req.displayURL()).WithOffset(offset)
	}
	return h.cache.read(ctx, offset, length)
}

func (h *HTTPSource) Size(ctx context.Context) (int64, error) { return h.size, nil }
func (h *HTTPSource) URL() string                              { return h.req.displayURL() }
func (h *HTTPSource) Close() error                             { return nil }

// plainHTTPRequester is the rangeRequester for bare http(s):// URLs.
type plainHTTPRequester struct{ url string }

func (p *plainHTTPRequester) buildRequest(ctx context.Context, from, to int64) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, cogerr.New(cogerr.TransportError, "buildRequest", err).WithURL(p.url)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", from, to))
	return req, nil
}

func (p *plainHTTPRequester) displayURL() string { return p.url }

// OpenHTTP opens an http(s):// URL.
func OpenHTTP(url string, opts ...Option) (*HTTPSource, error) {
	o := buildOptions(DefaultRemoteChunkSize, opts)
	return newHTTPSource(o.HTTPClient, &plainHTTPRequester{url: url}, o.ChunkSize, o.CacheBudget)
}
