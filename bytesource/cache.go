package bytesource

import (
	"context"
	"fmt"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/flywave/acog/cogerr"
)

// chunkFetcher is satisfied by each concrete backend: a function that
// fetches exactly one chunk's worth of bytes directly from the
// underlying transport, with no caching of its own.
type chunkFetcher func(ctx context.Context, chunkIndex int64) ([]byte, error)

// chunkCache decomposes arbitrary [offset, offset+length) reads into the
// minimal covering set of fixed-size chunks, fetching only the chunks
// that are missing and coalescing concurrent requests for the same
// chunk into a single underlying fetch. Grounded on
// akhenakh-gedtm30api/geotiff/geotiff.go's tileCache+inflightData pair,
// substituting ccache+singleflight for the raw map+mutex a from-scratch
// implementation would otherwise need.
type chunkCache struct {
	chunkSize int64
	store     *ccache.Cache[[]byte]
	inflight  singleflight.Group
	fetch     chunkFetcher
	sourceURL string
}

func newChunkCache(chunkSize, budgetBytes int64, fetch chunkFetcher, sourceURL string) *chunkCache {
	maxItems := budgetBytes / chunkSize
	if maxItems < 16 {
		maxItems = 16
	}
	return &chunkCache{
		chunkSize: chunkSize,
		store:     ccache.New(ccache.Configure[[]byte]().MaxSize(maxItems)),
		fetch:     fetch,
		sourceURL: sourceURL,
	}
}

func (c *chunkCache) chunkKey(idx int64) string { return fmt.Sprintf("%d", idx) }

// getChunk returns the bytes of one chunk, fetching (and caching) it on
// miss. Concurrent callers asking for the same missing chunk share one
// fetch.
func (c *chunkCache) getChunk(ctx context.Context, idx int64) ([]byte, error) {
	key := c.chunkKey(idx)
	if item := c.store.Get(key); item != nil {
		return item.Value(), nil
	}
	v, err, _ := c.inflight.Do(key, func() (any, error) {
		if item := c.store.Get(key); item != nil {
			return item.Value(), nil
		}
		b, err := c.fetch(ctx, idx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, b, 0)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// read decomposes [offset, offset+length) into covering chunks and
// assembles the result. Chunks that are already cached never touch the
// network; missing chunks are fetched one at a time through getChunk,
// which itself single-flights concurrent duplicate requests. Contiguous
// runs of missing chunks are a documented coalescing opportunity (§4.1)
// that concrete backends may implement in their chunkFetcher by
// fetching a wider range on first miss; the cache itself only needs the
// per-chunk granularity for correctness.
func (c *chunkCache) read(ctx context.Context, offset, length int64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if length < 0 || offset < 0 {
		return nil, cogerr.Newf(cogerr.OutOfRange, "chunkCache.read", "invalid range offset=%d length=%d", offset, length).WithURL(c.sourceURL)
	}
	startChunk := offset / c.chunkSize
	endChunk := (offset + length - 1) / c.chunkSize

	out := make([]byte, length)
	for idx := startChunk; idx <= endChunk; idx++ {
		chunk, err := c.getChunk(ctx, idx)
		if err != nil {
			return nil, err
		}
		chunkStart := idx * c.chunkSize
		// Overlap of [offset, offset+length) with this chunk's span.
		srcFrom := int64(0)
		if offset > chunkStart {
			srcFrom = offset - chunkStart
		}
		srcTo := int64(len(chunk))
		chunkEnd := chunkStart + int64(len(chunk))
		if offset+length < chunkEnd {
			srcTo = offset + length - chunkStart
		}
		if srcFrom > int64(len(chunk)) || srcTo > int64(len(chunk)) || srcFrom > srcTo {
			return nil, cogerr.New(cogerr.Truncated, "chunkCache.read", fmt.Errorf("short chunk %d: have %d bytes", idx, len(chunk))).WithURL(c.sourceURL)
		}
		dstFrom := chunkStart + srcFrom - offset
		copy(out[dstFrom:], chunk[srcFrom:srcTo])
	}
	return out, nil
}
