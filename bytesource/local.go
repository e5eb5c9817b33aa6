package bytesource

import (
	"context"
	"io"
	"os"

	"github.com/flywave/acog/cogerr"
)

// LocalSource reads a file on the local filesystem through the same
// chunked cache used by remote backends, so callers see identical
// caching behaviour regardless of scheme.
type LocalSource struct {
	path  string
	file  *os.File
	size  int64
	cache *chunkCache
}

// OpenLocal opens path (a bare filesystem path or a file:// URL with the
// scheme already stripped by Open).
func OpenLocal(path string, opts ...Option) (*LocalSource, error) {
	o := buildOptions(DefaultLocalChunkSize, opts)
	f, err := os.Open(path)
	if err != nil {
		return nil, cogerr.New(cogerr.TransportError, "OpenLocal", err).WithURL(path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, cogerr.New(cogerr.TransportError, "OpenLocal", err).WithURL(path)
	}
	ls := &LocalSource{path: path, file: f, size: info.Size()}
	ls.cache = newChunkCache(o.ChunkSize, o.CacheBudget, ls.fetchChunk, path)
	return ls, nil
}

func (l *LocalSource) fetchChunk(_ context.Context, chunkIndex int64) ([]byte, error) {
	off := chunkIndex * l.cache.chunkSize
	if off >= l.size {
		return nil, cogerr.Newf(cogerr.OutOfRange, "LocalSource.fetchChunk", "offset %d >= size %d", off, l.size).WithURL(l.path).WithOffset(off)
	}
	n := l.cache.chunkSize
	if off+n > l.size {
		n = l.size - off
	}
	buf := make([]byte, n)
	if _, err := l.file.ReadAt(buf, off); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, cogerr.New(cogerr.Truncated, "LocalSource.fetchChunk", err).WithURL(l.path).WithOffset(off)
		}
		return nil, cogerr.New(cogerr.TransportError, "LocalSource.fetchChunk", err).WithURL(l.path).WithOffset(off)
	}
	return buf, nil
}

func (l *LocalSource) ReadAt(ctx context.Context, offset, length int64) ([]byte, error) {
	if offset < 0 || offset > l.size || (offset == l.size && length > 0) {
		return nil, cogerr.Newf(cogerr.OutOfRange, "LocalSource.ReadAt", "offset %d out of range (size %d)", offset, l.size).WithURL(l.path).WithOffset(offset)
	}
	if offset+length > l.size {
		return nil, cogerr.New(cogerr.Truncated, "LocalSource.ReadAt", io.ErrUnexpectedEOF).WithURL(l.path).WithOffset(offset)
	}
	return l.cache.read(ctx, offset, length)
}

func (l *LocalSource) Size(ctx context.Context) (int64, error) { return l.size, nil }
func (l *LocalSource) URL() string                              { return l.path }
func (l *LocalSource) Close() error                             { return l.file.Close() }
