package bytesource

import (
	"context"

	"github.com/flywave/acog/cogerr"
)

// MemorySource wraps an in-memory byte slice as a ByteSource, matching
// original_source/src/sources/mod.rs's Source::Memory variant. Used
// primarily by tests that build a synthetic TIFF fixture in memory.
type MemorySource struct {
	name string
	data []byte
}

func NewMemorySource(name string, data []byte) *MemorySource {
	return &MemorySource{name: name, data: data}
}

func (m *MemorySource) ReadAt(_ context.Context, offset, length int64) ([]byte, error) {
	if offset < 0 || offset > int64(len(m.data)) {
		return nil, cogerr.Newf(cogerr.OutOfRange, "MemorySource.ReadAt", "offset %d out of range (size %d)", offset, len(m.data)).WithURL(m.name)
	}
	if offset+length > int64(len(m.data)) {
		return nil, cogerr.Newf(cogerr.Truncated, "MemorySource.ReadAt", "offset %d length %d exceeds size %d", offset, length, len(m.data)).WithURL(m.name)
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

func (m *MemorySource) Size(_ context.Context) (int64, error) { return int64(len(m.data)), nil }
func (m *MemorySource) URL() string                            { return m.name }
func (m *MemorySource) Close() error                           { return nil }
