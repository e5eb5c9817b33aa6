package bytesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, data []byte) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLocalSourceReadAt(t *testing.T) {
	data := make([]byte, 100000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := writeFixture(t, data)

	src, err := OpenLocal(path, WithChunkSize(4096))
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	size, err := src.Size(ctx)
	if err != nil || size != int64(len(data)) {
		t.Fatalf("Size() = %d, %v; want %d", size, err, len(data))
	}

	cases := []struct{ off, length int64 }{
		{0, 10},
		{4090, 20}, // spans a chunk boundary
		{int64(len(data)) - 1, 1},
		{100, 50000},
	}
	for _, c := range cases {
		got, err := src.ReadAt(ctx, c.off, c.length)
		if err != nil {
			t.Fatalf("ReadAt(%d,%d): %v", c.off, c.length, err)
		}
		want := data[c.off : c.off+c.length]
		if string(got) != string(want) {
			t.Fatalf("ReadAt(%d,%d) mismatch", c.off, c.length)
		}
	}
}

func TestLocalSourceOutOfRange(t *testing.T) {
	path := writeFixture(t, []byte("hello world"))
	src, err := OpenLocal(path)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	size, _ := src.Size(ctx)

	if _, err := src.ReadAt(ctx, size-1, 1); err != nil {
		t.Fatalf("ReadAt at size-1 should succeed: %v", err)
	}
	if _, err := src.ReadAt(ctx, size, 1); err == nil {
		t.Fatalf("ReadAt at size should fail with OutOfRange")
	}
}

func TestChunkCacheSingleFlight(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, idx int64) ([]byte, error) {
		calls++
		return []byte{byte(idx)}, nil
	}
	c := newChunkCache(16, 1<<20, fetch, "test")
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			c.getChunk(ctx, 3)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 underlying fetch for concurrent identical chunk requests, got %d", calls)
	}
}

func TestChunkCacheCoherence(t *testing.T) {
	backing := make([]byte, 5000)
	for i := range backing {
		backing[i] = byte(i)
	}
	fetch := func(ctx context.Context, idx int64) ([]byte, error) {
		start := idx * 1024
		end := start + 1024
		if end > int64(len(backing)) {
			end = int64(len(backing))
		}
		return backing[start:end], nil
	}
	c := newChunkCache(1024, 1<<20, fetch, "test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.read(ctx, 500, 2000)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		want := backing[500:2500]
		if string(got) != string(want) {
			t.Fatalf("read #%d mismatch", i)
		}
	}
}
