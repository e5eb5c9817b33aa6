package decode

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
)

// TestHorizontalPredictorRoundTrip checks that applying the horizontal
// predictor then its inverse is identity on a random byte buffer of
// valid shape.
func TestHorizontalPredictorRoundTrip(t *testing.T) {
	const width, height, spp = 13, 7, 3
	rng := rand.New(rand.NewSource(1))
	original := make([]byte, width*height*spp)
	rng.Read(original)

	encoded := append([]byte(nil), original...)
	rowBytes := width * spp
	for row := height - 1; row >= 0; row-- {
		r := encoded[row*rowBytes : (row+1)*rowBytes]
		for k := len(r) - 1; k >= spp; k-- {
			r[k] -= r[k-spp]
		}
	}

	decoded := append([]byte(nil), encoded...)
	if err := undoHorizontalPredictor(decoded, width, height, spp, 8); err != nil {
		t.Fatalf("undoHorizontalPredictor: %v", err)
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Fatalf("round trip mismatch at %d: got %d want %d", i, decoded[i], original[i])
		}
	}
}

func TestDecodeTileSparseProducesNodata(t *testing.T) {
	ifd := &cog.Ifd{
		ImageWidth: 16, ImageLength: 16,
		TileWidth: 16, TileLength: 16,
		TileOffsets:     []uint64{0},
		TileByteCounts:  []uint64{0},
		SamplesPerPixel: 3,
		BitsPerSample:   []uint16{8},
		Compression:     cog.CompressionNone,
		Bands:           cog.BandsInterpretation{NBands: 3},
	}
	src := bytesource.NewMemorySource("fixture", nil)
	block, err := DecodeTile(context.Background(), src, ifd, 0)
	if err != nil {
		t.Fatalf("DecodeTile: %v", err)
	}
	if !block.Sparse {
		t.Fatalf("expected Sparse=true for a zero-byte-count tile")
	}
	for _, b := range block.Data {
		if b != 0 {
			t.Fatalf("sparse tile data is not all-nodata")
		}
	}
}

func TestUnpackBitsRoundTrip(t *testing.T) {
	// Hand-encode a tiny PackBits stream: 3 literal bytes, then a
	// 4-times repeat of 0x42.
	negThree := int8(-3)
	packed := []byte{2, 'a', 'b', 'c', byte(negThree), 0x42}
	out, err := unpackBits(bytesReader(packed))
	if err != nil {
		t.Fatalf("unpackBits: %v", err)
	}
	want := []byte{'a', 'b', 'c', 0x42, 0x42, 0x42, 0x42}
	if string(out) != string(want) {
		t.Fatalf("unpackBits = %v, want %v", out, want)
	}
}

func bytesReader(b []byte) *byteSliceReader { return &byteSliceReader{b: b} }

type byteSliceReader struct {
	b   []byte
	pos int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func (r *byteSliceReader) ReadByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	b := r.b[r.pos]
	r.pos++
	return b, nil
}
