package decode

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"image/jpeg"
	"io"

	"golang.org/x/image/ccitt"

	lzwtiff "github.com/hhrutter/lzw"

	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/cogerr"
)

// decompress dispatches on compression: the core set (None, Deflate,
// JPEG) plus the supplemental set (LZW, PackBits, CCITT G3/G4) pulled in
// from the wider ecosystem. width/height/samplesPerPixel/bitsPerSample
// describe the expected decompressed tile shape used to size buffers
// and validate Deflate/LZW/PackBits output length.
func decompress(c cog.Compression, raw []byte, width, height, samplesPerPixel, bitsPerSample int, jpegTables []byte) ([]byte, error) {
	expected := width * height * samplesPerPixel * bitsPerSample / 8

	switch c {
	case cog.CompressionNone:
		if len(raw) != expected {
			return nil, fmt.Errorf("uncompressed tile has %d bytes, want %d", len(raw), expected)
		}
		return raw, nil

	case cog.CompressionDeflate, cog.CompressionDeflateOld:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		out := make([]byte, expected)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, fmt.Errorf("zlib short read: %w", err)
		}
		return out, nil

	case cog.CompressionJPEG, cog.CompressionJPEGOld:
		return decodeJPEGTile(raw, jpegTables, width, height, samplesPerPixel)

	case cog.CompressionLZW:
		lr := lzwtiff.NewReader(bytes.NewReader(raw), true)
		defer lr.Close()
		out := make([]byte, expected)
		if _, err := io.ReadFull(lr, out); err != nil {
			return nil, fmt.Errorf("lzw short read: %w", err)
		}
		return out, nil

	case cog.CompressionPackBits:
		out, err := unpackBits(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("packbits: %w", err)
		}
		if len(out) != expected {
			return nil, fmt.Errorf("packbits tile has %d bytes, want %d", len(out), expected)
		}
		return out, nil

	case cog.CompressionG3, cog.CompressionG4, cog.CompressionCCITT:
		sub := ccitt.Group4
		if c == cog.CompressionG3 {
			sub = ccitt.Group3
		}
		r := ccitt.NewReader(bytes.NewReader(raw), ccitt.MSB, sub, width, height, nil)
		out := make([]byte, expected)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("ccitt short read: %w", err)
		}
		return out, nil

	default:
		return nil, cogerr.Newf(cogerr.UnsupportedCompression, "decompress", "compression %s (%d)", c, c)
	}
}

// decodeJPEGTile decodes a baseline JPEG tile stream. When jpegTables is
// non-empty it provides the shared SOI...DQT/DHT prefix that precedes
// every tile's SOS segment: the tile's own stream typically starts at
// its SOS marker and must be reassembled with the shared tables prefix
// before handing it to a standard JPEG decoder.
func decodeJPEGTile(raw, jpegTables []byte, width, height, samplesPerPixel int) ([]byte, error) {
	stream := raw
	if len(jpegTables) > 0 {
		// jpegTables ends in EOI (0xFFD9); strip it before concatenating
		// with the tile's own stream, which begins at its own SOI or
		// directly at SOS depending on the encoder.
		tables := jpegTables
		if len(tables) >= 2 && tables[len(tables)-2] == 0xFF && tables[len(tables)-1] == 0xD9 {
			tables = tables[:len(tables)-2]
		}
		body := raw
		if len(body) >= 2 && body[0] == 0xFF && body[1] == 0xD8 {
			// Drop the tile's own SOI: the tables prefix already opens
			// the stream with one.
			body = body[2:]
		}
		stream = append(append([]byte{}, tables...), body...)
	}
	img, err := jpeg.Decode(bufio.NewReader(bytes.NewReader(stream)))
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	bounds := img.Bounds()
	out := make([]byte, width*height*samplesPerPixel)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= bounds.Dx() || y >= bounds.Dy() {
				continue
			}
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			base := (y*width + x) * samplesPerPixel
			switch samplesPerPixel {
			case 1:
				out[base] = uint8(r >> 8)
			case 3:
				out[base], out[base+1], out[base+2] = uint8(r>>8), uint8(g>>8), uint8(b>>8)
			case 4:
				out[base], out[base+1], out[base+2], out[base+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
			}
		}
	}
	return out, nil
}
