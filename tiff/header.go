package tiff

import (
	"context"
	"encoding/binary"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cogerr"
)

// Header is the decoded TIFF/BigTIFF file header.
type Header struct {
	ByteOrder    binary.ByteOrder
	BigTIFF      bool
	FirstIFDOffset uint64
	// OffsetWidth is 4 for classic TIFF, 8 for BigTIFF; it governs the
	// width of every offset-bearing field the parser decodes downstream.
	OffsetWidth int
}

// ReadHeader reads the first 16 bytes of src (enough to cover the
// BigTIFF header) and decodes byte order, magic number and the first
// IFD offset.
func ReadHeader(ctx context.Context, src bytesource.ByteSource) (*Header, error) {
	buf, err := src.ReadAt(ctx, 0, 16)
	if err != nil {
		return nil, err
	}

	var order binary.ByteOrder
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		order = binary.LittleEndian
	case buf[0] == 'M' && buf[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, cogerr.Newf(cogerr.MalformedTiff, "ReadHeader", "bad byte-order marker %q", buf[0:2]).WithURL(src.URL())
	}

	magic := order.Uint16(buf[2:4])
	h := &Header{ByteOrder: order}
	switch magic {
	case 42:
		h.BigTIFF = false
		h.OffsetWidth = 4
		h.FirstIFDOffset = uint64(order.Uint32(buf[4:8]))
	case 43:
		h.BigTIFF = true
		h.OffsetWidth = 8
		bytesizeOfOffsets := order.Uint16(buf[4:6])
		if bytesizeOfOffsets != 8 {
			return nil, cogerr.Newf(cogerr.UnsupportedBigTiff, "ReadHeader", "unexpected BigTIFF offset byte size %d", bytesizeOfOffsets).WithURL(src.URL())
		}
		// buf[6:8] is a reserved constant-zero field.
		h.FirstIFDOffset = order.Uint64(buf[8:16])
	default:
		return nil, cogerr.Newf(cogerr.MalformedTiff, "ReadHeader", "bad magic number %d", magic).WithURL(src.URL())
	}
	return h, nil
}

// entryWidth returns the on-disk width of one IFD entry: 12 bytes for
// classic TIFF, 20 for BigTIFF.
func (h *Header) entryWidth() int64 {
	if h.BigTIFF {
		return 20
	}
	return 12
}

// entryCountWidth returns the width of the entry-count field preceding
// the entries: 2 bytes classic, 8 bytes BigTIFF.
func (h *Header) entryCountWidth() int64 {
	if h.BigTIFF {
		return 8
	}
	return 2
}
