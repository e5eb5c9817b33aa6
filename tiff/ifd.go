package tiff

import (
	"context"
	"fmt"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cogerr"
)

// Tag is one decoded TIFF entry: its code, field type, element count and
// decoded value.
type Tag struct {
	Code      uint16
	FieldType FieldType
	Count     uint64
	Value     *Value
}

// IFD is a dictionary of tags keyed by code; duplicate codes are
// rejected. This is a map-based dictionary rather than a fixed-struct-
// with-reflection-tags design (`tiff:"field,tag=N"`), since duplicate-
// code rejection and unknown-tag preservation don't fit a fixed struct
// schema; the cog package layers typed accessors on top.
type IFD struct {
	Tags map[uint16]*Tag
	// NextOffset is the file offset of the following IFD, 0 if this is
	// the last one in the chain.
	NextOffset uint64
}

func (ifd *IFD) Get(code uint16) (*Tag, bool) {
	t, ok := ifd.Tags[code]
	return t, ok
}

func (ifd *IFD) MustUint(code uint16) (uint64, error) {
	t, ok := ifd.Get(code)
	if !ok {
		return 0, fmt.Errorf("required tag %d missing", code)
	}
	u := t.Value.Uint64s()
	if len(u) == 0 {
		return 0, fmt.Errorf("tag %d has no integer value", code)
	}
	return u[0], nil
}

// ParseIFDChain walks the IFD chain starting at header.FirstIFDOffset,
// following NextOffset until it reaches 0.
func ParseIFDChain(ctx context.Context, src bytesource.ByteSource, h *Header) ([]*IFD, error) {
	var ifds []*IFD
	offset := h.FirstIFDOffset
	seen := map[uint64]bool{}
	for offset != 0 {
		if seen[offset] {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "ParseIFDChain", "IFD chain loops back to offset %d", offset).WithURL(src.URL())
		}
		seen[offset] = true
		ifd, next, err := parseOneIFD(ctx, src, h, offset)
		if err != nil {
			return nil, err
		}
		ifds = append(ifds, ifd)
		offset = next
	}
	if len(ifds) == 0 {
		return nil, cogerr.Newf(cogerr.MalformedTiff, "ParseIFDChain", "empty IFD chain").WithURL(src.URL())
	}
	return ifds, nil
}

func parseOneIFD(ctx context.Context, src bytesource.ByteSource, h *Header, offset uint64) (*IFD, uint64, error) {
	countBuf, err := src.ReadAt(ctx, int64(offset), h.entryCountWidth())
	if err != nil {
		return nil, 0, err
	}
	var entryCount uint64
	if h.BigTIFF {
		entryCount = h.ByteOrder.Uint64(countBuf)
	} else {
		entryCount = uint64(h.ByteOrder.Uint16(countBuf))
	}

	entriesOffset := int64(offset) + h.entryCountWidth()
	entriesLen := int64(entryCount) * h.entryWidth()
	entriesBuf, err := src.ReadAt(ctx, entriesOffset, entriesLen)
	if err != nil {
		return nil, 0, err
	}

	nextOffsetBuf, err := src.ReadAt(ctx, entriesOffset+entriesLen, int64(h.OffsetWidth))
	if err != nil {
		return nil, 0, err
	}
	var nextOffset uint64
	if h.BigTIFF {
		nextOffset = h.ByteOrder.Uint64(nextOffsetBuf)
	} else {
		nextOffset = uint64(h.ByteOrder.Uint32(nextOffsetBuf))
	}

	ifd := &IFD{Tags: make(map[uint16]*Tag, entryCount), NextOffset: nextOffset}

	// First pass: parse each raw entry, deferring the actual value
	// decode for offset-resident tags until we've collected every
	// offset that needs a range read, so a future implementation can
	// coalesce contiguous ranges into a single fetch; today each read
	// still goes through the shared chunk cache, which absorbs most of
	// the benefit of batching for tags that share a chunk.
	type pending struct {
		code      uint16
		fieldType FieldType
		count     uint64
		offset    int64
		length    int64
	}
	var pendings []pending

	for i := uint64(0); i < entryCount; i++ {
		entry := entriesBuf[int64(i)*h.entryWidth():]
		code := h.ByteOrder.Uint16(entry[0:2])
		fieldType := FieldType(h.ByteOrder.Uint16(entry[2:4]))

		var count uint64
		var valueField []byte
		if h.BigTIFF {
			count = h.ByteOrder.Uint64(entry[4:12])
			valueField = entry[12:20]
		} else {
			count = uint64(h.ByteOrder.Uint32(entry[4:8]))
			valueField = entry[8:12]
		}

		if _, dup := ifd.Tags[code]; dup {
			return nil, 0, cogerr.Newf(cogerr.MalformedTiff, "parseOneIFD", "duplicate tag code %d", code).WithURL(src.URL())
		}

		sz := sizeOf(fieldType)
		if sz == 0 {
			// Unknown field type: preserve as raw undefined bytes sized
			// by count, per §6 "unknown tags MUST be ignored" extended
			// to unknown types — store the inline bytes verbatim.
			fieldType = FTUndefined
			sz = 1
		}
		payloadSize := int64(count) * sz

		if payloadSize <= int64(h.OffsetWidth) {
			val, err := decodeValue(fieldType, count, valueField[:payloadSize], h.ByteOrder)
			if err != nil {
				return nil, 0, cogerr.New(cogerr.MalformedTiff, "parseOneIFD", err).WithURL(src.URL())
			}
			ifd.Tags[code] = &Tag{Code: code, FieldType: fieldType, Count: count, Value: val}
			continue
		}

		var valOffset uint64
		if h.BigTIFF {
			valOffset = h.ByteOrder.Uint64(valueField)
		} else {
			valOffset = uint64(h.ByteOrder.Uint32(valueField))
		}
		pendings = append(pendings, pending{code: code, fieldType: fieldType, count: count, offset: int64(valOffset), length: payloadSize})
		// Reserve the map slot so the duplicate check above still fires
		// if the same code appears twice.
		ifd.Tags[code] = nil
	}

	for _, p := range pendings {
		buf, err := src.ReadAt(ctx, p.offset, p.length)
		if err != nil {
			return nil, 0, err
		}
		val, err := decodeValue(p.fieldType, p.count, buf, h.ByteOrder)
		if err != nil {
			return nil, 0, cogerr.New(cogerr.MalformedTiff, "parseOneIFD", err).WithURL(src.URL()).WithOffset(p.offset)
		}
		ifd.Tags[p.code] = &Tag{Code: p.code, FieldType: p.fieldType, Count: p.count, Value: val}
	}

	return ifd, nextOffset, nil
}
