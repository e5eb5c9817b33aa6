package cog

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/tiff"
)

// buildSingleTileCOG hand-encodes a minimal single-tile, single-IFD classic
// TIFF with the tags a COG primary IFD requires, writing raw bytes by
// hand rather than through a library.
type entry struct {
	code  uint16
	ftype tiff.FieldType
	count uint32
	value []byte
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16pair(a, b uint16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], a)
	binary.LittleEndian.PutUint16(buf[2:4], b)
	return buf
}

func buildSingleTileCOG(tileBytes []byte) []byte {
	const ifdOffset = 8
	entries := []entry{
		{tiff.TagImageWidth, tiff.FTShort, 1, le16pair(16, 0)},
		{tiff.TagImageLength, tiff.FTShort, 1, le16pair(16, 0)},
		{tiff.TagBitsPerSample, tiff.FTShort, 1, le16pair(8, 0)},
		{tiff.TagCompression, tiff.FTShort, 1, le16pair(tiff.CompressionNone, 0)},
		{tiff.TagPhotometricInterpretation, tiff.FTShort, 1, le16pair(tiff.PhotometricBlackIsZero, 0)},
		{tiff.TagSamplesPerPixel, tiff.FTShort, 1, le16pair(1, 0)},
		{tiff.TagPlanarConfiguration, tiff.FTShort, 1, le16pair(tiff.PlanarConfigContig, 0)},
		{tiff.TagTileWidth, tiff.FTShort, 1, le16pair(16, 0)},
		{tiff.TagTileLength, tiff.FTShort, 1, le16pair(16, 0)},
		{tiff.TagTileOffsets, tiff.FTLong, 1, nil},   // patched below
		{tiff.TagTileByteCounts, tiff.FTLong, 1, le32(uint32(len(tileBytes)))},
	}

	entriesLen := int64(len(entries)) * 12
	headerLen := int64(8)
	ifdHeaderLen := int64(2)
	nextIFDLen := int64(4)
	tileOffset := headerLen + ifdHeaderLen + entriesLen + nextIFDLen

	for i := range entries {
		if entries[i].code == tiff.TagTileOffsets {
			entries[i].value = le32(uint32(tileOffset))
		}
	}

	var buf bytes.Buffer
	order := binary.LittleEndian
	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(ifdOffset))

	binary.Write(&buf, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, order, e.code)
		binary.Write(&buf, order, uint16(e.ftype))
		binary.Write(&buf, order, e.count)
		v := make([]byte, 4)
		copy(v, e.value)
		buf.Write(v)
	}
	binary.Write(&buf, order, uint32(0))
	buf.Write(tileBytes)
	return buf.Bytes()
}

func TestOpenValidatesTileLayout(t *testing.T) {
	tileBytes := make([]byte, 16*16)
	for i := range tileBytes {
		tileBytes[i] = byte(i)
	}
	data := buildSingleTileCOG(tileBytes)
	src := bytesource.NewMemorySource("fixture", data)

	c, err := Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(c.Ifds) != 1 {
		t.Fatalf("got %d IFDs, want 1", len(c.Ifds))
	}
	p := c.Primary()
	if p.ImageWidth != 16 || p.ImageLength != 16 {
		t.Fatalf("unexpected dimensions %dx%d", p.ImageWidth, p.ImageLength)
	}
	if p.TilesAcross() != 1 || p.TilesDown() != 1 {
		t.Fatalf("expected a single tile, got %dx%d", p.TilesAcross(), p.TilesDown())
	}
	if len(p.TileOffsets) != 1 || len(p.TileByteCounts) != 1 {
		t.Fatalf("tile arrays length mismatch")
	}
}

func TestBandsInterpretationRejectsInconsistentExtraSamples(t *testing.T) {
	if _, err := NewBandsInterpretation(1, []uint16{1}, PhotometricBlackIsZero); err == nil {
		t.Fatalf("expected error for grayscale photometric with an extra sample")
	}
	if _, err := NewBandsInterpretation(3, nil, PhotometricRGB); err != nil {
		t.Fatalf("RGB with 3 bands and no extra samples should be valid: %v", err)
	}
	if _, err := NewBandsInterpretation(4, []uint16{tiff.ExtraSamplesUnassAlpha}, PhotometricRGB); err != nil {
		t.Fatalf("RGB with 4 bands and one unassociated-alpha extra sample should be valid: %v", err)
	}
}
