package tiff

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/flywave/acog/bytesource"
)

// fixtureEntry is a hand-rolled IFD entry builder for test fixtures,
// writing raw TIFF bytes by hand rather than through a library.
type fixtureEntry struct {
	code      uint16
	fieldType FieldType
	count     uint32
	value     []byte // exactly 4 bytes, left-justified per TIFF convention
}

func buildClassicTIFF(entries []fixtureEntry) []byte {
	var buf bytes.Buffer
	order := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(8)) // first IFD at offset 8

	binary.Write(&buf, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, order, e.code)
		binary.Write(&buf, order, uint16(e.fieldType))
		binary.Write(&buf, order, e.count)
		v := make([]byte, 4)
		copy(v, e.value)
		buf.Write(v)
	}
	binary.Write(&buf, order, uint32(0)) // no next IFD
	return buf.Bytes()
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u16le2(a, b uint16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], a)
	binary.LittleEndian.PutUint16(buf[2:4], b)
	return buf
}

func TestReadHeaderClassic(t *testing.T) {
	data := buildClassicTIFF([]fixtureEntry{
		{TagImageWidth, FTShort, 1, u16le2(256, 0)},
	})
	src := bytesource.NewMemorySource("fixture", data)
	h, err := ReadHeader(context.Background(), src)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.BigTIFF {
		t.Fatalf("expected classic TIFF")
	}
	if h.FirstIFDOffset != 8 {
		t.Fatalf("FirstIFDOffset = %d, want 8", h.FirstIFDOffset)
	}
}

func TestParseIFDChainInline(t *testing.T) {
	data := buildClassicTIFF([]fixtureEntry{
		{TagImageWidth, FTShort, 1, u16le2(256, 0)},
		{TagImageLength, FTShort, 1, u16le2(256, 0)},
		{TagCompression, FTShort, 1, u16le2(CompressionNone, 0)},
	})
	src := bytesource.NewMemorySource("fixture", data)
	h, err := ReadHeader(context.Background(), src)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	ifds, err := ParseIFDChain(context.Background(), src, h)
	if err != nil {
		t.Fatalf("ParseIFDChain: %v", err)
	}
	if len(ifds) != 1 {
		t.Fatalf("got %d IFDs, want 1", len(ifds))
	}
	w, err := ifds[0].MustUint(TagImageWidth)
	if err != nil || w != 256 {
		t.Fatalf("ImageWidth = %d, %v; want 256", w, err)
	}
}

func TestParseIFDChainRejectsDuplicateTag(t *testing.T) {
	data := buildClassicTIFF([]fixtureEntry{
		{TagImageWidth, FTShort, 1, u16le2(256, 0)},
		{TagImageWidth, FTShort, 1, u16le2(512, 0)},
	})
	src := bytesource.NewMemorySource("fixture", data)
	h, err := ReadHeader(context.Background(), src)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if _, err := ParseIFDChain(context.Background(), src, h); err == nil {
		t.Fatalf("expected error for duplicate tag code")
	}
}

func TestGeoKeyDirectoryEPSG(t *testing.T) {
	// Header: version, revision, minor, numKeys=1; then one key entry:
	// ProjectedCSTypeGeoKey(3072), location=0 (inline), count=1, value=32633.
	shorts := []uint16{1, 1, 0, 1, GeoKeyProjectedCSType, 0, 1, 32633}
	dir, err := ParseGeoKeyDirectory(shorts)
	if err != nil {
		t.Fatalf("ParseGeoKeyDirectory: %v", err)
	}
	epsg, ok := dir.EPSG()
	if !ok || epsg != 32633 {
		t.Fatalf("EPSG() = %d, %v; want 32633, true", epsg, ok)
	}
}

func TestBuildGeotransformTiepointPath(t *testing.T) {
	ifd := &IFD{Tags: map[uint16]*Tag{
		TagModelPixelScaleTag: {Value: &Value{Type: FTDouble, Doubles: []float64{10, 10, 0}}},
		TagModelTiepointTag:   {Value: &Value{Type: FTDouble, Doubles: []float64{0, 0, 0, 500000, 4649000, 0}}},
	}}
	gt, err := BuildGeotransform(ifd)
	if err != nil {
		t.Fatalf("BuildGeotransform: %v", err)
	}
	x, y := gt.PixelToModel(1, 1)
	if x != 500010 || y != 4648990 {
		t.Fatalf("PixelToModel(1,1) = (%v,%v); want (500010, 4648990)", x, y)
	}
}

func TestBuildGeotransformPrefersModelTransformation(t *testing.T) {
	matrix := make([]float64, 16)
	matrix[0], matrix[5] = 30, -30
	matrix[3], matrix[7] = 100000, 5000000
	ifd := &IFD{Tags: map[uint16]*Tag{
		TagModelTransformationTag: {Value: &Value{Type: FTDouble, Doubles: matrix}},
		TagModelPixelScaleTag:     {Value: &Value{Type: FTDouble, Doubles: []float64{1, 1, 0}}},
		TagModelTiepointTag:       {Value: &Value{Type: FTDouble, Doubles: []float64{0, 0, 0, 0, 0, 0}}},
	}}
	gt, err := BuildGeotransform(ifd)
	if err != nil {
		t.Fatalf("BuildGeotransform: %v", err)
	}
	if gt.PixelWidth != 30 || gt.PixelHeight != -30 {
		t.Fatalf("expected ModelTransformation to win over pixel-scale path, got %+v", gt)
	}
}
