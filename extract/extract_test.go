package extract

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/tiff"
)

func TestResolutionAtZoomHalvesPerZoomLevel(t *testing.T) {
	r0 := resolutionAtZoom(0)
	r1 := resolutionAtZoom(1)
	if math.Abs(r0/2-r1) > 1e-9 {
		t.Fatalf("resolution at z=1 should be half of z=0: got %v and %v", r0, r1)
	}
}

func TestTileCoordsBounds3857CoversWholeWorldAtZ0(t *testing.T) {
	tile := TileCoords{Z: 0, X: 0, Y: 0}
	b := tile.Bounds3857()
	if math.Abs(b.XMin+webMercatorOriginShift) > 1e-3 {
		t.Fatalf("xmin = %v, want %v", b.XMin, -webMercatorOriginShift)
	}
	if math.Abs(b.XMax-webMercatorOriginShift) > 1e-3 {
		t.Fatalf("xmax = %v, want %v", b.XMax, webMercatorOriginShift)
	}
	if math.Abs(b.YMax-webMercatorOriginShift) > 1e-3 {
		t.Fatalf("ymax = %v, want %v", b.YMax, webMercatorOriginShift)
	}
}

func TestSamplePointsCoversFourEdges(t *testing.T) {
	b := BoundingBox{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	pts := samplePoints(b)
	if len(pts) != 4*edgeSamples {
		t.Fatalf("got %d sample points, want %d", len(pts), 4*edgeSamples)
	}
	bb := boundsFromPoints(pts)
	if bb.XMin < 0 || bb.YMin < 0 || bb.XMax > 100 || bb.YMax > 100 {
		t.Fatalf("sample points escaped the source box: %+v", bb)
	}
}

// --- overview selection, against synthetic (non-GeoTIFF) IFDs so the
// sameCRS fast path is exercised without needing a real proj.Transform.

func syntheticIfd(width, height uint64, pixelSize float64) *cog.Ifd {
	return &cog.Ifd{
		ImageWidth: width, ImageLength: height,
		TileWidth: 256, TileLength: 256,
		HasGeotransform: true,
		Geotransform: tiff.Geotransform{
			OriginX: -100, PixelWidth: pixelSize,
			OriginY: 100, PixelHeight: -pixelSize,
		},
	}
}

func TestSelectOverviewMonotoneWithZoom(t *testing.T) {
	c := &cog.Cog{Ifds: []*cog.Ifd{
		syntheticIfd(4096, 4096, 1.0),
		syntheticIfd(2048, 2048, 2.0),
		syntheticIfd(1024, 1024, 4.0),
	}}

	prevRes := -1.0
	for z := 0; z <= 20; z++ {
		resTarget := resolutionAtZoom(z)
		ifd := selectOverview(c, nil, true, 0, 0, resTarget)
		res := ifd.Geotransform.Resolution()
		if prevRes >= 0 && res > prevRes {
			t.Fatalf("overview selection regressed to a coarser resolution as z increased: z=%d res=%v prevRes=%v", z, res, prevRes)
		}
		prevRes = res
	}
}

func TestSelectOverviewPicksPrimaryBeyondNativeResolution(t *testing.T) {
	c := &cog.Cog{Ifds: []*cog.Ifd{
		syntheticIfd(4096, 4096, 10.0),
		syntheticIfd(2048, 2048, 20.0),
	}}
	// z=20 asks for sub-meter resolution, far finer than any overview.
	ifd := selectOverview(c, nil, true, 0, 0, resolutionAtZoom(20))
	if ifd != c.Ifds[0] {
		t.Fatalf("expected primary IFD when requested resolution exceeds native, got a coarser overview")
	}
}

// --- end-to-end extraction against a minimal single-tile, single-IFD
// COG covering the whole EPSG:3857 world, hand-encoded the same way as
// the tiff and cog packages' own fixtures.

type geoEntry struct {
	code  uint16
	ftype tiff.FieldType
	count uint32
	inlineValue []byte // used when it fits in 4 bytes
	outValue    []byte // used (out-of-line) otherwise
}

func leU16(a, b uint16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], a)
	binary.LittleEndian.PutUint16(buf[2:4], b)
	return buf
}

func leU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func leDoubles(vs ...float64) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func leShorts(vs ...uint16) []byte {
	buf := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// buildWorldCOG encodes a single 256x256-pixel, single-tile classic
// TIFF whose geotransform covers the entire EPSG:3857 extent, with a
// GeoKeyDirectory declaring ProjectedCSTypeGeoKey=3857.
func buildWorldCOG(tileBytes []byte) []byte {
	cellSize := 2 * webMercatorOriginShift / 256

	geoKeyShorts := leShorts(1, 1, 0, 1, 3072, 0, 1, 3857)
	pixelScale := leDoubles(cellSize, cellSize, 0)
	tiepoint := leDoubles(0, 0, 0, -webMercatorOriginShift, webMercatorOriginShift, 0)

	entries := []geoEntry{
		{tiff.TagImageWidth, tiff.FTShort, 1, leU16(256, 0), nil},
		{tiff.TagImageLength, tiff.FTShort, 1, leU16(256, 0), nil},
		{tiff.TagBitsPerSample, tiff.FTShort, 1, leU16(8, 0), nil},
		{tiff.TagCompression, tiff.FTShort, 1, leU16(tiff.CompressionNone, 0), nil},
		{tiff.TagPhotometricInterpretation, tiff.FTShort, 1, leU16(tiff.PhotometricBlackIsZero, 0), nil},
		{tiff.TagSamplesPerPixel, tiff.FTShort, 1, leU16(1, 0), nil},
		{tiff.TagPlanarConfiguration, tiff.FTShort, 1, leU16(tiff.PlanarConfigContig, 0), nil},
		{tiff.TagTileWidth, tiff.FTShort, 1, leU16(256, 0), nil},
		{tiff.TagTileLength, tiff.FTShort, 1, leU16(256, 0), nil},
		{tiff.TagTileOffsets, tiff.FTLong, 1, nil, nil},      // patched below
		{tiff.TagTileByteCounts, tiff.FTLong, 1, leU32(uint32(len(tileBytes))), nil},
		{tiff.TagModelPixelScaleTag, tiff.FTDouble, 3, nil, pixelScale},
		{tiff.TagModelTiepointTag, tiff.FTDouble, 6, nil, tiepoint},
		{tiff.TagGeoKeyDirectoryTag, tiff.FTShort, uint32(len(geoKeyShorts) / 2), nil, geoKeyShorts},
	}

	const headerLen = int64(8)
	ifdHeaderLen := int64(2)
	entriesLen := int64(len(entries)) * 12
	nextIFDLen := int64(4)

	// Out-of-line tag values are laid out right after the IFD, in entry
	// order; offsets are resolved below once every value's position is
	// known.
	outOffset := headerLen + ifdHeaderLen + entriesLen + nextIFDLen
	outOffsets := make([]uint32, len(entries))
	for i, e := range entries {
		if e.outValue != nil {
			outOffsets[i] = uint32(outOffset)
			outOffset += int64(len(e.outValue))
		}
	}
	tileOffset := outOffset

	for i := range entries {
		if entries[i].code == tiff.TagTileOffsets {
			entries[i].inlineValue = leU32(uint32(tileOffset))
		}
	}

	var buf bytes.Buffer
	order := binary.LittleEndian
	buf.WriteString("II")
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(headerLen))

	binary.Write(&buf, order, uint16(len(entries)))
	for i, e := range entries {
		binary.Write(&buf, order, e.code)
		binary.Write(&buf, order, uint16(e.ftype))
		binary.Write(&buf, order, e.count)
		v := make([]byte, 4)
		if e.outValue != nil {
			copy(v, leU32(outOffsets[i]))
		} else {
			copy(v, e.inlineValue)
		}
		buf.Write(v)
	}
	binary.Write(&buf, order, uint32(0)) // next IFD offset: none

	for _, e := range entries {
		if e.outValue != nil {
			buf.Write(e.outValue)
		}
	}
	buf.Write(tileBytes)
	return buf.Bytes()
}

func TestExtractTileOfWholeWorldCOG(t *testing.T) {
	tileBytes := make([]byte, 256*256)
	for row := 0; row < 256; row++ {
		for col := 0; col < 256; col++ {
			tileBytes[row*256+col] = byte(col) // a horizontal gradient
		}
	}
	data := buildWorldCOG(tileBytes)
	src := bytesource.NewMemorySource("fixture", data)

	ctx := context.Background()
	c, err := cog.Open(ctx, src)
	if err != nil {
		t.Fatalf("cog.Open: %v", err)
	}
	if _, ok := c.EPSG(); !ok {
		t.Fatalf("expected the fixture's GeoKeyDirectory to resolve an EPSG code")
	}

	ex := NewExtractor(c)
	out, err := ex.ExtractTile(ctx, 0, 0, 0)
	if err != nil {
		t.Fatalf("ExtractTile: %v", err)
	}
	if out.Width != OutputTileSize || out.Height != OutputTileSize {
		t.Fatalf("got %dx%d, want %dx%d", out.Width, out.Height, OutputTileSize, OutputTileSize)
	}

	rLeft, _, _, aLeft := out.RGBAAt(2, 128)
	rRight, _, _, aRight := out.RGBAAt(253, 128)
	if aLeft == 0 || aRight == 0 {
		t.Fatalf("expected opaque output for a fully covered no-nodata image")
	}
	if rRight <= rLeft {
		t.Fatalf("expected the horizontal gradient to increase left to right: left=%d right=%d", rLeft, rRight)
	}
}

func TestExtractTileBeyondNativeResolutionUpsamples(t *testing.T) {
	tileBytes := make([]byte, 256*256)
	data := buildWorldCOG(tileBytes)
	src := bytesource.NewMemorySource("fixture2", data)
	ctx := context.Background()
	c, err := cog.Open(ctx, src)
	if err != nil {
		t.Fatalf("cog.Open: %v", err)
	}
	ex := NewExtractor(c)
	// z=20, x/y chosen to land near the world center: deep beyond this
	// fixture's single native resolution level, so extraction must fall
	// back to IFD 0 and up-sample rather than error.
	n := 1 << 20
	if _, err := ex.ExtractTile(ctx, 20, n/2, n/2); err != nil {
		t.Fatalf("ExtractTile at deep zoom: %v", err)
	}
}
