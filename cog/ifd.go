package cog

import (
	"fmt"

	"github.com/flywave/acog/tiff"
)

// Ifd is the validated, typed view layered over a raw tiff.IFD: image
// dimensions, tile geometry, band layout, compression, predictor,
// photometric interpretation and GeoTIFF projection metadata, all
// resolved up front so the decoder and extractor never touch raw tag
// dictionaries.
type Ifd struct {
	Raw *tiff.IFD

	ImageWidth, ImageLength uint64
	TileWidth, TileLength   uint64
	TileOffsets             []uint64
	TileByteCounts          []uint64

	BitsPerSample    []uint16
	SampleFormat     uint16
	SamplesPerPixel  int
	ExtraSamples     []uint16
	Compression      Compression
	Predictor        Predictor
	Photometric      Photometric
	PlanarConfig     uint16
	Bands            BandsInterpretation
	IsFullResolution bool
	ColorMap         []uint16
	NoData           *float64
	JPEGTables       []byte

	EPSG         int
	HasEPSG      bool
	Geotransform tiff.Geotransform
	HasGeotransform bool
}

// TilesAcross and TilesDown are the tile grid dimensions.
func (f *Ifd) TilesAcross() uint64 { return ceilDiv(f.ImageWidth, f.TileWidth) }
func (f *Ifd) TilesDown() uint64   { return ceilDiv(f.ImageLength, f.TileLength) }

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// buildIfd turns one raw tiff.IFD into a validated Ifd.
func buildIfd(raw *tiff.IFD) (*Ifd, error) {
	f := &Ifd{Raw: raw}

	width, err := raw.MustUint(tiff.TagImageWidth)
	if err != nil {
		return nil, err
	}
	length, err := raw.MustUint(tiff.TagImageLength)
	if err != nil {
		return nil, err
	}
	f.ImageWidth, f.ImageLength = width, length

	if _, hasTW := raw.Get(tiff.TagTileWidth); !hasTW {
		return nil, fmt.Errorf("IFD lacks a tile layout (non-tiled TIFF unsupported except legitimate strip COGs)")
	}
	if _, hasTL := raw.Get(tiff.TagTileLength); !hasTL {
		return nil, fmt.Errorf("IFD lacks a tile layout (non-tiled TIFF unsupported except legitimate strip COGs)")
	}
	// Use MustUint rather than indexing Value.Uint64s()[0] directly: a
	// malformed zero-count or non-integer tag must fail as MalformedTiff,
	// not panic on an empty slice.
	tileWidth, err := raw.MustUint(tiff.TagTileWidth)
	if err != nil {
		return nil, err
	}
	tileLength, err := raw.MustUint(tiff.TagTileLength)
	if err != nil {
		return nil, err
	}
	f.TileWidth, f.TileLength = tileWidth, tileLength

	toTag, ok := raw.Get(tiff.TagTileOffsets)
	if !ok {
		return nil, fmt.Errorf("IFD lacks TileOffsets")
	}
	tbcTag, ok := raw.Get(tiff.TagTileByteCounts)
	if !ok {
		return nil, fmt.Errorf("IFD lacks TileByteCounts")
	}
	f.TileOffsets = toTag.Value.Uint64s()
	f.TileByteCounts = tbcTag.Value.Uint64s()

	wantTiles := ceilDiv(width, f.TileWidth) * ceilDiv(length, f.TileLength)
	if uint64(len(f.TileOffsets)) != wantTiles || uint64(len(f.TileByteCounts)) != wantTiles {
		return nil, fmt.Errorf("tile array length mismatch: have %d/%d offsets/counts, want %d", len(f.TileOffsets), len(f.TileByteCounts), wantTiles)
	}

	if bps, ok := raw.Get(tiff.TagBitsPerSample); ok {
		f.BitsPerSample = bps.Value.Shorts
	} else {
		f.BitsPerSample = []uint16{8}
	}

	if sf, ok := raw.Get(tiff.TagSampleFormat); ok && len(sf.Value.Shorts) > 0 {
		f.SampleFormat = sf.Value.Shorts[0]
	} else {
		f.SampleFormat = tiff.SampleFormatUInt
	}

	spp, err := raw.MustUint(tiff.TagSamplesPerPixel)
	if err != nil {
		f.SamplesPerPixel = 1
	} else {
		f.SamplesPerPixel = int(spp)
	}

	if es, ok := raw.Get(tiff.TagExtraSamples); ok {
		f.ExtraSamples = es.Value.Shorts
	}

	compVal, err := raw.MustUint(tiff.TagCompression)
	if err != nil {
		f.Compression = CompressionNone
	} else {
		f.Compression = Compression(compVal)
	}

	if p, ok := raw.Get(tiff.TagPredictor); ok && len(p.Value.Shorts) > 0 {
		f.Predictor = Predictor(p.Value.Shorts[0])
	} else {
		f.Predictor = PredictorNone
	}

	photoVal, err := raw.MustUint(tiff.TagPhotometricInterpretation)
	if err != nil {
		return nil, fmt.Errorf("IFD lacks PhotometricInterpretation")
	}
	f.Photometric = Photometric(photoVal)

	if pc, ok := raw.Get(tiff.TagPlanarConfiguration); ok && len(pc.Value.Shorts) > 0 {
		f.PlanarConfig = pc.Value.Shorts[0]
	} else {
		f.PlanarConfig = tiff.PlanarConfigContig
	}
	if f.PlanarConfig != tiff.PlanarConfigContig {
		return nil, fmt.Errorf("PlanarConfiguration=%d is unsupported for COG reading (chunky layout assumed)", f.PlanarConfig)
	}

	bands, err := NewBandsInterpretation(f.SamplesPerPixel, f.ExtraSamples, f.Photometric)
	if err != nil {
		return nil, err
	}
	f.Bands = bands

	if cm, ok := raw.Get(tiff.TagColorMap); ok {
		f.ColorMap = cm.Value.Shorts
	}

	f.IsFullResolution = true
	if nsf, ok := raw.Get(tiff.TagNewSubfileType); ok {
		u := nsf.Value.Uint64s()
		if len(u) > 0 && u[0]&0x1 != 0 {
			f.IsFullResolution = false
		}
	}

	if nd, ok := raw.Get(tiff.TagGDALNoData); ok {
		var v float64
		if _, err := fmt.Sscanf(nd.Value.ASCII, "%g", &v); err == nil {
			f.NoData = &v
		}
	}

	if jt, ok := raw.Get(tiff.TagJPEGTables); ok {
		f.JPEGTables = jt.Value.Bytes
	}

	if gk, ok := raw.Get(tiff.TagGeoKeyDirectoryTag); ok {
		if dir, err := tiff.ParseGeoKeyDirectory(gk.Value.Shorts); err == nil {
			if epsg, found := dir.EPSG(); found {
				f.EPSG, f.HasEPSG = epsg, true
			}
		}
		// An invalid GeoKey directory degrades to "unknown CRS" rather
		// than failing the whole load.
	}

	if gt, err := tiff.BuildGeotransform(raw); err == nil {
		f.Geotransform, f.HasGeotransform = gt, true
	}

	return f, nil
}
