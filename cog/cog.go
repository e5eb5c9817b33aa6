// Package cog layers a validated Cog/Ifd model over the raw tiff.IFD
// chain: compression, predictor, photometric interpretation, band
// layout and GeoTIFF projection metadata, plus the COG-specific
// structural validation (full-resolution primary, strictly-decreasing
// overviews, consistent band interpretation) grounded on
// original_source/src/tiff/cog.rs.
package cog

import (
	"context"
	"fmt"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cogerr"
	"github.com/flywave/acog/tiff"
)

// Cog owns one TiffHeader plus the ordered list of Ifds: index 0 is the
// full-resolution image, indices 1..n are overviews in order of
// decreasing resolution.
type Cog struct {
	Source   bytesource.ByteSource
	Header   *tiff.Header
	Ifds     []*Ifd
	MaskIfds []*Ifd
}

// Open parses the file at src into a validated Cog. It performs every
// COG-specific structural check grounded on original_source's
// COG::open: each overview's ImageWidth/ImageLength are strictly less
// than the previous, the primary IFD must be full-resolution, no second
// full-resolution IFD may exist (multi-image COG), overviews must have
// the same band interpretation as the primary, and any
// PhotometricInterpretation=Mask IFDs are segregated into a parallel
// MaskIfds list instead of the main chain.
func Open(ctx context.Context, src bytesource.ByteSource) (*Cog, error) {
	header, err := tiff.ReadHeader(ctx, src)
	if err != nil {
		return nil, err
	}
	rawIfds, err := tiff.ParseIFDChain(ctx, src, header)
	if err != nil {
		return nil, err
	}

	var ifds, maskIfds []*Ifd
	for idx, raw := range rawIfds {
		f, err := buildIfd(raw)
		if err != nil {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "IFD %d: %v", idx, err).WithURL(src.URL())
		}
		if f.Photometric == PhotometricMask {
			maskIfds = append(maskIfds, f)
		} else {
			ifds = append(ifds, f)
		}
	}
	if len(ifds) == 0 {
		return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "no non-mask IFDs found").WithURL(src.URL())
	}
	if !ifds[0].IsFullResolution {
		return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "IFD 0 is not full-resolution (not a COG)").WithURL(src.URL())
	}

	prev := ifds[0]
	for i := 1; i < len(ifds); i++ {
		cur := ifds[i]
		if cur.IsFullResolution {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "IFD %d is a second full-resolution image (multi-image COG unsupported)", i).WithURL(src.URL())
		}
		if cur.ImageWidth >= prev.ImageWidth || cur.ImageLength >= prev.ImageLength {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "overview %d (%dx%d) is not strictly smaller than overview %d (%dx%d)", i, cur.ImageWidth, cur.ImageLength, i-1, prev.ImageWidth, prev.ImageLength).WithURL(src.URL())
		}
		if cur.Bands != ifds[0].Bands {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "cog.Open", "overview %d has band interpretation %+v, primary has %+v", i, cur.Bands, ifds[0].Bands).WithURL(src.URL())
		}
		prev = cur
	}

	for _, f := range ifds {
		if !f.Compression.Supported() {
			return nil, cogerr.Newf(cogerr.UnsupportedCompression, "cog.Open", "compression %s (%d)", f.Compression, f.Compression).WithURL(src.URL())
		}
	}

	return &Cog{Source: src, Header: header, Ifds: ifds, MaskIfds: maskIfds}, nil
}

// Primary returns the full-resolution IFD, index 0.
func (c *Cog) Primary() *Ifd { return c.Ifds[0] }

// MaskFor returns the mask overview whose dimensions match ifd, if any,
// implementing the JPEG-COG mask-overview convention supplemented from
// original_source's COGDataReader.
func (c *Cog) MaskFor(ifd *Ifd) (*Ifd, bool) {
	for _, m := range c.MaskIfds {
		if m.ImageWidth == ifd.ImageWidth && m.ImageLength == ifd.ImageLength {
			return m, true
		}
	}
	return nil, false
}

// EPSG returns the source CRS's EPSG code, extracted from the primary
// IFD's GeoKeyDirectory only.
func (c *Cog) EPSG() (int, bool) { return c.Primary().EPSG, c.Primary().HasEPSG }

// Bounds returns the raster's corner coordinates in its source CRS,
// supplemented from original_source's COG::lnglat_bounds (here left in
// source CRS; callers reproject via the proj package as needed).
func (c *Cog) Bounds() (minX, minY, maxX, maxY float64, err error) {
	p := c.Primary()
	if !p.HasGeotransform {
		return 0, 0, 0, 0, fmt.Errorf("primary IFD has no geotransform")
	}
	gt := p.Geotransform
	x0, y0 := gt.PixelToModel(0, 0)
	x1, y1 := gt.PixelToModel(float64(p.ImageWidth), float64(p.ImageLength))
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return x0, y0, x1, y1, nil
}
