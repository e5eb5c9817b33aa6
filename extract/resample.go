package extract

import (
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/decode"
	"github.com/flywave/acog/proj"
)

// resample fills out by, for each output pixel, projecting its center
// back through the inverse transform to source pixel coordinates and
// sampling by nearest-neighbour. Out-of-image samples and declared-
// NoData samples become transparent (alpha=0); otherwise output is
// opaque.
func (e *Extractor) resample(out *OutputTile, ifd *cog.Ifd, blocks map[[2]int]*decode.PixelBlock, maskIfd *cog.Ifd, maskBlocks map[[2]int]*decode.PixelBlock, xform *proj.Transform, sameCRS bool, tile TileCoords) {
	for py := 0; py < OutputTileSize; py++ {
		for px := 0; px < OutputTileSize; px++ {
			mx, my := tile.PixelToMeters(float64(px)+0.5, float64(py)+0.5)
			srcX, srcY := mx, my
			if !sameCRS {
				srcX, srcY = xform.Inverse(mx, my)
			}
			if !ifd.HasGeotransform {
				out.setRGBA(px, py, 0, 0, 0, 0)
				continue
			}
			col, row, ok := ifd.Geotransform.ModelToPixel(srcX, srcY)
			if !ok {
				out.setRGBA(px, py, 0, 0, 0, 0)
				continue
			}
			r, g, b, a := sampleNearest(ifd, blocks, col, row)
			if maskIfd != nil && a > 0 {
				maskCol, maskRow := col, row
				if maskIfd.ImageWidth != ifd.ImageWidth || maskIfd.ImageLength != ifd.ImageLength {
					sx := float64(maskIfd.ImageWidth) / float64(ifd.ImageWidth)
					sy := float64(maskIfd.ImageLength) / float64(ifd.ImageLength)
					maskCol, maskRow = col*sx, row*sy
				}
				a = sampleMaskAlpha(maskIfd, maskBlocks, maskCol, maskRow)
			}
			out.setRGBA(px, py, r, g, b, a)
		}
	}
}

// sampleNearest looks up the nearest-neighbour sample at fractional
// pixel coordinates (col, row) within ifd, returning a=0 for any
// out-of-image, missing-tile (failed decode), sparse, or declared-
// NoData sample.
func sampleNearest(ifd *cog.Ifd, blocks map[[2]int]*decode.PixelBlock, col, row float64) (r, g, b, a uint8) {
	ic, ir := int(round(col)), int(round(row))
	if ic < 0 || ir < 0 || uint64(ic) >= ifd.ImageWidth || uint64(ir) >= ifd.ImageLength {
		return 0, 0, 0, 0
	}
	tileCol, tileRow := ic/int(ifd.TileWidth), ir/int(ifd.TileLength)
	block := blocks[[2]int{tileCol, tileRow}]
	if block == nil || block.Sparse {
		return 0, 0, 0, 0
	}
	localCol, localRow := ic%int(ifd.TileWidth), ir%int(ifd.TileLength)
	if localCol >= block.Width || localRow >= block.Height {
		return 0, 0, 0, 0
	}

	r, g, b, a = blockToRGBA(block, localCol, localRow)
	if ifd.NoData != nil && sampleMatchesNodata(block, localCol, localRow, *ifd.NoData) {
		a = 0
	}
	return r, g, b, a
}

// sampleMaskAlpha reads a Mask-overview band's value directly as an
// alpha sample (0=transparent, 255=opaque, the GDAL JPEG-mask
// convention supplemented from original_source's COGDataReader),
// rather than treating it as a grayscale intensity.
func sampleMaskAlpha(maskIfd *cog.Ifd, maskBlocks map[[2]int]*decode.PixelBlock, col, row float64) uint8 {
	ic, ir := int(round(col)), int(round(row))
	if ic < 0 || ir < 0 || uint64(ic) >= maskIfd.ImageWidth || uint64(ir) >= maskIfd.ImageLength {
		return 0
	}
	tileCol, tileRow := ic/int(maskIfd.TileWidth), ir/int(maskIfd.TileLength)
	block := maskBlocks[[2]int{tileCol, tileRow}]
	if block == nil || block.Sparse {
		return 0
	}
	localCol, localRow := ic%int(maskIfd.TileWidth), ir%int(maskIfd.TileLength)
	if localCol >= block.Width || localRow >= block.Height {
		return 0
	}
	return block.SampleUint8(localCol, localRow, 0)
}

func blockToRGBA(block *decode.PixelBlock, col, row int) (r, g, b, a uint8) {
	switch n := block.SamplesPerPixel; {
	case n >= 4:
		return block.SampleUint8(col, row, 0), block.SampleUint8(col, row, 1), block.SampleUint8(col, row, 2), block.SampleUint8(col, row, 3)
	case n == 3:
		return block.SampleUint8(col, row, 0), block.SampleUint8(col, row, 1), block.SampleUint8(col, row, 2), 255
	case n == 2:
		v := block.SampleUint8(col, row, 0)
		return v, v, v, block.SampleUint8(col, row, 1)
	default:
		v := block.SampleUint8(col, row, 0)
		return v, v, v, 255
	}
}

// sampleMatchesNodata compares band 0's raw (unscaled) value against
// the declared NoData value; multi-band nodata (all bands equal to the
// sentinel) is the common GDAL convention but band 0 alone is
// sufficient for every mandated photometric interpretation's nodata
// semantics in practice, since grayscale/palette rasters are single-
// band and RGB rasters conventionally repeat the same sentinel across
// bands.
func sampleMatchesNodata(block *decode.PixelBlock, col, row int, nodata float64) bool {
	return block.SampleRaw(col, row, 0) == nodata
}

func round(v float64) float64 {
	if v < 0 {
		return v - 0.5
	}
	return v + 0.5
}
