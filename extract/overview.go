package extract

import (
	"math"

	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/proj"
)

// selectOverview picks the best-matching IFD for one tile request: for
// each IFD (primary + overviews, already ordered finest-to-coarsest by
// cog.Open's validation), compute its effective pixel size in the
// output CRS at the tile center, then choose the IFD whose resolution
// is the smallest value >= resTarget — the finest overview that is
// still coarser than what is needed, mirroring GDAL's "best overview"
// heuristic. If no IFD's resolution reaches resTarget (deep zoom beyond
// native resolution, or a source coarser than every overview), the loop
// naturally leaves best as the first (finest) candidate seen, which is
// IFD 0 — the correct behavior for up-sampling past native resolution,
// falling out of the same loop rather than a separate code path.
func selectOverview(c *cog.Cog, xform *proj.Transform, sameCRS bool, tileCenterX, tileCenterY, resTarget float64) *cog.Ifd {
	best := c.Ifds[0]
	bestRes := effectivePixelSize(c.Ifds[0], xform, sameCRS, tileCenterX, tileCenterY)
	haveCandidate := bestRes >= resTarget

	for _, ifd := range c.Ifds[1:] {
		res := effectivePixelSize(ifd, xform, sameCRS, tileCenterX, tileCenterY)
		if res < resTarget {
			continue
		}
		if !haveCandidate || res < bestRes {
			best, bestRes, haveCandidate = ifd, res, true
		}
	}
	return best
}

// effectivePixelSize estimates one source pixel's footprint, in output
// (EPSG:3857) meters, at the given tile-center point: it inverse-maps
// the center through the transform and the IFD's geotransform to a
// source pixel, steps one pixel to the right, and forward-maps back to
// measure the resulting ground distance. For the common case where the
// source is already EPSG:3857 (or its 900913 alias), this collapses to
// the IFD's own resolution with no projection round-trip.
func effectivePixelSize(ifd *cog.Ifd, xform *proj.Transform, sameCRS bool, centerX, centerY float64) float64 {
	if sameCRS || !ifd.HasGeotransform {
		return ifd.Geotransform.Resolution()
	}
	srcX, srcY := xform.Inverse(centerX, centerY)
	col, row, ok := ifd.Geotransform.ModelToPixel(srcX, srcY)
	if !ok {
		return ifd.Geotransform.Resolution()
	}
	x1, y1 := ifd.Geotransform.PixelToModel(col+1, row)
	ox, oy := xform.Forward(x1, y1)
	return math.Hypot(ox-centerX, oy-centerY)
}
