package extract

import (
	"math"

	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/proj"
)

// edgeSamples is the per-edge point count used when projecting the
// output tile's boundary into source pixel space, grounded on
// original_source/src/tiler/warp.rs's compute_image_pixel_bounding_box
// ("a similar algorithm as GDAL... project 21 points against each edge
// of the tile"). Sampling each edge rather than only its corners
// catches the curvature a non-affine reprojection introduces along an
// edge; the resulting bounding box is still padded by one pixel and
// clipped to the image below.
const edgeSamples = 21

// pixelWindow is the clipped, padded integer pixel window an output
// tile's boundary maps to in source pixel space, plus the set of
// source tiles it intersects.
type pixelWindow struct {
	MinCol, MinRow, MaxCol, MaxRow int // inclusive, clipped to [0, width/height)
	TileColFrom, TileColTo         int // inclusive tile-grid range
	TileRowFrom, TileRowTo         int
}

// computeWindow maps the output tile's boundary into source pixel
// space via 21-point edge sampling (warp.rs), takes the axis-aligned
// bounding box, pads it by one pixel on each side, and clips to the
// image, then derives the intersecting tile-grid range by floor/ceil
// division by TileWidth/TileLength.
func computeWindow(ifd *cog.Ifd, xform *proj.Transform, sameCRS bool, tile TileCoords) pixelWindow {
	bounds := tile.Bounds3857()
	points := samplePoints(bounds)

	imgPoints := make([][2]float64, len(points))
	for i, p := range points {
		srcX, srcY := p[0], p[1]
		if !sameCRS {
			srcX, srcY = xform.Inverse(p[0], p[1])
		}
		col, row := 0.0, 0.0
		if ifd.HasGeotransform {
			if c, r, ok := ifd.Geotransform.ModelToPixel(srcX, srcY); ok {
				col, row = c, r
			}
		}
		imgPoints[i] = [2]float64{col, row}
	}
	bbox := boundsFromPoints(imgPoints)

	minCol := int(math.Floor(bbox.XMin)) - 1
	maxCol := int(math.Ceil(bbox.XMax)) + 1
	minRow := int(math.Floor(bbox.YMin)) - 1
	maxRow := int(math.Ceil(bbox.YMax)) + 1

	minCol = clampInt(minCol, 0, int(ifd.ImageWidth)-1)
	maxCol = clampInt(maxCol, 0, int(ifd.ImageWidth)-1)
	minRow = clampInt(minRow, 0, int(ifd.ImageLength)-1)
	maxRow = clampInt(maxRow, 0, int(ifd.ImageLength)-1)

	return pixelWindow{
		MinCol: minCol, MaxCol: maxCol, MinRow: minRow, MaxRow: maxRow,
		TileColFrom: minCol / int(ifd.TileWidth),
		TileColTo:   maxCol / int(ifd.TileWidth),
		TileRowFrom: minRow / int(ifd.TileLength),
		TileRowTo:   maxRow / int(ifd.TileLength),
	}
}

// samplePoints walks each of the bounding box's four edges and emits
// edgeSamples points along it (excluding the shared start vertex, which
// the previous edge's last point already contributed), matching
// warp.rs's point generation.
func samplePoints(b BoundingBox) [][2]float64 {
	edges := b.Edges()
	points := make([][2]float64, 0, len(edges)*edgeSamples)
	for _, e := range edges {
		c1, c2 := e[0], e[1]
		dx, dy := c2[0]-c1[0], c2[1]-c1[1]
		for n := 0; n < edgeSamples; n++ {
			frac := float64(n+1) / float64(edgeSamples)
			points = append(points, [2]float64{c1[0] + dx*frac, c1[1] + dy*frac})
		}
	}
	return points
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
