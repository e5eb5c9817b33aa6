// Package extract turns a (cog, z, x, y) web-mercator tile request into
// a 256x256 RGBA raster: it selects the best-matching overview, computes
// the source pixel window, fetches and decodes the intersecting source
// tiles, and resamples into the output tile.
package extract

import "math"

// OutputTileSize is the fixed output raster size, in pixels per side.
const OutputTileSize = 256

// earthEquatorCircumference and webMercatorOriginShift are the two
// constants the XYZ tile grid is built from, named to match
// original_source/src/epsg.rs's spheroid_3857 module
// (EARTH_EQUATOR_CIRCUMFERENCE / TOP_LEFT_METERS), which that file
// declares but (per the retrieved source) does not itself define
// numerically; the WGS84 spherical-mercator values below are the
// standard ones every web-mercator tile scheme (and go-geo's own
// EPSG:900913 definition) is built on.
const (
	earthEquatorCircumference = 2 * math.Pi * 6378137.0
	webMercatorOriginShift    = earthEquatorCircumference / 2.0
)

// TileCoords is one XYZ web-mercator tile address.
type TileCoords struct {
	Z, X, Y int
}

// Resolution returns the ground resolution (meters/pixel) of a
// TileCoords' zoom level: equator_circumference / 2^z / 256.
func (t TileCoords) Resolution() float64 {
	return resolutionAtZoom(t.Z)
}

func resolutionAtZoom(z int) float64 {
	return earthEquatorCircumference / math.Exp2(float64(z)) / OutputTileSize
}

// originMeters returns the top-left corner of tile (z, x, y) in
// EPSG:3857 meters.
func (t TileCoords) originMeters() (x, y float64) {
	res := t.Resolution()
	ox := -webMercatorOriginShift + float64(t.X)*OutputTileSize*res
	oy := webMercatorOriginShift - float64(t.Y)*OutputTileSize*res
	return ox, oy
}

// PixelToMeters maps a pixel offset (px, py) within the tile — px, py
// in [0, 256] — to EPSG:3857 meters, matching original_source's
// Warper::project_tile_pixel / TMSTileCoords::tile_pixel_to_3857_meters.
func (t TileCoords) PixelToMeters(px, py float64) (x, y float64) {
	res := t.Resolution()
	ox, oy := t.originMeters()
	return ox + px*res, oy - py*res
}

// BoundingBox is an axis-aligned box, matching original_source's
// src/bbox.rs.
type BoundingBox struct {
	XMin, YMin, XMax, YMax float64
}

// Edges returns the box's four edges as (start, end) vertex pairs, in
// the same winding order as original_source's BoundingBox::edges.
func (b BoundingBox) Edges() [4][2][2]float64 {
	tl := [2]float64{b.XMin, b.YMin}
	tr := [2]float64{b.XMax, b.YMin}
	br := [2]float64{b.XMax, b.YMax}
	bl := [2]float64{b.XMin, b.YMax}
	return [4][2][2]float64{{tl, tr}, {tr, br}, {br, bl}, {bl, tl}}
}

// Bounds3857 returns the tile's bounding box in EPSG:3857 meters.
func (t TileCoords) Bounds3857() BoundingBox {
	x0, y0 := t.PixelToMeters(0, 0)
	x1, y1 := t.PixelToMeters(OutputTileSize, OutputTileSize)
	return BoundingBox{XMin: x0, YMin: y1, XMax: x1, YMax: y0}
}

func boundsFromPoints(points [][2]float64) BoundingBox {
	b := BoundingBox{XMin: math.Inf(1), YMin: math.Inf(1), XMax: math.Inf(-1), YMax: math.Inf(-1)}
	for _, p := range points {
		b.XMin = math.Min(b.XMin, p[0])
		b.YMin = math.Min(b.YMin, p[1])
		b.XMax = math.Max(b.XMax, p[0])
		b.YMax = math.Max(b.YMax, p[1])
	}
	return b
}
