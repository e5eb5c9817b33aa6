package tiff

import "fmt"

// Geotransform is the affine pixel->model transform:
//
//	X = OriginX + col*PixelWidth + row*RowRotation
//	Y = OriginY + col*ColRotation + row*PixelHeight
//
// matching the GDAL 6-element convention.
type Geotransform struct {
	OriginX, PixelWidth, RowRotation float64
	OriginY, ColRotation, PixelHeight float64
}

// PixelToModel maps a (col, row) pixel coordinate to model space.
func (g Geotransform) PixelToModel(col, row float64) (x, y float64) {
	x = g.OriginX + col*g.PixelWidth + row*g.RowRotation
	y = g.OriginY + col*g.ColRotation + row*g.PixelHeight
	return
}

// Resolution returns the average absolute pixel size, used as a coarse
// "how detailed is this overview" metric by the extractor.
func (g Geotransform) Resolution() float64 {
	return (absf(g.PixelWidth) + absf(g.PixelHeight)) / 2
}

// ModelToPixel is the inverse of PixelToModel, used by the tile
// extractor's window computation to map a point already expressed in
// this IFD's model/source CRS back to fractional pixel coordinates.
// Returns ok=false for a singular transform (zero determinant), which a
// legitimate COG never produces.
func (g Geotransform) ModelToPixel(x, y float64) (col, row float64, ok bool) {
	a, b := g.PixelWidth, g.RowRotation
	c, d := g.ColRotation, g.PixelHeight
	det := a*d - b*c
	if det == 0 {
		return 0, 0, false
	}
	dx, dy := x-g.OriginX, y-g.OriginY
	col = (d*dx - b*dy) / det
	row = (-c*dx + a*dy) / det
	return col, row, true
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// BuildGeotransform derives the affine transform for one IFD, preferring
// ModelTransformation over ModelPixelScale+ModelTiepoint when both are
// present.
func BuildGeotransform(ifd *IFD) (Geotransform, error) {
	if t, ok := ifd.Get(TagModelTransformationTag); ok {
		return geotransformFromMatrix(t.Value.Float64s())
	}
	scaleTag, hasScale := ifd.Get(TagModelPixelScaleTag)
	tiepointTag, hasTiepoint := ifd.Get(TagModelTiepointTag)
	if hasScale && hasTiepoint {
		return geotransformFromTiepoint(scaleTag.Value.Float64s(), tiepointTag.Value.Float64s())
	}
	return Geotransform{}, fmt.Errorf("no ModelTransformation or ModelPixelScale+ModelTiepoint tags present")
}

// geotransformFromMatrix uses columns 0, 1 and 3 (the two pixel
// coefficients and the translation, skipping the z column) of the first
// 2 rows of the 4x4 ModelTransformation matrix (row-major, 16 doubles)
// as the 2D affine.
func geotransformFromMatrix(m []float64) (Geotransform, error) {
	if len(m) < 16 {
		return Geotransform{}, fmt.Errorf("ModelTransformation has %d values, want 16", len(m))
	}
	return Geotransform{
		PixelWidth:   m[0],
		RowRotation:  m[1],
		OriginX:      m[3],
		ColRotation:  m[4],
		PixelHeight:  m[5],
		OriginY:      m[7],
	}, nil
}

// geotransformFromTiepoint synthesises the affine from a pixel-scale
// triple (sx, sy, sz) and the first tiepoint (i, j, k, X, Y, Z); when a
// ModelTiepointTag declares multiple tiepoints, the first one wins.
func geotransformFromTiepoint(scale, tiepoint []float64) (Geotransform, error) {
	if len(scale) < 2 {
		return Geotransform{}, fmt.Errorf("ModelPixelScale has %d values, want >= 2", len(scale))
	}
	if len(tiepoint) < 6 {
		return Geotransform{}, fmt.Errorf("ModelTiepoint has %d values, want >= 6", len(tiepoint))
	}
	i, j := tiepoint[0], tiepoint[1]
	x0, y0 := tiepoint[3], tiepoint[4]
	sx, sy := scale[0], scale[1]
	// X = X0 + (col - i) * sx ; Y = Y0 - (row - j) * sy
	return Geotransform{
		OriginX:    x0 - i*sx,
		PixelWidth: sx,
		OriginY:    y0 + j*sy,
		PixelHeight: -sy,
	}, nil
}
