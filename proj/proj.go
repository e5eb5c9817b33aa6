// Package proj implements a narrow create/forward/inverse adapter over
// github.com/flywave/go-geo (itself a thin wrapper over go-proj),
// caching transforms per (src, dst) EPSG pair since constructing one is
// expensive. geo.NewProj and geo.Srs.TransformRectTo are the only CRS
// primitives used, mirroring the flywave-go-cog reader's own
// layer.go/tile.go/tiled.go usage of go-geo rather than reaching past
// it into go-proj's C bindings directly.
package proj

import (
	"sync"

	"github.com/flywave/acog/cogerr"
	geo "github.com/flywave/go-geo"
	vec2d "github.com/flywave/go3d/float64/vec2"
)

// EPSG3857 and EPSG4326 are the two CRSes the extractor and COG model
// deal with directly; every other CRS is "arbitrary" and goes through
// the same Transform path.
const (
	EPSG3857 = 900913
	EPSG4326 = 4326
)

// Transform is a two-call (src->dst, dst->src) surface over one CRS
// pair. Safe for concurrent use; go-geo's Srs/Proj values are immutable
// once constructed.
type Transform struct {
	src, dst   int
	srcSrs     geo.Proj
	dstSrs     geo.Proj
}

// Forward maps a point in the source CRS to the destination CRS.
func (t *Transform) Forward(x, y float64) (float64, float64) {
	return t.transform(t.srcSrs, t.dstSrs, x, y)
}

// Inverse maps a point in the destination CRS back to the source CRS.
func (t *Transform) Inverse(x, y float64) (float64, float64) {
	return t.transform(t.dstSrs, t.srcSrs, x, y)
}

func (t *Transform) transform(from, to geo.Proj, x, y float64) (float64, float64) {
	r := vec2d.Rect{Min: vec2d.T{x, y}, Max: vec2d.T{x, y}}
	out := from.TransformRectTo(to, r, 1)
	return out.Min[0], out.Min[1]
}

// cacheKey identifies one (src, dst) EPSG pair.
type cacheKey struct{ src, dst int }

// Cache caches Transforms per (src, dst) EPSG pair, since constructing
// the underlying go-proj context is expensive. Mutated under a single
// mutex; the chunk cache in bytesource follows the same single-writer
// discipline for its own shared mutable state.
type Cache struct {
	mu    sync.Mutex
	byKey map[cacheKey]*Transform
}

func NewCache() *Cache {
	return &Cache{byKey: make(map[cacheKey]*Transform)}
}

// Create returns the cached Transform for (src, dst), building and
// caching a new one on first use.
func (c *Cache) Create(src, dst int) (*Transform, error) {
	key := cacheKey{src, dst}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.byKey[key]; ok {
		return t, nil
	}
	srcSrs := geo.NewProj(src)
	if srcSrs == nil {
		return nil, cogerr.Newf(cogerr.ProjectionError, "proj.Create", "unknown source EPSG:%d", src)
	}
	dstSrs := geo.NewProj(dst)
	if dstSrs == nil {
		return nil, cogerr.Newf(cogerr.ProjectionError, "proj.Create", "unknown destination EPSG:%d", dst)
	}
	t := &Transform{src: src, dst: dst, srcSrs: srcSrs, dstSrs: dstSrs}
	c.byKey[key] = t
	return t, nil
}

// DefaultCache is a package-level cache for callers that do not need an
// isolated one. Nothing in this module uses it: each Extractor (and so
// every cmd/ wrapper, which goes through extract.NewExtractor) owns its
// own Cache instance, so test isolation does not depend on package
// globals.
var DefaultCache = NewCache()
