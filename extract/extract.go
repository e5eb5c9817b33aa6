package extract

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/cogerr"
	"github.com/flywave/acog/decode"
	"github.com/flywave/acog/proj"
)

// OutputTile is the fixed 256x256 RGBA raster the extractor produces,
// 8 bits per sample.
type OutputTile struct {
	Width, Height int
	Data          []byte // RGBA, row-major, 4 bytes/pixel
}

// RGBAAt returns the pixel at (x, y).
func (o *OutputTile) RGBAAt(x, y int) (r, g, b, a uint8) {
	i := (y*o.Width + x) * 4
	return o.Data[i], o.Data[i+1], o.Data[i+2], o.Data[i+3]
}

func (o *OutputTile) setRGBA(x, y int, r, g, b, a uint8) {
	i := (y*o.Width + x) * 4
	o.Data[i], o.Data[i+1], o.Data[i+2], o.Data[i+3] = r, g, b, a
}

// Extractor runs the tile extraction pipeline against one Cog. It owns
// its own projection transform cache, the same way each Cog carries its
// own ByteSource: nothing here is shared across Cogs.
type Extractor struct {
	Cog    *cog.Cog
	Logger *slog.Logger

	transforms *proj.Cache
}

// NewExtractor builds an Extractor for c, defaulting the logger to
// slog.Default per the ambient logging convention.
func NewExtractor(c *cog.Cog) *Extractor {
	return &Extractor{Cog: c, Logger: slog.Default(), transforms: proj.NewCache()}
}

// ExtractTile runs the extraction pipeline end to end for one (z, x, y)
// web-mercator tile request, defaulting output_crs to EPSG:3857.
func (e *Extractor) ExtractTile(ctx context.Context, z, x, y int) (*OutputTile, error) {
	tile := TileCoords{Z: z, X: x, Y: y}

	srcEPSG, hasEPSG := e.Cog.EPSG()
	sameCRS := !hasEPSG || srcEPSG == proj.EPSG3857 || srcEPSG == 3857
	var xform *proj.Transform
	if !sameCRS {
		var err error
		xform, err = e.transforms.Create(srcEPSG, proj.EPSG3857)
		if err != nil {
			return nil, err
		}
	}
	if !hasEPSG {
		e.Logger.Warn("cog has no recoverable EPSG code; assuming source CRS matches output CRS", "url", e.Cog.Source.URL())
	}

	centerX, centerY := tile.PixelToMeters(OutputTileSize/2, OutputTileSize/2)
	resTarget := tile.Resolution()
	ifd := selectOverview(e.Cog, xform, sameCRS, centerX, centerY, resTarget)
	e.Logger.Debug("selected overview", "ifd_width", ifd.ImageWidth, "ifd_height", ifd.ImageLength, "res_target", resTarget)

	win := computeWindow(ifd, xform, sameCRS, tile)

	blocks, err := e.fetchWindow(ctx, ifd, win)
	if err != nil {
		return nil, err
	}

	var maskIfd *cog.Ifd
	var maskBlocks map[[2]int]*decode.PixelBlock
	if m, ok := e.Cog.MaskFor(ifd); ok {
		if ifd.Bands.HasAlpha {
			return nil, cogerr.Newf(cogerr.MalformedTiff, "ExtractTile", "IFD %dx%d has both a mask overview and its own alpha band", ifd.ImageWidth, ifd.ImageLength).WithURL(e.Cog.Source.URL())
		}
		maskIfd = m
		maskBlocks, err = e.fetchWindow(ctx, maskIfd, win)
		if err != nil {
			e.Logger.Warn("mask overview fetch failed, proceeding without alpha mask", "err", err)
			maskBlocks = nil
		}
	}

	out := &OutputTile{Width: OutputTileSize, Height: OutputTileSize, Data: make([]byte, OutputTileSize*OutputTileSize*4)}
	e.resample(out, ifd, blocks, maskIfd, maskBlocks, xform, sameCRS, tile)
	return out, nil
}

// fetchWindow fetches and decodes every source tile intersecting win
// concurrently: tile fetches and decodes both proceed in parallel once
// their bytes are available. A per-tile decode failure is logged and
// recorded as a nil entry, substituting nodata for that tile rather
// than failing the whole extraction.
func (e *Extractor) fetchWindow(ctx context.Context, ifd *cog.Ifd, win pixelWindow) (map[[2]int]*decode.PixelBlock, error) {
	type key struct{ col, row int }
	type result struct {
		k     key
		block *decode.PixelBlock
	}

	tilesAcross := int(ifd.TilesAcross())
	var keys []key
	for tr := win.TileRowFrom; tr <= win.TileRowTo; tr++ {
		for tc := win.TileColFrom; tc <= win.TileColTo; tc++ {
			keys = append(keys, key{tc, tr})
		}
	}

	results := make([]result, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			tileIdx := k.row*tilesAcross + k.col
			block, err := decode.DecodeTile(gctx, e.Cog.Source, ifd, tileIdx)
			if err != nil {
				e.Logger.Warn("tile decode failed, substituting nodata", "col", k.col, "row", k.row, "err", err)
				block = nil
			}
			results[i] = result{k: k, block: block}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cogerr.New(cogerr.DecodeError, "fetchWindow", err).WithURL(e.Cog.Source.URL())
	}

	out := make(map[[2]int]*decode.PixelBlock, len(results))
	for _, r := range results {
		out[[2]int{r.k.col, r.k.row}] = r.block
	}
	return out, nil
}
