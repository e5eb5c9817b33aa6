package decode

import (
	"context"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/cogerr"
)

// DecodeTile runs the full four-stage pipeline for tile index tileIdx
// within ifd: fetch -> decompress -> undo predictor -> photometric
// interpretation. A sparse tile (TileByteCounts==0) short-circuits to
// an all-nodata PixelBlock.
func DecodeTile(ctx context.Context, src bytesource.ByteSource, ifd *cog.Ifd, tileIdx int) (*PixelBlock, error) {
	width, height := tileDimensions(ifd, tileIdx)

	byteCount := ifd.TileByteCounts[tileIdx]
	if byteCount == 0 {
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: ifd.Bands.NBands, BitsPerSample: 8, Sparse: true, Data: make([]byte, width*height*ifd.Bands.NBands)}, nil
	}

	raw, err := src.ReadAt(ctx, int64(ifd.TileOffsets[tileIdx]), int64(byteCount))
	if err != nil {
		return nil, err
	}

	bps := 8
	if len(ifd.BitsPerSample) > 0 {
		bps = int(ifd.BitsPerSample[0])
	}

	decompressed, err := decompress(ifd.Compression, raw, width, height, ifd.SamplesPerPixel, bps, ifd.JPEGTables)
	if err != nil {
		return nil, cogerr.New(cogerr.DecodeError, "DecodeTile", err).WithURL(src.URL()).WithOffset(int64(ifd.TileOffsets[tileIdx]))
	}

	if ifd.Compression != cog.CompressionJPEG && ifd.Compression != cog.CompressionJPEGOld {
		if err := undoPredictor(ifd.Predictor, decompressed, width, height, ifd.SamplesPerPixel, bps); err != nil {
			return nil, cogerr.New(cogerr.DecodeError, "DecodeTile", err).WithURL(src.URL())
		}
	}

	block, err := applyPhotometric(ifd, decompressed, width, height)
	if err != nil {
		return nil, cogerr.New(cogerr.DecodeError, "DecodeTile", err).WithURL(src.URL())
	}
	return block, nil
}

// tileDimensions returns the pixel dimensions of tile tileIdx, which is
// the full TileWidth x TileLength except for tiles at the right/bottom
// edge of the image, which are stored at full tile size on disk but
// whose valid pixel area is clipped to the image bounds. This function
// returns the on-disk (full tile) size; callers needing the
// valid-pixel clip use ValidTileExtent.
func tileDimensions(ifd *cog.Ifd, tileIdx int) (width, height int) {
	return int(ifd.TileWidth), int(ifd.TileLength)
}

// ValidTileExtent returns the number of valid (in-image) columns and
// rows for the tile at (tileCol, tileRow), which is less than
// TileWidth/TileLength only for tiles touching the right or bottom edge
// of an image whose dimensions are not exact multiples of the tile
// size.
func ValidTileExtent(ifd *cog.Ifd, tileCol, tileRow int) (validWidth, validHeight int) {
	validWidth = int(ifd.TileWidth)
	if remaining := int(ifd.ImageWidth) - tileCol*int(ifd.TileWidth); remaining < validWidth {
		validWidth = remaining
	}
	validHeight = int(ifd.TileLength)
	if remaining := int(ifd.ImageLength) - tileRow*int(ifd.TileLength); remaining < validHeight {
		validHeight = remaining
	}
	return
}
