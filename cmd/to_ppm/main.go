// Command to_ppm writes the full image at a given IFD level to
// img.ppm.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/decode"
	"github.com/flywave/acog/internal/imgio"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: to_ppm <url> <ifd_index>")
		os.Exit(2)
	}
	idx, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "to_ppm: bad ifd_index %q: %v\n", os.Args[2], err)
		os.Exit(2)
	}
	if err := run(os.Args[1], idx); err != nil {
		fmt.Fprintf(os.Stderr, "to_ppm: %v\n", err)
		os.Exit(2)
	}
}

func run(url string, ifdIndex int) error {
	ctx := context.Background()

	src, err := bytesource.Open(url)
	if err != nil {
		return err
	}
	defer src.Close()

	c, err := cog.Open(ctx, src)
	if err != nil {
		return err
	}
	if ifdIndex < 0 || ifdIndex >= len(c.Ifds) {
		return fmt.Errorf("ifd index %d out of range (have %d IFDs)", ifdIndex, len(c.Ifds))
	}
	ifd := c.Ifds[ifdIndex]

	width, height := int(ifd.ImageWidth), int(ifd.ImageLength)
	rgb := make([]byte, width*height*3)

	tilesAcross := int(ifd.TilesAcross())
	tilesDown := int(ifd.TilesDown())
	for tr := 0; tr < tilesDown; tr++ {
		for tc := 0; tc < tilesAcross; tc++ {
			tileIdx := tr*tilesAcross + tc
			block, err := decode.DecodeTile(ctx, src, ifd, tileIdx)
			if err != nil {
				return fmt.Errorf("tile (%d,%d): %w", tc, tr, err)
			}
			validW, validH := decode.ValidTileExtent(ifd, tc, tr)
			for y := 0; y < validH; y++ {
				dstY := tr*int(ifd.TileLength) + y
				for x := 0; x < validW; x++ {
					dstX := tc*int(ifd.TileWidth) + x
					r, g, b := sampleRGB(block, x, y)
					off := (dstY*width + dstX) * 3
					rgb[off], rgb[off+1], rgb[off+2] = r, g, b
				}
			}
		}
	}

	return imgio.WritePPM("img.ppm", width, height, rgb)
}

func sampleRGB(block *decode.PixelBlock, x, y int) (r, g, b byte) {
	if block.Sparse {
		return 0, 0, 0
	}
	switch n := block.SamplesPerPixel; {
	case n >= 3:
		return block.SampleUint8(x, y, 0), block.SampleUint8(x, y, 1), block.SampleUint8(x, y, 2)
	default:
		v := block.SampleUint8(x, y, 0)
		return v, v, v
	}
}
