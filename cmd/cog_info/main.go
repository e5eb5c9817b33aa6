// Command cog_info prints summary COG metadata to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/cogerr"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: cog_info <url>")
		os.Exit(2)
	}
	os.Exit(run(os.Args[1]))
}

func run(url string) int {
	ctx := context.Background()

	src, err := bytesource.Open(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cog_info: open %s: %v\n", url, err)
		return 2
	}
	defer src.Close()

	c, err := cog.Open(ctx, src)
	if err != nil {
		if cogerr.Is(err, cogerr.UnsupportedCompression) {
			fmt.Fprintf(os.Stderr, "cog_info: %v\n", err)
			return 3
		}
		fmt.Fprintf(os.Stderr, "cog_info: %v\n", err)
		return 2
	}

	p := c.Primary()
	fmt.Printf("url=%s\n", url)
	fmt.Printf("width=%d height=%d\n", p.ImageWidth, p.ImageLength)
	fmt.Printf("tile=%dx%d\n", p.TileWidth, p.TileLength)
	fmt.Printf("bands=%d\n", p.Bands.NBands)
	fmt.Printf("compression=%s\n", p.Compression)
	fmt.Printf("photometric=%d\n", p.Photometric)
	fmt.Printf("ifds=%d\n", len(c.Ifds))
	for i, ifd := range c.Ifds {
		fmt.Printf("  ifd[%d]: %dx%d tile=%dx%d\n", i, ifd.ImageWidth, ifd.ImageLength, ifd.TileWidth, ifd.TileLength)
	}
	if epsg, ok := c.EPSG(); ok {
		fmt.Printf("epsg=%d\n", epsg)
	} else {
		fmt.Printf("epsg=unknown\n")
	}
	if minX, minY, maxX, maxY, err := c.Bounds(); err == nil {
		fmt.Printf("bounds=%f,%f,%f,%f\n", minX, minY, maxX, maxY)
	}
	if ghost := c.GhostInfo(ctx); ghost != nil {
		fmt.Printf("gdal_structural_metadata=%v\n", ghost)
	}
	return 0
}
