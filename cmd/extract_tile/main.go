// Command extract_tile writes a single 256x256 web-mercator tile as
// PPM (img.ppm) or NPY (img.npy).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
	"github.com/flywave/acog/extract"
	"github.com/flywave/acog/internal/imgio"
)

func main() {
	npy := false
	args := os.Args[1:]
	filtered := args[:0]
	for _, a := range args {
		if a == "--npy" {
			npy = true
			continue
		}
		filtered = append(filtered, a)
	}
	args = filtered

	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: extract_tile [--npy] <url> <z> <x> <y>")
		os.Exit(2)
	}
	z, err1 := strconv.Atoi(args[1])
	x, err2 := strconv.Atoi(args[2])
	y, err3 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Fprintln(os.Stderr, "extract_tile: z, x, y must be integers")
		os.Exit(2)
	}

	if err := run(args[0], z, x, y, npy); err != nil {
		fmt.Fprintf(os.Stderr, "extract_tile: %v\n", err)
		os.Exit(2)
	}
}

func run(url string, z, x, y int, npy bool) error {
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

	ex := extract.NewExtractor(c)
	tile, err := ex.ExtractTile(ctx, z, x, y)
	if err != nil {
		return err
	}

	// Both output formats drop the alpha channel: NPY output is pinned
	// to shape (256, 256, 3), and PPM has no alpha channel at all.
	rgb := imgio.RGBAToRGB(tile.Data)
	if npy {
		return imgio.WriteNPY("img.npy", rgb, tile.Height, tile.Width, 3)
	}
	return imgio.WritePPM("img.ppm", tile.Width, tile.Height, rgb)
}
