// Command to_json writes full COG metadata as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flywave/acog/bytesource"
	"github.com/flywave/acog/cog"
)

// ifdMeta is one IFD's JSON-serializable metadata.
type ifdMeta struct {
	ImageWidth       uint64 `json:"width"`
	ImageLength      uint64 `json:"height"`
	TileWidth        uint64 `json:"tile_width"`
	TileLength       uint64 `json:"tile_length"`
	Bands            int    `json:"bands"`
	HasAlpha         bool   `json:"has_alpha"`
	Compression      string `json:"compression"`
	Predictor        int    `json:"predictor"`
	Photometric      int    `json:"photometric"`
	IsFullResolution bool   `json:"is_full_resolution"`
}

type geoKey struct {
	EPSG int    `json:"epsg"`
	Kind string `json:"kind"` // "projected" or "geographic"
}

type meta struct {
	URL     string    `json:"url"`
	IFDs    []ifdMeta `json:"ifds"`
	GeoKeys []geoKey  `json:"geo_keys"`
	Bounds  *bounds   `json:"bounds,omitempty"`
}

type bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: to_json <url> <out.json>")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "to_json: %v\n", err)
		os.Exit(2)
	}
}

func run(url, outPath string) error {
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

	m := meta{URL: url}
	for _, ifd := range c.Ifds {
		m.IFDs = append(m.IFDs, ifdMeta{
			ImageWidth:       ifd.ImageWidth,
			ImageLength:      ifd.ImageLength,
			TileWidth:        ifd.TileWidth,
			TileLength:       ifd.TileLength,
			Bands:            ifd.Bands.NBands,
			HasAlpha:         ifd.Bands.HasAlpha,
			Compression:      ifd.Compression.String(),
			Predictor:        int(ifd.Predictor),
			Photometric:      int(ifd.Photometric),
			IsFullResolution: ifd.IsFullResolution,
		})
	}
	if epsg, ok := c.EPSG(); ok {
		kind := "projected"
		if epsg >= 4000 && epsg < 5000 {
			kind = "geographic"
		}
		m.GeoKeys = append(m.GeoKeys, geoKey{EPSG: epsg, Kind: kind})
	}
	if minX, minY, maxX, maxY, err := c.Bounds(); err == nil {
		m.Bounds = &bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
