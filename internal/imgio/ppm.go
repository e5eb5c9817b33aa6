// Package imgio implements the PPM and NPY file serializers the CLI
// commands use at the process boundary to write extracted raster data
// to disk. Byte-for-byte formats are taken from original_source's
// src/ppm.rs and src/npy.rs (magic bytes, header strings, padding
// rule); this package is exercised only by cmd/to_ppm and
// cmd/extract_tile, never by the core reader/extractor packages.
package imgio

import (
	"fmt"
	"os"
)

// WritePPM writes width x height RGB (3-band, 8-bit) pixel data in the
// binary PPM (P6) format, matching original_source's write_to_ppm.
func WritePPM(path string, width, height int, rgb []byte) error {
	if len(rgb) != width*height*3 {
		return fmt.Errorf("imgio.WritePPM: data length %d does not match %dx%dx3", len(rgb), width, height)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "P6 %d %d 255\n", width, height); err != nil {
		return err
	}
	_, err = f.Write(rgb)
	return err
}

// RGBAToRGB drops the alpha channel, since PPM has no alpha channel
// and the PPM output path only ever emits RGB.
func RGBAToRGB(rgba []byte) []byte {
	n := len(rgba) / 4
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		out[i*3+0] = rgba[i*4+0]
		out[i*3+1] = rgba[i*4+1]
		out[i*3+2] = rgba[i*4+2]
	}
	return out
}
