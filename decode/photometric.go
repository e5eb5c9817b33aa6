package decode

import (
	"fmt"

	"github.com/flywave/acog/cog"
)

// applyPhotometric reinterprets the de-predicted sample buffer according
// to PhotometricInterpretation, producing a PixelBlock in RGB(A).
// JPEG-decompressed tiles have already been converted to RGB(A) by the
// standard library JPEG decoder, which treats JPEG output as sRGB RGB;
// this stage is then a pass-through for those tiles.
func applyPhotometric(ifd *cog.Ifd, data []byte, width, height int) (*PixelBlock, error) {
	bps := 8
	if len(ifd.BitsPerSample) > 0 {
		bps = int(ifd.BitsPerSample[0])
	}

	if ifd.Compression == cog.CompressionJPEG || ifd.Compression == cog.CompressionJPEGOld {
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: ifd.Bands.NBands, BitsPerSample: 8, Data: data}, nil
	}

	switch ifd.Photometric {
	case cog.PhotometricBlackIsZero:
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: 1, BitsPerSample: bps, Data: data}, nil

	case cog.PhotometricWhiteIsZero:
		out := make([]byte, len(data))
		maxVal := byte(0xFF)
		for i, v := range data {
			out[i] = maxVal - v
		}
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: 1, BitsPerSample: bps, Data: out}, nil

	case cog.PhotometricRGB:
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: ifd.Bands.NBands, BitsPerSample: bps, Data: data}, nil

	case cog.PhotometricPalette:
		return applyPalette(ifd, data, width, height, bps)

	case cog.PhotometricYCbCr:
		// Raw (non-JPEG) YCbCr would need its own YCbCr->RGB conversion;
		// the JPEG-compressed case is handled above by the JPEG library
		// itself.
		return nil, fmt.Errorf("YCbCr photometric interpretation for non-JPEG tiles is unsupported")

	case cog.PhotometricMask:
		return &PixelBlock{Width: width, Height: height, SamplesPerPixel: 1, BitsPerSample: bps, Data: data}, nil

	default:
		return nil, fmt.Errorf("unsupported photometric interpretation %d", ifd.Photometric)
	}
}

func applyPalette(ifd *cog.Ifd, data []byte, width, height, bps int) (*PixelBlock, error) {
	if len(ifd.ColorMap) == 0 {
		return nil, fmt.Errorf("Palette photometric interpretation requires a ColorMap")
	}
	entries := len(ifd.ColorMap) / 3
	out := make([]byte, width*height*3)
	for i, idx := range data {
		if int(idx) >= entries {
			return nil, fmt.Errorf("palette index %d out of range (colormap has %d entries)", idx, entries)
		}
		out[i*3+0] = byte(ifd.ColorMap[idx] >> 8)
		out[i*3+1] = byte(ifd.ColorMap[entries+int(idx)] >> 8)
		out[i*3+2] = byte(ifd.ColorMap[2*entries+int(idx)] >> 8)
	}
	return &PixelBlock{Width: width, Height: height, SamplesPerPixel: 3, BitsPerSample: 8, Data: out}, nil
}
