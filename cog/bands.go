package cog

import "fmt"

// BandsInterpretation validates the SamplesPerPixel/ExtraSamples/
// PhotometricInterpretation combination for one IFD and reports the
// number of output bands and whether one of them is alpha. Grounded on
// original_source/src/tiff/cog.rs BandsInterpretation::new.
type BandsInterpretation struct {
	NBands   int
	HasAlpha bool
}

func NewBandsInterpretation(nbands int, extraSamples []uint16, photometric Photometric) (BandsInterpretation, error) {
	switch photometric {
	case PhotometricBlackIsZero, PhotometricWhiteIsZero:
		for _, e := range extraSamples {
			if e != 0 {
				return BandsInterpretation{}, fmt.Errorf("grayscale photometric with non-zero extra sample %d", e)
			}
		}
		return BandsInterpretation{NBands: nbands, HasAlpha: false}, nil
	case PhotometricRGB, PhotometricYCbCr:
		switch len(extraSamples) {
		case 0:
			if nbands != 3 {
				return BandsInterpretation{}, fmt.Errorf("RGB/YCbCr with no extra samples requires nbands=3, got %d", nbands)
			}
			return BandsInterpretation{NBands: 3, HasAlpha: false}, nil
		case 1:
			if nbands != 4 {
				return BandsInterpretation{}, fmt.Errorf("RGB/YCbCr with one extra sample requires nbands=4, got %d", nbands)
			}
			return BandsInterpretation{NBands: 4, HasAlpha: true}, nil
		default:
			return BandsInterpretation{}, fmt.Errorf("RGB/YCbCr with %d extra samples is unsupported", len(extraSamples))
		}
	case PhotometricPalette:
		return BandsInterpretation{NBands: nbands, HasAlpha: false}, nil
	case PhotometricMask:
		if nbands != 1 || len(extraSamples) != 0 {
			return BandsInterpretation{}, fmt.Errorf("Mask photometric requires nbands=1 and no extra samples")
		}
		return BandsInterpretation{NBands: 1, HasAlpha: true}, nil
	default:
		return BandsInterpretation{NBands: nbands}, nil
	}
}
