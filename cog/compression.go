package cog

import (
	"github.com/flywave/acog/tiff"
)

// Compression is the closed set of TIFF compression codes the COG model
// recognizes. Decode support is mandatory for None, Deflate and JPEG;
// LZW, PackBits and CCITT G3/G4 are supported on top of that set. Every
// other code is a recognized-but-unsupported value rather than a parse
// failure, reported as UnsupportedCompression rather than MalformedTiff.
type Compression uint16

const (
	CompressionNone       Compression = tiff.CompressionNone
	CompressionCCITT      Compression = tiff.CompressionCCITT
	CompressionG3         Compression = tiff.CompressionG3
	CompressionG4         Compression = tiff.CompressionG4
	CompressionLZW        Compression = tiff.CompressionLZW
	CompressionJPEGOld    Compression = tiff.CompressionJPEGOld
	CompressionJPEG       Compression = tiff.CompressionJPEG
	CompressionDeflate    Compression = tiff.CompressionDeflate
	CompressionPackBits   Compression = tiff.CompressionPackBits
	CompressionDeflateOld Compression = tiff.CompressionDeflateOld
	CompressionZstd       Compression = 50000
	CompressionWebP       Compression = 50001
	CompressionLERC       Compression = 50002
)

// Mandatory reports whether decode support for c is mandatory (None,
// Deflate, JPEG). LZW, PackBits and CCITT G3/G4 are supported on top of
// that mandatory set but are not required for every COG reader.
func (c Compression) Mandatory() bool {
	switch c {
	case CompressionNone, CompressionDeflate, CompressionDeflateOld, CompressionJPEG:
		return true
	}
	return false
}

func (c Compression) Supplemental() bool {
	switch c {
	case CompressionLZW, CompressionPackBits, CompressionG3, CompressionG4, CompressionCCITT:
		return true
	}
	return false
}

func (c Compression) Supported() bool { return c.Mandatory() || c.Supplemental() }

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionCCITT:
		return "CCITT"
	case CompressionG3:
		return "G3"
	case CompressionG4:
		return "G4"
	case CompressionLZW:
		return "LZW"
	case CompressionJPEGOld:
		return "JPEGOld"
	case CompressionJPEG:
		return "JPEG"
	case CompressionDeflate, CompressionDeflateOld:
		return "Deflate"
	case CompressionPackBits:
		return "PackBits"
	case CompressionZstd:
		return "Zstd"
	case CompressionWebP:
		return "WebP"
	case CompressionLERC:
		return "LERC"
	default:
		return "Unknown"
	}
}

// Predictor mirrors tiff.Predictor* for use in the COG model's public
// surface without importing tiff constants directly everywhere.
type Predictor uint16

const (
	PredictorNone          Predictor = tiff.PredictorNone
	PredictorHorizontal    Predictor = tiff.PredictorHorizontal
	PredictorFloatingPoint Predictor = tiff.PredictorFloatingPoint
)

// Photometric mirrors the PhotometricInterpretation tag values relevant
// to this design.
type Photometric uint16

const (
	PhotometricWhiteIsZero Photometric = tiff.PhotometricWhiteIsZero
	PhotometricBlackIsZero Photometric = tiff.PhotometricBlackIsZero
	PhotometricRGB         Photometric = tiff.PhotometricRGB
	PhotometricPalette     Photometric = tiff.PhotometricPalette
	PhotometricMask        Photometric = tiff.PhotometricMask
	PhotometricYCbCr       Photometric = tiff.PhotometricYCbCr
)
