package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/flywave/acog/cog"
)

// undoPredictor reverses the reversible pre-compression transform named
// by predictor, operating row-by-row on data in place. width/height/
// samplesPerPixel/bitsPerSample describe data's shape.
func undoPredictor(predictor cog.Predictor, data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	switch predictor {
	case cog.PredictorNone:
		return nil
	case cog.PredictorHorizontal:
		return undoHorizontalPredictor(data, width, height, samplesPerPixel, bitsPerSample)
	case cog.PredictorFloatingPoint:
		return undoFloatingPointPredictor(data, width, height, samplesPerPixel, bitsPerSample)
	default:
		return fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// undoHorizontalPredictor reverses the TIFF horizontal predictor: for
// each row, each sample beyond the first is the cumulative sum across
// that band of the stored deltas, p[k] += p[k-samplesPerPixel] for
// k >= samplesPerPixel within the row. Supports 8-bit and 16-bit
// samples.
func undoHorizontalPredictor(data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	switch bitsPerSample {
	case 8:
		rowBytes := width * samplesPerPixel
		for row := 0; row < height; row++ {
			r := data[row*rowBytes : (row+1)*rowBytes]
			for k := samplesPerPixel; k < len(r); k++ {
				r[k] += r[k-samplesPerPixel]
			}
		}
		return nil
	case 16:
		// TODO: assumes little-endian samples; a big-endian ("MM") source
		// TIFF needs binary.BigEndian here instead.
		rowSamples := width * samplesPerPixel
		rowBytes := rowSamples * 2
		for row := 0; row < height; row++ {
			r := data[row*rowBytes : (row+1)*rowBytes]
			for k := samplesPerPixel; k < rowSamples; k++ {
				prev := binary.LittleEndian.Uint16(r[(k-samplesPerPixel)*2:])
				cur := binary.LittleEndian.Uint16(r[k*2:])
				binary.LittleEndian.PutUint16(r[k*2:], cur+prev)
			}
		}
		return nil
	default:
		return fmt.Errorf("horizontal predictor unsupported for %d-bit samples", bitsPerSample)
	}
}

// undoFloatingPointPredictor reverses the libtiff floating-point
// predictor scheme: on disk, each row is stored as `wordsize` byte
// planes (one plane per byte position of the IEEE representation, most
// significant first), horizontally delta-coded at the byte level with
// stride = samplesPerPixel across the whole row; decoding first undoes
// that delta, then un-shuffles the byte planes back into big-endian
// IEEE float/double values per pixel. Implemented from the documented
// libtiff scheme; no fixture exercises this path today.
func undoFloatingPointPredictor(data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	wordsize := bitsPerSample / 8
	if wordsize != 4 && wordsize != 8 {
		return fmt.Errorf("floating-point predictor requires 32 or 64-bit samples, got %d bits", bitsPerSample)
	}
	count := width * samplesPerPixel // samples per row
	rowBytes := count * wordsize
	stride := samplesPerPixel

	shuffled := make([]byte, rowBytes)
	unshuffled := make([]byte, rowBytes)

	for row := 0; row < height; row++ {
		r := data[row*rowBytes : (row+1)*rowBytes]
		copy(shuffled, r)

		for i := stride; i < rowBytes; i++ {
			shuffled[i] += shuffled[i-stride]
		}

		for i := 0; i < count; i++ {
			for b := 0; b < wordsize; b++ {
				unshuffled[i*wordsize+b] = shuffled[b*count+i]
			}
		}

		for i := 0; i < count; i++ {
			off := i * wordsize
			if wordsize == 4 {
				bits := binary.BigEndian.Uint32(unshuffled[off:])
				binary.LittleEndian.PutUint32(r[off:], bits)
			} else {
				bits := binary.BigEndian.Uint64(unshuffled[off:])
				binary.LittleEndian.PutUint64(r[off:], bits)
			}
		}
	}
	return nil
}
