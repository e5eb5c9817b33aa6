package imgio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// npyMagic is NumPy's ".npy" version-1.0 magic prefix.
var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00}

// WriteNPY writes a uint8 [height, width, channels] array in the NumPy
// .npy format, byte-for-byte matching original_source's write_to_npy:
// the header dict is padded with spaces (0x20) so that
// magic+header_len+dict+padding is a multiple of 64 bytes.
func WriteNPY(path string, data []byte, height, width, channels int) error {
	if len(data) != height*width*channels {
		return fmt.Errorf("imgio.WriteNPY: data length %d does not match %dx%dx%d", len(data), height, width, channels)
	}
	dict := fmt.Sprintf("{\"descr\": 'uint8', \"fortran_order\": False, \"shape\": (%d, %d, %d)}\n", height, width, channels)
	dictBytes := []byte(dict)

	size := len(npyMagic) + 2 + len(dictBytes)
	padding := 64*((size+63)/64) - size

	headerLen := uint16(len(dictBytes) + padding)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(npyMagic); err != nil {
		return err
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], headerLen)
	if _, err := f.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := f.Write(dictBytes); err != nil {
		return err
	}
	if padding > 0 {
		pad := make([]byte, padding)
		for i := range pad {
			pad[i] = 0x20
		}
		if _, err := f.Write(pad); err != nil {
			return err
		}
	}
	_, err = f.Write(data)
	return err
}
