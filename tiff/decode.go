package tiff

import (
	"encoding/binary"
	"fmt"
)

// decodeUint decodes a single unsigned integer-ish value of width
// nbytes (1, 2, 4 or 8) at buf[0:nbytes] in the given byte order. It
// underlies SHORT/LONG/LONG8/BYTE decoding, mirroring the per-width
// decode_u* family in original_source/src/tiff/low_level.rs.
func decodeUint(buf []byte, nbytes int, order binary.ByteOrder) uint64 {
	switch nbytes {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	return 0
}

func decodeInt(buf []byte, nbytes int, order binary.ByteOrder) int64 {
	switch nbytes {
	case 1:
		return int64(int8(buf[0]))
	case 2:
		return int64(int16(order.Uint16(buf)))
	case 4:
		return int64(int32(order.Uint32(buf)))
	case 8:
		return int64(order.Uint64(buf))
	}
	return 0
}

// decodeASCII validates and returns a null-terminated ASCII tag value,
// per original_source/src/tiff/low_level.rs decode_string: the final
// byte must be NUL and no NUL may appear before it.
func decodeASCII(buf []byte) (string, error) {
	if len(buf) == 0 || buf[len(buf)-1] != 0 {
		return "", fmt.Errorf("ASCII value not null-terminated")
	}
	for _, b := range buf[:len(buf)-1] {
		if b == 0 {
			return "", fmt.Errorf("ASCII value has embedded NUL before terminator")
		}
	}
	return string(buf[:len(buf)-1]), nil
}

// Value is the decoded payload of one tag: a closed sum type over the
// TIFF field types, represented as a struct-of-optional-slices rather
// than an interface hierarchy, grounded on
// akhenakh-gedtm30api/geotiff/geotiff.go's tagData.
type Value struct {
	Type FieldType

	Bytes     []uint8
	ASCII     string
	Shorts    []uint16
	Longs     []uint32
	Long8s    []uint64
	SBytes    []int8
	SShorts   []int16
	SLongs    []int32
	SLong8s   []int64
	Rationals [][2]uint32
	SRational [][2]int32
	Floats    []float32
	Doubles   []float64
}

// Uint64s widens whatever integer slice is populated into []uint64, for
// callers that only care about magnitude (tile offsets/counts, image
// dimensions). Returns nil for non-integer types.
func (v *Value) Uint64s() []uint64 {
	switch v.Type {
	case FTByte:
		out := make([]uint64, len(v.Bytes))
		for i, b := range v.Bytes {
			out[i] = uint64(b)
		}
		return out
	case FTShort:
		out := make([]uint64, len(v.Shorts))
		for i, s := range v.Shorts {
			out[i] = uint64(s)
		}
		return out
	case FTLong:
		out := make([]uint64, len(v.Longs))
		for i, l := range v.Longs {
			out[i] = uint64(l)
		}
		return out
	case FTLong8, FTIFD8:
		return v.Long8s
	}
	return nil
}

func (v *Value) Float64s() []float64 {
	switch v.Type {
	case FTFloat:
		out := make([]float64, len(v.Floats))
		for i, f := range v.Floats {
			out[i] = float64(f)
		}
		return out
	case FTDouble:
		return v.Doubles
	case FTRational:
		out := make([]float64, len(v.Rationals))
		for i, r := range v.Rationals {
			out[i] = float64(r[0]) / float64(r[1])
		}
		return out
	}
	return v.Uint64sAsFloat()
}

func (v *Value) Uint64sAsFloat() []float64 {
	u := v.Uint64s()
	if u == nil {
		return nil
	}
	out := make([]float64, len(u))
	for i, x := range u {
		out[i] = float64(x)
	}
	return out
}

// decodeValue decodes count values of fieldType from buf (exactly
// count*sizeOf(fieldType) bytes) in the given byte order.
func decodeValue(fieldType FieldType, count uint64, buf []byte, order binary.ByteOrder) (*Value, error) {
	v := &Value{Type: fieldType}
	sz := sizeOf(fieldType)
	n := int(count)

	switch fieldType {
	case FTByte, FTUndefined:
		v.Bytes = append([]byte(nil), buf[:n]...)
	case FTASCII:
		s, err := decodeASCII(buf[:n])
		if err != nil {
			return nil, err
		}
		v.ASCII = s
	case FTShort:
		v.Shorts = make([]uint16, n)
		for i := 0; i < n; i++ {
			v.Shorts[i] = uint16(decodeUint(buf[int64(i)*sz:], int(sz), order))
		}
	case FTLong:
		v.Longs = make([]uint32, n)
		for i := 0; i < n; i++ {
			v.Longs[i] = uint32(decodeUint(buf[int64(i)*sz:], int(sz), order))
		}
	case FTLong8, FTIFD8:
		v.Long8s = make([]uint64, n)
		for i := 0; i < n; i++ {
			v.Long8s[i] = decodeUint(buf[int64(i)*sz:], int(sz), order)
		}
	case FTSByte:
		v.SBytes = make([]int8, n)
		for i := 0; i < n; i++ {
			v.SBytes[i] = int8(buf[i])
		}
	case FTSShort:
		v.SShorts = make([]int16, n)
		for i := 0; i < n; i++ {
			v.SShorts[i] = int16(decodeInt(buf[int64(i)*sz:], int(sz), order))
		}
	case FTSLong:
		v.SLongs = make([]int32, n)
		for i := 0; i < n; i++ {
			v.SLongs[i] = int32(decodeInt(buf[int64(i)*sz:], int(sz), order))
		}
	case FTSLong8:
		v.SLong8s = make([]int64, n)
		for i := 0; i < n; i++ {
			v.SLong8s[i] = decodeInt(buf[int64(i)*sz:], int(sz), order)
		}
	case FTRational:
		v.Rationals = make([][2]uint32, n)
		for i := 0; i < n; i++ {
			off := int64(i) * 8
			v.Rationals[i] = [2]uint32{order.Uint32(buf[off:]), order.Uint32(buf[off+4:])}
		}
	case FTSRational:
		v.SRational = make([][2]int32, n)
		for i := 0; i < n; i++ {
			off := int64(i) * 8
			v.SRational[i] = [2]int32{int32(order.Uint32(buf[off:])), int32(order.Uint32(buf[off+4:]))}
		}
	case FTFloat:
		v.Floats = make([]float32, n)
		for i := 0; i < n; i++ {
			bits := order.Uint32(buf[int64(i)*4:])
			v.Floats[i] = float32FromBits(bits)
		}
	case FTDouble:
		v.Doubles = make([]float64, n)
		for i := 0; i < n; i++ {
			bits := order.Uint64(buf[int64(i)*8:])
			v.Doubles[i] = float64FromBits(bits)
		}
	default:
		return nil, fmt.Errorf("unsupported field type %d", fieldType)
	}
	return v, nil
}
