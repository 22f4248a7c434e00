package section

import (
	"math"
	"unsafe"

	"github.com/arloliu/trako/endian"
)

// Vec3 is a single-precision 3D position sample.
//
// Its memory layout is three consecutive float32 values with no padding,
// bit-compatible with the on-disk sample slots. This property is what allows
// stride-1 extraction to be a single block copy instead of a field-by-field
// conversion.
type Vec3 struct {
	X float32
	Y float32
	Z float32
}

// IsNaN reports whether any component is NaN. The converter NaN-marks sample
// slots that hold no physical data; such samples are filtered, not errors.
func (v Vec3) IsNaN() bool {
	return v.X != v.X || v.Y != v.Y || v.Z != v.Z
}

// ParseVec3 decodes one sample from data using the given engine.
//
// This is the byte-order-safe path; use SamplesFromBytes when the file byte
// order matches the host byte order.
func ParseVec3(data []byte, engine endian.EndianEngine) Vec3 {
	return Vec3{
		X: math.Float32frombits(engine.Uint32(data[0:4])),
		Y: math.Float32frombits(engine.Uint32(data[4:8])),
		Z: math.Float32frombits(engine.Uint32(data[8:12])),
	}
}

// AppendVec3 appends the sample's binary form to buf using the given engine.
func AppendVec3(buf []byte, v Vec3, engine endian.EndianEngine) []byte {
	buf = engine.AppendUint32(buf, math.Float32bits(v.X))
	buf = engine.AppendUint32(buf, math.Float32bits(v.Y))
	buf = engine.AppendUint32(buf, math.Float32bits(v.Z))

	return buf
}

// SamplesFromBytes reinterprets data as a []Vec3 without copying.
//
// Valid only when the file byte order matches the host byte order (check with
// endian.CompareNativeEndian). The returned slice aliases data: it must not
// outlive the underlying memory mapping.
func SamplesFromBytes(data []byte) []Vec3 {
	n := len(data) / SampleSize
	if n == 0 {
		return nil
	}

	return unsafe.Slice((*Vec3)(unsafe.Pointer(&data[0])), n)
}

// SamplesToBytes reinterprets samples as raw bytes without copying.
// The same byte-order caveat as SamplesFromBytes applies.
func SamplesToBytes(samples []Vec3) []byte {
	if len(samples) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*SampleSize)
}
