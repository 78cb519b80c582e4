package tcodec

// Residual computes R[k] = int(cur[k]) - int(ref[k]) pointwise. Both
// operands fit in 17 signed bits, so the difference is computed and stored
// as int32 and is never truncated; dst is reused when large enough.
func Residual(cur, ref []uint16, dst []int32) []int32 {
	if cap(dst) < len(cur) {
		dst = make([]int32, len(cur))
	}
	dst = dst[:len(cur)]
	for i := range cur {
		dst[i] = int32(cur[i]) - int32(ref[i])
	}
	return dst
}

// Reconstruct computes out[k] = clamp(ref[k]+R[k], 0, 65535) pointwise.
func Reconstruct(r []int32, ref []uint16, dst []uint16) []uint16 {
	if cap(dst) < len(r) {
		dst = make([]uint16, len(r))
	}
	dst = dst[:len(r)]
	for i, v := range r {
		s := int32(ref[i]) + v
		if s < 0 {
			s = 0
		} else if s > maxSample16 {
			s = maxSample16
		}
		dst[i] = uint16(s)
	}
	return dst
}

// Bias maps a signed residual grid into unsigned 16-bit codec samples using
// the given offset, keeping the full signed-16-bit range representable.
func Bias(r []int32, off int32, dst []uint16) []uint16 {
	if cap(dst) < len(r) {
		dst = make([]uint16, len(r))
	}
	dst = dst[:len(r)]
	for i, v := range r {
		dst[i] = uint16(v + off)
	}
	return dst
}

// Unbias inverts Bias.
func Unbias(u []uint16, off int32, dst []int32) []int32 {
	if cap(dst) < len(u) {
		dst = make([]int32, len(u))
	}
	dst = dst[:len(u)]
	for i, v := range u {
		dst[i] = int32(v) - off
	}
	return dst
}
