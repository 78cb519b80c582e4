package tcodec

// ComputeRange scans samples once and returns their [min,max] window.
// Callers must not pass an empty slice.
func ComputeRange(samples []uint16) RangeSpec {
	min, max := samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return RangeSpec{Min: min, Max: max}
}

// MapTo12Bit rescales samples into [0,4095] using RangeSpec, round-half-up.
// dst is reused when large enough; a degenerate zero-width range maps to
// all zeros.
func MapTo12Bit(samples []uint16, r RangeSpec, dst []uint16) []uint16 {
	if cap(dst) < len(samples) {
		dst = make([]uint16, len(samples))
	}
	dst = dst[:len(samples)]

	rng := r.Range()
	if rng == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return dst
	}

	half := rng / 2
	for i, s := range samples {
		num := uint32(s-r.Min)*rangeMapMax + half
		dst[i] = uint16(num / rng)
	}
	return dst
}

// MapFrom12Bit inverts MapTo12Bit. A degenerate zero-width range maps every
// sample back to r.Min.
func MapFrom12Bit(mapped []uint16, r RangeSpec, dst []uint16) []uint16 {
	if cap(dst) < len(mapped) {
		dst = make([]uint16, len(mapped))
	}
	dst = dst[:len(mapped)]

	rng := r.Range()
	if rng == 0 {
		for i := range dst {
			dst[i] = r.Min
		}
		return dst
	}

	for i, m := range mapped {
		num := uint32(m)*rng + 2047
		dst[i] = uint16(num/rangeMapMax) + r.Min
	}
	return dst
}
