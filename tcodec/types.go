package tcodec

import "github.com/google/uuid"

// Frame is a single monochrome sample grid with its acquisition metadata.
type Frame struct {
	Width   uint32
	Height  uint32
	Index   uint32
	Time    uint64
	Samples []uint16 // len(Samples) == Width*Height
}

// clone returns a deep copy of f, reusing dst's backing array when it is
// already the right size (dst may be nil).
func (f *Frame) clone(dst *Frame) *Frame {
	n := int(f.Width) * int(f.Height)
	if dst == nil {
		dst = &Frame{}
	}
	dst.Width, dst.Height, dst.Index, dst.Time = f.Width, f.Height, f.Index, f.Time
	if cap(dst.Samples) < n {
		dst.Samples = make([]uint16, n)
	}
	dst.Samples = dst.Samples[:n]
	copy(dst.Samples, f.Samples)
	return dst
}

// RangeSpec is the per-frame dynamic-range window RangeMap computes.
type RangeSpec struct {
	Min uint16
	Max uint16
}

// Range returns Max-Min.
func (r RangeSpec) Range() uint32 {
	return uint32(r.Max) - uint32(r.Min)
}

// IsBeneficial reports whether remapping this range into 12 bits saves at
// least one bit relative to carrying the frame at 16 bits.
func (r RangeSpec) IsBeneficial() bool {
	return r.Range() < 32768
}

// QuantParams configures the dead-zone + fractional-step quantizer. QFixed
// is derived once from Q and FPBits and must not be recomputed per-sample.
type QuantParams struct {
	DeadZoneT uint32
	Q         float64
	FPBits    uint32
	QFixed    uint32
}

// NewQuantParams validates its inputs and derives QFixed = round(Q*2^FPBits).
func NewQuantParams(deadZoneT uint32, q float64, fpBits uint32) (QuantParams, error) {
	if q <= 0 {
		return QuantParams{}, newErr(uuid.Nil, KindPreconditionFailure, "quant_Q must be > 0, got %v", q)
	}
	if fpBits > 16 {
		return QuantParams{}, newErr(uuid.Nil, KindPreconditionFailure, "fp_bits must be <= 16, got %d", fpBits)
	}
	qFixed := uint32(q*float64(uint32(1)<<fpBits) + 0.5)
	if qFixed == 0 {
		return QuantParams{}, newErr(uuid.Nil, KindPreconditionFailure, "quant_Q too small for fp_bits=%d: q_fixed rounds to 0", fpBits)
	}
	return QuantParams{DeadZoneT: deadZoneT, Q: q, FPBits: fpBits, QFixed: qFixed}, nil
}

// ReferenceState holds the last reconstructed frame an encoder or decoder
// instance will predict against.
type ReferenceState struct {
	Samples     []uint16
	Width       uint32
	Height      uint32
	Index       uint32
	Time        uint64
	initialized bool
}

// Initialized reports whether a prior intra frame has set this state.
func (r *ReferenceState) Initialized() bool { return r.initialized }

// Reset invalidates the reference state, clearing Initialized().
func (r *ReferenceState) Reset() {
	r.initialized = false
}

func (r *ReferenceState) set(w, h, idx uint32, t uint64, samples []uint16) {
	if cap(r.Samples) < len(samples) {
		r.Samples = make([]uint16, len(samples))
	}
	r.Samples = r.Samples[:len(samples)]
	copy(r.Samples, samples)
	r.Width, r.Height, r.Index, r.Time = w, h, idx, t
	r.initialized = true
}

// DecisionState tracks the running rate estimates and hysteresis state the
// DecisionEngine needs across frames.
type DecisionState struct {
	EMAIntraBpp        float64
	EMAResidualBpp     float64
	FramesSinceKey     uint32
	LastMode           Mode
	emaIntraInitialize bool
}

// CompressedFrame is the in-memory form of the record described in §6 of
// the specification; ContainerCodec serializes/parses its wire form.
type CompressedFrame struct {
	Width         uint32
	Height        uint32
	Time          uint64
	Index         uint32
	IsKeyframe    bool
	NearLossless  uint32
	QuantQ        float64
	DeadZoneT     uint32
	FPBits        uint32
	UseRangeMap   bool
	RangeMin      uint16
	RangeMax      uint16
	Payload       []byte
}
