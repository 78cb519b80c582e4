package tcodec

import "github.com/google/uuid"

// FrameDecoder mirrors FrameEncoder: it holds the reference state a
// matched encoder's residual frames are decoded against.
type FrameDecoder struct {
	InstanceID uuid.UUID

	codec CodecAdapter
	ref   ReferenceState

	scratchQuant   []int32
	scratchDequant []int32
}

// NewFrameDecoder builds a decoder with an empty reference state.
func NewFrameDecoder(codec CodecAdapter) *FrameDecoder {
	return &FrameDecoder{InstanceID: uuid.New(), codec: codec}
}

// Reset clears the reference state.
func (d *FrameDecoder) Reset() {
	d.ref.Reset()
}

// Reference exposes the last reconstructed frame, for equality checks
// against a matched encoder (§8 invariant 1).
func (d *FrameDecoder) Reference() ReferenceState {
	return d.ref
}

func (d *FrameDecoder) errf(kind Kind, format string, args ...interface{}) error {
	return newErr(d.InstanceID, kind, format, args...)
}

// Decode parses cf's payload and reconstructs a Frame, dispatching on
// cf.IsKeyframe, per §4.8.
func (d *FrameDecoder) Decode(cf *CompressedFrame) (*Frame, error) {
	if cf.IsKeyframe {
		return d.decodeIntra(cf)
	}
	return d.decodeResidual(cf)
}

func (d *FrameDecoder) decodeIntra(cf *CompressedFrame) (*Frame, error) {
	decoded, bits, err := d.codec.Decode(cf.Payload, cf.Width, cf.Height)
	if err != nil {
		return nil, d.errf(KindCodecFailure, "intra decode of frame %d: %v", cf.Index, err)
	}

	samples := decoded
	if cf.UseRangeMap {
		if bits != rangeMapBits {
			return nil, d.errf(KindCodecFailure, "frame %d: use_range_map set but decoded bit depth is %d", cf.Index, bits)
		}
		rs := RangeSpec{Min: cf.RangeMin, Max: cf.RangeMax}
		samples = MapFrom12Bit(decoded, rs, nil)
	} else if bits != 16 {
		return nil, d.errf(KindCodecFailure, "frame %d: decoded bit depth %d, expected 16", cf.Index, bits)
	}

	d.ref.set(cf.Width, cf.Height, cf.Index, cf.Time, samples)

	return &Frame{Width: cf.Width, Height: cf.Height, Index: cf.Index, Time: cf.Time, Samples: samples}, nil
}

func (d *FrameDecoder) decodeResidual(cf *CompressedFrame) (*Frame, error) {
	if !d.ref.Initialized() {
		return nil, d.errf(KindPreconditionFailure, "residual decode of frame %d: %v", cf.Index, ErrUninitializedReference)
	}
	if cf.Width != d.ref.Width || cf.Height != d.ref.Height {
		return nil, d.errf(KindPreconditionFailure, "residual decode of frame %d: %v", cf.Index, ErrDimensionMismatch)
	}

	decodedU, bits, err := d.codec.Decode(cf.Payload, cf.Width, cf.Height)
	if err != nil {
		return nil, d.errf(KindCodecFailure, "residual decode of frame %d: %v", cf.Index, err)
	}
	if bits != 16 {
		return nil, d.errf(KindCodecFailure, "frame %d: decoded bit depth %d, expected 16", cf.Index, bits)
	}

	quant, err := NewQuantParams(cf.DeadZoneT, cf.QuantQ, cf.FPBits)
	if err != nil {
		return nil, d.errf(KindPreconditionFailure, "residual decode of frame %d: %v", cf.Index, err)
	}

	d.scratchQuant = Unbias(decodedU, residualBias, d.scratchQuant)
	d.scratchDequant = Dequantize(d.scratchQuant, quant, d.scratchDequant)
	samples := Reconstruct(d.scratchDequant, d.ref.Samples, nil)

	d.ref.set(cf.Width, cf.Height, cf.Index, cf.Time, samples)

	return &Frame{Width: cf.Width, Height: cf.Height, Index: cf.Index, Time: cf.Time, Samples: samples}, nil
}
