package tcodec

import (
	"github.com/google/uuid"
)

// FrameEncoder holds the closed-loop reference state for one encode
// stream. It is not safe for concurrent use; the specification's
// concurrency model gives each instance its own thread with no shared
// state (§5).
type FrameEncoder struct {
	InstanceID uuid.UUID

	cfg    Config
	codec  CodecAdapter
	ref    ReferenceState
	engine *DecisionEngine

	// scratch buffers, reused across frames per §5's resource policy.
	scratchRangeMapped []uint16
	scratchResidual    []int32
	scratchQuant       []int32
	scratchBiased      []uint16
	scratchDecodedU    []uint16
	scratchDecodedQ    []int32
	scratchDequant     []int32
	scratchHist        []uint32
}

// NewFrameEncoder builds an encoder with an empty reference state. cfg must
// already have passed Validate.
func NewFrameEncoder(cfg Config, codec CodecAdapter) *FrameEncoder {
	return &FrameEncoder{
		InstanceID: uuid.New(),
		cfg:        cfg,
		codec:      codec,
		engine:     NewDecisionEngine(cfg),
	}
}

// Reset clears the reference state, forcing the next encode to be intra.
func (e *FrameEncoder) Reset() {
	e.ref.Reset()
}

// DecisionState exposes the engine's running EMA/hysteresis state.
func (e *FrameEncoder) DecisionState() DecisionState { return e.engine.State() }

func (e *FrameEncoder) errf(kind Kind, format string, args ...interface{}) error {
	return newErr(e.InstanceID, kind, format, args...)
}

// EncodeIntra encodes frame independently of any reference, per §4.6.
func (e *FrameEncoder) EncodeIntra(frame *Frame, near uint32) (*CompressedFrame, error) {
	if int(frame.Width)*int(frame.Height) != len(frame.Samples) {
		return nil, e.errf(KindPreconditionFailure, "frame %d: len(samples)=%d does not match %dx%d", frame.Index, len(frame.Samples), frame.Width, frame.Height)
	}

	cf := &CompressedFrame{
		Width:        frame.Width,
		Height:       frame.Height,
		Time:         frame.Time,
		Index:        frame.Index,
		IsKeyframe:   true,
		NearLossless: near,
		RangeMax:     maxSample16,
	}

	bitsPerSample := uint32(16)
	encodeInput := frame.Samples
	var rs RangeSpec

	if e.cfg.Enable12BitMode {
		rs = ComputeRange(frame.Samples)
		if rs.IsBeneficial() {
			e.scratchRangeMapped = MapTo12Bit(frame.Samples, rs, e.scratchRangeMapped)
			encodeInput = e.scratchRangeMapped
			bitsPerSample = rangeMapBits
			cf.UseRangeMap = true
			cf.RangeMin = rs.Min
			cf.RangeMax = rs.Max
		}
	}

	payload, err := e.codec.Encode(encodeInput, frame.Width, frame.Height, bitsPerSample, near)
	if err != nil {
		return nil, e.errf(KindCodecFailure, "intra encode of frame %d: %v", frame.Index, err)
	}
	cf.Payload = payload

	decoded, decodedBits, err := e.codec.Decode(payload, frame.Width, frame.Height)
	if err != nil {
		return nil, e.errf(KindCodecFailure, "closed-loop decode of frame %d: %v", frame.Index, err)
	}
	if decodedBits != bitsPerSample {
		return nil, e.errf(KindCodecFailure, "frame %d: decoded bit depth %d does not match encoded %d", frame.Index, decodedBits, bitsPerSample)
	}

	reconstructed := decoded
	if cf.UseRangeMap {
		reconstructed = MapFrom12Bit(decoded, rs, nil)
	}

	e.ref.set(frame.Width, frame.Height, frame.Index, frame.Time, reconstructed)

	bppObserved := float64(len(payload)*8) / float64(len(frame.Samples))
	e.engine.RecordIntra(bppObserved)

	return cf, nil
}

// EncodeResidual encodes frame as a quantized difference from the current
// reference, per §4.6. Requires an initialized reference of matching
// dimensions.
func (e *FrameEncoder) EncodeResidual(frame *Frame, near uint32) (*CompressedFrame, error) {
	if !e.ref.Initialized() {
		return nil, e.errf(KindPreconditionFailure, "residual encode of frame %d: %v", frame.Index, ErrUninitializedReference)
	}
	if frame.Width != e.ref.Width || frame.Height != e.ref.Height {
		return nil, e.errf(KindPreconditionFailure, "residual encode of frame %d: %v", frame.Index, ErrDimensionMismatch)
	}
	if int(frame.Width)*int(frame.Height) != len(frame.Samples) {
		return nil, e.errf(KindPreconditionFailure, "frame %d: len(samples)=%d does not match %dx%d", frame.Index, len(frame.Samples), frame.Width, frame.Height)
	}

	quant, err := NewQuantParams(e.cfg.DeadZoneT, e.cfg.QuantQ, e.cfg.FPBits)
	if err != nil {
		return nil, e.errf(KindPreconditionFailure, "residual encode of frame %d: %v", frame.Index, err)
	}

	e.scratchResidual = Residual(frame.Samples, e.ref.Samples, e.scratchResidual)
	e.scratchQuant = Quantize(e.scratchResidual, quant, e.scratchQuant)
	e.scratchBiased = Bias(e.scratchQuant, residualBias, e.scratchBiased)

	payload, err := e.codec.Encode(e.scratchBiased, frame.Width, frame.Height, 16, near)
	if err != nil {
		return nil, e.errf(KindCodecFailure, "residual encode of frame %d: %v", frame.Index, err)
	}

	cf := &CompressedFrame{
		Width:        frame.Width,
		Height:       frame.Height,
		Time:         frame.Time,
		Index:        frame.Index,
		IsKeyframe:   false,
		NearLossless: near,
		QuantQ:       e.cfg.QuantQ,
		DeadZoneT:    e.cfg.DeadZoneT,
		FPBits:       e.cfg.FPBits,
		RangeMax:     maxSample16,
		Payload:      payload,
	}

	// §4.6 permits substituting the raw input frame for the reference when
	// NEAR=0, as an open-loop shortcut "exact under NEAR=0". That shortcut
	// is only exact when the quantizer itself is also lossless, which is
	// not guaranteed by NEAR=0 alone (dead-zone/step quantization is a
	// separate, generally lossy stage) — so per §9's own recommendation,
	// this implementation always goes through decode. It produces
	// identical results when the codec is truly lossless and keeps the
	// encoder's and decoder's reference update on exactly one code path,
	// which is what §8 invariant 1 (reference equality) requires.
	decodedU, decodedBits, err := e.codec.Decode(payload, frame.Width, frame.Height)
	if err != nil {
		return nil, e.errf(KindCodecFailure, "closed-loop decode of frame %d: %v", frame.Index, err)
	}
	if decodedBits != 16 {
		return nil, e.errf(KindCodecFailure, "frame %d: decoded bit depth %d, expected 16", frame.Index, decodedBits)
	}
	e.scratchDecodedQ = Unbias(decodedU, residualBias, e.scratchDecodedQ)
	e.scratchDequant = Dequantize(e.scratchDecodedQ, quant, e.scratchDequant)
	newRef := Reconstruct(e.scratchDequant, e.ref.Samples, nil)

	e.ref.set(frame.Width, frame.Height, frame.Index, frame.Time, newRef)

	bppObserved := float64(len(payload)*8) / float64(len(frame.Samples))
	e.engine.RecordResidual(bppObserved)

	return cf, nil
}

// Encode dispatches to EncodeIntra or EncodeResidual based on a decision
// already made by the caller (typically via Decide, below).
func (e *FrameEncoder) Encode(frame *Frame, mode Mode, near uint32) (*CompressedFrame, error) {
	if mode == ModeIntra {
		return e.EncodeIntra(frame, near)
	}
	return e.EncodeResidual(frame, near)
}

// EncodeAuto decides a mode via Decide and encodes with the matching
// configured NEAR value (KeyframeNear for intra, ResidualNear for
// residual) — the common host-facing entry point.
func (e *FrameEncoder) EncodeAuto(frame *Frame) (*CompressedFrame, Mode, error) {
	mode := e.Decide(frame)
	near := e.cfg.ResidualNear
	if mode == ModeIntra {
		near = e.cfg.KeyframeNear
	}
	cf, err := e.Encode(frame, mode, near)
	return cf, mode, err
}

// Decide computes ResidualStats for frame against the current reference
// and asks the DecisionEngine for a mode. If the reference is not yet
// initialized, it always returns ModeIntra without touching the engine's
// periodic counter.
func (e *FrameEncoder) Decide(frame *Frame) Mode {
	if !e.ref.Initialized() {
		return ModeIntra
	}
	e.scratchResidual = Residual(frame.Samples, e.ref.Samples, e.scratchResidual)
	var stats ResidualStats
	stats, e.scratchHist = ComputeResidualStats(e.scratchResidual, nil, e.cfg.DeadZoneT, e.scratchHist)
	return e.engine.Decide(frame.Index, stats)
}
