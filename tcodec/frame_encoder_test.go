package tcodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrelthermal/tcodec/internal/medcodec"
)

func makeFrame(w, h uint32, idx uint32, fill func(row, col int) uint16) *Frame {
	samples := make([]uint16, int(w)*int(h))
	for row := 0; row < int(h); row++ {
		for col := 0; col < int(w); col++ {
			samples[row*int(w)+col] = fill(row, col)
		}
	}
	return &Frame{Width: w, Height: h, Index: idx, Time: uint64(idx) * 33_333_333, Samples: samples}
}

func solidFrame(w, h uint32, idx uint32, v uint16) *Frame {
	return makeFrame(w, h, idx, func(row, col int) uint16 { return v })
}

func gradientFrame(w, h uint32, idx uint32) *Frame {
	return makeFrame(w, h, idx, func(row, col int) uint16 {
		return uint16(1000 + row*7 + col*3)
	})
}

// TestFrameEncoderIntraRoundTripLossless covers S1: a solid frame encoded
// intra at NEAR=0 must decode back exactly, and the encoder's own
// closed-loop reference must equal what a matched decoder computes (§8
// invariant 1).
func TestFrameEncoderIntraRoundTripLossless(t *testing.T) {
	cfg := DefaultConfig()
	enc := NewFrameEncoder(cfg, medcodec.New())
	dec := NewFrameDecoder(medcodec.New())

	f := solidFrame(16, 12, 0, 2000)
	cf, err := enc.EncodeIntra(f, 0)
	require.NoError(t, err)

	out, err := dec.Decode(cf)
	require.NoError(t, err)
	require.Equal(t, f.Samples, out.Samples)
	require.Equal(t, enc.ref.Samples, dec.Reference().Samples, "encoder and decoder reference states must match")
}

// TestFrameEncoderResidualRoundTripLossless drives an intra frame followed
// by a residual frame, both at NEAR=0, and checks bit-exact reconstruction
// plus reference equality (§8 invariants 1 and 2 at the NEAR=0 boundary).
func TestFrameEncoderResidualRoundTripLossless(t *testing.T) {
	cfg := DefaultConfig()
	// RangeMap's forward/inverse rescale is only guaranteed exact within a
	// bounded error (see TestRangeMapRoundTripErrorBound), so a bit-exact
	// check disables it and drives the codec directly at 16 bits.
	cfg.Enable12BitMode = false
	enc := NewFrameEncoder(cfg, medcodec.New())
	dec := NewFrameDecoder(medcodec.New())

	base := gradientFrame(20, 15, 0)
	cfIntra, err := enc.EncodeIntra(base, 0)
	require.NoError(t, err)
	_, err = dec.Decode(cfIntra)
	require.NoError(t, err)

	next := gradientFrame(20, 15, 1)
	// Perturb a handful of samples so the residual is not uniformly zero.
	next.Samples[0] += 5
	next.Samples[10] -= 3
	next.Samples[len(next.Samples)-1] += 1

	cfRes, err := enc.EncodeResidual(next, 0)
	require.NoError(t, err)
	require.False(t, cfRes.IsKeyframe)

	out, err := dec.Decode(cfRes)
	require.NoError(t, err)
	require.Equal(t, next.Samples, out.Samples)
	require.Equal(t, enc.ref.Samples, dec.Reference().Samples)
}

// TestFrameEncoderNearBoundIntra checks §8 invariant 2: every reconstructed
// sample lies within NEAR of its source, with range remapping disabled so
// the bound applies directly to the codec's own guarantee.
func TestFrameEncoderNearBoundIntra(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enable12BitMode = false
	enc := NewFrameEncoder(cfg, medcodec.New())

	f := gradientFrame(24, 18, 0)
	const near = 4
	_, err := enc.EncodeIntra(f, near)
	require.NoError(t, err)

	for i, want := range f.Samples {
		got := enc.ref.Samples[i]
		diff := int(want) - int(got)
		if diff < 0 {
			diff = -diff
		}
		require.LessOrEqualf(t, diff, near, "sample %d: |%d-%d|=%d exceeds NEAR=%d", i, want, got, diff, near)
	}
}

// TestFrameEncoderNearBoundResidual repeats the NEAR-bound check across a
// residual frame's reconstructed reference.
func TestFrameEncoderNearBoundResidual(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enable12BitMode = false
	enc := NewFrameEncoder(cfg, medcodec.New())

	base := gradientFrame(24, 18, 0)
	_, err := enc.EncodeIntra(base, 0)
	require.NoError(t, err)

	next := gradientFrame(24, 18, 1)
	next.Samples[5] += 40
	const near = 3
	_, err = enc.EncodeResidual(next, near)
	require.NoError(t, err)

	for i, want := range next.Samples {
		got := enc.ref.Samples[i]
		diff := int(want) - int(got)
		if diff < 0 {
			diff = -diff
		}
		// A quantized-index error of up to NEAR (introduced by the codec's
		// own near-lossless guarantee on the biased quantized stream) is
		// rescaled by the dequantizer's step size before landing back in
		// residual space, so this bound is deliberately generous rather
		// than the tight per-sample NEAR bound that applies pre-quantizer.
		bound := (near+1)*(int(cfg.QuantQ)+1) + int(cfg.DeadZoneT) + 2
		require.LessOrEqualf(t, diff, bound, "sample %d exceeds generous NEAR+quantizer bound", i)
	}
}

// TestFrameEncoderRangeMapDegenerateSolidFrame covers S6: a perfectly solid
// frame has a zero-width dynamic range, which RangeMap treats as
// degenerate (all-zero 12-bit output) but must still round-trip exactly.
func TestFrameEncoderRangeMapDegenerateSolidFrame(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.Enable12BitMode)
	enc := NewFrameEncoder(cfg, medcodec.New())
	dec := NewFrameDecoder(medcodec.New())

	f := solidFrame(8, 8, 0, 3000)
	cf, err := enc.EncodeIntra(f, 0)
	require.NoError(t, err)
	require.True(t, cf.UseRangeMap, "zero-range solid frame should still qualify for range mapping")
	require.Equal(t, uint16(3000), cf.RangeMin)
	require.Equal(t, uint16(3000), cf.RangeMax)

	out, err := dec.Decode(cf)
	require.NoError(t, err)
	require.Equal(t, f.Samples, out.Samples)
}

// TestFrameEncoderResidualRequiresReference covers the precondition guard:
// encoding residual before any intra frame must fail with
// ErrUninitializedReference.
func TestFrameEncoderResidualRequiresReference(t *testing.T) {
	cfg := DefaultConfig()
	enc := NewFrameEncoder(cfg, medcodec.New())

	f := gradientFrame(4, 4, 0)
	_, err := enc.EncodeResidual(f, 0)
	require.Error(t, err)
	e, ok := IsError(err)
	require.True(t, ok)
	require.Equal(t, KindPreconditionFailure, e.Kind)
}

// TestFrameEncoderResidualRejectsDimensionMismatch covers the dimension
// guard: a residual frame whose dimensions differ from the reference must
// be rejected rather than silently misaligned.
func TestFrameEncoderResidualRejectsDimensionMismatch(t *testing.T) {
	cfg := DefaultConfig()
	enc := NewFrameEncoder(cfg, medcodec.New())

	base := gradientFrame(8, 8, 0)
	_, err := enc.EncodeIntra(base, 0)
	require.NoError(t, err)

	mismatched := gradientFrame(4, 4, 1)
	_, err = enc.EncodeResidual(mismatched, 0)
	require.Error(t, err)
}

// TestFrameEncoderAutoGOP drives EncodeAuto across enough frames to exercise
// the periodic-intra guarantee end to end (§8 invariant 7), through the
// full encoder/decoder pair rather than the DecisionEngine in isolation.
func TestFrameEncoderAutoGOP(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GOPPeriod = 4
	cfg.GOPMax = 4
	enc := NewFrameEncoder(cfg, medcodec.New())
	dec := NewFrameDecoder(medcodec.New())

	for i := uint32(0); i < 9; i++ {
		f := gradientFrame(10, 10, i)
		cf, mode, err := enc.EncodeAuto(f)
		require.NoError(t, err)
		if i%4 == 0 {
			require.Equal(t, ModeIntra, mode, "frame %d should land on a GOP boundary", i)
		}
		_, err = dec.Decode(cf)
		require.NoError(t, err)
		require.Equal(t, enc.ref.Samples, dec.Reference().Samples, "frame %d: reference desync between encoder and decoder", i)
	}
}

// TestFrameEncoderDecideReturnsIntraBeforeReference checks Decide's early
// exit: with no reference yet, it must return ModeIntra without consulting
// the DecisionEngine's periodic counter.
func TestFrameEncoderDecideReturnsIntraBeforeReference(t *testing.T) {
	cfg := DefaultConfig()
	enc := NewFrameEncoder(cfg, medcodec.New())
	f := gradientFrame(4, 4, 5)
	require.Equal(t, ModeIntra, enc.Decide(f))
}

// TestFrameEncoderResetForcesIntra checks that Reset invalidates the
// reference, forcing the next Decide back to ModeIntra even mid-GOP.
func TestFrameEncoderResetForcesIntra(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GOPPeriod = 1000
	cfg.GOPMax = 1000
	enc := NewFrameEncoder(cfg, medcodec.New())

	base := gradientFrame(8, 8, 0)
	_, err := enc.EncodeIntra(base, 0)
	require.NoError(t, err)
	require.Equal(t, ModeResidual, enc.Decide(gradientFrame(8, 8, 1)))

	enc.Reset()
	require.Equal(t, ModeIntra, enc.Decide(gradientFrame(8, 8, 2)))
}
