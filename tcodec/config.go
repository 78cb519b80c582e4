package tcodec

import "github.com/google/uuid"

// Config mirrors the abstract configuration keys named in §6. It carries
// no YAML/env parsing — that remains an external collaborator's job — only
// the validated value object a loader would populate.
type Config struct {
	GOPPeriod    uint32
	GOPMax       uint32
	KeyframeNear uint32
	ResidualNear uint32

	DeadZoneT uint32
	QuantQ    float64
	FPBits    uint32

	Enable12BitMode bool

	DecisionP95Threshold     float64
	DecisionP99Threshold     float64
	DecisionEntropyThreshold float64
	DecisionHysteresisBpp    float64
	DecisionMeanAbsMax       float64
	DecisionZeroMassMin      float64
	DecisionMarginBpp        float64

	EMAAlpha float64
}

// DefaultConfig returns the profile-default thresholds named in §4.7.
func DefaultConfig() Config {
	return Config{
		GOPPeriod:    30,
		GOPMax:       60,
		KeyframeNear: 0,
		ResidualNear: 0,

		DeadZoneT: 2,
		QuantQ:    2.0,
		FPBits:    8,

		Enable12BitMode: true,

		DecisionP95Threshold:     30,
		DecisionP99Threshold:     100,
		DecisionEntropyThreshold: 0,
		DecisionHysteresisBpp:    0.15,
		DecisionMeanAbsMax:       12,
		DecisionZeroMassMin:      0.75,
		DecisionMarginBpp:        0.3,

		EMAAlpha: 0.15,
	}
}

// Validate returns a PreconditionFailure describing the first invalid
// field, or nil if c is usable.
func (c Config) Validate() error {
	switch {
	case c.GOPPeriod == 0:
		return newErr(uuid.Nil, KindPreconditionFailure, "gop_period must be > 0")
	case c.GOPMax < c.GOPPeriod:
		return newErr(uuid.Nil, KindPreconditionFailure, "gop_max (%d) must be >= gop_period (%d)", c.GOPMax, c.GOPPeriod)
	case c.KeyframeNear > 255:
		return newErr(uuid.Nil, KindPreconditionFailure, "keyframe_near must be in [0,255], got %d", c.KeyframeNear)
	case c.ResidualNear > 255:
		return newErr(uuid.Nil, KindPreconditionFailure, "residual_near must be in [0,255], got %d", c.ResidualNear)
	case c.QuantQ <= 0:
		return newErr(uuid.Nil, KindPreconditionFailure, "quant_Q must be > 0, got %v", c.QuantQ)
	case c.FPBits > 16:
		return newErr(uuid.Nil, KindPreconditionFailure, "fp_bits must be <= 16, got %d", c.FPBits)
	case c.EMAAlpha <= 0 || c.EMAAlpha > 1:
		return newErr(uuid.Nil, KindPreconditionFailure, "ema_alpha must be in (0,1], got %v", c.EMAAlpha)
	case c.DecisionHysteresisBpp < 0:
		return newErr(uuid.Nil, KindPreconditionFailure, "decision_hysteresis_bpp must be >= 0, got %v", c.DecisionHysteresisBpp)
	case c.DecisionMarginBpp < 0:
		return newErr(uuid.Nil, KindPreconditionFailure, "decision_margin_bpp must be >= 0, got %v", c.DecisionMarginBpp)
	case c.DecisionZeroMassMin < 0 || c.DecisionZeroMassMin > 1:
		return newErr(uuid.Nil, KindPreconditionFailure, "decision_zero_mass_min must be in [0,1], got %v", c.DecisionZeroMassMin)
	}
	return nil
}

// quantParams derives this config's QuantParams, assuming Validate passed.
func (c Config) quantParams() QuantParams {
	p, _ := NewQuantParams(c.DeadZoneT, c.QuantQ, c.FPBits)
	return p
}
