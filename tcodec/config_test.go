package tcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejectsZeroGOPPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GOPPeriod = 0
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsGOPMaxBelowPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GOPPeriod = 30
	cfg.GOPMax = 10
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsOutOfRangeNear(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeyframeNear = 256
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ResidualNear = 256
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsNonPositiveQuantQ(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QuantQ = 0
	require.Error(t, cfg.Validate())

	cfg.QuantQ = -1
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsExcessiveFPBits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPBits = 17
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsBadEMAAlpha(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 0
	require.Error(t, cfg.Validate())

	cfg.EMAAlpha = 1.5
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsNegativeHysteresisOrMargin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionHysteresisBpp = -0.1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DecisionMarginBpp = -0.1
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsZeroMassOutOfUnitRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionZeroMassMin = 1.1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DecisionZeroMassMin = -0.1
	require.Error(t, cfg.Validate())
}

func TestConfigQuantParamsMatchesFields(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.quantParams()
	require.Equal(t, cfg.DeadZoneT, p.DeadZoneT)
	require.Equal(t, cfg.QuantQ, p.Q)
	require.Equal(t, cfg.FPBits, p.FPBits)
}
