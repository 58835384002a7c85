package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBandMapping(t *testing.T) {
	cfg := DefaultDisplayConfig()
	normalizeBands(&cfg)

	cases := []struct {
		percent *float64
		want    string
	}{
		{nil, ""},
		{f(71.4), "hot"},
		{f(50), "hot"},
		{f(40), "workable"},
		{f(20), "workable"},
		{f(5), "thin"},
		{f(0), "thin"},
		{f(-12.5), "underwater"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, cfg.Band(tc.percent))
	}
}

func TestNormalizeBandsOrdersByThreshold(t *testing.T) {
	cfg := DisplayConfig{SpreadBands: []SpreadBand{
		{Label: "low", MinPercent: 0},
		{Label: "high", MinPercent: 50},
		{Label: "mid", MinPercent: 20},
	}}
	normalizeBands(&cfg)

	require.Equal(t, "high", cfg.SpreadBands[0].Label)
	require.Equal(t, "mid", cfg.SpreadBands[1].Label)
	require.Equal(t, "low", cfg.SpreadBands[2].Label)

	// A percent below every threshold has no band.
	require.Equal(t, "", cfg.Band(f(-1)))
}

func TestValidateDisplayConfig(t *testing.T) {
	require.NoError(t, validateDisplayConfig(DefaultDisplayConfig()))

	err := validateDisplayConfig(DisplayConfig{})
	require.Error(t, err)

	err = validateDisplayConfig(DisplayConfig{SpreadBands: []SpreadBand{{Label: " "}}})
	require.Error(t, err)

	err = validateDisplayConfig(DisplayConfig{SpreadBands: []SpreadBand{
		{Label: "hot", MinPercent: 50},
		{Label: "hot", MinPercent: 20},
	}})
	require.Error(t, err)
}
