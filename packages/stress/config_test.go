package stress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, RateMode, cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, float64(10), cfg.Rate)
	assert.Equal(t, 100, cfg.MaxVUs)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "vu mode", mutate: func(c *Config) { c.Mode, c.VUs = VUMode, 5 }},
		{name: "zero duration", mutate: func(c *Config) { c.Duration = 0 }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.Rate = 0 }, wantErr: true},
		{name: "vu mode without vus", mutate: func(c *Config) { c.Mode = VUMode }, wantErr: true},
		{name: "no sessions", mutate: func(c *Config) { c.MaxVUs = 0 }, wantErr: true},
		{name: "ramp longer than run", mutate: func(c *Config) { c.RampUp = time.Hour }, wantErr: true},
		{name: "negative think", mutate: func(c *Config) { c.ThinkTime = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseThresholds(t *testing.T) {
	th, err := ParseThresholds("p50<50ms, p95<=200ms,p99<1s,max<2s,errors<1%,rps>=25")
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, th.P50)
	assert.Equal(t, 200*time.Millisecond, th.P95)
	assert.Equal(t, time.Second, th.P99)
	assert.Equal(t, 2*time.Second, th.Max)
	assert.InDelta(t, 0.01, th.ErrorRate, 1e-9)
	assert.Equal(t, float64(25), th.MinRPS)
	assert.True(t, th.Any())
}

func TestParseThresholds_FractionalErrorRate(t *testing.T) {
	th, err := ParseThresholds("errors<0.05")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, th.ErrorRate, 1e-9)
}

func TestParseThresholds_Empty(t *testing.T) {
	th, err := ParseThresholds("")
	require.NoError(t, err)
	assert.False(t, th.Any())
}

func TestParseThresholds_Invalid(t *testing.T) {
	for _, in := range []string{
		"p95",
		"p95>200ms",
		"p95<fast",
		"rps<10",
		"errors>1%",
		"latency<1s",
	} {
		_, err := ParseThresholds(in)
		assert.ErrorIs(t, err, ErrInvalidConfig, in)
	}
}
