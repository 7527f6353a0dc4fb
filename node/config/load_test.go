package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeNothing(t *testing.T) {
	cfg, err := FromReader(bytes.NewReader(nil), Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = FromFile(filepath.Join(t.TempDir(), "missing.toml"), Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParitalConfig(t *testing.T) {
	cfgString := `
		[API]
		Timeout = "10s"
		[Market]
		BenchmarkCount = 14
		[Events]
		KafkaBrokers = ["localhost:9092"]
		`
	expected := Default()
	expected.API.Timeout = Duration(10 * time.Second)
	expected.Market.BenchmarkCount = 14
	expected.Events.KafkaBrokers = []string{"localhost:9092"}

	cfg, err := FromReader(bytes.NewReader([]byte(cfgString)), Default())
	require.NoError(t, err)
	require.Equal(t, expected, cfg)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfgString), 0644))
	cfg, err = FromFile(path, Default())
	require.NoError(t, err)
	require.Equal(t, expected, cfg)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CAPMARKET_API_LISTENADDRESS", "0.0.0.0:9999")
	t.Setenv("CAPMARKET_ORACLE_REFRESHINTERVAL", "5s")

	cfg, err := FromReader(bytes.NewReader(nil), Default())
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.API.ListenAddress)
	require.Equal(t, Duration(5*time.Second), cfg.Oracle.RefreshInterval)
}

func TestConfigCommentRoundTrips(t *testing.T) {
	b, err := ConfigComment(Default())
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), "[Market]"))
	require.True(t, strings.Contains(string(b), "BenchmarkCount = 12"))

	// all values are commented out, so the result decodes to the defaults
	cfg, err := FromReader(bytes.NewReader(b), Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
