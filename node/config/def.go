package config

import (
	"encoding"
	"time"

	"github.com/capmarket/capmarket/build"
)

// Default returns the default config
func Default() *Root {
	return &Root{
		API: API{
			ListenAddress: "127.0.0.1:1345",
			Timeout:       Duration(30 * time.Second),

			ShutdownTimeout: Duration(30 * time.Second),
		},
		Market: Market{
			BenchmarkCount: build.DefaultBenchmarkCount,
			NetflagsCount:  build.DefaultNetflagsCount,
			AllowDeposits:  true,
		},
		Oracle: Oracle{
			InitialRate:     build.DefaultOracleRate.String(),
			RefreshInterval: Duration(time.Minute),
		},
		Events: Events{
			KafkaTopic:   "capmarket-events",
			BatchTimeout: Duration(time.Second),
		},
		Metrics: Metrics{
			Enabled: true,
		},
		Logging: Logging{
			SubsystemLevels: map[string]string{},
		},
	}
}

var _ encoding.TextMarshaler = (*Duration)(nil)
var _ encoding.TextUnmarshaler = (*Duration)(nil)

// Duration is a wrapper type for time.Duration
// for decoding and encoding from/to TOML
type Duration time.Duration

// UnmarshalText implements interface for TOML decoding
func (dur *Duration) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*dur = Duration(d)
	return err
}

func (dur Duration) MarshalText() ([]byte, error) {
	d := time.Duration(dur)
	return []byte(d.String()), nil
}
