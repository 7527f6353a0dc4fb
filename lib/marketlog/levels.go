package marketlog

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
)

func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		_ = logging.SetLogLevel("rpc", "WARN")
		_ = logging.SetLogLevel("retry", "WARN")
	}
}

// SetSubsystemLevels applies per-subsystem overrides from the config.
func SetSubsystemLevels(levels map[string]string) error {
	for sys, lvl := range levels {
		if err := logging.SetLogLevel(sys, lvl); err != nil {
			return err
		}
	}
	return nil
}
