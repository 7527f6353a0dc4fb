package marketlog

import (
	"testing"

	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/require"
)

var log = logging.Logger("marketlog-test")

func TestSetSubsystemLevels(t *testing.T) {
	SetupLogLevels()
	log.Debug("registered")

	require.NoError(t, SetSubsystemLevels(map[string]string{"marketlog-test": "debug"}))
	require.Error(t, SetSubsystemLevels(map[string]string{"marketlog-test": "loud"}))
	require.Error(t, SetSubsystemLevels(map[string]string{"no-such-subsystem": "info"}))
}
