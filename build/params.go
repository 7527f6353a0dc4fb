package build

import (
	"time"

	"github.com/filecoin-project/go-state-types/big"
)

// RateScale is the fixed-point denominator of oracle rates. A rate of
// RateScale converts one price unit per second into one ledger unit per second.
var RateScale = big.NewInt(1_000_000_000_000_000_000)

// SpotHoldPeriod is how far ahead spot bids and spot deals are escrowed.
const SpotHoldPeriod = time.Hour

// SpotHoldSeconds is SpotHoldPeriod in whole seconds.
const SpotHoldSeconds uint64 = uint64(SpotHoldPeriod / time.Second)

const (
	DefaultBenchmarkCount uint64 = 12
	DefaultNetflagsCount  uint64 = 3
)

// DefaultOracleRate is the rate a fresh node starts with: one ledger unit
// per 1e6 price units per second.
var DefaultOracleRate = big.NewInt(1_000_000_000_000)
