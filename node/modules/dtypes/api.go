package dtypes

import (
	"time"
)

// APIEndpoint is the host:port the JSON-RPC server listens on.
type APIEndpoint string

type NodeStartTime time.Time

// AllowDeposits gates WalletDeposit.
type AllowDeposits bool
