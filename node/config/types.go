package config

// // NOTE: ONLY PUT STRUCT DEFINITIONS IN THIS FILE

// Root is the daemon config.
type Root struct {
	API     API
	Market  Market
	Oracle  Oracle
	Journal Journal
	Events  Events
	Metrics Metrics
	Logging Logging
}

// API contains configs for API endpoint
type API struct {
	// Address the JSON-RPC server listens on, host:port.
	ListenAddress string
	Timeout       Duration

	// How long the daemon waits for the RPC server, event sink and market
	// to stop before giving up.
	ShutdownTimeout Duration
}

type Market struct {
	// Benchmark vector length a fresh market starts with. A market restored
	// from the datastore keeps its own count.
	BenchmarkCount uint64
	NetflagsCount  uint64

	// BenchmarksURL points at a JSON benchmark list (file:// or http(s)://).
	// Empty selects the built-in list.
	BenchmarksURL string

	// AllowDeposits enables WalletDeposit, which mints ledger funds. Only
	// meant for development networks.
	AllowDeposits bool
}

type Oracle struct {
	// Rate used until the feed reports, scaled by 1e18.
	InitialRate string
	// FeedURL is polled for {"rate": "..."} when set. Without it the rate
	// only changes through the admin API.
	FeedURL         string
	RefreshInterval Duration
}

type Journal struct {
	Disabled bool
	// Comma separated system:event pairs that are not journaled.
	DisabledEvents string
}

type Events struct {
	// Kafka brokers market events are published to. Empty disables the sink.
	KafkaBrokers []string
	KafkaTopic   string
	BatchTimeout Duration
}

type Metrics struct {
	// Serve prometheus metrics at /debug/metrics on the API listener.
	Enabled bool
}

// Logging is the logging system config
type Logging struct {
	// SubsystemLevels specify per-subsystem log levels
	SubsystemLevels map[string]string
}
