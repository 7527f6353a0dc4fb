package dtypes

import (
	"github.com/ipfs/go-datastore"
)

// MetadataDS stores market state. It is the root datastore of the repo.
type MetadataDS datastore.Batching

// BenchmarkCount and NetflagsCount seed a fresh market.
type BenchmarkCount uint64

type NetflagsCount uint64
