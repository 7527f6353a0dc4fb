package market

import (
	"context"
	"math"
	"sync"

	"github.com/hannahhoward/go-pubsub"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/oracle"
	"github.com/capmarket/capmarket/chain/types"
	"github.com/capmarket/capmarket/journal"
	"github.com/capmarket/capmarket/metrics"
)

var log = logging.Logger("market")

// Params are the collaborators of a Market.
type Params struct {
	Datastore datastore.Batching
	Ledger    ledger.Ledger
	Oracle    oracle.PriceOracle
	Blacklist blacklist.Blacklist
	Journal   journal.Journal

	// Clock defaults to build.Clock.
	Clock clock.Clock

	// Initial counts for a fresh market. A market restored from the
	// datastore keeps its persisted counts.
	BenchmarkCount uint64
	NetflagsCount  uint64
}

// Market is the order book, worker registry, deal engine and change
// request engine. Every operation runs under a single lock and either
// applies all of its effects or none.
type Market struct {
	lk    sync.Mutex
	pubLk sync.Mutex

	ledger   ledger.Ledger
	oracle   oracle.PriceOracle
	bl       blacklist.Blacklist
	clk      clock.Clock
	store    *store
	journal  journal.Journal
	evtTypes map[EventType]journal.EventType
	ps       *pubsub.PubSub

	benchmarkCount uint64
	netflagsCount  uint64

	// tables are indexed by id-1
	orders   []*types.Order
	deals    []*types.Deal
	requests []*types.ChangeRequest

	// open change requests per deal, consumer slot first
	actualRequests map[uint64][2]uint64
	workers        map[address.Address]*types.WorkerRelation
}

// New creates a market and restores its state from the datastore.
func New(ctx context.Context, p Params) (*Market, error) {
	if p.Datastore == nil || p.Ledger == nil || p.Oracle == nil || p.Blacklist == nil {
		return nil, xerrors.Errorf("market requires a datastore, ledger, oracle and blacklist")
	}
	if p.Clock == nil {
		p.Clock = build.Clock
	}
	if p.Journal == nil {
		p.Journal = journal.NilJournal()
	}
	if p.BenchmarkCount == 0 {
		p.BenchmarkCount = build.DefaultBenchmarkCount
	}
	if p.NetflagsCount == 0 {
		p.NetflagsCount = build.DefaultNetflagsCount
	}

	m := &Market{
		ledger:         p.Ledger,
		oracle:         p.Oracle,
		bl:             p.Blacklist,
		clk:            p.Clock,
		store:          newStore(p.Datastore),
		journal:        p.Journal,
		ps:             newEventPubSub(),
		benchmarkCount: p.BenchmarkCount,
		netflagsCount:  p.NetflagsCount,
		actualRequests: map[uint64][2]uint64{},
		workers:        map[address.Address]*types.WorkerRelation{},
	}
	m.registerEventTypes()

	if err := m.store.load(ctx, m); err != nil {
		return nil, xerrors.Errorf("restoring market state: %w", err)
	}

	log.Infow("market started",
		"orders", len(m.orders), "deals", len(m.deals), "requests", len(m.requests),
		"benchmarks", m.benchmarkCount, "netflags", m.netflagsCount)
	return m, nil
}

// run executes fn as one atomic operation. Events are published after the
// lock is released, in commit order.
func (m *Market) run(ctx context.Context, op string, fn func(tx *txn) error) error {
	stop := metrics.OperationTimer(ctx, op)
	defer stop()

	m.lk.Lock()
	tx := m.newTxn(ctx)
	if err := fn(tx); err != nil {
		m.lk.Unlock()
		log.Debugw("market operation failed", "op", op, "error", err)
		return err
	}
	if err := tx.commit(); err != nil {
		m.lk.Unlock()
		return xerrors.Errorf("%s: committing: %w", op, err)
	}

	m.pubLk.Lock()
	m.lk.Unlock()
	defer m.pubLk.Unlock()

	m.publish(ctx, tx.events)
	return nil
}

// Cost is price*secs*rate/RateScale, rounded down.
func Cost(price abi.TokenAmount, secs uint64, rate big.Int) abi.TokenAmount {
	amt := big.Mul(price, big.NewIntUnsigned(secs))
	amt = big.Mul(amt, rate)
	return big.Div(amt, build.RateScale)
}

// endFits reports whether start+duration can be represented as a
// timestamp.
func endFits(start, duration uint64) bool {
	return duration <= math.MaxUint64-start
}

// holdSeconds is the escrow horizon of an order or deal duration.
func holdSeconds(duration uint64) uint64 {
	if duration == 0 {
		return build.SpotHoldSeconds
	}
	return duration
}

func cloneOrder(o *types.Order) *types.Order {
	c := *o
	c.Netflags = append([]bool(nil), o.Netflags...)
	c.Tag = append([]byte(nil), o.Tag...)
	c.Benchmarks = append([]uint64(nil), o.Benchmarks...)
	return &c
}

func cloneDeal(d *types.Deal) *types.Deal {
	c := *d
	c.Benchmarks = append([]uint64(nil), d.Benchmarks...)
	return &c
}
