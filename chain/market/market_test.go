package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/oracle"
	"github.com/capmarket/capmarket/chain/types"
)

// unitPrice costs one ledger unit per second at the default oracle rate.
var unitPrice = abi.NewTokenAmount(1_000_000)

type scaffold struct {
	t   *testing.T
	ctx context.Context

	ds     datastore.Batching
	ledger *ledger.Store
	bl     *blacklist.Store
	oracle *oracle.Static
	clk    *clock.Mock
	m      *Market

	newAddr func() address.Address

	evtLk  sync.Mutex
	events []Event
}

func setup(t *testing.T) *scaffold {
	return setupDS(t, dssync.MutexWrap(datastore.NewMapDatastore()))
}

func setupDS(t *testing.T, ds datastore.Batching) *scaffold {
	ctx := context.Background()

	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))

	s := &scaffold{
		t:       t,
		ctx:     ctx,
		ds:      ds,
		ledger:  ledger.NewStore(ds),
		bl:      blacklist.NewStore(ds),
		oracle:  oracle.NewStatic(build.DefaultOracleRate),
		clk:     clk,
		newAddr: address.NewForTestGetter(),
	}
	s.m = s.open()
	return s
}

func (s *scaffold) open() *Market {
	m, err := New(s.ctx, Params{
		Datastore: s.ds,
		Ledger:    s.ledger,
		Oracle:    s.oracle,
		Blacklist: s.bl,
		Clock:     s.clk,
	})
	require.NoError(s.t, err)
	m.SubscribeEvents(func(evt Event) {
		s.evtLk.Lock()
		defer s.evtLk.Unlock()
		s.events = append(s.events, evt)
	})
	return m
}

// account returns a fresh address funded with amt.
func (s *scaffold) account(amt int64) address.Address {
	a := s.newAddr()
	if amt > 0 {
		require.NoError(s.t, s.ledger.Credit(s.ctx, a, abi.NewTokenAmount(amt)))
	}
	return a
}

func (s *scaffold) requireBalance(a address.Address, expected int64) {
	bal, err := s.ledger.Balance(s.ctx, a)
	require.NoError(s.t, err)
	require.Equal(s.t, abi.NewTokenAmount(expected).String(), bal.String(), "balance of %s", a)
}

func (s *scaffold) eventTypes() []EventType {
	s.evtLk.Lock()
	defer s.evtLk.Unlock()

	var out []EventType
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *scaffold) lastEvent(typ EventType) (Event, bool) {
	s.evtLk.Lock()
	defer s.evtLk.Unlock()

	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type == typ {
			return s.events[i], true
		}
	}
	return Event{}, false
}

func orderSpec(typ types.OrderType, duration uint64, price abi.TokenAmount) types.OrderSpec {
	return types.OrderSpec{
		Type:       typ,
		Duration:   duration,
		Price:      price,
		Benchmarks: make([]uint64, build.DefaultBenchmarkCount),
	}
}

func (s *scaffold) placeAsk(author address.Address, duration uint64, price abi.TokenAmount) uint64 {
	id, err := s.m.PlaceOrder(s.ctx, orderSpec(types.Ask, duration, price), author)
	require.NoError(s.t, err)
	return id
}

func (s *scaffold) placeBid(author address.Address, duration uint64, price abi.TokenAmount) uint64 {
	id, err := s.m.PlaceOrder(s.ctx, orderSpec(types.Bid, duration, price), author)
	require.NoError(s.t, err)
	return id
}

// openDeal opens a deal between a fresh supplier and a consumer funded
// with balance.
func (s *scaffold) openDeal(duration uint64, balance int64) (dealID uint64, supplier, consumer address.Address) {
	supplier = s.account(0)
	consumer = s.account(balance)
	ask := s.placeAsk(supplier, duration, unitPrice)
	bid := s.placeBid(consumer, duration, unitPrice)

	dealID, err := s.m.OpenDeal(s.ctx, ask, bid, consumer)
	require.NoError(s.t, err)
	return dealID, supplier, consumer
}

func (s *scaffold) deal(id uint64) types.Deal {
	d, err := s.m.GetDeal(s.ctx, id)
	require.NoError(s.t, err)
	return d
}

// requireConserved checks that balances, deal escrow and bid escrow add up
// to what was minted.
func (s *scaffold) requireConserved(minted int64) {
	total := big.Zero()

	bals, err := s.ledger.List(s.ctx)
	require.NoError(s.t, err)
	for _, b := range bals {
		total = big.Add(total, b)
	}
	for _, d := range s.m.ListDeals(s.ctx, types.DealFilter{Status: types.DealAccepted}) {
		total = big.Add(total, d.BlockedBalance)
	}
	for _, o := range s.m.ListOrders(s.ctx, types.Bid) {
		total = big.Add(total, o.FrozenSum)
	}
	require.Equal(s.t, abi.NewTokenAmount(minted).String(), total.String())
}

func TestCost(t *testing.T) {
	require.Equal(t, "1", Cost(unitPrice, 1, build.DefaultOracleRate).String())
	require.Equal(t, "3600", Cost(unitPrice, 3600, build.DefaultOracleRate).String())
	// rounds down
	require.Equal(t, "0", Cost(abi.NewTokenAmount(999_999), 1, build.DefaultOracleRate).String())
	require.Equal(t, "0", Cost(unitPrice, 0, build.DefaultOracleRate).String())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(context.Background(), Params{})
	require.Error(t, err)
}

func TestBenchmarkCount(t *testing.T) {
	s := setup(t)

	require.EqualValues(t, build.DefaultBenchmarkCount, s.m.GetBenchmarksQuantity(s.ctx))
	require.EqualValues(t, build.DefaultNetflagsCount, s.m.GetNetflagsQuantity(s.ctx))

	require.ErrorIs(t, s.m.SetBenchmarkCount(s.ctx, 11), ErrInvalidChange)
	require.ErrorIs(t, s.m.SetNetflagsCount(s.ctx, 2), ErrInvalidChange)

	supplier := s.account(0)
	consumer := s.account(10_000)
	oldAsk := s.placeAsk(supplier, 0, unitPrice)

	require.NoError(t, s.m.SetBenchmarkCount(s.ctx, 13))
	require.EqualValues(t, 13, s.m.GetBenchmarksQuantity(s.ctx))
	evt, ok := s.lastEvent(EvtBenchmarksUpdated)
	require.True(t, ok)
	require.EqualValues(t, 13, evt.Count)

	// orders must now carry the new count
	_, err := s.m.PlaceOrder(s.ctx, orderSpec(types.Bid, 0, unitPrice), consumer)
	require.ErrorIs(t, err, ErrInvalidOrder)

	spec := orderSpec(types.Bid, 0, unitPrice)
	spec.Benchmarks = make([]uint64, 13)
	spec.Benchmarks[12] = 1
	demanding, err := s.m.PlaceOrder(s.ctx, spec, consumer)
	require.NoError(t, err)

	// the old ask has no value for the new benchmark, which reads as zero
	_, err = s.m.OpenDeal(s.ctx, oldAsk, demanding, consumer)
	require.ErrorIs(t, err, ErrIncompatibleOrders)

	spec.Benchmarks[12] = 0
	modest, err := s.m.PlaceOrder(s.ctx, spec, consumer)
	require.NoError(t, err)
	dealID, err := s.m.OpenDeal(s.ctx, oldAsk, modest, consumer)
	require.NoError(t, err)
	require.Len(t, s.deal(dealID).Benchmarks, 12)
}
