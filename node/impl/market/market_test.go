package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/api"
	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/benchmarks"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/market"
	"github.com/capmarket/capmarket/chain/oracle"
	"github.com/capmarket/capmarket/chain/types"
)

type staticOnly struct{}

func (staticOnly) CurrentRate(context.Context) (big.Int, error) {
	return build.DefaultOracleRate, nil
}

func newTestAPI(t *testing.T, o oracle.PriceOracle) (*MarketAPI, *clock.Mock) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))

	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	l := ledger.NewStore(ds)
	bl := blacklist.NewStore(ds)
	m, err := market.New(ctx, market.Params{
		Datastore: ds,
		Ledger:    l,
		Oracle:    o,
		Blacklist: bl,
		Clock:     clk,
	})
	require.NoError(t, err)

	return &MarketAPI{
		Market:        m,
		Ledger:        l,
		Blacklist:     bl,
		Oracle:        o,
		Benchmarks:    benchmarks.Default(),
		AllowDeposits: true,
	}, clk
}

func spec(typ types.OrderType, price int64) types.OrderSpec {
	return types.OrderSpec{
		Type:       typ,
		Price:      abi.NewTokenAmount(price),
		Benchmarks: make([]uint64, build.DefaultBenchmarkCount),
	}
}

func TestDealRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, clk := newTestAPI(t, oracle.NewStatic(build.DefaultOracleRate))
	newAddr := address.NewForTestGetter()
	supplier, consumer := newAddr(), newAddr()

	require.NoError(t, a.WalletDeposit(ctx, consumer, abi.NewTokenAmount(10_000)))

	askID, err := a.OrderPlace(ctx, spec(types.Ask, 1_000_000), supplier)
	require.NoError(t, err)
	bidID, err := a.OrderPlace(ctx, spec(types.Bid, 1_000_000), consumer)
	require.NoError(t, err)

	n, err := a.OrdersAmount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	dealID, err := a.DealOpen(ctx, askID, bidID, consumer)
	require.NoError(t, err)

	clk.Add(100 * time.Second)
	paid, err := a.DealBill(ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "100", paid.String())

	bal, err := a.WalletBalance(ctx, supplier)
	require.NoError(t, err)
	require.Equal(t, "100", bal.String())

	list, err := a.WalletList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	pending, err := a.ChangeRequestsPending(ctx, dealID)
	require.NoError(t, err)
	require.Equal(t, api.PendingChangeRequests{}, pending)

	require.NoError(t, a.DealClose(ctx, dealID, types.BlacklistWorker, consumer))
	blocked, err := a.BlacklistCheck(ctx, consumer, supplier)
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestErrorsAreWired(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAPI(t, oracle.NewStatic(build.DefaultOracleRate))

	_, err := a.DealInfo(ctx, 42)
	var nf *api.ErrNotFound
	require.True(t, errors.As(err, &nf))
	require.ErrorIs(t, err, market.ErrNotFound)

	consumer := address.NewForTestGetter()()
	_, err = a.OrderPlace(ctx, spec(types.Bid, 1_000_000), consumer)
	require.ErrorIs(t, err, market.ErrInsufficientFunds)
}

func TestAdminSetRate(t *testing.T) {
	ctx := context.Background()

	a, _ := newTestAPI(t, oracle.NewStatic(build.DefaultOracleRate))
	require.NoError(t, a.AdminSetRate(ctx, big.NewInt(5)))
	rate, err := a.OracleRate(ctx)
	require.NoError(t, err)
	require.Equal(t, "5", rate.String())

	a, _ = newTestAPI(t, staticOnly{})
	require.ErrorIs(t, a.AdminSetRate(ctx, big.NewInt(5)), ErrRateNotSettable)
}

func TestWalletDeposit(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAPI(t, oracle.NewStatic(build.DefaultOracleRate))
	who := address.NewForTestGetter()()

	require.Error(t, a.WalletDeposit(ctx, who, big.Zero()))
	require.Error(t, a.WalletDeposit(ctx, address.Undef, abi.NewTokenAmount(1)))

	a.AllowDeposits = false
	require.Error(t, a.WalletDeposit(ctx, who, abi.NewTokenAmount(1)))
}

func TestCountsAndBenchmarks(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAPI(t, oracle.NewStatic(build.DefaultOracleRate))

	require.NoError(t, a.AdminSetBenchmarkCount(ctx, build.DefaultBenchmarkCount+1))
	counts, err := a.MarketCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, build.DefaultBenchmarkCount+1, counts.Benchmarks)
	require.Equal(t, build.DefaultNetflagsCount, counts.Netflags)

	list, err := a.BenchmarksList(ctx)
	require.NoError(t, err)
	require.Len(t, list, int(build.DefaultBenchmarkCount))
	require.Equal(t, "cpu-sysbench-multi", list[0].Code)
	require.Equal(t, "cpu", list[0].Type)

	v, err := a.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, build.MarketAPIVersion, v.APIVersion)
}
