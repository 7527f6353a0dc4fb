package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ucli "github.com/urfave/cli/v2"

	"github.com/filecoin-project/go-address"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/benchmarks"
	"github.com/capmarket/capmarket/chain/blacklist"
	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/market"
	"github.com/capmarket/capmarket/chain/oracle"
	marketimpl "github.com/capmarket/capmarket/node/impl/market"
)

type testApp struct {
	t   *testing.T
	app *ucli.App
	buf *bytes.Buffer
	api *marketimpl.MarketAPI
	clk *clock.Mock
}

// newTestApp returns a CLI app talking to an in-process market.
func newTestApp(t *testing.T) *testApp {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))

	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	l := ledger.NewStore(ds)
	bl := blacklist.NewStore(ds)
	o := oracle.NewStatic(build.DefaultOracleRate)
	m, err := market.New(ctx, market.Params{Datastore: ds, Ledger: l, Oracle: o, Blacklist: bl, Clock: clk})
	require.NoError(t, err)

	a := &marketimpl.MarketAPI{
		Market:        m,
		Ledger:        l,
		Blacklist:     bl,
		Oracle:        o,
		Benchmarks:    benchmarks.Default(),
		AllowDeposits: true,
	}

	app := ucli.NewApp()
	app.Commands = Commands
	app.Metadata = map[string]interface{}{
		metadataTestNode: a,
		metadataContext:  ctx,
	}
	app.Setup()

	// this will only work if the implementation uses the app.Writer
	buf := &bytes.Buffer{}
	app.Writer = buf

	return &testApp{t: t, app: app, buf: buf, api: a, clk: clk}
}

func (ta *testApp) run(args ...string) string {
	ta.buf.Reset()
	require.NoError(ta.t, ta.app.Run(append([]string{"capmarket"}, args...)))
	return ta.buf.String()
}

func TestOrderAndDealCommands(t *testing.T) {
	ta := newTestApp(t)
	newAddr := address.NewForTestGetter()
	supplier, consumer := newAddr(), newAddr()

	out := ta.run("wallet", "deposit", consumer.String(), "0.00000000000001")
	assert.Contains(t, out, "deposited")

	bal, err := ta.api.WalletBalance(context.Background(), consumer)
	require.NoError(t, err)
	require.Equal(t, "10000", bal.String())

	out = ta.run("order", "place", "--from", supplier.String(), "--price", "1000000",
		"--bench", "cpu-cores=8", "--bench", "ram-size=1024", "ask")
	assert.Contains(t, out, "placed ask 1")

	info, err := ta.api.OrderInfo(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(8), info.Benchmarks[2])
	require.Equal(t, uint64(1024), info.Benchmarks[3])

	out = ta.run("order", "place", "--from", consumer.String(), "--price", "1000000", "bid")
	assert.Contains(t, out, "placed bid 2")

	out = ta.run("order", "list")
	assert.Contains(t, out, supplier.String())
	assert.Contains(t, out, consumer.String())

	out = ta.run("deal", "open", "--from", consumer.String(), "1", "2")
	assert.Contains(t, out, "opened deal 1")

	ta.clk.Add(100 * time.Second)
	out = ta.run("deal", "bill", "--from", supplier.String(), "1")
	assert.Contains(t, out, "paid")

	out = ta.run("deal", "info", "1")
	assert.Contains(t, out, "accepted")
	assert.Contains(t, out, "cpu-cores")

	out = ta.run("change", "create", "--from", consumer.String(), "--price", "2000000", "1")
	assert.Contains(t, out, "accepted")

	out = ta.run("deal", "close", "--from", consumer.String(), "--blacklist", "worker", "1")
	assert.Contains(t, out, "closed deal 1")

	out = ta.run("blacklist", "check", consumer.String(), supplier.String())
	assert.Contains(t, out, "true")

	out = ta.run("deal", "list", "--party", consumer.String())
	assert.Contains(t, out, "closed")
}

func TestWorkerCommands(t *testing.T) {
	ta := newTestApp(t)
	newAddr := address.NewForTestGetter()
	worker, master := newAddr(), newAddr()

	ta.run("worker", "register", "--from", worker.String(), master.String())
	out := ta.run("worker", "status", worker.String())
	assert.Contains(t, out, "Confirmed: false")

	ta.run("worker", "confirm", "--from", master.String(), worker.String())
	out = ta.run("worker", "status", worker.String())
	assert.Contains(t, out, "Confirmed: true")

	ta.run("worker", "remove", "--from", master.String(), worker.String(), master.String())
	st, err := ta.api.WorkerStatus(context.Background(), worker)
	require.NoError(t, err)
	require.False(t, st.Confirmed)
}

func TestAdminCommands(t *testing.T) {
	ta := newTestApp(t)

	ta.run("admin", "set-benchmarks", "14")
	out := ta.run("admin", "counts")
	assert.Contains(t, out, "Benchmarks: 14")

	ta.run("admin", "set-rate", "2000000000000")
	out = ta.run("admin", "rate")
	assert.Contains(t, out, "2000000000000")

	out = ta.run("benchmarks")
	assert.Contains(t, out, "gpu-redshift")

	require.Error(t, ta.app.Run([]string{"capmarket", "admin", "set-benchmarks", "3"}))
}

func TestPlaceRejectsUnknownBenchmark(t *testing.T) {
	ta := newTestApp(t)
	author := address.NewForTestGetter()()

	err := ta.app.Run([]string{"capmarket", "order", "place", "--from", author.String(), "--price", "1", "--bench", "nope=1", "ask"})
	require.Error(t, err)

	n, err := ta.api.OrdersAmount(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestParseHelpers(t *testing.T) {
	flags, err := parseNetflags("true, false,1")
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true}, flags)

	_, err = parseBenchmarks([]string{"cpu-cores"})
	require.Error(t, err)

	require.Equal(t, uint64(90), durationSeconds(90*time.Second))
	require.Equal(t, "spot", fmtDuration(0))
	require.Equal(t, "1 hour 30 minutes", fmtDuration(5400))
	require.Equal(t, "-", fmtAddr(address.Undef))

	a, err := parseAddress("")
	require.NoError(t, err)
	require.Equal(t, address.Undef, a)

	require.Equal(t, "1\ta\n", fmtRow(1, "a"))
}
