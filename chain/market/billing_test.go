package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/types"
)

func TestBillSpotRenewalFails(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(0, 3605)
	s.requireBalance(consumer, 5)

	s.clk.Add(time.Hour)
	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "3600", paid.String())

	d := s.deal(dealID)
	require.Equal(t, types.DealClosed, d.Status)
	require.Equal(t, "3600", d.TotalPayout.String())
	require.True(t, d.BlockedBalance.IsZero())

	s.requireBalance(supplier, 3600)
	s.requireBalance(consumer, 5)
	s.requireConserved(3605)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseRenewalFailed, evt.Reason)
}

func TestBillSpotRenews(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(0, 10_000)

	s.clk.Add(20 * time.Minute)
	paid, err := s.m.Bill(s.ctx, dealID, consumer)
	require.NoError(t, err)
	require.Equal(t, "1200", paid.String())

	// escrow is topped back up to one hour
	d := s.deal(dealID)
	require.Equal(t, types.DealAccepted, d.Status)
	require.Equal(t, "3600", d.BlockedBalance.String())
	s.requireBalance(consumer, 10_000-3600-1200)
	s.requireBalance(supplier, 1200)
	s.requireConserved(10_000)
}

func TestBillForwardExpires(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(3600, 3600)

	s.clk.Add(3603 * time.Second)
	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "3600", paid.String())

	d := s.deal(dealID)
	require.Equal(t, types.DealClosed, d.Status)
	require.Equal(t, d.StartTime+3600, d.EndTime)
	require.Equal(t, d.EndTime, d.LastBillTS)
	s.requireBalance(supplier, 3600)
	s.requireBalance(consumer, 0)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseExpired, evt.Reason)

	_, err = s.m.Bill(s.ctx, dealID, supplier)
	require.ErrorIs(t, err, ErrDealNotActive)
}

func TestBillForwardPartial(t *testing.T) {
	s := setup(t)
	dealID, supplier, _ := s.openDeal(3600, 3600)

	s.clk.Add(3597 * time.Second)
	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "3597", paid.String())

	d := s.deal(dealID)
	require.Equal(t, types.DealAccepted, d.Status)
	require.Equal(t, "3", d.BlockedBalance.String())

	// billing twice at the same instant pays nothing
	paid, err = s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.True(t, paid.IsZero())
}

func TestBillRateSpike(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(3600, 3600)

	s.clk.Add(30 * time.Minute)
	require.NoError(t, s.oracle.SetRate(big.NewInt(1e13)))

	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "3600", paid.String())

	d := s.deal(dealID)
	require.Equal(t, types.DealClosed, d.Status)
	s.requireBalance(supplier, 3600)
	s.requireBalance(consumer, 0)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseUnderfunded, evt.Reason)
}

func TestBillSpotRateSpike(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(0, 10_000)

	s.clk.Add(3597 * time.Second)
	require.NoError(t, s.oracle.SetRate(big.Mul(build.DefaultOracleRate, big.NewInt(10))))

	// ten times the price is due, only the hour held is paid
	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "3600", paid.String())

	d := s.deal(dealID)
	require.Equal(t, types.DealClosed, d.Status)
	require.True(t, d.BlockedBalance.IsZero())
	require.Equal(t, "3600", d.TotalPayout.String())
	s.requireBalance(supplier, 3600)
	s.requireBalance(consumer, 10_000-3600)
	s.requireConserved(10_000)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseUnderfunded, evt.Reason)
}

func TestBillPaysMaster(t *testing.T) {
	s := setup(t)
	master := s.account(0)
	worker := s.account(0)
	consumer := s.account(10_000)

	require.NoError(t, s.m.RegisterWorker(s.ctx, master, worker))
	require.NoError(t, s.m.ConfirmWorker(s.ctx, worker, master))

	ask := s.placeAsk(worker, 3600, unitPrice)
	bid := s.placeBid(consumer, 3600, unitPrice)
	dealID, err := s.m.OpenDeal(s.ctx, ask, bid, master)
	require.NoError(t, err)
	require.Equal(t, master, s.deal(dealID).Master)

	s.clk.Add(10 * time.Minute)
	_, err = s.m.Bill(s.ctx, dealID, master)
	require.NoError(t, err)
	s.requireBalance(master, 600)
	s.requireBalance(worker, 0)

	// removing the worker does not redirect payouts of open deals
	require.NoError(t, s.m.RemoveWorker(s.ctx, worker, master, worker))
	s.clk.Add(10 * time.Minute)
	_, err = s.m.Bill(s.ctx, dealID, worker)
	require.NoError(t, err)
	s.requireBalance(master, 1200)
	s.requireBalance(worker, 0)
}

func TestBillUnauthorized(t *testing.T) {
	s := setup(t)
	dealID, _, _ := s.openDeal(3600, 3600)

	_, err := s.m.Bill(s.ctx, dealID, s.account(0))
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.m.Bill(s.ctx, 7, s.account(0))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCloseDealByConsumer(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(3600, 5000)

	s.clk.Add(15 * time.Minute)

	// the supplier must wait for the deal to end
	require.ErrorIs(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, supplier), ErrUnauthorized)

	require.NoError(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, consumer))

	d := s.deal(dealID)
	require.Equal(t, types.DealClosed, d.Status)
	require.Equal(t, uint64(s.clk.Now().Unix()), d.EndTime)
	s.requireBalance(supplier, 900)
	s.requireBalance(consumer, 5000-900)
	s.requireConserved(5000)

	require.ErrorIs(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, consumer), ErrDealNotActive)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseByParty, evt.Reason)
}

func TestCloseDealBySupplierAfterEnd(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(600, 5000)

	s.clk.Add(time.Hour)
	require.NoError(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, supplier))

	s.requireBalance(supplier, 600)
	s.requireBalance(consumer, 5000-600)

	evt, ok := s.lastEvent(EvtDealClosed)
	require.True(t, ok)
	require.Equal(t, CloseExpired, evt.Reason)
}

func TestCloseDealSpotSupplierCannotClose(t *testing.T) {
	s := setup(t)
	dealID, supplier, _ := s.openDeal(0, 5000)

	s.clk.Add(2 * time.Hour)
	require.ErrorIs(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, supplier), ErrUnauthorized)
}

func TestCloseDealBlacklist(t *testing.T) {
	s := setup(t)
	master := s.account(0)
	worker := s.account(0)
	sibling := s.account(0)
	consumer := s.account(100_000)

	require.NoError(t, s.m.RegisterWorker(s.ctx, master, worker))
	require.NoError(t, s.m.ConfirmWorker(s.ctx, worker, master))
	require.NoError(t, s.m.RegisterWorker(s.ctx, master, sibling))
	require.NoError(t, s.m.ConfirmWorker(s.ctx, sibling, master))

	ask := s.placeAsk(worker, 0, unitPrice)
	bid := s.placeBid(consumer, 0, unitPrice)
	dealID, err := s.m.OpenDeal(s.ctx, ask, bid, consumer)
	require.NoError(t, err)

	// only the consumer may blacklist
	s.clk.Add(time.Minute)
	require.ErrorIs(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistWorker, master), ErrUnauthorized)

	require.NoError(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistWorker, consumer))
	banned, err := s.bl.Check(s.ctx, consumer, worker)
	require.NoError(t, err)
	require.True(t, banned)

	// the worker is banned, its sibling under the same master is not
	_, err = s.m.OpenDeal(s.ctx, s.placeAsk(worker, 0, unitPrice), s.placeBid(consumer, 0, unitPrice), consumer)
	require.ErrorIs(t, err, ErrBlacklisted)

	siblingDeal, err := s.m.OpenDeal(s.ctx, s.placeAsk(sibling, 0, unitPrice), s.placeBid(consumer, 0, unitPrice), consumer)
	require.NoError(t, err)

	// banning the master shuts out every worker it pays for
	require.NoError(t, s.m.CloseDeal(s.ctx, siblingDeal, types.BlacklistMaster, consumer))
	_, err = s.m.OpenDeal(s.ctx, s.placeAsk(sibling, 0, unitPrice), s.placeBid(consumer, 0, unitPrice), consumer)
	require.ErrorIs(t, err, ErrBlacklisted)
}

func TestCloseDealCancelsChangeRequests(t *testing.T) {
	s := setup(t)
	dealID, supplier, consumer := s.openDeal(3600, 10_000)

	reqID, err := s.m.CreateChangeRequest(s.ctx, dealID, big.NewInt(2_000_000), 3600, supplier)
	require.NoError(t, err)

	require.NoError(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistNobody, consumer))

	r, err := s.m.GetChangeRequestInfo(s.ctx, reqID)
	require.NoError(t, err)
	require.Equal(t, types.RequestCanceled, r.Status)

	c, sp := s.m.PendingChangeRequests(s.ctx, dealID)
	require.Zero(t, c)
	require.Zero(t, sp)
}
