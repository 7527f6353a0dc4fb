package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/capmarket/capmarket/chain/types"
)

func TestRestore(t *testing.T) {
	s := setup(t)
	master := s.account(0)
	dealID, supplier, consumer := s.openDeal(3600, 20_000)
	s.placeBid(consumer, 0, unitPrice)

	require.NoError(t, s.m.RegisterWorker(s.ctx, master, supplier))
	require.NoError(t, s.m.SetBenchmarkCount(s.ctx, 14))

	s.clk.Add(5 * time.Minute)
	_, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	reqID, err := s.m.CreateChangeRequest(s.ctx, dealID, abi.NewTokenAmount(2_000_000), 3600, supplier)
	require.NoError(t, err)

	before := s.deal(dealID)
	orders := s.m.ListOrders(s.ctx, types.OrderTypeUnknown)

	restored := s.open()

	require.EqualValues(t, 3, restored.GetOrdersAmount(s.ctx))
	require.EqualValues(t, 1, restored.GetDealsAmount(s.ctx))
	require.EqualValues(t, 14, restored.GetBenchmarksQuantity(s.ctx))
	require.Len(t, restored.ListOrders(s.ctx, types.OrderTypeUnknown), len(orders))

	after, err := restored.GetDeal(s.ctx, dealID)
	require.NoError(t, err)
	require.Equal(t, before.Status, after.Status)
	require.Equal(t, before.LastBillTS, after.LastBillTS)
	require.Equal(t, before.Master, after.Master)
	require.Equal(t, before.BlockedBalance.String(), after.BlockedBalance.String())
	require.Equal(t, before.TotalPayout.String(), after.TotalPayout.String())

	require.Equal(t, master, restored.GetWorkerStatus(s.ctx, supplier).PendingMaster)

	c, sp := restored.PendingChangeRequests(s.ctx, dealID)
	require.Zero(t, c)
	require.Equal(t, reqID, sp)

	// the restored market keeps working where the old one stopped
	_, err = restored.CreateChangeRequest(s.ctx, dealID, abi.NewTokenAmount(2_000_000), 3600, consumer)
	require.NoError(t, err)
	d, err := restored.GetDeal(s.ctx, dealID)
	require.NoError(t, err)
	require.Equal(t, "2000000", d.Price.String())
}

func TestRemovedWorkerIsNotRestored(t *testing.T) {
	s := setup(t)
	master := s.account(0)
	worker := s.account(0)

	require.NoError(t, s.m.RegisterWorker(s.ctx, master, worker))
	require.NoError(t, s.m.RemoveWorker(s.ctx, worker, master, worker))

	restored := s.open()
	st := restored.GetWorkerStatus(s.ctx, worker)
	require.False(t, st.Confirmed)
	require.Equal(t, address.Undef, st.PendingMaster)
}

func TestEventKey(t *testing.T) {
	require.Equal(t, "deal_opened/4", Event{Type: EvtDealOpened, DealID: 4}.Key())
	require.Equal(t, "order_created/2", Event{Type: EvtOrderCreated, OrderID: 2}.Key())
	require.Equal(t, "change_request_resolved/9", Event{Type: EvtChangeRequestResolved, RequestID: 9}.Key())
	require.Equal(t, "benchmarks_updated/13", Event{Type: EvtBenchmarksUpdated, Count: 13}.Key())
}
