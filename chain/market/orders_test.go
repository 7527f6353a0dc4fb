package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/types"
)

func TestPlaceOrderEscrowsBid(t *testing.T) {
	s := setup(t)
	consumer := s.account(10_000)

	spot := s.placeBid(consumer, 0, unitPrice)
	s.requireBalance(consumer, 10_000-3600)

	fwd := s.placeBid(consumer, 1200, unitPrice)
	s.requireBalance(consumer, 10_000-3600-1200)

	info, err := s.m.GetOrderInfo(s.ctx, spot)
	require.NoError(t, err)
	require.Equal(t, "3600", info.FrozenSum.String())
	require.Equal(t, types.Bid, info.Type)
	require.Equal(t, consumer, info.Author)

	params, err := s.m.GetOrderParams(s.ctx, fwd)
	require.NoError(t, err)
	require.Equal(t, types.OrderActive, params.Status)
	require.Zero(t, params.DealID)

	require.EqualValues(t, 2, s.m.GetOrdersAmount(s.ctx))
	require.Equal(t, []EventType{EvtOrderCreated, EvtOrderCreated}, s.eventTypes())
	s.requireConserved(10_000)
}

func TestPlaceOrderAskIsFree(t *testing.T) {
	s := setup(t)
	supplier := s.account(0)

	id := s.placeAsk(supplier, 3600, unitPrice)
	info, err := s.m.GetOrderInfo(s.ctx, id)
	require.NoError(t, err)
	require.True(t, info.FrozenSum.IsZero())
	s.requireBalance(supplier, 0)
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	s := setup(t)
	consumer := s.account(3599)

	_, err := s.m.PlaceOrder(s.ctx, orderSpec(types.Bid, 0, unitPrice), consumer)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// nothing was recorded
	require.Zero(t, s.m.GetOrdersAmount(s.ctx))
	require.Empty(t, s.eventTypes())
	s.requireBalance(consumer, 3599)
}

func TestPlaceOrderValidation(t *testing.T) {
	s := setup(t)
	author := s.account(1_000_000)

	testCases := map[string]func(spec *types.OrderSpec){
		"unknown type":        func(spec *types.OrderSpec) { spec.Type = types.OrderTypeUnknown },
		"negative price":      func(spec *types.OrderSpec) { spec.Price = abi.NewTokenAmount(-1) },
		"nil price":           func(spec *types.OrderSpec) { spec.Price = big.Int{} },
		"too few benchmarks":  func(spec *types.OrderSpec) { spec.Benchmarks = spec.Benchmarks[:3] },
		"too many benchmarks": func(spec *types.OrderSpec) { spec.Benchmarks = make([]uint64, 20) },
		"too many netflags":   func(spec *types.OrderSpec) { spec.Netflags = make([]bool, 4) },
		"endless duration":    func(spec *types.OrderSpec) { spec.Duration = math.MaxUint64 },
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			spec := orderSpec(types.Bid, 0, unitPrice)
			mutate(&spec)
			_, err := s.m.PlaceOrder(s.ctx, spec, author)
			require.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
	require.Zero(t, s.m.GetOrdersAmount(s.ctx))
}

func TestCancelOrder(t *testing.T) {
	s := setup(t)
	consumer := s.account(5000)
	other := s.account(0)

	id := s.placeBid(consumer, 0, unitPrice)
	s.requireBalance(consumer, 1400)

	require.ErrorIs(t, s.m.CancelOrder(s.ctx, id, other), ErrNotAuthor)

	require.NoError(t, s.m.CancelOrder(s.ctx, id, consumer))
	s.requireBalance(consumer, 5000)

	params, err := s.m.GetOrderParams(s.ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.OrderInactive, params.Status)

	require.ErrorIs(t, s.m.CancelOrder(s.ctx, id, consumer), ErrOrderNotActive)
	s.requireBalance(consumer, 5000)

	require.ErrorIs(t, s.m.CancelOrder(s.ctx, 42, consumer), ErrNotFound)

	evt, ok := s.lastEvent(EvtOrderCanceled)
	require.True(t, ok)
	require.Equal(t, id, evt.OrderID)
	require.Equal(t, types.Bid, evt.OrderType)
}

func TestListOrders(t *testing.T) {
	s := setup(t)
	supplier := s.account(0)
	consumer := s.account(10_000)

	ask := s.placeAsk(supplier, 0, unitPrice)
	bid := s.placeBid(consumer, 0, unitPrice)
	s.placeAsk(supplier, 0, unitPrice)

	require.Len(t, s.m.ListOrders(s.ctx, types.OrderTypeUnknown), 3)
	require.Len(t, s.m.ListOrders(s.ctx, types.Ask), 2)
	require.Len(t, s.m.ListOrders(s.ctx, types.Bid), 1)

	_, err := s.m.OpenDeal(s.ctx, ask, bid, consumer)
	require.NoError(t, err)

	// matched orders leave the book
	require.Len(t, s.m.ListOrders(s.ctx, types.OrderTypeUnknown), 1)
}
