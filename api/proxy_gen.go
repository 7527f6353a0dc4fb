package api

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/types"
)

// MarketStruct is the client side proxy of Market. Its Internal functions
// are filled in by the JSON-RPC client.
type MarketStruct struct {
	Internal struct {
		Version func(context.Context) (APIVersion, error)

		OrderPlace   func(context.Context, types.OrderSpec, address.Address) (uint64, error)
		OrderCancel  func(context.Context, uint64, address.Address) error
		OrderInfo    func(context.Context, uint64) (types.OrderInfo, error)
		OrderParams  func(context.Context, uint64) (types.OrderParams, error)
		OrderList    func(context.Context, types.OrderType) ([]types.Order, error)
		OrdersAmount func(context.Context) (uint64, error)

		DealOpen     func(context.Context, uint64, uint64, address.Address) (uint64, error)
		DealQuickBuy func(context.Context, uint64, uint64, address.Address) (uint64, error)
		DealBill     func(context.Context, uint64, address.Address) (abi.TokenAmount, error)
		DealClose    func(context.Context, uint64, types.BlacklistPerson, address.Address) error
		DealInfo     func(context.Context, uint64) (types.DealInfo, error)
		DealParams   func(context.Context, uint64) (types.DealParams, error)
		DealGet      func(context.Context, uint64) (types.Deal, error)
		DealList     func(context.Context, types.DealFilter) ([]types.Deal, error)
		DealsAmount  func(context.Context) (uint64, error)

		ChangeRequestCreate   func(context.Context, uint64, abi.TokenAmount, uint64, address.Address) (uint64, error)
		ChangeRequestCancel   func(context.Context, uint64, address.Address) error
		ChangeRequestInfo     func(context.Context, uint64) (types.ChangeRequest, error)
		ChangeRequestsAmount  func(context.Context) (uint64, error)
		ChangeRequestsPending func(context.Context, uint64) (PendingChangeRequests, error)

		WorkerRegister func(context.Context, address.Address, address.Address) error
		WorkerConfirm  func(context.Context, address.Address, address.Address) error
		WorkerRemove   func(context.Context, address.Address, address.Address, address.Address) error
		WorkerStatus   func(context.Context, address.Address) (types.WorkerStatus, error)

		BlacklistCheck func(context.Context, address.Address, address.Address) (bool, error)
		BlacklistList  func(context.Context, address.Address) ([]address.Address, error)

		AdminSetBenchmarkCount func(context.Context, uint64) error
		AdminSetNetflagsCount  func(context.Context, uint64) error
		AdminSetRate           func(context.Context, big.Int) error

		MarketCounts   func(context.Context) (MarketCounts, error)
		OracleRate     func(context.Context) (big.Int, error)
		BenchmarksList func(context.Context) ([]BenchmarkInfo, error)

		WalletBalance func(context.Context, address.Address) (abi.TokenAmount, error)
		WalletDeposit func(context.Context, address.Address, abi.TokenAmount) error
		WalletList    func(context.Context) ([]AccountBalance, error)
	}
}

var _ Market = &MarketStruct{}

func (s *MarketStruct) Version(p0 context.Context) (APIVersion, error) {
	return s.Internal.Version(p0)
}

func (s *MarketStruct) OrderPlace(p0 context.Context, p1 types.OrderSpec, p2 address.Address) (uint64, error) {
	return s.Internal.OrderPlace(p0, p1, p2)
}

func (s *MarketStruct) OrderCancel(p0 context.Context, p1 uint64, p2 address.Address) error {
	return s.Internal.OrderCancel(p0, p1, p2)
}

func (s *MarketStruct) OrderInfo(p0 context.Context, p1 uint64) (types.OrderInfo, error) {
	return s.Internal.OrderInfo(p0, p1)
}

func (s *MarketStruct) OrderParams(p0 context.Context, p1 uint64) (types.OrderParams, error) {
	return s.Internal.OrderParams(p0, p1)
}

func (s *MarketStruct) OrderList(p0 context.Context, p1 types.OrderType) ([]types.Order, error) {
	return s.Internal.OrderList(p0, p1)
}

func (s *MarketStruct) OrdersAmount(p0 context.Context) (uint64, error) {
	return s.Internal.OrdersAmount(p0)
}

func (s *MarketStruct) DealOpen(p0 context.Context, p1 uint64, p2 uint64, p3 address.Address) (uint64, error) {
	return s.Internal.DealOpen(p0, p1, p2, p3)
}

func (s *MarketStruct) DealQuickBuy(p0 context.Context, p1 uint64, p2 uint64, p3 address.Address) (uint64, error) {
	return s.Internal.DealQuickBuy(p0, p1, p2, p3)
}

func (s *MarketStruct) DealBill(p0 context.Context, p1 uint64, p2 address.Address) (abi.TokenAmount, error) {
	return s.Internal.DealBill(p0, p1, p2)
}

func (s *MarketStruct) DealClose(p0 context.Context, p1 uint64, p2 types.BlacklistPerson, p3 address.Address) error {
	return s.Internal.DealClose(p0, p1, p2, p3)
}

func (s *MarketStruct) DealInfo(p0 context.Context, p1 uint64) (types.DealInfo, error) {
	return s.Internal.DealInfo(p0, p1)
}

func (s *MarketStruct) DealParams(p0 context.Context, p1 uint64) (types.DealParams, error) {
	return s.Internal.DealParams(p0, p1)
}

func (s *MarketStruct) DealGet(p0 context.Context, p1 uint64) (types.Deal, error) {
	return s.Internal.DealGet(p0, p1)
}

func (s *MarketStruct) DealList(p0 context.Context, p1 types.DealFilter) ([]types.Deal, error) {
	return s.Internal.DealList(p0, p1)
}

func (s *MarketStruct) DealsAmount(p0 context.Context) (uint64, error) {
	return s.Internal.DealsAmount(p0)
}

func (s *MarketStruct) ChangeRequestCreate(p0 context.Context, p1 uint64, p2 abi.TokenAmount, p3 uint64, p4 address.Address) (uint64, error) {
	return s.Internal.ChangeRequestCreate(p0, p1, p2, p3, p4)
}

func (s *MarketStruct) ChangeRequestCancel(p0 context.Context, p1 uint64, p2 address.Address) error {
	return s.Internal.ChangeRequestCancel(p0, p1, p2)
}

func (s *MarketStruct) ChangeRequestInfo(p0 context.Context, p1 uint64) (types.ChangeRequest, error) {
	return s.Internal.ChangeRequestInfo(p0, p1)
}

func (s *MarketStruct) ChangeRequestsAmount(p0 context.Context) (uint64, error) {
	return s.Internal.ChangeRequestsAmount(p0)
}

func (s *MarketStruct) ChangeRequestsPending(p0 context.Context, p1 uint64) (PendingChangeRequests, error) {
	return s.Internal.ChangeRequestsPending(p0, p1)
}

func (s *MarketStruct) WorkerRegister(p0 context.Context, p1 address.Address, p2 address.Address) error {
	return s.Internal.WorkerRegister(p0, p1, p2)
}

func (s *MarketStruct) WorkerConfirm(p0 context.Context, p1 address.Address, p2 address.Address) error {
	return s.Internal.WorkerConfirm(p0, p1, p2)
}

func (s *MarketStruct) WorkerRemove(p0 context.Context, p1 address.Address, p2 address.Address, p3 address.Address) error {
	return s.Internal.WorkerRemove(p0, p1, p2, p3)
}

func (s *MarketStruct) WorkerStatus(p0 context.Context, p1 address.Address) (types.WorkerStatus, error) {
	return s.Internal.WorkerStatus(p0, p1)
}

func (s *MarketStruct) BlacklistCheck(p0 context.Context, p1 address.Address, p2 address.Address) (bool, error) {
	return s.Internal.BlacklistCheck(p0, p1, p2)
}

func (s *MarketStruct) BlacklistList(p0 context.Context, p1 address.Address) ([]address.Address, error) {
	return s.Internal.BlacklistList(p0, p1)
}

func (s *MarketStruct) AdminSetBenchmarkCount(p0 context.Context, p1 uint64) error {
	return s.Internal.AdminSetBenchmarkCount(p0, p1)
}

func (s *MarketStruct) AdminSetNetflagsCount(p0 context.Context, p1 uint64) error {
	return s.Internal.AdminSetNetflagsCount(p0, p1)
}

func (s *MarketStruct) AdminSetRate(p0 context.Context, p1 big.Int) error {
	return s.Internal.AdminSetRate(p0, p1)
}

func (s *MarketStruct) MarketCounts(p0 context.Context) (MarketCounts, error) {
	return s.Internal.MarketCounts(p0)
}

func (s *MarketStruct) OracleRate(p0 context.Context) (big.Int, error) {
	return s.Internal.OracleRate(p0)
}

func (s *MarketStruct) BenchmarksList(p0 context.Context) ([]BenchmarkInfo, error) {
	return s.Internal.BenchmarksList(p0)
}

func (s *MarketStruct) WalletBalance(p0 context.Context, p1 address.Address) (abi.TokenAmount, error) {
	return s.Internal.WalletBalance(p0, p1)
}

func (s *MarketStruct) WalletDeposit(p0 context.Context, p1 address.Address, p2 abi.TokenAmount) error {
	return s.Internal.WalletDeposit(p0, p1, p2)
}

func (s *MarketStruct) WalletList(p0 context.Context) ([]AccountBalance, error) {
	return s.Internal.WalletList(p0)
}
