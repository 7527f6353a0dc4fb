package api

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/types"
)

// Market is the API of a capmarket daemon. Mutating methods take the
// identity they act for as an explicit caller argument.
type Market interface {
	Version(context.Context) (APIVersion, error)

	// MethodGroup: Order
	// The order book

	OrderPlace(ctx context.Context, spec types.OrderSpec, author address.Address) (uint64, error)
	OrderCancel(ctx context.Context, id uint64, caller address.Address) error
	OrderInfo(ctx context.Context, id uint64) (types.OrderInfo, error)
	OrderParams(ctx context.Context, id uint64) (types.OrderParams, error)
	// OrderList returns active orders, of one type unless typ is unknown.
	OrderList(ctx context.Context, typ types.OrderType) ([]types.Order, error)
	OrdersAmount(ctx context.Context) (uint64, error)

	// MethodGroup: Deal

	DealOpen(ctx context.Context, askID, bidID uint64, caller address.Address) (uint64, error)
	DealQuickBuy(ctx context.Context, askID uint64, duration uint64, caller address.Address) (uint64, error)
	// DealBill settles a deal up to now and returns the amount paid.
	DealBill(ctx context.Context, id uint64, caller address.Address) (abi.TokenAmount, error)
	DealClose(ctx context.Context, id uint64, blacklist types.BlacklistPerson, caller address.Address) error
	DealInfo(ctx context.Context, id uint64) (types.DealInfo, error)
	DealParams(ctx context.Context, id uint64) (types.DealParams, error)
	DealGet(ctx context.Context, id uint64) (types.Deal, error)
	DealList(ctx context.Context, filter types.DealFilter) ([]types.Deal, error)
	DealsAmount(ctx context.Context) (uint64, error)

	// MethodGroup: ChangeRequest

	ChangeRequestCreate(ctx context.Context, dealID uint64, price abi.TokenAmount, duration uint64, caller address.Address) (uint64, error)
	ChangeRequestCancel(ctx context.Context, id uint64, caller address.Address) error
	ChangeRequestInfo(ctx context.Context, id uint64) (types.ChangeRequest, error)
	ChangeRequestsAmount(ctx context.Context) (uint64, error)
	ChangeRequestsPending(ctx context.Context, dealID uint64) (PendingChangeRequests, error)

	// MethodGroup: Worker

	WorkerRegister(ctx context.Context, master, worker address.Address) error
	WorkerConfirm(ctx context.Context, worker, master address.Address) error
	WorkerRemove(ctx context.Context, worker, master, caller address.Address) error
	WorkerStatus(ctx context.Context, worker address.Address) (types.WorkerStatus, error)

	// MethodGroup: Blacklist

	BlacklistCheck(ctx context.Context, owner, who address.Address) (bool, error)
	BlacklistList(ctx context.Context, owner address.Address) ([]address.Address, error)

	// MethodGroup: Admin

	AdminSetBenchmarkCount(ctx context.Context, n uint64) error
	AdminSetNetflagsCount(ctx context.Context, n uint64) error
	// AdminSetRate overrides the oracle rate. Fails when the oracle is not
	// settable.
	AdminSetRate(ctx context.Context, rate big.Int) error

	MarketCounts(ctx context.Context) (MarketCounts, error)
	OracleRate(ctx context.Context) (big.Int, error)
	BenchmarksList(ctx context.Context) ([]BenchmarkInfo, error)

	// MethodGroup: Wallet
	// Balances of the node ledger

	WalletBalance(ctx context.Context, addr address.Address) (abi.TokenAmount, error)
	// WalletDeposit credits addr out of thin air. It is meant for development
	// networks and can be disabled in the config.
	WalletDeposit(ctx context.Context, addr address.Address, amt abi.TokenAmount) error
	WalletList(ctx context.Context) ([]AccountBalance, error)
}

// APIVersion provides various build-time information
type APIVersion struct {
	Version string

	// APIVersion is a binary encoded semver version of the remote implementing
	// this api
	APIVersion build.Version
}

type PendingChangeRequests struct {
	Consumer uint64
	Supplier uint64
}

type MarketCounts struct {
	Benchmarks uint64
	Netflags   uint64
}

type BenchmarkInfo struct {
	ID          uint64
	Code        string
	Type        string
	Description string
}

type AccountBalance struct {
	Address address.Address
	Balance abi.TokenAmount
}
