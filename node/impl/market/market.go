package market

import (
	"context"
	"sort"

	"go.uber.org/fx"
	"golang.org/x/xerrors"

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
	"github.com/capmarket/capmarket/node/modules/dtypes"
)

// ErrRateNotSettable is returned by AdminSetRate when the node runs an
// oracle without an operator override.
var ErrRateNotSettable = xerrors.New("oracle rate is not settable")

type rateSetter interface {
	SetRate(big.Int) error
}

type MarketAPI struct {
	fx.In

	Market     *market.Market
	Ledger     *ledger.Store
	Blacklist  *blacklist.Store
	Oracle     oracle.PriceOracle
	Benchmarks *benchmarks.List

	AllowDeposits dtypes.AllowDeposits
}

var _ api.Market = &MarketAPI{}

func (a *MarketAPI) Version(context.Context) (api.APIVersion, error) {
	return api.APIVersion{
		Version:    build.UserVersion(),
		APIVersion: build.MarketAPIVersion,
	}, nil
}

func (a *MarketAPI) OrderPlace(ctx context.Context, spec types.OrderSpec, author address.Address) (uint64, error) {
	id, err := a.Market.PlaceOrder(ctx, spec, author)
	return id, api.WireError(err)
}

func (a *MarketAPI) OrderCancel(ctx context.Context, id uint64, caller address.Address) error {
	return api.WireError(a.Market.CancelOrder(ctx, id, caller))
}

func (a *MarketAPI) OrderInfo(ctx context.Context, id uint64) (types.OrderInfo, error) {
	info, err := a.Market.GetOrderInfo(ctx, id)
	return info, api.WireError(err)
}

func (a *MarketAPI) OrderParams(ctx context.Context, id uint64) (types.OrderParams, error) {
	params, err := a.Market.GetOrderParams(ctx, id)
	return params, api.WireError(err)
}

func (a *MarketAPI) OrderList(ctx context.Context, typ types.OrderType) ([]types.Order, error) {
	return a.Market.ListOrders(ctx, typ), nil
}

func (a *MarketAPI) OrdersAmount(ctx context.Context) (uint64, error) {
	return a.Market.GetOrdersAmount(ctx), nil
}

func (a *MarketAPI) DealOpen(ctx context.Context, askID, bidID uint64, caller address.Address) (uint64, error) {
	id, err := a.Market.OpenDeal(ctx, askID, bidID, caller)
	return id, api.WireError(err)
}

func (a *MarketAPI) DealQuickBuy(ctx context.Context, askID uint64, duration uint64, caller address.Address) (uint64, error) {
	id, err := a.Market.QuickBuy(ctx, askID, duration, caller)
	return id, api.WireError(err)
}

func (a *MarketAPI) DealBill(ctx context.Context, id uint64, caller address.Address) (abi.TokenAmount, error) {
	paid, err := a.Market.Bill(ctx, id, caller)
	return paid, api.WireError(err)
}

func (a *MarketAPI) DealClose(ctx context.Context, id uint64, target types.BlacklistPerson, caller address.Address) error {
	return api.WireError(a.Market.CloseDeal(ctx, id, target, caller))
}

func (a *MarketAPI) DealInfo(ctx context.Context, id uint64) (types.DealInfo, error) {
	info, err := a.Market.GetDealInfo(ctx, id)
	return info, api.WireError(err)
}

func (a *MarketAPI) DealParams(ctx context.Context, id uint64) (types.DealParams, error) {
	params, err := a.Market.GetDealParams(ctx, id)
	return params, api.WireError(err)
}

func (a *MarketAPI) DealGet(ctx context.Context, id uint64) (types.Deal, error) {
	d, err := a.Market.GetDeal(ctx, id)
	return d, api.WireError(err)
}

func (a *MarketAPI) DealList(ctx context.Context, filter types.DealFilter) ([]types.Deal, error) {
	return a.Market.ListDeals(ctx, filter), nil
}

func (a *MarketAPI) DealsAmount(ctx context.Context) (uint64, error) {
	return a.Market.GetDealsAmount(ctx), nil
}

func (a *MarketAPI) ChangeRequestCreate(ctx context.Context, dealID uint64, price abi.TokenAmount, duration uint64, caller address.Address) (uint64, error) {
	id, err := a.Market.CreateChangeRequest(ctx, dealID, price, duration, caller)
	return id, api.WireError(err)
}

func (a *MarketAPI) ChangeRequestCancel(ctx context.Context, id uint64, caller address.Address) error {
	return api.WireError(a.Market.CancelChangeRequest(ctx, id, caller))
}

func (a *MarketAPI) ChangeRequestInfo(ctx context.Context, id uint64) (types.ChangeRequest, error) {
	r, err := a.Market.GetChangeRequestInfo(ctx, id)
	return r, api.WireError(err)
}

func (a *MarketAPI) ChangeRequestsAmount(ctx context.Context) (uint64, error) {
	return a.Market.GetChangeRequestsAmount(ctx), nil
}

func (a *MarketAPI) ChangeRequestsPending(ctx context.Context, dealID uint64) (api.PendingChangeRequests, error) {
	consumer, supplier := a.Market.PendingChangeRequests(ctx, dealID)
	return api.PendingChangeRequests{Consumer: consumer, Supplier: supplier}, nil
}

func (a *MarketAPI) WorkerRegister(ctx context.Context, master, worker address.Address) error {
	return api.WireError(a.Market.RegisterWorker(ctx, master, worker))
}

func (a *MarketAPI) WorkerConfirm(ctx context.Context, worker, master address.Address) error {
	return api.WireError(a.Market.ConfirmWorker(ctx, worker, master))
}

func (a *MarketAPI) WorkerRemove(ctx context.Context, worker, master, caller address.Address) error {
	return api.WireError(a.Market.RemoveWorker(ctx, worker, master, caller))
}

func (a *MarketAPI) WorkerStatus(ctx context.Context, worker address.Address) (types.WorkerStatus, error) {
	return a.Market.GetWorkerStatus(ctx, worker), nil
}

func (a *MarketAPI) BlacklistCheck(ctx context.Context, owner, who address.Address) (bool, error) {
	return a.Blacklist.Check(ctx, owner, who)
}

func (a *MarketAPI) BlacklistList(ctx context.Context, owner address.Address) ([]address.Address, error) {
	return a.Blacklist.List(ctx, owner)
}

func (a *MarketAPI) AdminSetBenchmarkCount(ctx context.Context, n uint64) error {
	return api.WireError(a.Market.SetBenchmarkCount(ctx, n))
}

func (a *MarketAPI) AdminSetNetflagsCount(ctx context.Context, n uint64) error {
	return api.WireError(a.Market.SetNetflagsCount(ctx, n))
}

func (a *MarketAPI) AdminSetRate(ctx context.Context, rate big.Int) error {
	s, ok := a.Oracle.(rateSetter)
	if !ok {
		return ErrRateNotSettable
	}
	return s.SetRate(rate)
}

func (a *MarketAPI) MarketCounts(ctx context.Context) (api.MarketCounts, error) {
	return api.MarketCounts{
		Benchmarks: a.Market.GetBenchmarksQuantity(ctx),
		Netflags:   a.Market.GetNetflagsQuantity(ctx),
	}, nil
}

func (a *MarketAPI) OracleRate(ctx context.Context) (big.Int, error) {
	return a.Oracle.CurrentRate(ctx)
}

func (a *MarketAPI) BenchmarksList(ctx context.Context) ([]api.BenchmarkInfo, error) {
	out := make([]api.BenchmarkInfo, 0, a.Benchmarks.Len())
	for id := uint64(0); id < a.Benchmarks.Len(); id++ {
		b, ok := a.Benchmarks.ByID(id)
		if !ok {
			continue
		}
		out = append(out, api.BenchmarkInfo{
			ID:          b.ID,
			Code:        b.Code,
			Type:        string(b.Type),
			Description: b.Description,
		})
	}
	return out, nil
}

func (a *MarketAPI) WalletBalance(ctx context.Context, addr address.Address) (abi.TokenAmount, error) {
	return a.Ledger.Balance(ctx, addr)
}

func (a *MarketAPI) WalletDeposit(ctx context.Context, addr address.Address, amt abi.TokenAmount) error {
	if !a.AllowDeposits {
		return xerrors.Errorf("deposits are disabled on this node")
	}
	if amt.Int == nil || amt.Sign() <= 0 {
		return xerrors.Errorf("deposit amount must be positive")
	}
	if addr == address.Undef {
		return xerrors.Errorf("deposit address is undefined")
	}
	return a.Ledger.Credit(ctx, addr, amt)
}

func (a *MarketAPI) WalletList(ctx context.Context) ([]api.AccountBalance, error) {
	balances, err := a.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.AccountBalance, 0, len(balances))
	for addr, bal := range balances {
		out = append(out, api.AccountBalance{Address: addr, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.String() < out[j].Address.String()
	})
	return out, nil
}
