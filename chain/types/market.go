package types

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
)

// Order is a resting ask or bid in the order book.
type Order struct {
	ID     uint64
	Type   OrderType
	Status OrderStatus
	Author address.Address

	// Counterparty restricts who may match the order. address.Undef admits anyone.
	Counterparty address.Address

	// Duration in seconds, zero for spot orders.
	Duration uint64
	// Price per second in price units.
	Price abi.TokenAmount

	Netflags      []bool
	IdentityLevel IdentityLevel

	// Blacklist names a participant whose blacklist screens the counterparty.
	// address.Undef disables the screen.
	Blacklist address.Address

	Tag        []byte
	Benchmarks []uint64

	// FrozenSum is the escrow held for a bid, always zero for asks.
	FrozenSum abi.TokenAmount
	DealID    uint64
}

func (o *Order) Spot() bool {
	return o.Duration == 0
}

func (o *Order) Info() OrderInfo {
	return OrderInfo{
		Type:          o.Type,
		Author:        o.Author,
		Counterparty:  o.Counterparty,
		Duration:      o.Duration,
		Price:         o.Price,
		Netflags:      append([]bool(nil), o.Netflags...),
		IdentityLevel: o.IdentityLevel,
		Blacklist:     o.Blacklist,
		Tag:           append([]byte(nil), o.Tag...),
		Benchmarks:    append([]uint64(nil), o.Benchmarks...),
		FrozenSum:     o.FrozenSum,
	}
}

func (o *Order) Params() OrderParams {
	return OrderParams{Status: o.Status, DealID: o.DealID}
}

// OrderInfo is the immutable part of an order.
type OrderInfo struct {
	Type          OrderType
	Author        address.Address
	Counterparty  address.Address
	Duration      uint64
	Price         abi.TokenAmount
	Netflags      []bool
	IdentityLevel IdentityLevel
	Blacklist     address.Address
	Tag           []byte
	Benchmarks    []uint64
	FrozenSum     abi.TokenAmount
}

type OrderParams struct {
	Status OrderStatus
	DealID uint64
}

// Deal is a matched ask and bid. Times are unix seconds.
type Deal struct {
	ID    uint64
	AskID uint64
	// BidID is zero for deals opened through QuickBuy.
	BidID uint64

	Supplier address.Address
	Consumer address.Address
	// Master receives the payouts. It is the supplier's confirmed master
	// at open time, or the supplier itself.
	Master address.Address

	Benchmarks []uint64

	Price    abi.TokenAmount
	Duration uint64

	StartTime  uint64
	EndTime    uint64
	LastBillTS uint64

	BlockedBalance abi.TokenAmount
	TotalPayout    abi.TokenAmount

	Status DealStatus
}

func (d *Deal) Spot() bool {
	return d.Duration == 0
}

func (d *Deal) Info() DealInfo {
	return DealInfo{
		ID:         d.ID,
		Benchmarks: append([]uint64(nil), d.Benchmarks...),
		Supplier:   d.Supplier,
		Consumer:   d.Consumer,
		Master:     d.Master,
		AskID:      d.AskID,
		BidID:      d.BidID,
		StartTime:  d.StartTime,
	}
}

func (d *Deal) Params() DealParams {
	return DealParams{
		Duration:       d.Duration,
		Price:          d.Price,
		EndTime:        d.EndTime,
		Status:         d.Status,
		BlockedBalance: d.BlockedBalance,
		TotalPayout:    d.TotalPayout,
		LastBillTS:     d.LastBillTS,
	}
}

type DealInfo struct {
	ID         uint64
	Benchmarks []uint64
	Supplier   address.Address
	Consumer   address.Address
	Master     address.Address
	AskID      uint64
	BidID      uint64
	StartTime  uint64
}

type DealParams struct {
	Duration       uint64
	Price          abi.TokenAmount
	EndTime        uint64
	Status         DealStatus
	BlockedBalance abi.TokenAmount
	TotalPayout    abi.TokenAmount
	LastBillTS     uint64
}

// DealFilter selects deals in ListDeals. Zero fields match everything.
type DealFilter struct {
	Status DealStatus
	Party  address.Address
}

func (f DealFilter) Match(d *Deal) bool {
	if f.Status != DealStatusUnknown && d.Status != f.Status {
		return false
	}
	if f.Party != address.Undef && d.Supplier != f.Party && d.Consumer != f.Party && d.Master != f.Party {
		return false
	}
	return true
}

// ChangeRequest is a proposal to change the price and duration of a deal.
type ChangeRequest struct {
	ID       uint64
	DealID   uint64
	Role     Role
	Price    abi.TokenAmount
	Duration uint64
	Status   RequestStatus
}

// WorkerRelation tracks the master a worker delegates its payouts to.
type WorkerRelation struct {
	Worker address.Address
	// PendingMaster is announced by the worker and awaits confirmation.
	PendingMaster address.Address
	// ConfirmedMaster is address.Undef while the worker is its own master.
	ConfirmedMaster address.Address
}

// Unaffiliated reports whether the worker has neither a pending nor a
// confirmed master.
func (r *WorkerRelation) Unaffiliated() bool {
	return r.PendingMaster == address.Undef && r.ConfirmedMaster == address.Undef
}

type WorkerStatus struct {
	Worker        address.Address
	Master        address.Address
	PendingMaster address.Address
	Confirmed     bool
}

// OrderSpec is what an author submits to place an order.
type OrderSpec struct {
	Type          OrderType
	Counterparty  address.Address
	Duration      uint64
	Price         abi.TokenAmount
	Netflags      []bool
	IdentityLevel IdentityLevel
	Blacklist     address.Address
	Tag           []byte
	Benchmarks    []uint64
}
