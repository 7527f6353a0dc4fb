package api

import (
	"errors"

	"github.com/filecoin-project/go-jsonrpc"

	"github.com/capmarket/capmarket/chain/market"
)

const (
	ENotFound = iota + jsonrpc.FirstUserCode
	EUnauthorized
	ENotAuthor
	EInsufficientFunds
	EOrderNotActive
	EDealNotActive
	EInvalidState
	EInvalidOrder
	EIncompatibleOrders
	EBlacklisted
	EInvalidChange
	ENoSuchAnnouncement
)

var (
	RPCErrors = jsonrpc.NewErrors()

	_ error = (*ErrNotFound)(nil)
	_ error = (*ErrUnauthorized)(nil)
	_ error = (*ErrNotAuthor)(nil)
	_ error = (*ErrInsufficientFunds)(nil)
	_ error = (*ErrOrderNotActive)(nil)
	_ error = (*ErrDealNotActive)(nil)
	_ error = (*ErrInvalidState)(nil)
	_ error = (*ErrInvalidOrder)(nil)
	_ error = (*ErrIncompatibleOrders)(nil)
	_ error = (*ErrBlacklisted)(nil)
	_ error = (*ErrInvalidChange)(nil)
	_ error = (*ErrNoSuchAnnouncement)(nil)
)

func init() {
	RPCErrors.Register(ENotFound, new(*ErrNotFound))
	RPCErrors.Register(EUnauthorized, new(*ErrUnauthorized))
	RPCErrors.Register(ENotAuthor, new(*ErrNotAuthor))
	RPCErrors.Register(EInsufficientFunds, new(*ErrInsufficientFunds))
	RPCErrors.Register(EOrderNotActive, new(*ErrOrderNotActive))
	RPCErrors.Register(EDealNotActive, new(*ErrDealNotActive))
	RPCErrors.Register(EInvalidState, new(*ErrInvalidState))
	RPCErrors.Register(EInvalidOrder, new(*ErrInvalidOrder))
	RPCErrors.Register(EIncompatibleOrders, new(*ErrIncompatibleOrders))
	RPCErrors.Register(EBlacklisted, new(*ErrBlacklisted))
	RPCErrors.Register(EInvalidChange, new(*ErrInvalidChange))
	RPCErrors.Register(ENoSuchAnnouncement, new(*ErrNoSuchAnnouncement))
}

// WireError maps a market error onto its registered RPC error type so
// clients can still match it with errors.Is against the market sentinels.
// Errors without a registered type are returned unchanged.
func WireError(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range wireErrors {
		if errors.Is(err, c.sentinel) {
			return c.wrap()
		}
	}
	return err
}

var wireErrors = []struct {
	sentinel error
	wrap     func() error
}{
	{market.ErrNotFound, func() error { return &ErrNotFound{} }},
	{market.ErrUnauthorized, func() error { return &ErrUnauthorized{} }},
	{market.ErrNotAuthor, func() error { return &ErrNotAuthor{} }},
	{market.ErrInsufficientFunds, func() error { return &ErrInsufficientFunds{} }},
	{market.ErrOrderNotActive, func() error { return &ErrOrderNotActive{} }},
	{market.ErrDealNotActive, func() error { return &ErrDealNotActive{} }},
	{market.ErrInvalidState, func() error { return &ErrInvalidState{} }},
	{market.ErrInvalidOrder, func() error { return &ErrInvalidOrder{} }},
	{market.ErrIncompatibleOrders, func() error { return &ErrIncompatibleOrders{} }},
	{market.ErrBlacklisted, func() error { return &ErrBlacklisted{} }},
	{market.ErrInvalidChange, func() error { return &ErrInvalidChange{} }},
	{market.ErrNoSuchAnnouncement, func() error { return &ErrNoSuchAnnouncement{} }},
}

type ErrNotFound struct{}

func (ErrNotFound) Error() string { return market.ErrNotFound.Error() }
func (ErrNotFound) Unwrap() error { return market.ErrNotFound }

type ErrUnauthorized struct{}

func (ErrUnauthorized) Error() string { return market.ErrUnauthorized.Error() }
func (ErrUnauthorized) Unwrap() error { return market.ErrUnauthorized }

type ErrNotAuthor struct{}

func (ErrNotAuthor) Error() string { return market.ErrNotAuthor.Error() }
func (ErrNotAuthor) Unwrap() error { return market.ErrNotAuthor }

type ErrInsufficientFunds struct{}

func (ErrInsufficientFunds) Error() string { return market.ErrInsufficientFunds.Error() }
func (ErrInsufficientFunds) Unwrap() error { return market.ErrInsufficientFunds }

type ErrOrderNotActive struct{}

func (ErrOrderNotActive) Error() string { return market.ErrOrderNotActive.Error() }
func (ErrOrderNotActive) Unwrap() error { return market.ErrOrderNotActive }

type ErrDealNotActive struct{}

func (ErrDealNotActive) Error() string { return market.ErrDealNotActive.Error() }
func (ErrDealNotActive) Unwrap() error { return market.ErrDealNotActive }

type ErrInvalidState struct{}

func (ErrInvalidState) Error() string { return market.ErrInvalidState.Error() }
func (ErrInvalidState) Unwrap() error { return market.ErrInvalidState }

type ErrInvalidOrder struct{}

func (ErrInvalidOrder) Error() string { return market.ErrInvalidOrder.Error() }
func (ErrInvalidOrder) Unwrap() error { return market.ErrInvalidOrder }

type ErrIncompatibleOrders struct{}

func (ErrIncompatibleOrders) Error() string { return market.ErrIncompatibleOrders.Error() }
func (ErrIncompatibleOrders) Unwrap() error { return market.ErrIncompatibleOrders }

type ErrBlacklisted struct{}

func (ErrBlacklisted) Error() string { return market.ErrBlacklisted.Error() }
func (ErrBlacklisted) Unwrap() error { return market.ErrBlacklisted }

type ErrInvalidChange struct{}

func (ErrInvalidChange) Error() string { return market.ErrInvalidChange.Error() }
func (ErrInvalidChange) Unwrap() error { return market.ErrInvalidChange }

type ErrNoSuchAnnouncement struct{}

func (ErrNoSuchAnnouncement) Error() string { return market.ErrNoSuchAnnouncement.Error() }
func (ErrNoSuchAnnouncement) Unwrap() error { return market.ErrNoSuchAnnouncement }
