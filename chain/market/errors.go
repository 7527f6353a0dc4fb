package market

import (
	"errors"

	"github.com/capmarket/capmarket/chain/ledger"
)

var (
	ErrInsufficientFunds  = ledger.ErrInsufficientFunds
	ErrNotAuthor          = errors.New("caller is not the order author")
	ErrUnauthorized       = errors.New("caller is not authorized")
	ErrOrderNotActive     = errors.New("order is not active")
	ErrDealNotActive      = errors.New("deal is not active")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrIncompatibleOrders = errors.New("orders are incompatible")
	ErrBlacklisted        = errors.New("counterparty is blacklisted")
	ErrInvalidChange      = errors.New("invalid change")
	ErrNoSuchAnnouncement = errors.New("no such worker announcement")
	ErrNotFound           = errors.New("not found")
)
