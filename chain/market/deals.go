package market

import (
	"context"
	"fmt"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/types"
)

// OpenDeal matches an ask with a bid. The caller must be the consumer, the
// supplier or the supplier's master.
func (m *Market) OpenDeal(ctx context.Context, askID, bidID uint64, caller address.Address) (uint64, error) {
	var id uint64
	err := m.run(ctx, "open_deal", func(tx *txn) error {
		ask, err := tx.order(askID)
		if err != nil {
			return err
		}
		bid, err := tx.order(bidID)
		if err != nil {
			return err
		}
		if ask.Type != types.Ask || bid.Type != types.Bid {
			return xerrors.Errorf("order %d must be an ask and order %d a bid: %w", askID, bidID, ErrIncompatibleOrders)
		}
		if caller != bid.Author && caller != ask.Author && caller != tx.master(ask.Author) {
			return xerrors.Errorf("%s is not a party of orders %d and %d: %w", caller, askID, bidID, ErrUnauthorized)
		}

		d, err := tx.openDeal(ask, bid)
		if err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	return id, err
}

// QuickBuy buys an ask outright: the caller becomes the consumer of a
// deal with the given duration at the ask's price, without a resting bid.
func (m *Market) QuickBuy(ctx context.Context, askID uint64, duration uint64, caller address.Address) (uint64, error) {
	var id uint64
	err := m.run(ctx, "quick_buy", func(tx *txn) error {
		ask, err := tx.order(askID)
		if err != nil {
			return err
		}
		if ask.Type != types.Ask {
			return xerrors.Errorf("order %d is not an ask: %w", askID, ErrIncompatibleOrders)
		}
		if !endFits(tx.now, duration) {
			return xerrors.Errorf("duration %d overflows the deal end time: %w", duration, ErrInvalidOrder)
		}

		bid := &types.Order{
			Type:         types.Bid,
			Status:       types.OrderActive,
			Author:       caller,
			Counterparty: address.Undef,
			Duration:     duration,
			Price:        ask.Price,
			Blacklist:    address.Undef,
			FrozenSum:    big.Zero(),
		}
		frozen, err := tx.cost(bid.Price, holdSeconds(duration))
		if err != nil {
			return err
		}
		if err := tx.debit(caller, frozen); err != nil {
			return xerrors.Errorf("escrowing quick buy: %w", err)
		}
		bid.FrozenSum = frozen

		d, err := tx.openDeal(ask, bid)
		if err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	return id, err
}

// openDeal checks that ask and bid can be matched and turns them into a
// deal. A bid with a zero ID is a synthetic QuickBuy bid and is not stored.
func (tx *txn) openDeal(ask, bid *types.Order) (*types.Deal, error) {
	if ask.Status != types.OrderActive {
		return nil, xerrors.Errorf("order %d: %w", ask.ID, ErrOrderNotActive)
	}
	if bid.Status != types.OrderActive {
		return nil, xerrors.Errorf("order %d: %w", bid.ID, ErrOrderNotActive)
	}

	supplier, consumer := ask.Author, bid.Author
	master := tx.master(supplier)

	if err := checkCompatible(ask, bid, master); err != nil {
		return nil, err
	}
	if err := tx.checkBlacklists(ask, bid, master); err != nil {
		return nil, err
	}

	var duration uint64
	if !ask.Spot() && !bid.Spot() {
		duration = bid.Duration
	}

	// escrow for the deal is priced at the ask, the bid keeps any surplus
	blocked, err := tx.cost(ask.Price, holdSeconds(duration))
	if err != nil {
		return nil, err
	}
	switch {
	case bid.FrozenSum.GreaterThanEqual(blocked):
		tx.credit(consumer, big.Sub(bid.FrozenSum, blocked))
	default:
		if err := tx.debit(consumer, big.Sub(blocked, bid.FrozenSum)); err != nil {
			return nil, xerrors.Errorf("topping up deal escrow: %w", err)
		}
	}

	d := &types.Deal{
		AskID:          ask.ID,
		BidID:          bid.ID,
		Supplier:       supplier,
		Consumer:       consumer,
		Master:         master,
		Benchmarks:     append([]uint64(nil), ask.Benchmarks...),
		Price:          ask.Price,
		Duration:       duration,
		StartTime:      tx.now,
		LastBillTS:     tx.now,
		BlockedBalance: blocked,
		TotalPayout:    big.Zero(),
		Status:         types.DealAccepted,
	}
	if duration > 0 {
		d.EndTime = tx.now + duration
	}
	tx.addDeal(d)

	ask.Status = types.OrderInactive
	ask.DealID = d.ID
	if bid.ID != 0 {
		bid.Status = types.OrderInactive
		bid.DealID = d.ID
	}

	tx.emit(Event{Type: EvtDealOpened, DealID: d.ID})
	log.Infow("deal opened", "deal", d.ID, "ask", ask.ID, "bid", bid.ID,
		"supplier", supplier, "consumer", consumer, "master", master,
		"price", d.Price, "duration", d.Duration, "blocked", blocked)
	return d, nil
}

func checkCompatible(ask, bid *types.Order, master address.Address) error {
	incompatible := func(format string, args ...interface{}) error {
		return xerrors.Errorf("ask %d, bid %d: %s: %w", ask.ID, bid.ID, fmt.Sprintf(format, args...), ErrIncompatibleOrders)
	}

	if ask.Counterparty != address.Undef && ask.Counterparty != bid.Author {
		return incompatible("ask is reserved for %s", ask.Counterparty)
	}
	if bid.Counterparty != address.Undef && bid.Counterparty != ask.Author && bid.Counterparty != master {
		return incompatible("bid is reserved for %s", bid.Counterparty)
	}

	for i, required := range bid.Netflags {
		if required && (i >= len(ask.Netflags) || !ask.Netflags[i]) {
			return incompatible("ask lacks netflag %d", i)
		}
	}

	if ask.IdentityLevel < bid.IdentityLevel {
		return incompatible("ask identity %s is below required %s", ask.IdentityLevel, bid.IdentityLevel)
	}

	if ask.Price.GreaterThan(bid.Price) {
		return incompatible("ask price %s exceeds bid price %s", ask.Price, bid.Price)
	}

	if !ask.Spot() && !bid.Spot() && ask.Duration < bid.Duration {
		return incompatible("ask duration %d is shorter than bid duration %d", ask.Duration, bid.Duration)
	}

	for i, required := range bid.Benchmarks {
		var have uint64
		if i < len(ask.Benchmarks) {
			have = ask.Benchmarks[i]
		}
		if have < required {
			return incompatible("benchmark %d: ask has %d, bid requires %d", i, have, required)
		}
	}

	return nil
}

func (tx *txn) checkBlacklists(ask, bid *types.Order, master address.Address) error {
	supplier, consumer := ask.Author, bid.Author

	check := func(owner address.Address, who ...address.Address) error {
		for _, w := range who {
			banned, err := tx.blacklisted(owner, w)
			if err != nil {
				return xerrors.Errorf("checking blacklist: %w", err)
			}
			if banned {
				return xerrors.Errorf("%s is blacklisted by %s: %w", w, owner, ErrBlacklisted)
			}
		}
		return nil
	}

	if err := check(consumer, supplier, master); err != nil {
		return err
	}
	if ask.Blacklist != address.Undef {
		if err := check(ask.Blacklist, consumer); err != nil {
			return err
		}
	}
	if bid.Blacklist != address.Undef {
		if err := check(bid.Blacklist, supplier, master); err != nil {
			return err
		}
	}
	return nil
}

func (m *Market) GetDealInfo(ctx context.Context, id uint64) (types.DealInfo, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.deals)) {
		return types.DealInfo{}, xerrors.Errorf("deal %d: %w", id, ErrNotFound)
	}
	return m.deals[id-1].Info(), nil
}

func (m *Market) GetDealParams(ctx context.Context, id uint64) (types.DealParams, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.deals)) {
		return types.DealParams{}, xerrors.Errorf("deal %d: %w", id, ErrNotFound)
	}
	return m.deals[id-1].Params(), nil
}

func (m *Market) GetDeal(ctx context.Context, id uint64) (types.Deal, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.deals)) {
		return types.Deal{}, xerrors.Errorf("deal %d: %w", id, ErrNotFound)
	}
	return *cloneDeal(m.deals[id-1]), nil
}

func (m *Market) GetDealsAmount(ctx context.Context) uint64 {
	m.lk.Lock()
	defer m.lk.Unlock()

	return uint64(len(m.deals))
}

func (m *Market) ListDeals(ctx context.Context, filter types.DealFilter) []types.Deal {
	m.lk.Lock()
	defer m.lk.Unlock()

	var out []types.Deal
	for _, d := range m.deals {
		if filter.Match(d) {
			out = append(out, *cloneDeal(d))
		}
	}
	return out
}
