package market

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/types"
)

// PlaceOrder validates spec and adds it to the order book. Bids escrow
// price*hold*rate/RateScale from the author, where hold is the duration or
// one hour for spot bids.
func (m *Market) PlaceOrder(ctx context.Context, spec types.OrderSpec, author address.Address) (uint64, error) {
	var id uint64
	err := m.run(ctx, "place_order", func(tx *txn) error {
		o, err := tx.placeOrder(spec, author)
		if err != nil {
			return err
		}
		id = o.ID
		return nil
	})
	return id, err
}

func (tx *txn) placeOrder(spec types.OrderSpec, author address.Address) (*types.Order, error) {
	if err := tx.validateOrder(spec); err != nil {
		return nil, err
	}

	o := &types.Order{
		Type:          spec.Type,
		Status:        types.OrderActive,
		Author:        author,
		Counterparty:  spec.Counterparty,
		Duration:      spec.Duration,
		Price:         spec.Price,
		Netflags:      append([]bool(nil), spec.Netflags...),
		IdentityLevel: spec.IdentityLevel,
		Blacklist:     spec.Blacklist,
		Tag:           append([]byte(nil), spec.Tag...),
		Benchmarks:    append([]uint64(nil), spec.Benchmarks...),
		FrozenSum:     big.Zero(),
	}

	if o.Type == types.Bid {
		frozen, err := tx.cost(o.Price, holdSeconds(o.Duration))
		if err != nil {
			return nil, err
		}
		if err := tx.debit(author, frozen); err != nil {
			return nil, xerrors.Errorf("escrowing bid: %w", err)
		}
		o.FrozenSum = frozen
	}

	tx.addOrder(o)
	tx.emit(Event{Type: EvtOrderCreated, OrderID: o.ID, OrderType: o.Type})

	log.Infow("order placed", "order", o.ID, "type", o.Type, "author", author, "price", o.Price, "duration", o.Duration, "frozen", o.FrozenSum)
	return o, nil
}

func (tx *txn) validateOrder(spec types.OrderSpec) error {
	if spec.Type != types.Bid && spec.Type != types.Ask {
		return xerrors.Errorf("unknown order type %d: %w", spec.Type, ErrInvalidOrder)
	}
	if spec.Price.Int == nil || spec.Price.Sign() < 0 {
		return xerrors.Errorf("price must be non-negative: %w", ErrInvalidOrder)
	}
	if !endFits(tx.now, spec.Duration) {
		return xerrors.Errorf("duration %d overflows the deal end time: %w", spec.Duration, ErrInvalidOrder)
	}
	if uint64(len(spec.Benchmarks)) != tx.benchmarkCount() {
		return xerrors.Errorf("got %d benchmarks, market expects %d: %w", len(spec.Benchmarks), tx.benchmarkCount(), ErrInvalidOrder)
	}
	if uint64(len(spec.Netflags)) > tx.netflagsCount() {
		return xerrors.Errorf("got %d netflags, market supports %d: %w", len(spec.Netflags), tx.netflagsCount(), ErrInvalidOrder)
	}
	return nil
}

// CancelOrder deactivates an active order of caller and refunds its escrow.
func (m *Market) CancelOrder(ctx context.Context, id uint64, caller address.Address) error {
	return m.run(ctx, "cancel_order", func(tx *txn) error {
		o, err := tx.order(id)
		if err != nil {
			return err
		}
		if o.Author != caller {
			return xerrors.Errorf("order %d: %w", id, ErrNotAuthor)
		}
		if o.Status != types.OrderActive {
			return xerrors.Errorf("order %d: %w", id, ErrOrderNotActive)
		}

		if o.Type == types.Bid {
			tx.credit(o.Author, o.FrozenSum)
		}
		o.Status = types.OrderInactive

		tx.emit(Event{Type: EvtOrderCanceled, OrderID: o.ID, OrderType: o.Type})
		log.Infow("order canceled", "order", id, "refund", o.FrozenSum)
		return nil
	})
}

func (m *Market) GetOrderInfo(ctx context.Context, id uint64) (types.OrderInfo, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.orders)) {
		return types.OrderInfo{}, xerrors.Errorf("order %d: %w", id, ErrNotFound)
	}
	return m.orders[id-1].Info(), nil
}

func (m *Market) GetOrderParams(ctx context.Context, id uint64) (types.OrderParams, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.orders)) {
		return types.OrderParams{}, xerrors.Errorf("order %d: %w", id, ErrNotFound)
	}
	return m.orders[id-1].Params(), nil
}

func (m *Market) GetOrdersAmount(ctx context.Context) uint64 {
	m.lk.Lock()
	defer m.lk.Unlock()

	return uint64(len(m.orders))
}

// ListOrders returns the active orders, optionally only those of one type.
func (m *Market) ListOrders(ctx context.Context, typ types.OrderType) []types.Order {
	m.lk.Lock()
	defer m.lk.Unlock()

	var out []types.Order
	for _, o := range m.orders {
		if o.Status != types.OrderActive {
			continue
		}
		if typ != types.OrderTypeUnknown && o.Type != typ {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	return out
}
