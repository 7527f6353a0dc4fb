package market

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/types"
)

func dealRole(d *types.Deal, caller address.Address) types.Role {
	switch caller {
	case d.Consumer:
		return types.RoleConsumer
	case d.Supplier, d.Master:
		return types.RoleSupplier
	}
	return types.RoleUnknown
}

// CreateChangeRequest proposes new terms for an active deal and returns the
// request id. The terms are applied once both sides have proposed them, or
// at once when the duration is kept and the consumer raises the price or
// the supplier lowers it.
func (m *Market) CreateChangeRequest(ctx context.Context, dealID uint64, price abi.TokenAmount, duration uint64, caller address.Address) (uint64, error) {
	var id uint64
	err := m.run(ctx, "create_change_request", func(tx *txn) error {
		d, err := tx.deal(dealID)
		if err != nil {
			return err
		}
		role := dealRole(d, caller)
		if role == types.RoleUnknown {
			return xerrors.Errorf("%s is not a party of deal %d: %w", caller, dealID, ErrUnauthorized)
		}
		if d.Status != types.DealAccepted {
			return xerrors.Errorf("deal %d: %w", dealID, ErrDealNotActive)
		}
		if err := validateChange(d, price, duration); err != nil {
			return err
		}

		r, err := tx.proposeChange(d, role, price, duration)
		if err != nil {
			return err
		}
		id = r.ID

		if oid := tx.pending(d.ID)[roleSlot(role.Opposite())]; oid != 0 {
			other, err := tx.request(oid)
			if err != nil {
				return err
			}
			if other.Status == types.RequestCreated && other.Price.Equals(price) && other.Duration == duration {
				return tx.acceptChange(d, r, other)
			}
		}

		// a concession on price alone needs no counter-proposal
		if duration == d.Duration {
			if (role == types.RoleConsumer && price.GreaterThanEqual(d.Price)) ||
				(role == types.RoleSupplier && price.LessThanEqual(d.Price)) {
				return tx.acceptChange(d, r)
			}
		}
		return nil
	})
	return id, err
}

func validateChange(d *types.Deal, price abi.TokenAmount, duration uint64) error {
	if price.Int == nil || price.Sign() < 0 {
		return xerrors.Errorf("price must be non-negative: %w", ErrInvalidChange)
	}
	if d.Spot() {
		if duration != 0 {
			return xerrors.Errorf("spot deal %d cannot get a duration: %w", d.ID, ErrInvalidChange)
		}
		return nil
	}
	if duration == 0 {
		return xerrors.Errorf("forward deal %d cannot become spot: %w", d.ID, ErrInvalidChange)
	}
	if !endFits(d.StartTime, duration) {
		return xerrors.Errorf("duration %d overflows the end time of deal %d: %w", duration, d.ID, ErrInvalidChange)
	}
	if d.StartTime+duration < d.LastBillTS {
		return xerrors.Errorf("duration %d ends before deal %d was last billed: %w", duration, d.ID, ErrInvalidChange)
	}
	return nil
}

// proposeChange records a pending request for role, overwriting the terms
// of one that is already pending.
func (tx *txn) proposeChange(d *types.Deal, role types.Role, price abi.TokenAmount, duration uint64) (*types.ChangeRequest, error) {
	var r *types.ChangeRequest
	if rid := tx.pending(d.ID)[roleSlot(role)]; rid != 0 {
		cur, err := tx.request(rid)
		if err != nil {
			return nil, err
		}
		if cur.Status == types.RequestCreated {
			r = cur
		}
	}

	if r == nil {
		r = &types.ChangeRequest{DealID: d.ID, Role: role, Status: types.RequestCreated}
		tx.addRequest(r)
		tx.setPending(d.ID, role, r.ID)
	}
	r.Price = price
	r.Duration = duration

	tx.emit(Event{Type: EvtChangeRequestCreated, RequestID: r.ID, DealID: d.ID})
	log.Infow("change request created", "request", r.ID, "deal", d.ID, "role", role, "price", price, "duration", duration)
	return r, nil
}

// acceptChange resolves the given requests and applies their terms. If
// billing at the old terms closes the deal, the requests are canceled.
func (tx *txn) acceptChange(d *types.Deal, reqs ...*types.ChangeRequest) error {
	for _, r := range reqs {
		tx.setPending(d.ID, r.Role, 0)
	}

	status := types.RequestAccepted
	applied, err := tx.applyChange(d, reqs[0].Price, reqs[0].Duration)
	if err != nil {
		return err
	}
	if !applied {
		status = types.RequestCanceled
	}

	for _, r := range reqs {
		r.Status = status
		tx.emit(Event{Type: EvtChangeRequestResolved, RequestID: r.ID, DealID: d.ID, Status: status})
		log.Infow("change request resolved", "request", r.ID, "deal", d.ID, "status", status)
	}
	return nil
}

// applyChange bills the deal at its old terms, switches to the new ones and
// rebalances the escrow for the remaining period (one hour for spot deals).
func (tx *txn) applyChange(d *types.Deal, price abi.TokenAmount, duration uint64) (bool, error) {
	if _, err := tx.bill(d); err != nil {
		return false, err
	}
	if d.Status != types.DealAccepted {
		return false, nil
	}

	d.Price = price
	d.Duration = duration
	remaining := holdSeconds(0)
	if !d.Spot() {
		d.EndTime = d.StartTime + duration
		if d.EndTime < d.LastBillTS {
			d.EndTime = d.LastBillTS
		}
		remaining = 0
		if d.EndTime > d.LastBillTS {
			remaining = d.EndTime - d.LastBillTS
		}
	}

	required, err := tx.cost(price, remaining)
	if err != nil {
		return false, err
	}
	switch {
	case required.GreaterThan(d.BlockedBalance):
		if err := tx.debit(d.Consumer, big.Sub(required, d.BlockedBalance)); err != nil {
			return false, xerrors.Errorf("escrowing changed deal %d: %w", d.ID, err)
		}
	case required.LessThan(d.BlockedBalance):
		tx.credit(d.Consumer, big.Sub(d.BlockedBalance, required))
	}
	d.BlockedBalance = required

	log.Infow("deal terms changed", "deal", d.ID, "price", price, "duration", duration, "blocked", required)

	if !d.Spot() && d.EndTime <= tx.now {
		if _, err := tx.bill(d); err != nil {
			return false, err
		}
	}
	return true, nil
}

// CancelChangeRequest withdraws a pending request. The proposer cancels it,
// the other side of the deal rejects it.
func (m *Market) CancelChangeRequest(ctx context.Context, id uint64, caller address.Address) error {
	return m.run(ctx, "cancel_change_request", func(tx *txn) error {
		r, err := tx.request(id)
		if err != nil {
			return err
		}
		if r.Status != types.RequestCreated {
			return xerrors.Errorf("change request %d is %s: %w", id, r.Status, ErrInvalidState)
		}
		d, err := tx.deal(r.DealID)
		if err != nil {
			return err
		}

		switch dealRole(d, caller) {
		case r.Role:
			r.Status = types.RequestCanceled
		case r.Role.Opposite():
			r.Status = types.RequestRejected
		default:
			return xerrors.Errorf("%s is not a party of deal %d: %w", caller, d.ID, ErrUnauthorized)
		}
		tx.setPending(d.ID, r.Role, 0)

		tx.emit(Event{Type: EvtChangeRequestResolved, RequestID: r.ID, DealID: d.ID, Status: r.Status})
		log.Infow("change request resolved", "request", r.ID, "deal", d.ID, "status", r.Status)
		return nil
	})
}

func (m *Market) GetChangeRequestInfo(ctx context.Context, id uint64) (types.ChangeRequest, error) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if id == 0 || id > uint64(len(m.requests)) {
		return types.ChangeRequest{}, xerrors.Errorf("change request %d: %w", id, ErrNotFound)
	}
	return *m.requests[id-1], nil
}

func (m *Market) GetChangeRequestsAmount(ctx context.Context) uint64 {
	m.lk.Lock()
	defer m.lk.Unlock()

	return uint64(len(m.requests))
}

// PendingChangeRequests returns the open consumer and supplier request ids
// of a deal, zero where there is none.
func (m *Market) PendingChangeRequests(ctx context.Context, dealID uint64) (consumer, supplier uint64) {
	m.lk.Lock()
	defer m.lk.Unlock()

	p := m.actualRequests[dealID]
	return p[0], p[1]
}
