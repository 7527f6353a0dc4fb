package market

import (
	"context"
	"errors"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/build"
	"github.com/capmarket/capmarket/chain/types"
)

// Bill settles a deal up to now and returns the amount paid to the master.
// Spot deals that stay open are re-escrowed for the next hour; if the
// consumer cannot cover it the deal is closed instead.
func (m *Market) Bill(ctx context.Context, dealID uint64, caller address.Address) (abi.TokenAmount, error) {
	paid := big.Zero()
	err := m.run(ctx, "bill", func(tx *txn) error {
		d, err := tx.deal(dealID)
		if err != nil {
			return err
		}
		if d.Status != types.DealAccepted {
			return xerrors.Errorf("deal %d: %w", dealID, ErrDealNotActive)
		}
		if caller != d.Consumer && caller != d.Supplier && caller != d.Master {
			return xerrors.Errorf("%s is not a party of deal %d: %w", caller, dealID, ErrUnauthorized)
		}

		paid, err = tx.bill(d)
		if err != nil {
			return err
		}
		if d.Status == types.DealAccepted && d.Spot() {
			return tx.renewSpot(d)
		}
		return nil
	})
	if err != nil {
		return big.Zero(), err
	}
	return paid, nil
}

// bill pays the master for the time since the last bill, capped at the end
// of a forward deal. A payout larger than the escrow is capped at the
// escrow and closes the deal; the shortfall is not pursued.
func (tx *txn) bill(d *types.Deal) (abi.TokenAmount, error) {
	billTo := tx.now
	if d.EndTime > 0 && billTo > d.EndTime {
		billTo = d.EndTime
	}
	var elapsed uint64
	if billTo > d.LastBillTS {
		elapsed = billTo - d.LastBillTS
	}

	due, err := tx.cost(d.Price, elapsed)
	if err != nil {
		return big.Zero(), err
	}

	underfunded := due.GreaterThan(d.BlockedBalance)
	paid := due
	if underfunded {
		paid = d.BlockedBalance
	}

	tx.credit(d.Master, paid)
	d.BlockedBalance = big.Sub(d.BlockedBalance, paid)
	d.TotalPayout = big.Add(d.TotalPayout, paid)
	d.LastBillTS = billTo

	tx.emit(Event{Type: EvtBilled, DealID: d.ID, Amount: paid})
	log.Debugw("deal billed", "deal", d.ID, "elapsed", elapsed, "due", due, "paid", paid, "blocked", d.BlockedBalance)

	switch {
	case underfunded:
		log.Warnw("deal escrow exhausted, closing", "deal", d.ID, "due", due, "paid", paid)
		tx.closeDeal(d, CloseUnderfunded)
	case d.EndTime > 0 && d.LastBillTS >= d.EndTime:
		tx.closeDeal(d, CloseExpired)
	}
	return paid, nil
}

// renewSpot tops the escrow of an open spot deal back up to one hour.
func (tx *txn) renewSpot(d *types.Deal) error {
	hold, err := tx.cost(d.Price, build.SpotHoldSeconds)
	if err != nil {
		return err
	}
	if d.BlockedBalance.GreaterThanEqual(hold) {
		return nil
	}

	topUp := big.Sub(hold, d.BlockedBalance)
	if err := tx.debit(d.Consumer, topUp); err != nil {
		if !errors.Is(err, ErrInsufficientFunds) {
			return err
		}
		log.Warnw("consumer cannot renew spot deal, closing", "deal", d.ID, "consumer", d.Consumer, "needed", topUp)
		tx.closeDeal(d, CloseRenewalFailed)
		return nil
	}
	d.BlockedBalance = hold
	return nil
}

// closeDeal ends a deal, refunding what is left in escrow to the consumer
// and canceling its open change requests.
func (tx *txn) closeDeal(d *types.Deal, reason string) {
	d.Status = types.DealClosed
	if d.EndTime == 0 || d.EndTime > tx.now {
		d.EndTime = tx.now
	}

	refund := d.BlockedBalance
	tx.credit(d.Consumer, refund)
	d.BlockedBalance = big.Zero()

	for _, rid := range tx.pending(d.ID) {
		if rid == 0 {
			continue
		}
		r, err := tx.request(rid)
		if err != nil {
			log.Errorw("open change request of closed deal is missing", "deal", d.ID, "request", rid)
			continue
		}
		r.Status = types.RequestCanceled
		tx.setPending(d.ID, r.Role, 0)
		tx.emit(Event{Type: EvtChangeRequestResolved, RequestID: r.ID, DealID: d.ID, Status: r.Status})
	}

	tx.emit(Event{Type: EvtDealClosed, DealID: d.ID, Reason: reason})
	log.Infow("deal closed", "deal", d.ID, "reason", reason, "payout", d.TotalPayout, "refund", refund)
}

// CloseDeal bills and closes a deal. The consumer may close at any time;
// the supplier and its master only once a forward deal has expired. Only
// the consumer may blacklist the worker or its master on the way out.
func (m *Market) CloseDeal(ctx context.Context, dealID uint64, target types.BlacklistPerson, caller address.Address) error {
	return m.run(ctx, "close_deal", func(tx *txn) error {
		d, err := tx.deal(dealID)
		if err != nil {
			return err
		}
		if d.Status != types.DealAccepted {
			return xerrors.Errorf("deal %d: %w", dealID, ErrDealNotActive)
		}

		switch caller {
		case d.Consumer:
		case d.Supplier, d.Master:
			if d.EndTime == 0 || tx.now < d.EndTime {
				return xerrors.Errorf("supplier may not close deal %d before it ends: %w", dealID, ErrUnauthorized)
			}
		default:
			return xerrors.Errorf("%s is not a party of deal %d: %w", caller, dealID, ErrUnauthorized)
		}

		var banned address.Address
		switch target {
		case types.BlacklistNobody:
		case types.BlacklistWorker:
			banned = d.Supplier
		case types.BlacklistMaster:
			banned = d.Master
		default:
			return xerrors.Errorf("unknown blacklist target %d: %w", target, ErrInvalidState)
		}
		if target != types.BlacklistNobody && caller != d.Consumer {
			return xerrors.Errorf("only the consumer may blacklist: %w", ErrUnauthorized)
		}

		if _, err := tx.bill(d); err != nil {
			return err
		}
		if d.Status == types.DealAccepted {
			tx.closeDeal(d, CloseByParty)
		}

		if banned != address.Undef {
			tx.addBlacklist(d.Consumer, banned)
		}
		return nil
	})
}
