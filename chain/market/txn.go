package market

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/chain/ledger"
	"github.com/capmarket/capmarket/chain/types"
)

// txn stages every effect of one market operation. Nothing reaches the
// ledger, the blacklist, the tables or the datastore until commit, so a
// failed operation leaves no trace.
type txn struct {
	m   *Market
	ctx context.Context
	now uint64

	rate *big.Int

	orders   map[uint64]*types.Order
	deals    map[uint64]*types.Deal
	requests map[uint64]*types.ChangeRequest
	workers  map[address.Address]*types.WorkerRelation
	actual   map[uint64][2]uint64

	newOrders   []*types.Order
	newDeals    []*types.Deal
	newRequests []*types.ChangeRequest

	entries []ledger.Entry
	deltas  map[address.Address]abi.TokenAmount

	blacklist [][2]address.Address

	newBenchmarkCount *uint64
	newNetflagsCount  *uint64

	events []Event
}

func (m *Market) newTxn(ctx context.Context) *txn {
	return &txn{
		m:        m,
		ctx:      ctx,
		now:      uint64(m.clk.Now().Unix()),
		orders:   map[uint64]*types.Order{},
		deals:    map[uint64]*types.Deal{},
		requests: map[uint64]*types.ChangeRequest{},
		workers:  map[address.Address]*types.WorkerRelation{},
		actual:   map[uint64][2]uint64{},
		deltas:   map[address.Address]abi.TokenAmount{},
	}
}

func (tx *txn) currentRate() (big.Int, error) {
	if tx.rate != nil {
		return *tx.rate, nil
	}
	r, err := tx.m.oracle.CurrentRate(tx.ctx)
	if err != nil {
		return big.Zero(), xerrors.Errorf("getting oracle rate: %w", err)
	}
	if r.Int == nil || r.Sign() <= 0 {
		return big.Zero(), xerrors.Errorf("oracle returned non-positive rate %s", r)
	}
	tx.rate = &r
	return r, nil
}

// cost converts a price per second over secs seconds into ledger units at
// the current oracle rate.
func (tx *txn) cost(price abi.TokenAmount, secs uint64) (abi.TokenAmount, error) {
	rate, err := tx.currentRate()
	if err != nil {
		return big.Zero(), err
	}
	return Cost(price, secs, rate), nil
}

func (tx *txn) order(id uint64) (*types.Order, error) {
	if o, ok := tx.orders[id]; ok {
		return o, nil
	}
	n := uint64(len(tx.m.orders))
	if id == 0 || id > n+uint64(len(tx.newOrders)) {
		return nil, xerrors.Errorf("order %d: %w", id, ErrNotFound)
	}
	var o *types.Order
	if id > n {
		o = tx.newOrders[id-n-1]
	} else {
		o = cloneOrder(tx.m.orders[id-1])
	}
	tx.orders[id] = o
	return o, nil
}

func (tx *txn) addOrder(o *types.Order) {
	o.ID = uint64(len(tx.m.orders)+len(tx.newOrders)) + 1
	tx.newOrders = append(tx.newOrders, o)
	tx.orders[o.ID] = o
}

func (tx *txn) deal(id uint64) (*types.Deal, error) {
	if d, ok := tx.deals[id]; ok {
		return d, nil
	}
	n := uint64(len(tx.m.deals))
	if id == 0 || id > n+uint64(len(tx.newDeals)) {
		return nil, xerrors.Errorf("deal %d: %w", id, ErrNotFound)
	}
	var d *types.Deal
	if id > n {
		d = tx.newDeals[id-n-1]
	} else {
		d = cloneDeal(tx.m.deals[id-1])
	}
	tx.deals[id] = d
	return d, nil
}

func (tx *txn) addDeal(d *types.Deal) {
	d.ID = uint64(len(tx.m.deals)+len(tx.newDeals)) + 1
	tx.newDeals = append(tx.newDeals, d)
	tx.deals[d.ID] = d
}

func (tx *txn) request(id uint64) (*types.ChangeRequest, error) {
	if r, ok := tx.requests[id]; ok {
		return r, nil
	}
	n := uint64(len(tx.m.requests))
	if id == 0 || id > n+uint64(len(tx.newRequests)) {
		return nil, xerrors.Errorf("change request %d: %w", id, ErrNotFound)
	}
	var r *types.ChangeRequest
	if id > n {
		r = tx.newRequests[id-n-1]
	} else {
		cr := *tx.m.requests[id-1]
		r = &cr
	}
	tx.requests[id] = r
	return r, nil
}

func (tx *txn) addRequest(r *types.ChangeRequest) {
	r.ID = uint64(len(tx.m.requests)+len(tx.newRequests)) + 1
	tx.newRequests = append(tx.newRequests, r)
	tx.requests[r.ID] = r
}

// pending returns the ids of the open change requests of a deal, indexed
// by role slot.
func (tx *txn) pending(dealID uint64) [2]uint64 {
	if p, ok := tx.actual[dealID]; ok {
		return p
	}
	return tx.m.actualRequests[dealID]
}

func (tx *txn) setPending(dealID uint64, role types.Role, id uint64) {
	p := tx.pending(dealID)
	p[roleSlot(role)] = id
	tx.actual[dealID] = p
}

func roleSlot(r types.Role) int {
	if r == types.RoleSupplier {
		return 1
	}
	return 0
}

func (tx *txn) worker(w address.Address) *types.WorkerRelation {
	if rel, ok := tx.workers[w]; ok {
		return rel
	}
	rel := &types.WorkerRelation{Worker: w, PendingMaster: address.Undef, ConfirmedMaster: address.Undef}
	if cur, ok := tx.m.workers[w]; ok {
		*rel = *cur
	}
	tx.workers[w] = rel
	return rel
}

// master resolves the identity that receives payouts for a supplier.
func (tx *txn) master(supplier address.Address) address.Address {
	rel, ok := tx.workers[supplier]
	if !ok {
		rel, ok = tx.m.workers[supplier]
	}
	if ok && rel.ConfirmedMaster != address.Undef {
		return rel.ConfirmedMaster
	}
	return supplier
}

func (tx *txn) debit(acct address.Address, amt abi.TokenAmount) error {
	if amt.IsZero() {
		return nil
	}
	if amt.Sign() < 0 {
		return xerrors.Errorf("negative debit of %s from %s", amt, acct)
	}
	bal, err := tx.m.ledger.Balance(tx.ctx, acct)
	if err != nil {
		return xerrors.Errorf("getting balance of %s: %w", acct, err)
	}
	delta, ok := tx.deltas[acct]
	if !ok {
		delta = big.Zero()
	}
	avail := big.Add(bal, delta)
	if avail.LessThan(amt) {
		return xerrors.Errorf("%s has %s available, needs %s: %w", acct, avail, amt, ErrInsufficientFunds)
	}
	tx.deltas[acct] = big.Sub(delta, amt)
	tx.entries = append(tx.entries, ledger.Entry{Account: acct, Delta: big.Sub(big.Zero(), amt)})
	return nil
}

func (tx *txn) credit(acct address.Address, amt abi.TokenAmount) {
	if amt.IsZero() {
		return
	}
	delta, ok := tx.deltas[acct]
	if !ok {
		delta = big.Zero()
	}
	tx.deltas[acct] = big.Add(delta, amt)
	tx.entries = append(tx.entries, ledger.Entry{Account: acct, Delta: amt})
}

func (tx *txn) blacklisted(owner, who address.Address) (bool, error) {
	if owner == address.Undef {
		return false, nil
	}
	for _, e := range tx.blacklist {
		if e[0] == owner && e[1] == who {
			return true, nil
		}
	}
	return tx.m.bl.Check(tx.ctx, owner, who)
}

func (tx *txn) addBlacklist(owner, who address.Address) {
	tx.blacklist = append(tx.blacklist, [2]address.Address{owner, who})
}

func (tx *txn) emit(evt Event) {
	evt.Timestamp = tx.now
	if evt.Amount.Int == nil {
		evt.Amount = big.Zero()
	}
	tx.events = append(tx.events, evt)
}

// commit applies the staged effects. The market records are encoded into
// a batch first, then the ledger moves and blacklist entries are written,
// and the batch is flushed last. A failure at any step undoes the earlier
// ones, and the in-memory tables only change once everything is stored.
func (tx *txn) commit() error {
	m := tx.m

	b, err := m.store.stage(tx)
	if err != nil {
		return xerrors.Errorf("staging market records: %w", err)
	}

	if err := applyEntries(tx.ctx, m.ledger, tx.entries); err != nil {
		return xerrors.Errorf("applying ledger entries: %w", err)
	}

	added, err := tx.writeBlacklist()
	if err != nil {
		tx.rollback(added)
		return err
	}

	if err := b.Commit(tx.ctx); err != nil {
		tx.rollback(added)
		return xerrors.Errorf("writing market records: %w", err)
	}

	tx.swap()
	return nil
}

// writeBlacklist adds the staged blacklist entries and returns the ones
// that were not already present.
func (tx *txn) writeBlacklist() ([][2]address.Address, error) {
	var added [][2]address.Address
	for _, e := range tx.blacklist {
		has, err := tx.m.bl.Check(tx.ctx, e[0], e[1])
		if err != nil {
			return added, err
		}
		if has {
			continue
		}
		if err := tx.m.bl.Add(tx.ctx, e[0], e[1]); err != nil {
			return added, xerrors.Errorf("writing blacklist entry: %w", err)
		}
		added = append(added, e)
	}
	return added, nil
}

// rollback reverts the ledger entries and the given blacklist entries of
// a commit that could not complete.
func (tx *txn) rollback(added [][2]address.Address) {
	for _, e := range added {
		if err := tx.m.bl.Remove(tx.ctx, e[0], e[1]); err != nil {
			log.Errorw("failed to roll back blacklist entry", "owner", e[0], "who", e[1], "error", err)
		}
	}

	inverse := make([]ledger.Entry, len(tx.entries))
	for i, e := range tx.entries {
		inverse[i] = ledger.Entry{Account: e.Account, Delta: big.Sub(big.Zero(), e.Delta)}
	}
	if err := applyEntries(tx.ctx, tx.m.ledger, inverse); err != nil {
		log.Errorw("failed to roll back ledger entries", "entries", len(inverse), "error", err)
	}
}

// swap installs the committed records in the in-memory tables.
func (tx *txn) swap() {
	m := tx.m

	m.orders = append(m.orders, tx.newOrders...)
	m.deals = append(m.deals, tx.newDeals...)
	m.requests = append(m.requests, tx.newRequests...)
	for id, o := range tx.orders {
		m.orders[id-1] = o
	}
	for id, d := range tx.deals {
		m.deals[id-1] = d
	}
	for id, r := range tx.requests {
		m.requests[id-1] = r
	}
	for w, rel := range tx.workers {
		if rel.Unaffiliated() {
			delete(m.workers, w)
			continue
		}
		m.workers[w] = rel
	}
	for id, p := range tx.actual {
		if p == [2]uint64{} {
			delete(m.actualRequests, id)
			continue
		}
		m.actualRequests[id] = p
	}
	if tx.newBenchmarkCount != nil {
		m.benchmarkCount = *tx.newBenchmarkCount
	}
	if tx.newNetflagsCount != nil {
		m.netflagsCount = *tx.newNetflagsCount
	}
}

func applyEntries(ctx context.Context, l ledger.Ledger, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if a, ok := l.(ledger.Applier); ok {
		return a.Apply(ctx, entries)
	}

	// debits first, so a shortfall is found before anyone is paid
	var done []ledger.Entry
	rollback := func() {
		for _, e := range done {
			if err := l.Credit(ctx, e.Account, big.Sub(big.Zero(), e.Delta)); err != nil {
				log.Errorw("failed to roll back ledger debit", "account", e.Account, "amount", e.Delta, "error", err)
			}
		}
	}
	for _, e := range entries {
		if e.Delta.Sign() >= 0 {
			continue
		}
		if err := l.Debit(ctx, e.Account, big.Sub(big.Zero(), e.Delta)); err != nil {
			rollback()
			return err
		}
		done = append(done, e)
	}
	for _, e := range entries {
		if e.Delta.Sign() <= 0 {
			continue
		}
		if err := l.Credit(ctx, e.Account, e.Delta); err != nil {
			return xerrors.Errorf("crediting %s: %w", e.Account, err)
		}
	}
	return nil
}
