package market

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/chain/types"
	"github.com/capmarket/capmarket/lib/statestore"
)

var dsPrefix = datastore.NewKey("/market")

const (
	ordersNs   = "orders"
	dealsNs    = "deals"
	requestsNs = "requests"
	workersNs  = "workers"
	metaKey    = "meta"
)

type meta struct {
	BenchmarkCount uint64
	NetflagsCount  uint64
}

// store persists market tables as JSON records under /market.
type store struct {
	root     *statestore.StateStore
	orders   *statestore.StateStore
	deals    *statestore.StateStore
	requests *statestore.StateStore
	workers  *statestore.StateStore
}

func newStore(ds datastore.Batching) *store {
	mds := namespace.Wrap(ds, dsPrefix)
	sub := func(ns string) *statestore.StateStore {
		return statestore.New(namespace.Wrap(mds, datastore.NewKey(ns)))
	}
	return &store{
		root:     statestore.New(mds),
		orders:   sub(ordersNs),
		deals:    sub(dealsNs),
		requests: sub(requestsNs),
		workers:  sub(workersNs),
	}
}

func (s *store) load(ctx context.Context, m *Market) error {
	var md meta
	err := s.root.Get(ctx, metaKey, &md)
	switch {
	case err == nil:
		m.benchmarkCount = md.BenchmarkCount
		m.netflagsCount = md.NetflagsCount
	case errors.Is(err, datastore.ErrNotFound):
	default:
		return xerrors.Errorf("loading market meta: %w", err)
	}

	var orders []types.Order
	if err := s.orders.List(ctx, &orders); err != nil {
		return xerrors.Errorf("loading orders: %w", err)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	for i := range orders {
		if orders[i].ID != uint64(i+1) {
			return xerrors.Errorf("order table has a gap at id %d", i+1)
		}
		m.orders = append(m.orders, &orders[i])
	}

	var deals []types.Deal
	if err := s.deals.List(ctx, &deals); err != nil {
		return xerrors.Errorf("loading deals: %w", err)
	}
	sort.Slice(deals, func(i, j int) bool { return deals[i].ID < deals[j].ID })
	for i := range deals {
		if deals[i].ID != uint64(i+1) {
			return xerrors.Errorf("deal table has a gap at id %d", i+1)
		}
		m.deals = append(m.deals, &deals[i])
	}

	var requests []types.ChangeRequest
	if err := s.requests.List(ctx, &requests); err != nil {
		return xerrors.Errorf("loading change requests: %w", err)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	for i := range requests {
		r := &requests[i]
		if r.ID != uint64(i+1) {
			return xerrors.Errorf("change request table has a gap at id %d", i+1)
		}
		m.requests = append(m.requests, r)
		if r.Status == types.RequestCreated {
			p := m.actualRequests[r.DealID]
			p[roleSlot(r.Role)] = r.ID
			m.actualRequests[r.DealID] = p
		}
	}

	var workers []types.WorkerRelation
	if err := s.workers.List(ctx, &workers); err != nil {
		return xerrors.Errorf("loading worker relations: %w", err)
	}
	for i := range workers {
		m.workers[workers[i].Worker] = &workers[i]
	}

	return nil
}

// stage encodes every record touched by tx into a batch. Nothing is
// written until the batch is committed.
func (s *store) stage(tx *txn) (*statestore.Batch, error) {
	b, err := s.root.Batch(tx.ctx)
	if err != nil {
		return nil, err
	}

	for id, o := range tx.orders {
		if err := b.Put(tx.ctx, fmt.Sprintf("%s/%d", ordersNs, id), o); err != nil {
			return nil, err
		}
	}
	for id, d := range tx.deals {
		if err := b.Put(tx.ctx, fmt.Sprintf("%s/%d", dealsNs, id), d); err != nil {
			return nil, err
		}
	}
	for id, r := range tx.requests {
		if err := b.Put(tx.ctx, fmt.Sprintf("%s/%d", requestsNs, id), r); err != nil {
			return nil, err
		}
	}
	for w, rel := range tx.workers {
		k := fmt.Sprintf("%s/%s", workersNs, w)
		if rel.Unaffiliated() {
			if err := b.Delete(tx.ctx, k); err != nil {
				return nil, err
			}
			continue
		}
		if err := b.Put(tx.ctx, k, rel); err != nil {
			return nil, err
		}
	}
	if tx.newBenchmarkCount != nil || tx.newNetflagsCount != nil {
		md := meta{BenchmarkCount: tx.m.benchmarkCount, NetflagsCount: tx.m.netflagsCount}
		if tx.newBenchmarkCount != nil {
			md.BenchmarkCount = *tx.newBenchmarkCount
		}
		if tx.newNetflagsCount != nil {
			md.NetflagsCount = *tx.newNetflagsCount
		}
		if err := b.Put(tx.ctx, metaKey, &md); err != nil {
			return nil, err
		}
	}

	return b, nil
}
