package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/capmarket/capmarket/chain/types"
)

var errDiskFull = errors.New("disk full")

// failingDS fails writes under prefix while fail is set. Batches fail on
// commit if any of their keys fall under prefix.
type failingDS struct {
	datastore.Batching
	prefix datastore.Key
	fail   bool
}

func newFailingDS(prefix string) *failingDS {
	return &failingDS{
		Batching: dssync.MutexWrap(datastore.NewMapDatastore()),
		prefix:   datastore.NewKey(prefix),
	}
}

func (f *failingDS) Put(ctx context.Context, k datastore.Key, v []byte) error {
	if f.fail && f.prefix.IsAncestorOf(k) {
		return errDiskFull
	}
	return f.Batching.Put(ctx, k, v)
}

func (f *failingDS) Batch(ctx context.Context) (datastore.Batch, error) {
	b, err := f.Batching.Batch(ctx)
	if err != nil {
		return nil, err
	}
	return &failingBatch{Batch: b, ds: f}, nil
}

type failingBatch struct {
	datastore.Batch
	ds      *failingDS
	touched bool
}

func (b *failingBatch) Put(ctx context.Context, k datastore.Key, v []byte) error {
	b.touched = b.touched || b.ds.prefix.IsAncestorOf(k)
	return b.Batch.Put(ctx, k, v)
}

func (b *failingBatch) Delete(ctx context.Context, k datastore.Key) error {
	b.touched = b.touched || b.ds.prefix.IsAncestorOf(k)
	return b.Batch.Delete(ctx, k)
}

func (b *failingBatch) Commit(ctx context.Context) error {
	if b.touched && b.ds.fail {
		return errDiskFull
	}
	return b.Batch.Commit(ctx)
}

func TestFailedRecordWriteLeavesNoTrace(t *testing.T) {
	fds := newFailingDS("/market")
	s := setupDS(t, fds)
	consumer := s.account(1_000_000)

	fds.fail = true
	_, err := s.m.PlaceOrder(s.ctx, orderSpec(types.Bid, 0, unitPrice), consumer)
	require.ErrorIs(t, err, errDiskFull)

	s.requireBalance(consumer, 1_000_000)
	require.EqualValues(t, 0, s.m.GetOrdersAmount(s.ctx))
	require.Empty(t, s.eventTypes())

	fds.fail = false
	require.EqualValues(t, 1, s.placeBid(consumer, 0, unitPrice))
	s.requireBalance(consumer, 1_000_000-3600)
	s.requireConserved(1_000_000)

	restored := s.open()
	require.EqualValues(t, 1, restored.GetOrdersAmount(s.ctx))
}

func TestFailedDealWriteKeepsEscrow(t *testing.T) {
	fds := newFailingDS("/market")
	s := setupDS(t, fds)
	dealID, supplier, consumer := s.openDeal(0, 10_000)
	s.clk.Add(10 * time.Minute)

	fds.fail = true
	_, err := s.m.Bill(s.ctx, dealID, supplier)
	require.ErrorIs(t, err, errDiskFull)

	s.requireBalance(supplier, 0)
	s.requireBalance(consumer, 10_000-3600)
	d := s.deal(dealID)
	require.Equal(t, "3600", d.BlockedBalance.String())
	require.Equal(t, d.StartTime, d.LastBillTS)

	fds.fail = false
	paid, err := s.m.Bill(s.ctx, dealID, supplier)
	require.NoError(t, err)
	require.Equal(t, "600", paid.String())
	s.requireConserved(10_000)
}

func TestFailedBlacklistWriteFailsClose(t *testing.T) {
	fds := newFailingDS("/blacklist")
	s := setupDS(t, fds)
	dealID, supplier, consumer := s.openDeal(0, 10_000)
	s.clk.Add(time.Minute)

	fds.fail = true
	err := s.m.CloseDeal(s.ctx, dealID, types.BlacklistWorker, consumer)
	require.ErrorIs(t, err, errDiskFull)

	require.Equal(t, types.DealAccepted, s.deal(dealID).Status)
	s.requireBalance(supplier, 0)
	s.requireBalance(consumer, 10_000-3600)

	fds.fail = false
	require.NoError(t, s.m.CloseDeal(s.ctx, dealID, types.BlacklistWorker, consumer))
	banned, err := s.bl.Check(s.ctx, consumer, supplier)
	require.NoError(t, err)
	require.True(t, banned)
	s.requireBalance(supplier, 60)
	s.requireConserved(10_000)
}
