package market

import (
	"context"

	"golang.org/x/xerrors"
)

func (tx *txn) benchmarkCount() uint64 {
	if tx.newBenchmarkCount != nil {
		return *tx.newBenchmarkCount
	}
	return tx.m.benchmarkCount
}

func (tx *txn) netflagsCount() uint64 {
	if tx.newNetflagsCount != nil {
		return *tx.newNetflagsCount
	}
	return tx.m.netflagsCount
}

// SetBenchmarkCount changes the benchmark vector length new orders must
// carry. The count can only grow; orders placed under a smaller count stay
// matchable, missing positions read as zero.
func (m *Market) SetBenchmarkCount(ctx context.Context, n uint64) error {
	return m.run(ctx, "set_benchmark_count", func(tx *txn) error {
		if cur := tx.benchmarkCount(); n < cur {
			return xerrors.Errorf("benchmark count %d is below current %d: %w", n, cur, ErrInvalidChange)
		}
		tx.newBenchmarkCount = &n
		tx.emit(Event{Type: EvtBenchmarksUpdated, Count: n})
		log.Infow("benchmark count updated", "count", n)
		return nil
	})
}

// SetNetflagsCount changes the number of netflags orders may carry. Like
// the benchmark count it can only grow.
func (m *Market) SetNetflagsCount(ctx context.Context, n uint64) error {
	return m.run(ctx, "set_netflags_count", func(tx *txn) error {
		if cur := tx.netflagsCount(); n < cur {
			return xerrors.Errorf("netflags count %d is below current %d: %w", n, cur, ErrInvalidChange)
		}
		tx.newNetflagsCount = &n
		tx.emit(Event{Type: EvtNetflagsUpdated, Count: n})
		log.Infow("netflags count updated", "count", n)
		return nil
	})
}

func (m *Market) GetBenchmarksQuantity(ctx context.Context) uint64 {
	m.lk.Lock()
	defer m.lk.Unlock()

	return m.benchmarkCount
}

func (m *Market) GetNetflagsQuantity(ctx context.Context) uint64 {
	m.lk.Lock()
	defer m.lk.Unlock()

	return m.netflagsCount
}
