package market

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"

	"github.com/capmarket/capmarket/chain/types"
)

// RegisterWorker announces master as the payout delegate of the calling
// worker. The announcement takes effect once master confirms it.
func (m *Market) RegisterWorker(ctx context.Context, master address.Address, worker address.Address) error {
	return m.run(ctx, "register_worker", func(tx *txn) error {
		if master == worker {
			return xerrors.Errorf("worker %s cannot be its own master: %w", worker, ErrInvalidState)
		}
		rel := tx.worker(worker)
		if rel.ConfirmedMaster != address.Undef {
			return xerrors.Errorf("worker %s is already confirmed under %s: %w", worker, rel.ConfirmedMaster, ErrInvalidState)
		}
		if tx.worker(master).ConfirmedMaster != address.Undef {
			return xerrors.Errorf("master %s is itself a worker: %w", master, ErrInvalidState)
		}

		rel.PendingMaster = master
		tx.emit(Event{Type: EvtWorkerAnnounced, Worker: worker, Master: master})
		log.Infow("worker announced", "worker", worker, "master", master)
		return nil
	})
}

// ConfirmWorker accepts a pending announcement. The caller must be the
// announced master.
func (m *Market) ConfirmWorker(ctx context.Context, worker address.Address, master address.Address) error {
	return m.run(ctx, "confirm_worker", func(tx *txn) error {
		rel := tx.worker(worker)
		if rel.PendingMaster == address.Undef || rel.PendingMaster != master {
			return xerrors.Errorf("worker %s has no announcement for %s: %w", worker, master, ErrNoSuchAnnouncement)
		}
		if tx.worker(master).ConfirmedMaster != address.Undef {
			return xerrors.Errorf("master %s is itself a worker: %w", master, ErrInvalidState)
		}

		rel.ConfirmedMaster = master
		rel.PendingMaster = address.Undef
		tx.emit(Event{Type: EvtWorkerConfirmed, Worker: worker, Master: master})
		log.Infow("worker confirmed", "worker", worker, "master", master)
		return nil
	})
}

// RemoveWorker dissolves a pending or confirmed relation. Either side may
// call it. Deals already open keep paying the master they were opened with.
func (m *Market) RemoveWorker(ctx context.Context, worker address.Address, master address.Address, caller address.Address) error {
	return m.run(ctx, "remove_worker", func(tx *txn) error {
		if caller != worker && caller != master {
			return xerrors.Errorf("%s cannot remove worker %s: %w", caller, worker, ErrUnauthorized)
		}
		rel := tx.worker(worker)
		if master == address.Undef || (rel.ConfirmedMaster != master && rel.PendingMaster != master) {
			return xerrors.Errorf("worker %s has no relation with %s: %w", worker, master, ErrNoSuchAnnouncement)
		}

		rel.ConfirmedMaster = address.Undef
		rel.PendingMaster = address.Undef
		tx.emit(Event{Type: EvtWorkerRemoved, Worker: worker, Master: master})
		log.Infow("worker removed", "worker", worker, "master", master)
		return nil
	})
}

// GetMaster returns the payout identity of a worker, which is the worker
// itself unless a master has confirmed it.
func (m *Market) GetMaster(ctx context.Context, worker address.Address) address.Address {
	m.lk.Lock()
	defer m.lk.Unlock()

	if rel, ok := m.workers[worker]; ok && rel.ConfirmedMaster != address.Undef {
		return rel.ConfirmedMaster
	}
	return worker
}

func (m *Market) GetWorkerStatus(ctx context.Context, worker address.Address) types.WorkerStatus {
	m.lk.Lock()
	defer m.lk.Unlock()

	st := types.WorkerStatus{Worker: worker, Master: worker}
	if rel, ok := m.workers[worker]; ok {
		st.PendingMaster = rel.PendingMaster
		if rel.ConfirmedMaster != address.Undef {
			st.Master = rel.ConfirmedMaster
			st.Confirmed = true
		}
	}
	return st
}
