package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
)

var log = logging.Logger("ledger")

var ErrInsufficientFunds = errors.New("insufficient funds")

var dsPrefix = datastore.NewKey("/ledger")

// Ledger holds the balances the market escrows from and pays out to.
type Ledger interface {
	Balance(ctx context.Context, acct address.Address) (abi.TokenAmount, error)
	// Debit fails with ErrInsufficientFunds if the balance is below amt.
	Debit(ctx context.Context, acct address.Address, amt abi.TokenAmount) error
	Credit(ctx context.Context, acct address.Address, amt abi.TokenAmount) error
}

// Entry is one balance change. Negative deltas are debits.
type Entry struct {
	Account address.Address
	Delta   abi.TokenAmount
}

// Applier is implemented by ledgers that can apply a set of entries
// all-or-nothing.
type Applier interface {
	Apply(ctx context.Context, entries []Entry) error
}

// Store is a Ledger backed by a datastore.
type Store struct {
	lk sync.Mutex
	ds datastore.Batching
}

var _ Ledger = (*Store)(nil)
var _ Applier = (*Store)(nil)

func NewStore(ds datastore.Batching) *Store {
	return &Store{ds: namespace.Wrap(ds, dsPrefix)}
}

func key(acct address.Address) datastore.Key {
	return datastore.NewKey(acct.String())
}

func (s *Store) Balance(ctx context.Context, acct address.Address) (abi.TokenAmount, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	return s.balance(ctx, acct)
}

func (s *Store) balance(ctx context.Context, acct address.Address) (abi.TokenAmount, error) {
	b, err := s.ds.Get(ctx, key(acct))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return big.Zero(), nil
		}
		return big.Zero(), xerrors.Errorf("reading balance of %s: %w", acct, err)
	}
	amt, err := big.FromBytes(b)
	if err != nil {
		return big.Zero(), xerrors.Errorf("decoding balance of %s: %w", acct, err)
	}
	return amt, nil
}

func (s *Store) Debit(ctx context.Context, acct address.Address, amt abi.TokenAmount) error {
	return s.Apply(ctx, []Entry{{Account: acct, Delta: big.Sub(big.Zero(), amt)}})
}

func (s *Store) Credit(ctx context.Context, acct address.Address, amt abi.TokenAmount) error {
	return s.Apply(ctx, []Entry{{Account: acct, Delta: amt}})
}

// Apply sums the entries per account and writes the resulting balances in
// a single batch. No balance is changed if any account would go negative.
func (s *Store) Apply(ctx context.Context, entries []Entry) error {
	s.lk.Lock()
	defer s.lk.Unlock()

	deltas := make(map[address.Address]abi.TokenAmount)
	var order []address.Address
	for _, e := range entries {
		if e.Delta.Int == nil || e.Delta.IsZero() {
			continue
		}
		cur, ok := deltas[e.Account]
		if !ok {
			cur = big.Zero()
			order = append(order, e.Account)
		}
		deltas[e.Account] = big.Add(cur, e.Delta)
	}

	b, err := s.ds.Batch(ctx)
	if err != nil {
		return xerrors.Errorf("creating batch: %w", err)
	}

	for _, acct := range order {
		bal, err := s.balance(ctx, acct)
		if err != nil {
			return err
		}
		nb := big.Add(bal, deltas[acct])
		if nb.Sign() < 0 {
			return xerrors.Errorf("account %s has %s, needs %s: %w", acct, bal, big.Sub(big.Zero(), deltas[acct]), ErrInsufficientFunds)
		}
		nbb, err := nb.Bytes()
		if err != nil {
			return err
		}
		if err := b.Put(ctx, key(acct), nbb); err != nil {
			return xerrors.Errorf("writing balance of %s: %w", acct, err)
		}
	}

	if err := b.Commit(ctx); err != nil {
		return xerrors.Errorf("committing balances: %w", err)
	}

	log.Debugw("applied ledger entries", "accounts", len(order))
	return nil
}

// List returns every nonzero balance.
func (s *Store) List(ctx context.Context) (map[address.Address]abi.TokenAmount, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	res, err := s.ds.Query(ctx, query.Query{})
	if err != nil {
		return nil, err
	}
	defer res.Close() //nolint:errcheck

	out := make(map[address.Address]abi.TokenAmount)
	for r := range res.Next() {
		if r.Error != nil {
			return nil, r.Error
		}
		acct, err := address.NewFromString(datastore.RawKey(r.Key).BaseNamespace())
		if err != nil {
			return nil, xerrors.Errorf("parsing account key %s: %w", r.Key, err)
		}
		amt, err := big.FromBytes(r.Value)
		if err != nil {
			return nil, xerrors.Errorf("decoding balance of %s: %w", acct, err)
		}
		if !amt.IsZero() {
			out[acct] = amt
		}
	}
	return out, nil
}
