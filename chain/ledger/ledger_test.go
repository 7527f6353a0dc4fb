package ledger

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
)

func newStore() *Store {
	return NewStore(dssync.MutexWrap(datastore.NewMapDatastore()))
}

func TestStoreCreditDebit(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	a := address.NewForTestGetter()()

	bal, err := s.Balance(ctx, a)
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	require.NoError(t, s.Credit(ctx, a, big.NewInt(100)))
	require.NoError(t, s.Debit(ctx, a, big.NewInt(40)))

	bal, err = s.Balance(ctx, a)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(60), bal)

	err = s.Debit(ctx, a, big.NewInt(61))
	require.True(t, xerrors.Is(err, ErrInsufficientFunds))

	bal, err = s.Balance(ctx, a)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(60), bal)
}

func TestStoreApplyAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	getter := address.NewForTestGetter()
	a, b := getter(), getter()

	require.NoError(t, s.Credit(ctx, a, big.NewInt(10)))

	// b cannot go negative, so a keeps its balance too
	err := s.Apply(ctx, []Entry{
		{Account: a, Delta: big.NewInt(-10)},
		{Account: b, Delta: big.NewInt(-1)},
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	bal, err := s.Balance(ctx, a)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), bal)

	// deltas for the same account are summed before checking
	require.NoError(t, s.Apply(ctx, []Entry{
		{Account: a, Delta: big.NewInt(-15)},
		{Account: a, Delta: big.NewInt(5)},
		{Account: b, Delta: big.NewInt(10)},
	}))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, big.NewInt(10), all[b])
}
