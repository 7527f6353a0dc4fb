package blacklist

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-address"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dssync.MutexWrap(datastore.NewMapDatastore()))

	getter := address.NewForTestGetter()
	owner, w1, w2 := getter(), getter(), getter()

	ok, err := s.Check(ctx, owner, w1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Add(ctx, owner, w1))

	ok, err = s.Check(ctx, owner, w1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Check(ctx, owner, w2)
	require.NoError(t, err)
	require.False(t, ok)

	// entries are per owner
	ok, err = s.Check(ctx, w2, w1)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Check(ctx, address.Undef, w1)
	require.NoError(t, err)
	require.False(t, ok)

	lst, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, []address.Address{w1}, lst)

	require.NoError(t, s.Remove(ctx, owner, w1))
	ok, err = s.Check(ctx, owner, w1)
	require.NoError(t, err)
	require.False(t, ok)
}
