package statestore

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string
	Count int
}

func TestStateStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New(dssync.MutexWrap(datastore.NewMapDatastore()))

	require.NoError(t, st.Begin(ctx, uint64(1), &record{Name: "a"}))
	require.Error(t, st.Begin(ctx, uint64(1), &record{Name: "b"}))

	require.NoError(t, st.Mutate(ctx, uint64(1), func(r *record) error {
		r.Count++
		return nil
	}))

	var r record
	require.NoError(t, st.Get(ctx, uint64(1), &r))
	require.Equal(t, record{Name: "a", Count: 1}, r)

	has, err := st.Has(ctx, uint64(1))
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, st.End(ctx, uint64(1)))
	require.Error(t, st.End(ctx, uint64(1)))
	require.Error(t, st.Get(ctx, uint64(1), &r))
	require.Error(t, st.Mutate(ctx, uint64(1), func(r *record) error { return nil }))
}

func TestStateStoreBatchAndList(t *testing.T) {
	ctx := context.Background()
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	st := New(ds)

	b, err := st.Batch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, uint64(1), &record{Name: "a"}))
	require.NoError(t, b.Put(ctx, "two", &record{Name: "b"}))
	require.NoError(t, b.Commit(ctx))

	require.NoError(t, ds.Put(ctx, datastore.NewKey("bad"), []byte("{")))

	var out []record
	err = st.List(ctx, &out)
	require.Error(t, err)
	require.ElementsMatch(t, []record{{Name: "a"}, {Name: "b"}}, out)
}
