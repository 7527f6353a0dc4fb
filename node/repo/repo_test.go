package repo

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/require"

	"github.com/capmarket/capmarket/node/config"
)

func basicTest(t *testing.T, repo Repo) {
	ctx := context.Background()

	apima, err := repo.APIEndpoint()
	require.ErrorIs(t, err, ErrNoAPIEndpoint)
	require.Empty(t, apima)

	lrepo, err := repo.Lock()
	require.NoError(t, err, "should be able to lock once")
	require.NotNil(t, lrepo, "locked repo shouldn't be nil")

	{
		lrepo2, err := repo.Lock()
		require.ErrorIs(t, err, ErrRepoAlreadyLocked)
		require.Nil(t, lrepo2)
	}

	require.NoError(t, lrepo.Close(), "should be able to unlock")

	lrepo, err = repo.Lock()
	require.NoError(t, err, "should be able to relock")
	require.NotNil(t, lrepo)

	require.NoError(t, lrepo.SetAPIEndpoint("127.0.0.1:1345"))
	apima, err = repo.APIEndpoint()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1345", apima)

	ds, err := lrepo.Datastore(ctx)
	require.NoError(t, err)
	require.NoError(t, ds.Put(ctx, datastore.NewKey("/test"), []byte("value")))
	v, err := ds.Get(ctx, datastore.NewKey("/test"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v)

	cfg, err := lrepo.Config()
	require.NoError(t, err)
	require.Equal(t, config.Default().Market, cfg.Market)

	require.NoError(t, lrepo.SetConfig(func(c *config.Root) {
		c.Market.BenchmarkCount = 20
	}))
	cfg, err = lrepo.Config()
	require.NoError(t, err)
	require.EqualValues(t, 20, cfg.Market.BenchmarkCount)

	require.NotEmpty(t, lrepo.Path())

	require.NoError(t, lrepo.Close())
	require.ErrorIs(t, lrepo.Close(), ErrClosedRepo)

	apima, err = repo.APIEndpoint()
	require.ErrorIs(t, err, ErrNoAPIEndpoint)
	require.Empty(t, apima)
}
