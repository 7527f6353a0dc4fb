package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-state-types/big"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	o := NewStatic(big.NewInt(1000))

	r, err := o.CurrentRate(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000", r.String())

	require.Error(t, o.SetRate(big.Zero()))
	require.Error(t, o.SetRate(big.NewInt(-1)))

	require.NoError(t, o.SetRate(big.NewInt(2000)))
	r, err = o.CurrentRate(ctx)
	require.NoError(t, err)
	require.Equal(t, "2000", r.String())
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"rate":"1000000000000"}`))
		case "/zero":
			_, _ = w.Write([]byte(`{"rate":"0"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	r, err := NewHTTPSource(srv.URL + "/ok").FetchRate(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000000000000", r.String())

	_, err = NewHTTPSource(srv.URL + "/zero").FetchRate(ctx)
	require.Error(t, err)

	_, err = NewHTTPSource(srv.URL + "/broken").FetchRate(ctx)
	require.Error(t, err)
}

type fakeSource struct {
	lk   sync.Mutex
	rate big.Int
}

func (s *fakeSource) set(r int64) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.rate = big.NewInt(r)
}

func (s *fakeSource) FetchRate(ctx context.Context) (big.Int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.rate, nil
}

func TestFeedRefreshesOnTick(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	src := &fakeSource{rate: big.NewInt(5)}

	f := NewFeed(src, big.NewInt(1), time.Minute, clk)
	f.Start(ctx)
	defer f.Stop(ctx) //nolint:errcheck

	r, err := f.CurrentRate(ctx)
	require.NoError(t, err)
	require.Equal(t, "5", r.String())

	src.set(7)
	require.Eventually(t, func() bool {
		clk.Add(time.Minute)
		r, err := f.CurrentRate(ctx)
		return err == nil && r.String() == "7"
	}, 5*time.Second, 10*time.Millisecond)
}
