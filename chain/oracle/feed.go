package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/raulk/clock"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/capmarket/capmarket/lib/retry"
)

// Source fetches the latest rate from an external price feed.
type Source interface {
	FetchRate(ctx context.Context) (big.Int, error)
}

// HTTPSource reads a JSON document of the form {"rate": "<decimal integer>"}.
type HTTPSource struct {
	client *http.Client
	url    string
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

type rateResponse struct {
	Rate big.Int `json:"rate"`
}

func (s *HTTPSource) FetchRate(ctx context.Context) (big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return big.Zero(), err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return big.Zero(), xerrors.Errorf("fetching rate: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return big.Zero(), xerrors.Errorf("fetching rate: unexpected status %d", resp.StatusCode)
	}

	var rr rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return big.Zero(), xerrors.Errorf("decoding rate: %w", err)
	}
	if rr.Rate.Int == nil || rr.Rate.Sign() <= 0 {
		return big.Zero(), xerrors.Errorf("feed returned non-positive rate")
	}
	return rr.Rate, nil
}

// Feed keeps a Static oracle in sync with a Source. Failed refreshes keep
// the last known rate.
type Feed struct {
	*Static

	src      Source
	clk      clock.Clock
	interval time.Duration

	closing chan struct{}
	closed  chan struct{}
}

func NewFeed(src Source, initial big.Int, interval time.Duration, clk clock.Clock) *Feed {
	return &Feed{
		Static:   NewStatic(initial),
		src:      src,
		clk:      clk,
		interval: interval,
		closing:  make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

func (f *Feed) Start(ctx context.Context) {
	f.refresh(ctx)
	go f.run()
}

func (f *Feed) Stop(ctx context.Context) error {
	close(f.closing)
	select {
	case <-f.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) run() {
	defer close(f.closed)

	ticker := f.clk.Ticker(f.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-f.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ticker.C:
			f.refresh(ctx)
		case <-f.closing:
			return
		}
	}
}

func (f *Feed) refresh(ctx context.Context) {
	rate, err := retry.Retry(ctx, 3, time.Second, nil, func() (big.Int, error) {
		return f.src.FetchRate(ctx)
	})
	if err != nil {
		log.Warnw("rate refresh failed, keeping last rate", "error", err)
		return
	}
	if err := f.SetRate(rate); err != nil {
		log.Warnw("rejected rate from feed", "error", err)
	}
}
