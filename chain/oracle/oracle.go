package oracle

import (
	"context"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-state-types/big"
)

var log = logging.Logger("oracle")

// PriceOracle supplies the rate converting price units per second into
// ledger units per second, scaled by build.RateScale.
type PriceOracle interface {
	CurrentRate(ctx context.Context) (big.Int, error)
}

// Static is an oracle whose rate is set by an operator.
type Static struct {
	lk   sync.RWMutex
	rate big.Int
}

var _ PriceOracle = (*Static)(nil)

func NewStatic(rate big.Int) *Static {
	return &Static{rate: rate}
}

func (s *Static) CurrentRate(ctx context.Context) (big.Int, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()

	return s.rate, nil
}

func (s *Static) SetRate(rate big.Int) error {
	if rate.Int == nil || rate.Sign() <= 0 {
		return xerrors.Errorf("rate must be positive, got %s", rate)
	}

	s.lk.Lock()
	defer s.lk.Unlock()

	log.Infow("oracle rate updated", "old", s.rate, "new", rate)
	s.rate = rate
	return nil
}
