package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/chain/market"
)

func TestWireError(t *testing.T) {
	require.NoError(t, WireError(nil))

	err := WireError(xerrors.Errorf("deal 3: %w", market.ErrDealNotActive))
	var typed *ErrDealNotActive
	require.True(t, errors.As(err, &typed))
	require.ErrorIs(t, err, market.ErrDealNotActive)

	require.ErrorIs(t, WireError(market.ErrInsufficientFunds), market.ErrInsufficientFunds)

	other := errors.New("boom")
	require.Equal(t, other, WireError(other))
}
