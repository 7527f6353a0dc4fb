package types

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"
)

// TokenPrecision is the number of ledger units in one whole token.
const TokenPrecision = 18

// FormatToken renders a ledger amount as a decimal number of whole tokens.
func FormatToken(amt abi.TokenAmount) string {
	if amt.Int == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amt.Int, -TokenPrecision).String()
}

// ParseToken parses a decimal number of whole tokens into ledger units.
func ParseToken(s string) (abi.TokenAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return big.Zero(), xerrors.Errorf("failed to parse %q as a decimal number: %w", s, err)
	}
	d = d.Shift(TokenPrecision)
	if !d.Equal(d.Truncate(0)) {
		return big.Zero(), xerrors.Errorf("invalid token value %q: too many decimal places", s)
	}
	return big.NewFromGo(d.BigInt()), nil
}
