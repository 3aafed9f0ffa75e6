package service

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/types"
)

// FilterWhaleTransactions keeps transactions whose value is at least minValue.
// minValue is a decimal string such as "100000"; non-finite values never match.
func FilterWhaleTransactions(txs []types.WalletTransaction, minValue string) ([]types.WalletTransaction, error) {
	threshold, err := decimal.NewFromString(strings.TrimSpace(minValue))
	if err != nil {
		return nil, apperrors.NewInvalidParameterError("minValue", "must be a decimal number")
	}

	whales := make([]types.WalletTransaction, 0)
	for _, tx := range txs {
		if !isFinite(tx.Value) {
			continue
		}
		if decimal.NewFromFloat(tx.Value).GreaterThanOrEqual(threshold) {
			whales = append(whales, tx)
		}
	}
	return whales, nil
}
