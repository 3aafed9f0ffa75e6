package service

import (
	"fmt"
	"time"

	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/types"
)

const (
	uniswapV2   = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	uniswapV3   = "0xe592427a0aece92de3edee1f18e0157c05861564"
	stargate    = "0x8731d54e9d02c286767d56ac03e8037c07e01e98"
	aaveV3      = "0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2"
	multicall3  = "0xca11bde05977b3631167028862be2a173976ca11"
	uncataloged = "0x000000000000000000000000000000000000dead"
	testWallet  = "0x1234567890abcdef1234567890abcdef12345678"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestAggregator() *ActivityAggregator {
	return NewActivityAggregator(catalog.MustLoad(), DefaultScoringWeights()).WithClock(testClock)
}

func timePtr(t time.Time) *time.Time { return &t }

func chainTx(hash, to string, at time.Time) types.ChainTransaction {
	ok := true
	return types.ChainTransaction{
		TxHash:        hash,
		FromAddress:   testWallet,
		ToAddress:     to,
		BlockSignedAt: timePtr(at),
		Successful:    &ok,
	}
}

func walletTx(protocol string, txType types.TransactionType, value float64, at time.Time) types.WalletTransaction {
	return types.WalletTransaction{
		Hash:      fmt.Sprintf("0x%x", at.UnixNano()),
		From:      testWallet,
		Value:     value,
		Timestamp: at,
		Protocol:  protocol,
		Type:      txType,
		Success:   true,
	}
}

func profileFor(address string) types.SmartMoneyProfile {
	p := DefaultProfile(address)
	return p
}

func walletAddress(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}
