package types

import "time"

// TransactionType classifies a wallet transaction
type TransactionType string

const (
	TxBuy      TransactionType = "buy"
	TxSell     TransactionType = "sell"
	TxSwap     TransactionType = "swap"
	TxTransfer TransactionType = "transfer"
	TxStake    TransactionType = "stake"
	TxBridge   TransactionType = "bridge"
	TxMint     TransactionType = "mint"
	TxOther    TransactionType = "other"
)

// WalletTransaction is a wallet-level trade or transfer with a quote-currency value
type WalletTransaction struct {
	Hash      string          `json:"hash"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Value     float64         `json:"value"` // quote-currency (USD) estimate
	Timestamp time.Time       `json:"timestamp"`
	Protocol  string          `json:"protocol,omitempty"`
	Type      TransactionType `json:"type"`
	Success   bool            `json:"success"`
}

// TokenHolding is a current token position with its cost basis
type TokenHolding struct {
	Token         string  `json:"token"`
	Balance       float64 `json:"balance"`
	AvgBuyPrice   float64 `json:"avgBuyPrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	PnL           float64 `json:"pnl"`
	PnLPercentage float64 `json:"pnlPercentage"`
}

// NewTokenHolding builds a holding and derives its PnL fields
func NewTokenHolding(token string, balance, avgBuyPrice, currentPrice float64) TokenHolding {
	pnlPct := 0.0
	if avgBuyPrice != 0 {
		pnlPct = (currentPrice - avgBuyPrice) / avgBuyPrice * 100
	}
	return TokenHolding{
		Token:         token,
		Balance:       balance,
		AvgBuyPrice:   avgBuyPrice,
		CurrentPrice:  currentPrice,
		PnL:           balance * (currentPrice - avgBuyPrice),
		PnLPercentage: pnlPct,
	}
}

// TradingStyle is the coarse behavioral class of a wallet
type TradingStyle string

const (
	StyleAggressive   TradingStyle = "aggressive"
	StyleModerate     TradingStyle = "moderate"
	StyleConservative TradingStyle = "conservative"
)

// SmartMoneyProfile is the behavioral profile of a single wallet
type SmartMoneyProfile struct {
	Address              string       `json:"address"`
	Profitability        float64      `json:"profitability"`        // 0-100
	WinRate              float64      `json:"winRate"`              // 0-100
	AvgHoldTime          float64      `json:"avgHoldTime"`          // days
	DiversificationScore float64      `json:"diversificationScore"` // 0-100
	RiskScore            float64      `json:"riskScore"`            // 0-100, higher is riskier
	TradingStyle         TradingStyle `json:"tradingStyle"`
	Specialties          []string     `json:"specialties"`
	TotalPnL             float64      `json:"totalPnL"`
	ROI                  float64      `json:"roi"` // percent
}

// SignalType is the direction of a smart money signal
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

// SmartMoneySignal is a coordinated action detected across smart wallets
type SmartMoneySignal struct {
	Type         SignalType `json:"type"`
	Token        string     `json:"token"`
	Confidence   float64    `json:"confidence"` // 0-100
	Reason       string     `json:"reason"`
	SmartWallets []string   `json:"smartWallets"`
	Volume       float64    `json:"volume"`
	Timestamp    time.Time  `json:"timestamp"`
}

// AirdropPrediction estimates a wallet's chance of qualifying for a protocol airdrop
type AirdropPrediction struct {
	Protocol           string  `json:"protocol"`
	Probability        int     `json:"probability"`        // percent
	SmartMoneyAdoption float64 `json:"smartMoneyAdoption"` // percent of the cohort
	SmartWalletCount   int     `json:"smartWalletCount"`
	HasInteracted      bool    `json:"hasInteracted"`
	Reasoning          string  `json:"reasoning"`
}
