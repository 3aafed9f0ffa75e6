package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wallet-insights/internal/types"
)

// ActivityRepository reads and writes wallet activity in ClickHouse.
// Addresses are stored lowercase.
type ActivityRepository struct {
	db     *ClickHouseDB
	chains []types.ChainID
}

// NewActivityRepository creates a repository that reads the given chains.
// An empty chain list reads every chain.
func NewActivityRepository(db *ClickHouseDB, chains []types.ChainID) *ActivityRepository {
	return &ActivityRepository{db: db, chains: chains}
}

func (r *ActivityRepository) chainFilter() (string, []interface{}) {
	if len(r.chains) == 0 {
		return "", nil
	}
	ids := make([]uint32, len(r.chains))
	for i, c := range r.chains {
		ids[i] = uint32(c) // #nosec G115 - chain ids are positive and validated in config
	}
	return " AND chain_id IN (?)", []interface{}{ids}
}

// GetProtocolInteractions aggregates a wallet's chain transactions per
// destination contract and chain. Protocol names are resolved by the catalog.
func (r *ActivityRepository) GetProtocolInteractions(ctx context.Context, address string) ([]types.ProtocolInteraction, error) {
	filter, filterArgs := r.chainFilter()
	query := `
		SELECT to_address, chain_id, count() AS interactions,
		       min(block_signed_at) AS first_seen, max(block_signed_at) AS last_seen
		FROM chain_transactions FINAL
		WHERE address = ? AND to_address != ''` + filter + `
		GROUP BY to_address, chain_id
		ORDER BY interactions DESC, to_address
	`
	args := append([]interface{}{strings.ToLower(address)}, filterArgs...)

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query protocol interactions: %w", err)
	}
	defer rows.Close()

	var interactions []types.ProtocolInteraction
	for rows.Next() {
		var (
			to          string
			chainID     uint32
			count       uint64
			first, last time.Time
		)
		if err := rows.Scan(&to, &chainID, &count, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan protocol interaction: %w", err)
		}
		first, last = first.UTC(), last.UTC()
		interactions = append(interactions, types.ProtocolInteraction{
			ContractAddress:  to,
			ChainID:          types.ChainID(chainID),
			InteractionCount: int(count), // #nosec G115 - per-wallet counts fit in int
			FirstInteraction: &first,
			LastInteraction:  &last,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protocol interactions: %w", err)
	}
	return interactions, nil
}

// GetChainTransactions returns a wallet's raw transactions grouped by chain
func (r *ActivityRepository) GetChainTransactions(ctx context.Context, address string) (map[types.ChainID][]types.ChainTransaction, error) {
	filter, filterArgs := r.chainFilter()
	query := `
		SELECT chain_id, tx_hash, from_address, to_address, block_signed_at, successful, value
		FROM chain_transactions FINAL
		WHERE address = ?` + filter + `
		ORDER BY block_signed_at DESC
	`
	args := append([]interface{}{strings.ToLower(address)}, filterArgs...)

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain transactions: %w", err)
	}
	defer rows.Close()

	byChain := make(map[types.ChainID][]types.ChainTransaction)
	for rows.Next() {
		var (
			chainID    uint32
			tx         types.ChainTransaction
			signedAt   time.Time
			successful bool
		)
		if err := rows.Scan(&chainID, &tx.TxHash, &tx.FromAddress, &tx.ToAddress, &signedAt, &successful, &tx.Value); err != nil {
			return nil, fmt.Errorf("failed to scan chain transaction: %w", err)
		}
		signedAt = signedAt.UTC()
		tx.BlockSignedAt = &signedAt
		tx.Successful = &successful

		id := types.ChainID(chainID)
		byChain[id] = append(byChain[id], tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chain transactions: %w", err)
	}
	return byChain, nil
}

// GetWalletTransactions returns a wallet's valued transactions since a point in time, oldest first
func (r *ActivityRepository) GetWalletTransactions(ctx context.Context, address string, since time.Time) ([]types.WalletTransaction, error) {
	query := `
		SELECT hash, from_address, to_address, value, timestamp, protocol, type, success
		FROM wallet_transactions FINAL
		WHERE address = ? AND timestamp >= ?
		ORDER BY timestamp ASC, hash ASC
	`

	rows, err := r.db.Conn().Query(ctx, query, strings.ToLower(address), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	var txs []types.WalletTransaction
	for rows.Next() {
		var tx types.WalletTransaction
		var txType string
		if err := rows.Scan(&tx.Hash, &tx.From, &tx.To, &tx.Value, &tx.Timestamp, &tx.Protocol, &txType, &tx.Success); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		tx.Timestamp = tx.Timestamp.UTC()
		tx.Type = types.TransactionType(txType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}
	return txs, nil
}

// GetHoldings returns the latest holdings snapshot of a wallet
func (r *ActivityRepository) GetHoldings(ctx context.Context, address string) ([]types.TokenHolding, error) {
	query := `
		SELECT token, balance, avg_buy_price, current_price
		FROM token_holdings FINAL
		WHERE address = ?
		ORDER BY token
	`

	rows, err := r.db.Conn().Query(ctx, query, strings.ToLower(address))
	if err != nil {
		return nil, fmt.Errorf("failed to query token holdings: %w", err)
	}
	defer rows.Close()

	var holdings []types.TokenHolding
	for rows.Next() {
		var token string
		var balance, avgBuy, current float64
		if err := rows.Scan(&token, &balance, &avgBuy, &current); err != nil {
			return nil, fmt.Errorf("failed to scan token holding: %w", err)
		}
		holdings = append(holdings, types.NewTokenHolding(token, balance, avgBuy, current))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token holdings: %w", err)
	}
	return holdings, nil
}

// InsertChainTransactions stores raw chain transactions for a wallet.
// Transactions without a block time are skipped.
func (r *ActivityRepository) InsertChainTransactions(ctx context.Context, address string, byChain map[types.ChainID][]types.ChainTransaction) error {
	if len(byChain) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO chain_transactions (
			address, chain_id, tx_hash, from_address, to_address, block_signed_at, successful, value
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	addr := strings.ToLower(address)
	for chainID, txs := range byChain {
		for _, tx := range txs {
			if tx.BlockSignedAt == nil {
				continue
			}
			successful := tx.Successful == nil || *tx.Successful
			if err := batch.Append(
				addr,
				uint32(chainID), // #nosec G115 - chain ids are positive
				tx.TxHash,
				strings.ToLower(tx.FromAddress),
				strings.ToLower(tx.ToAddress),
				tx.BlockSignedAt.UTC(),
				successful,
				tx.Value,
			); err != nil {
				return fmt.Errorf("failed to append chain transaction %s: %w", tx.TxHash, err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send chain transaction batch: %w", err)
	}
	return nil
}

// InsertWalletTransactions stores valued wallet transactions
func (r *ActivityRepository) InsertWalletTransactions(ctx context.Context, address string, txs []types.WalletTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO wallet_transactions (
			address, hash, from_address, to_address, value, timestamp, protocol, type, success
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	addr := strings.ToLower(address)
	for _, tx := range txs {
		if err := batch.Append(
			addr,
			tx.Hash,
			strings.ToLower(tx.From),
			strings.ToLower(tx.To),
			tx.Value,
			tx.Timestamp.UTC(),
			tx.Protocol,
			string(tx.Type),
			tx.Success,
		); err != nil {
			return fmt.Errorf("failed to append wallet transaction %s: %w", tx.Hash, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send wallet transaction batch: %w", err)
	}
	return nil
}

// ReplaceHoldings writes a new holdings snapshot. Older rows for the same
// token are collapsed by the table engine.
func (r *ActivityRepository) ReplaceHoldings(ctx context.Context, address string, holdings []types.TokenHolding) error {
	if len(holdings) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO token_holdings (address, token, balance, avg_buy_price, current_price, updated_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	addr := strings.ToLower(address)
	now := time.Now().UTC()
	for _, h := range holdings {
		if err := batch.Append(addr, h.Token, h.Balance, h.AvgBuyPrice, h.CurrentPrice, now); err != nil {
			return fmt.Errorf("failed to append holding %s: %w", h.Token, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send holdings batch: %w", err)
	}
	return nil
}
