package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapd/pkg/types"
)

const swapHistorySchema = `
CREATE TABLE IF NOT EXISTS swap_history (
	id                  TEXT PRIMARY KEY,
	wallet_address      TEXT NOT NULL,
	input_token         TEXT NOT NULL,
	input_token_symbol  TEXT NOT NULL,
	input_amount        TEXT NOT NULL,
	output_token        TEXT NOT NULL,
	output_token_symbol TEXT NOT NULL,
	dest_chain          TEXT NOT NULL,
	dest_chain_id       BIGINT NOT NULL,
	provider            TEXT NOT NULL,
	dest_tx_hash        TEXT NOT NULL DEFAULT '',
	sponsor_fee_paid    TEXT NOT NULL,
	fee_token           TEXT NOT NULL,
	bridge_order_id     TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	error_message       TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS swap_history_wallet_idx ON swap_history (wallet_address, created_at DESC);
`

// PostgresStore implements SwapStore on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and bootstraps the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, swapHistorySchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ SwapStore = (*PostgresStore)(nil)

func (s *PostgresStore) Insert(ctx context.Context, rec *types.SwapRecord) error {
	query := `
		INSERT INTO swap_history (
			id, wallet_address, input_token, input_token_symbol, input_amount,
			output_token, output_token_symbol, dest_chain, dest_chain_id,
			provider, sponsor_fee_paid, fee_token, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.WalletAddress,
		rec.InputToken,
		rec.InputTokenSymbol,
		rec.InputAmount,
		rec.OutputToken,
		rec.OutputTokenSymbol,
		rec.DestChain,
		rec.DestChainID,
		rec.Provider,
		rec.SponsorFeePaid,
		rec.FeeToken,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert swap record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*types.SwapRecord, error) {
	query := `
		SELECT id, wallet_address, input_token, input_token_symbol, input_amount,
			output_token, output_token_symbol, dest_chain, dest_chain_id, provider,
			dest_tx_hash, sponsor_fee_paid, fee_token, bridge_order_id, status,
			error_message, created_at, updated_at
		FROM swap_history WHERE id = $1
	`
	rec, err := scanSwapRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get swap record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) MarkOrderCreated(ctx context.Context, id, orderID string) error {
	query := `
		UPDATE swap_history
		SET bridge_order_id = $2, status = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, orderID, types.StatusFeePaid)
	if err != nil {
		return fmt.Errorf("attach order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE swap_history
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, types.StatusFailed, errorMessage)
	if err != nil {
		return fmt.Errorf("mark swap failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status types.SwapStatus, destTxHash string) error {
	query := `
		UPDATE swap_history
		SET status = $2,
			dest_tx_hash = CASE WHEN $3 = '' THEN dest_tx_hash ELSE $3 END,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, status, destTxHash)
	if err != nil {
		return fmt.Errorf("update swap status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ByWallet(ctx context.Context, wallet string, limit int) ([]*types.SwapRecord, error) {
	query := `
		SELECT id, wallet_address, input_token, input_token_symbol, input_amount,
			output_token, output_token_symbol, dest_chain, dest_chain_id, provider,
			dest_tx_hash, sponsor_fee_paid, fee_token, bridge_order_id, status,
			error_message, created_at, updated_at
		FROM swap_history
		WHERE wallet_address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("list swap records: %w", err)
	}
	defer rows.Close()

	var records []*types.SwapRecord
	for rows.Next() {
		rec, err := scanSwapRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSwapRecord(row rowScanner) (*types.SwapRecord, error) {
	var rec types.SwapRecord
	err := row.Scan(
		&rec.ID,
		&rec.WalletAddress,
		&rec.InputToken,
		&rec.InputTokenSymbol,
		&rec.InputAmount,
		&rec.OutputToken,
		&rec.OutputTokenSymbol,
		&rec.DestChain,
		&rec.DestChainID,
		&rec.Provider,
		&rec.DestTxHash,
		&rec.SponsorFeePaid,
		&rec.FeeToken,
		&rec.BridgeOrderID,
		&rec.Status,
		&rec.ErrorMessage,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
