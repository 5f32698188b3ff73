// Package store persists swap records behind a small CRUD contract.
package store

import (
	"context"
	"errors"

	"swapd/pkg/types"
)

// ErrNotFound means no swap record exists for the given id.
var ErrNotFound = errors.New("swap not found")

// SwapStore is the persistence contract for swap records. Records are
// created once, mutated only by the executor (construction phase) and the
// status poller (status-only updates), and never deleted here.
type SwapStore interface {
	Insert(ctx context.Context, rec *types.SwapRecord) error
	Get(ctx context.Context, id string) (*types.SwapRecord, error)
	// MarkOrderCreated attaches the provider order id and advances the
	// record to fee_paid.
	MarkOrderCreated(ctx context.Context, id, orderID string) error
	// MarkFailed records a construction failure.
	MarkFailed(ctx context.Context, id, errorMessage string) error
	// UpdateStatus records a status transition observed by the poller.
	UpdateStatus(ctx context.Context, id string, status types.SwapStatus, destTxHash string) error
	// ByWallet returns the wallet's most recent records, newest first.
	ByWallet(ctx context.Context, wallet string, limit int) ([]*types.SwapRecord, error)
}
