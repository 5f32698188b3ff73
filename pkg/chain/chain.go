// Package chain narrows the Solana RPC surface this service depends on.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Reader is the read-side chain access used by the fee calculator,
// transaction builders and provider clients. Implementations must not cache.
type Reader interface {
	// Balance returns the lamport balance of an account (0 if absent).
	Balance(ctx context.Context, addr solana.PublicKey) (uint64, error)
	// AccountExists reports whether an account exists on chain.
	AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error)
	// AccountOwner returns the owning program of an account.
	AccountOwner(ctx context.Context, addr solana.PublicKey) (solana.PublicKey, error)
	// AccountData returns the raw binary data of an account.
	AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
	// TokenAccountBalance returns a token account's balance in smallest units,
	// or 0 if the account does not exist.
	TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// LatestBlockhash returns a fresh recent blockhash.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// RPC implements Reader on top of a solana-go RPC client.
type RPC struct {
	client *rpc.Client
}

// NewRPC creates a Reader backed by the given Solana RPC endpoint.
func NewRPC(endpoint string) *RPC {
	return &RPC{client: rpc.New(endpoint)}
}

var _ Reader = (*RPC)(nil)

func (r *RPC) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	out, err := r.client.GetBalance(ctx, addr, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

func (r *RPC) AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error) {
	out, err := r.client.GetAccountInfo(ctx, addr)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get account info: %w", err)
	}
	return out.Value != nil, nil
}

func (r *RPC) AccountOwner(ctx context.Context, addr solana.PublicKey) (solana.PublicKey, error) {
	out, err := r.client.GetAccountInfo(ctx, addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get account info: %w", err)
	}
	if out.Value == nil {
		return solana.PublicKey{}, fmt.Errorf("account %s not found", addr)
	}
	return out.Value.Owner, nil
}

func (r *RPC) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	out, err := r.client.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if out.Value == nil {
		return nil, fmt.Errorf("account %s not found", addr)
	}
	return out.Value.Data.GetBinary(), nil
}

func (r *RPC) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := r.client.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token account balance: %w", err)
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

func (r *RPC) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := r.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "not found")
}
