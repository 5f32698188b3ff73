package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"swapd/pkg/types"
)

// MemoryStore is an in-memory SwapStore used in tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*types.SwapRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*types.SwapRecord)}
}

var _ SwapStore = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(_ context.Context, rec *types.SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*types.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) MarkOrderCreated(_ context.Context, id, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.BridgeOrderID = orderID
	rec.Status = types.StatusFeePaid
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = types.StatusFailed
	rec.ErrorMessage = errorMessage
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status types.SwapStatus, destTxHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	if destTxHash != "" {
		rec.DestTxHash = destTxHash
	}
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ByWallet(_ context.Context, wallet string, limit int) ([]*types.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*types.SwapRecord
	for _, rec := range s.records {
		if rec.WalletAddress == wallet {
			clone := *rec
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
