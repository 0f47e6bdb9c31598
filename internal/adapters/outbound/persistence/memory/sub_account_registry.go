package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type registryEntry struct {
	record     dto.SubAccountRecord
	leaseOwner string
	leaseUntil time.Time
}

// SubAccountRegistry keeps registered sub-accounts in registration order.
type SubAccountRegistry struct {
	mu      sync.Mutex
	entries map[valueobjects.UserID]*registryEntry
}

var _ portsout.SubAccountRegistry = (*SubAccountRegistry)(nil)

func NewSubAccountRegistry() *SubAccountRegistry {
	return &SubAccountRegistry{entries: map[valueobjects.UserID]*registryEntry{}}
}

func (r *SubAccountRegistry) Register(_ context.Context, records []dto.SubAccountRecord) (int, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered := 0
	for _, record := range records {
		if _, exists := r.entries[record.UserID]; exists {
			continue
		}
		r.entries[record.UserID] = &registryEntry{record: record}
		registered++
	}
	return registered, nil
}

func (r *SubAccountRegistry) List(_ context.Context) ([]dto.SubAccountRecord, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]dto.SubAccountRecord, 0, len(r.entries))
	for _, entry := range r.sortedLocked() {
		out = append(out, entry.record)
	}
	return out, nil
}

// ClaimForSweep leases the least recently swept entries whose lease expired.
func (r *SubAccountRegistry) ClaimForSweep(
	_ context.Context,
	now time.Time,
	limit int,
	leaseOwner string,
	leaseUntil time.Time,
) ([]dto.SubAccountRecord, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := r.sortedLocked()
	sort.SliceStable(candidates, func(i, j int) bool {
		return sweptBefore(candidates[i].record.LastSweptAt, candidates[j].record.LastSweptAt)
	})

	out := make([]dto.SubAccountRecord, 0, limit)
	for _, entry := range candidates {
		if len(out) >= limit {
			break
		}
		if entry.leaseOwner != "" && entry.leaseUntil.After(now) {
			continue
		}
		entry.leaseOwner = leaseOwner
		entry.leaseUntil = leaseUntil
		out = append(out, entry.record)
	}
	return out, nil
}

func (r *SubAccountRegistry) MarkSwept(
	_ context.Context,
	userIDs []valueobjects.UserID,
	leaseOwner string,
	sweptAt time.Time,
) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, userID := range userIDs {
		entry, exists := r.entries[userID]
		if !exists || entry.leaseOwner != leaseOwner {
			continue
		}
		swept := sweptAt.UTC()
		entry.record.LastSweptAt = &swept
		entry.leaseOwner = ""
		entry.leaseUntil = time.Time{}
	}
	return nil
}

func (r *SubAccountRegistry) sortedLocked() []*registryEntry {
	out := make([]*registryEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		left, right := out[i].record, out[j].record
		if !left.RegisteredAt.Equal(right.RegisteredAt) {
			return left.RegisteredAt.Before(right.RegisteredAt)
		}
		return bytes.Compare(left.UserID[:], right.UserID[:]) < 0
	})
	return out
}

func sweptBefore(left, right *time.Time) bool {
	switch {
	case left == nil:
		return right != nil
	case right == nil:
		return false
	default:
		return left.Before(*right)
	}
}
