package attendance

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"sync"

	"scanattend/internal/metrics"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Store persists the full registry snapshot.
type Store interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
}

// Registration carries the caller-supplied fields for a new entry.
type Registration struct {
	EntryID       string
	Name          string
	Batch         string
	Branch        string
	Course        string
	Phone         string
	GuardianPhone string
	PhotoRef      string
}

// Registry owns the authoritative participant map. Every mutation is flushed
// to the store before it is acknowledged; a failed flush is logged and does
// not fail the mutation, the in-memory state stays authoritative.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
	store   Store
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry backed by the given store.
func NewRegistry(store Store, m *metrics.Metrics) *Registry {
	return &Registry{
		records: make(map[string]Record),
		store:   store,
		metrics: m,
	}
}

// Restore replaces the in-memory state with the persisted snapshot. On error
// the registry stays empty so the process can still come up; the caller
// decides whether to log or abort.
func (r *Registry) Restore(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
	return nil
}

// Register validates and inserts a new participant. Registration counts as
// the first scan.
func (r *Registry) Register(ctx context.Context, reg Registration) (Record, error) {
	if !phonePattern.MatchString(reg.Phone) {
		return Record{}, fmt.Errorf("phone must be exactly 10 digits: %w", ErrValidation)
	}
	if !phonePattern.MatchString(reg.GuardianPhone) {
		return Record{}, fmt.Errorf("guardian phone must be exactly 10 digits: %w", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[reg.EntryID]; exists {
		return Record{}, fmt.Errorf("entry %s: %w", reg.EntryID, ErrDuplicateEntry)
	}

	rec := Record{
		EntryID:       reg.EntryID,
		Name:          reg.Name,
		Batch:         reg.Batch,
		Branch:        reg.Branch,
		Course:        reg.Course,
		Phone:         reg.Phone,
		GuardianPhone: reg.GuardianPhone,
		PhotoRef:      reg.PhotoRef,
		ScanCount:     1,
		LastStatus:    StatusRegistered,
	}
	r.records[reg.EntryID] = rec
	r.flushLocked(ctx)
	return rec, nil
}

// Scan increments the entry's scan count and recomputes its status.
func (r *Registry) Scan(ctx context.Context, entryID string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.records[entryID]
	if !exists {
		return Record{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}

	rec.ScanCount++
	rec.LastStatus = StatusForCount(rec.ScanCount)
	r.records[entryID] = rec
	r.flushLocked(ctx)
	return rec, nil
}

// List returns a snapshot of all records ordered by entry id.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// flushLocked writes the full snapshot. Durability is best effort: the next
// successful mutation's flush covers for a failed one.
func (r *Registry) flushLocked(ctx context.Context) {
	if err := r.store.Save(ctx, r.records); err != nil {
		r.metrics.SnapshotSaveFailed()
		log.Printf("snapshot save failed: %v", err)
	}
}
