package availability

import (
	"sort"
	"sync"
)

// Ledger is the in-memory deduplicating store of records for one run.
// It is insertion-ordered and never shrinks; the CSV artifact written
// by the Sink is the only thing that survives a restart.
type Ledger struct {
	mu      sync.Mutex
	seen    map[identityKey]struct{}
	records []AvailabilityRecord
}

func NewLedger() *Ledger {
	return &Ledger{seen: map[identityKey]struct{}{}}
}

// Insert stores the record if its identity key has not been seen yet
// and reports whether it did. On a collision the first inserted record
// wins and the incoming one is dropped entirely, even if it carries a
// different count.
func (l *Ledger) Insert(record AvailabilityRecord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := record.key()
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	l.records = append(l.records, record)
	return true
}

// SnapshotSorted returns a copy of all stored records sorted ascending
// by (date, offeringId, invenOffrngLabel). The sort is stable, so
// records equal on those three fields keep their insertion order.
func (l *Ledger) SnapshotSorted() []AvailabilityRecord {
	l.mu.Lock()
	snapshot := make([]AvailabilityRecord, len(l.records))
	copy(snapshot, l.records)
	l.mu.Unlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		a, b := snapshot[i], snapshot[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.OfferingID != b.OfferingID {
			return a.OfferingID < b.OfferingID
		}
		return a.InvenOffrngLabel < b.InvenOffrngLabel
	})
	return snapshot
}

func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
