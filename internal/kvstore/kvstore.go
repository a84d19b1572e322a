// Package kvstore is the on-device durable store backing the local
// adapter. Entities are kept in one namespace (bucket) per kind, encoded
// as CBOR rows that remember insertion order and last-update time.
//
// The store degrades instead of failing: if the database file cannot be
// opened it falls back to an in-memory backend, reads on a broken medium
// return empty results, and writes that exhaust the quota are retried
// after evicting the least-recently-updated trips and then dropped
// silently if the retry fails.
package kvstore

import (
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/wanderplan/wanderplan-go/pkg/logger"
)

// Namespace names, one per entity kind.
const (
	NamespaceTrips       = "trips"
	NamespaceCollections = "collections"
	NamespacePlaces      = "places"
	NamespaceMarkers     = "markers"
)

// Row is one stored entity: its identifier plus the serialized payload.
type Row struct {
	ID      string
	Payload []byte
}

// record is the CBOR envelope written to the backend. Seq preserves
// insertion order across upserts; UpdatedAt drives quota eviction.
type record struct {
	ID        string    `cbor:"id"`
	Seq       uint64    `cbor:"seq"`
	UpdatedAt time.Time `cbor:"updated_at"`
	Payload   []byte    `cbor:"payload"`
}

// backend is the physical medium. boltBackend persists to disk,
// memBackend holds everything in process memory.
type backend interface {
	list(ns string) ([]record, error)
	put(ns string, rec record) error
	delete(ns, id string) error
	clear(ns string) error
	size() (int64, error)
	close() error
}

// Options tunes the store.
type Options struct {
	// TripRetention is how many trips survive a quota eviction pass.
	// Zero means the default of 10.
	TripRetention int

	// MaxBytes caps the database size; writes beyond it take the quota
	// path. Zero means unlimited.
	MaxBytes int64

	Logger logger.Logger
}

// Store is the namespaced durable store. Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	backend   backend
	retention int
	maxBytes  int64
	seq       uint64
	log       logger.Logger

	now func() time.Time // stubbed in tests
}

const defaultTripRetention = 10

// Open opens (or creates) the database file at path. An empty path, or a
// path that cannot be opened, yields an in-memory store so the session
// keeps working without durability.
func Open(path string, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}

	var b backend
	if path == "" {
		b = newMemBackend()
	} else {
		bolt, err := newBoltBackend(path)
		if err != nil {
			log.Warn("local store unavailable, using memory", "path", path, "error", err)
			b = newMemBackend()
		} else {
			b = bolt
		}
	}

	retention := opts.TripRetention
	if retention <= 0 {
		retention = defaultTripRetention
	}

	s := &Store{
		backend:   b,
		retention: retention,
		maxBytes:  opts.MaxBytes,
		log:       log,
		now:       time.Now,
	}
	s.seq = s.highestSeq()
	return s
}

// Get returns every row in the namespace in insertion order. A broken
// medium yields an empty slice, never an error.
func (s *Store) Get(ns string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.backend.list(ns)
	if err != nil {
		s.log.Warn("local store read failed", "namespace", ns, "error", err)
		return []Row{}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row{ID: rec.ID, Payload: rec.Payload})
	}
	return rows
}

// Put upserts by identifier. Inserts are appended to the namespace's
// display order; replacements keep the original slot. Write failures are
// absorbed: a quota failure triggers trip eviction and one retry, and a
// failed retry drops the write.
func (s *Store) Put(ns, id string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{
		ID:        id,
		UpdatedAt: s.now(),
		Payload:   payload,
	}

	if existing, ok := s.find(ns, id); ok {
		rec.Seq = existing.Seq
	} else {
		s.seq++
		rec.Seq = s.seq
	}

	if s.overQuota(int64(len(payload))) {
		s.evictTrips()
		if s.overQuota(int64(len(payload))) {
			s.log.Warn("local store quota exhausted, write dropped", "namespace", ns, "id", id)
			return
		}
	}

	if err := s.backend.put(ns, rec); err == nil {
		return
	}

	// The medium can fill up even under the configured cap, so a failed
	// write gets the same treatment as the cap: evict and retry once.
	s.evictTrips()
	if err := s.backend.put(ns, rec); err != nil {
		s.log.Warn("local store write failed after eviction, dropped", "namespace", ns, "id", id, "error", err)
	}
}

// Delete removes the row if present. Removing an unknown id is a no-op.
func (s *Store) Delete(ns, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.delete(ns, id); err != nil {
		s.log.Warn("local store delete failed", "namespace", ns, "id", id, "error", err)
	}
}

// Clear drops every row in the namespace.
func (s *Store) Clear(ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.clear(ns); err != nil {
		s.log.Warn("local store clear failed", "namespace", ns, "error", err)
	}
}

// Close releases the underlying medium.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.close()
}

func (s *Store) find(ns, id string) (record, bool) {
	recs, err := s.backend.list(ns)
	if err != nil {
		return record{}, false
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, true
		}
	}
	return record{}, false
}

func (s *Store) highestSeq() uint64 {
	var max uint64
	for _, ns := range []string{NamespaceTrips, NamespaceCollections, NamespacePlaces, NamespaceMarkers} {
		recs, err := s.backend.list(ns)
		if err != nil {
			continue
		}
		for _, rec := range recs {
			if rec.Seq > max {
				max = rec.Seq
			}
		}
	}
	return max
}

func (s *Store) overQuota(incoming int64) bool {
	if s.maxBytes <= 0 {
		return false
	}
	used, err := s.backend.size()
	if err != nil {
		return false
	}
	return used+incoming > s.maxBytes
}

// evictTrips removes the least-recently-updated trips beyond the
// retention count to free quota.
func (s *Store) evictTrips() {
	recs, err := s.backend.list(NamespaceTrips)
	if err != nil || len(recs) <= s.retention {
		return
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt.Before(recs[j].UpdatedAt) })

	for _, rec := range recs[:len(recs)-s.retention] {
		if err := s.backend.delete(NamespaceTrips, rec.ID); err != nil {
			s.log.Warn("trip eviction failed", "id", rec.ID, "error", err)
			continue
		}
		s.log.Info("evicted trip to free local storage", "id", rec.ID)
	}
}

func encodeRecord(rec record) ([]byte, error) {
	return cbor.Marshal(rec)
}

func decodeRecord(data []byte) (record, error) {
	var rec record
	err := cbor.Unmarshal(data, &rec)
	return rec, err
}
