package kvstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/pkg/logger"
)

// fullBackend wraps the in-memory backend and fails puts as a full
// medium would, independent of the configured byte cap.
type fullBackend struct {
	backend
	failPuts int
	deletes  int
}

func (b *fullBackend) put(ns string, rec record) error {
	if b.failPuts > 0 {
		b.failPuts--
		return errors.New("no space left on device")
	}
	return b.backend.put(ns, rec)
}

func (b *fullBackend) delete(ns, id string) error {
	b.deletes++
	return b.backend.delete(ns, id)
}

func newFullStore(retention int) (*Store, *fullBackend) {
	fb := &fullBackend{backend: newMemBackend()}
	s := &Store{
		backend:   fb,
		retention: retention,
		log:       logger.Nop{},
		now:       time.Now,
	}
	return s, fb
}

func TestPutEvictsAndRetriesOnBackendWriteFailure(t *testing.T) {
	s, fb := newFullStore(2)

	// retention 2, so four resident trips leave two eviction candidates
	for i := 0; i < 4; i++ {
		s.Put(NamespaceTrips, string(rune('a'+i)), []byte{byte(i)})
	}
	require.Len(t, s.Get(NamespaceTrips), 4)

	fb.failPuts = 1
	s.Put(NamespaceTrips, "fresh", []byte("payload"))

	assert.Equal(t, 2, fb.deletes, "the failed write triggered an eviction pass")
	rows := s.Get(NamespaceTrips)
	require.Len(t, rows, 3)
	assert.Equal(t, "fresh", rows[len(rows)-1].ID, "the retried write landed")
}

func TestPutDropsWriteWhenRetryAlsoFails(t *testing.T) {
	s, fb := newFullStore(2)

	for i := 0; i < 3; i++ {
		s.Put(NamespaceTrips, string(rune('a'+i)), []byte{byte(i)})
	}

	fb.failPuts = 2
	s.Put(NamespaceTrips, "dropped", []byte("payload"))

	for _, row := range s.Get(NamespaceTrips) {
		assert.NotEqual(t, "dropped", row.ID)
	}
}
