package kvstore

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltBackend persists namespaces as bbolt buckets keyed by entity id.
type boltBackend struct {
	db *bolt.DB
}

func newBoltBackend(path string) (*boltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &boltBackend{db: db}, nil
}

func (b *boltBackend) list(ns string) ([]record, error) {
	var recs []record
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(ns))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(_, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				// A row we cannot decode is unrecoverable; skip it
				// rather than failing the whole namespace.
				return nil
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

func (b *boltBackend) put(ns string, rec record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return err
		}
		return bkt.Put([]byte(rec.ID), data)
	})
}

func (b *boltBackend) delete(ns, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(ns))
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(id))
	})
}

func (b *boltBackend) clear(ns string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(ns)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(ns))
	})
}

func (b *boltBackend) size() (int64, error) {
	var used int64
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, bkt *bolt.Bucket) error {
			return bkt.ForEach(func(k, v []byte) error {
				used += int64(len(k) + len(v))
				return nil
			})
		})
	})
	return used, err
}

func (b *boltBackend) close() error {
	return b.db.Close()
}
