package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nutsdb/nutsdb"

	"chronoscope-go/internal/common"
)

var keyIDMax = []byte("__id_max__")

// Storage is a bucketed key-value store
type Storage interface {
	// Put stores a key-value pair in the bucket
	Put(bucket string, key []byte, value []byte) error

	// Get returns nil when the key does not exist
	Get(bucket string, key []byte) ([]byte, error)

	// Delete returns ErrNotFound when the key does not exist
	Delete(bucket string, key []byte) error

	// GenIncrIDs reserves count increasing IDs in the bucket
	GenIncrIDs(bucket string, count int) ([]uint64, error)

	// Iterator snapshots every user entry of the bucket
	Iterator(bucket string) (Iterator, error)

	Close() error
}

type Option struct {
	Dir     string   `toml:"dir"`
	Buckets []string `toml:"buckets"`
}

type Iterator common.KVIterator[[]byte]

type nutsDBStorage struct {
	db *nutsdb.DB
}

var _ Storage = (*nutsDBStorage)(nil)

// NewStorage opens a NutsDB database and creates the missing buckets. Each
// bucket gets its ID counter so that it is never empty.
func NewStorage(opts *Option) (Storage, error) {
	nutsdbOpts := nutsdb.DefaultOptions
	nutsdbOpts.Dir = opts.Dir
	nutsdbOpts.EntryIdxMode = nutsdb.HintKeyValAndRAMIdxMode
	nutsdbOpts.SegmentSize = 8 * 1024 * 1024

	db, err := nutsdb.Open(nutsdbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open nutsdb at %s: %w", opts.Dir, err)
	}

	storage := &nutsDBStorage{db: db}
	for _, bucket := range opts.Buckets {
		if err = db.Update(func(tx *nutsdb.Tx) error {
			if tx.ExistBucket(nutsdb.DataStructureBTree, bucket) {
				return nil
			}
			return tx.NewBucket(nutsdb.DataStructureBTree, bucket)
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		if _, err = storage.GenIncrIDs(bucket, 0); err != nil {
			db.Close()
			return nil, err
		}
	}

	return storage, nil
}

func (s *nutsDBStorage) Put(bucket string, key []byte, value []byte) error {
	err := s.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(bucket, key, value, 0)
	})
	if err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

func (s *nutsDBStorage) Get(bucket string, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *nutsdb.Tx) error {
		entry, err := tx.Get(bucket, key)
		if err != nil {
			return err
		}
		value = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, nutsdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return value, nil
}

func (s *nutsDBStorage) Delete(bucket string, key []byte) error {
	return s.db.Update(func(tx *nutsdb.Tx) error {
		if _, err := tx.Get(bucket, key); err != nil {
			if errors.Is(err, nutsdb.ErrKeyNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get key: %w", err)
		}
		return tx.Delete(bucket, key)
	})
}

func (s *nutsDBStorage) GenIncrIDs(bucket string, count int) ([]uint64, error) {
	var ids []uint64

	err := s.db.Update(func(tx *nutsdb.Tx) error {
		var maxID uint64
		entry, err := tx.Get(bucket, keyIDMax)
		switch {
		case err == nil:
			maxID = binary.BigEndian.Uint64(entry)
		case errors.Is(err, nutsdb.ErrKeyNotFound):
		default:
			return fmt.Errorf("failed to get max id: %w", err)
		}

		ids = make([]uint64, count)
		for i := range ids {
			ids[i] = maxID + uint64(i) + 1
		}

		if err := tx.Put(bucket, keyIDMax, EncodeID(maxID+uint64(count)), 0); err != nil {
			return fmt.Errorf("failed to update max id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *nutsDBStorage) Iterator(bucket string) (Iterator, error) {
	var keys, values [][]byte

	err := s.db.View(func(tx *nutsdb.Tx) error {
		var err error
		keys, values, err = tx.GetAll(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get all entries: %w", err)
	}

	return func(yield func(common.KVPair[[]byte]) bool) {
		for i, k := range keys {
			if string(k) == string(keyIDMax) {
				continue
			}
			if !yield(common.KVPair[[]byte]{Key: k, Value: values[i]}) {
				return
			}
		}
	}, nil
}

func (s *nutsDBStorage) Close() error {
	return s.db.Close()
}

// EncodeID converts a uint64 ID to a big-endian key
func EncodeID(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// DecodeID converts a big-endian key back to an ID
func DecodeID(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}
