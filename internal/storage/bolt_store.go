package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mikael-devkh/sistema/internal/model"
)

const fsaBucket = "fsas"

// BoltFsaStore implements FsaStore on a local bbolt file
type BoltFsaStore struct {
	db    *bolt.DB
	codec codec
}

// NewBoltFsaStore opens (or creates) the database at path
func NewBoltFsaStore(path string, encryptKey []byte) (*BoltFsaStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(fsaBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltFsaStore{db: db, codec: codec{encryptKey: encryptKey}}, nil
}

// Close releases the database file
func (s *BoltFsaStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetFsa fetches the record stored for id
func (s *BoltFsaStore) GetFsa(_ context.Context, id string) (*model.FsaRecord, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(fsaBucket)).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.codec.decode(data)
}

// PutFsa stores the record under its id
func (s *BoltFsaStore) PutFsa(_ context.Context, record *model.FsaRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("fsa record without id")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	data, err := s.codec.encode(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(fsaBucket)).Put([]byte(record.ID), data)
	})
}
