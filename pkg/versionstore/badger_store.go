package versionstore

import (
	"encoding/binary"

	"github.com/coocood/badger"
	"github.com/pingcap/errors"
)

const keySize = 4 + 8 + 4

// encodeKey packs a Key into a fixed 16-byte big-endian buffer so lexical
// byte order matches (TreeID, TxID, CommandID) order, matching the
// teacher's KeyWithCF convention of deriving a flat badger key from a
// structured one.
func encodeKey(k Key) []byte {
	buf := make([]byte, keySize)
	binary.BigEndian.PutUint32(buf[0:], k.TreeID)
	binary.BigEndian.PutUint64(buf[4:], k.TxID)
	binary.BigEndian.PutUint32(buf[12:], k.CommandID)
	return buf
}

// BadgerStore is a Store backed by a coocood/badger instance, grounded on
// the teacher's kv/util/engine_util GetCF/PutCF/DeleteCF helpers (here
// specialized to a single implicit column family, since version records
// have no competing namespaces to disambiguate).
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an already-opened badger.DB. The caller owns the
// DB's lifecycle beyond Close, matching engine_util.Engines' ownership of
// its *badger.DB handles.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Reserve(key Key, size int, fill func(buf []byte)) error {
	buf := make([]byte, size)
	fill(buf)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key), buf)
	})
	if err != nil {
		return errors.Annotate(err, "versionstore: reserve")
	}
	return nil
}

func (s *BadgerStore) Retrieve(key Key, read func(buf []byte) error) (bool, error) {
	var found bool
	var readErr error
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		val, err := item.Value()
		if err != nil {
			return err
		}
		readErr = read(val)
		return nil
	})
	if err != nil {
		return false, errors.Annotate(err, "versionstore: retrieve")
	}
	if readErr != nil {
		return found, readErr
	}
	return found, nil
}

func (s *BadgerStore) Remove(key Key) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(encodeKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return errors.Annotate(err, "versionstore: remove")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
