package kvstore

import (
	"bytes"
	"strings"
	"sync"

	"github.com/google/btree"
)

const memTreeDegree = 32

// item is one entry of the in-memory tree. Keys are bucket || 0x00 || key.
type item struct {
	key   []byte
	value []byte
}

func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

func compositeKey(bucket string, key []byte) []byte {
	k := make([]byte, 0, len(bucket)+1+len(key))
	k = append(k, bucket...)
	k = append(k, 0)
	return append(k, key...)
}

// MemStore is an in-memory Store. Each Update works on a copy-on-write clone
// of the tree, which replaces the committed tree only when the callback
// succeeds.
type MemStore struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tree: btree.New(memTreeDegree)}
}

// View runs fn against a snapshot of the committed state.
func (s *MemStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{tree: s.tree})
}

// Update runs fn against a clone and commits the clone on success.
func (s *MemStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	clone := s.tree.Clone()
	if err := fn(&memTx{tree: clone, writable: true}); err != nil {
		return err
	}
	s.tree = clone
	return nil
}

// Close drops all data.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tree = btree.New(memTreeDegree)
	return nil
}

type memTx struct {
	tree     *btree.BTree
	writable bool
}

func validBucket(bucket string) error {
	if bucket == "" || strings.IndexByte(bucket, 0) >= 0 {
		return ErrInvalidBucket
	}
	return nil
}

func (t *memTx) Get(bucket string, key []byte) []byte {
	if validBucket(bucket) != nil {
		return nil
	}
	got := t.tree.Get(item{key: compositeKey(bucket, key)})
	if got == nil {
		return nil
	}
	return cloneBytes(got.(item).value)
}

func (t *memTx) Put(bucket string, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if err := validBucket(bucket); err != nil {
		return err
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	v := cloneBytes(value)
	if v == nil {
		v = []byte{}
	}
	t.tree.ReplaceOrInsert(item{key: compositeKey(bucket, key), value: v})
	return nil
}

func (t *memTx) Delete(bucket string, key []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if err := validBucket(bucket); err != nil {
		return err
	}
	t.tree.Delete(item{key: compositeKey(bucket, key)})
	return nil
}

func (t *memTx) Scan(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	if err := validBucket(bucket); err != nil {
		return err
	}
	start := compositeKey(bucket, prefix)
	strip := len(bucket) + 1

	var cbErr error
	t.tree.AscendGreaterOrEqual(item{key: start}, func(i btree.Item) bool {
		it := i.(item)
		if !bytes.HasPrefix(it.key, start) {
			return false
		}
		if err := fn(cloneBytes(it.key[strip:]), cloneBytes(it.value)); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	return cbErr
}
