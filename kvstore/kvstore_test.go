package kvstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stores returns one fresh instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"mem":  NewMemStore(),
		"bolt": tempBoltStore(t),
	}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(func(tx Tx) error {
				return tx.Put("b", []byte("k"), []byte("v"))
			}))

			var got []byte
			require.NoError(t, s.View(func(tx Tx) error {
				got = tx.Get("b", []byte("k"))
				return nil
			}))
			assert.Equal(t, []byte("v"), got)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.View(func(tx Tx) error {
				assert.Nil(t, tx.Get("nobucket", []byte("k")))
				return nil
			}))
		})
	}
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(func(tx Tx) error {
				return tx.Put("b", []byte("keep"), []byte("1"))
			}))

			err := s.Update(func(tx Tx) error {
				require.NoError(t, tx.Put("b", []byte("drop"), []byte("2")))
				require.NoError(t, tx.Delete("b", []byte("keep")))
				// Writes are visible inside the failing transaction.
				assert.Equal(t, []byte("2"), tx.Get("b", []byte("drop")))
				return boom
			})
			assert.ErrorIs(t, err, boom)

			require.NoError(t, s.View(func(tx Tx) error {
				assert.Equal(t, []byte("1"), tx.Get("b", []byte("keep")))
				assert.Nil(t, tx.Get("b", []byte("drop")))
				return nil
			}))
		})
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.View(func(tx Tx) error {
				return tx.Put("b", []byte("k"), []byte("v"))
			})
			assert.Error(t, err)
		})
	}
}

func TestStore_ScanPrefix(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(func(tx Tx) error {
				for _, k := range []string{"a1", "a3", "a2", "b1", "a"} {
					if err := tx.Put("b", []byte(k), []byte(k)); err != nil {
						return err
					}
				}
				// Same key in another bucket must not leak into the scan.
				return tx.Put("c", []byte("a9"), []byte("x"))
			}))

			var keys []string
			require.NoError(t, s.View(func(tx Tx) error {
				return tx.Scan("b", []byte("a"), func(k, v []byte) error {
					assert.Equal(t, k, v)
					keys = append(keys, string(k))
					return nil
				})
			}))
			assert.Equal(t, []string{"a", "a1", "a2", "a3"}, keys)
		})
	}
}

func TestStore_ScanStopsOnError(t *testing.T) {
	stop := errors.New("stop")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update(func(tx Tx) error {
				for _, k := range []string{"1", "2", "3"} {
					if err := tx.Put("b", []byte(k), nil); err != nil {
						return err
					}
				}
				return nil
			}))

			n := 0
			err := s.View(func(tx Tx) error {
				return tx.Scan("b", nil, func(k, v []byte) error {
					n++
					if n == 2 {
						return stop
					}
					return nil
				})
			})
			assert.ErrorIs(t, err, stop)
			assert.Equal(t, 2, n)
		})
	}
}

func TestStore_EmptyKey(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(func(tx Tx) error {
				return tx.Put("b", nil, []byte("v"))
			})
			assert.ErrorIs(t, err, ErrEmptyKey)
		})
	}
}

func TestMemStore_Closed(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.View(func(Tx) error { return nil }), ErrClosed)
	assert.ErrorIs(t, s.Update(func(Tx) error { return nil }), ErrClosed)
}

func TestBoltStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(tx Tx) error {
		return tx.Put("b", []byte("k"), []byte("v"))
	}))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.View(func(tx Tx) error {
		assert.Equal(t, []byte("v"), tx.Get("b", []byte("k")))
		return nil
	}))
}
