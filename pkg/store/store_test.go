package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/1kuna/kindle-lock/pkg/logger"
)

// openStores returns a fresh instance of every Store implementation.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	boltSt, err := NewBolt(Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
	}, logger.Noop())
	if err != nil {
		t.Fatalf("NewBolt() error = %v", err)
	}
	t.Cleanup(func() { _ = boltSt.Close() })

	memSt := NewMemory()
	t.Cleanup(func() { _ = memSt.Close() })

	return map[string]Store{
		"bolt":   boltSt,
		"memory": memSt,
	}
}

func TestSetGet(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("vault/session", []byte("payload")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := st.Get("vault/session")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "payload" {
				t.Errorf("Get() = %q, want %q", got, "payload")
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get("no/such/key")
			if !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("k", []byte("v")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := st.Delete("k"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := st.Get("k"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrKeyNotFound", err)
			}

			// Deleting a missing key is not an error.
			if err := st.Delete("k"); err != nil {
				t.Errorf("Delete() on missing key error = %v", err)
			}
		})
	}
}

func TestOverwrite(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("k", []byte("old")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := st.Set("k", []byte("new")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := st.Get("k")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "new" {
				t.Errorf("Get() = %q, want %q", got, "new")
			}
		})
	}
}

func TestUpdateMissingKey(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := st.Update("k", func(current []byte) ([]byte, error) {
				if current != nil {
					t.Errorf("Update fn received %q for missing key, want nil", current)
				}
				return []byte("created"), nil
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			got, err := st.Get("k")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "created" {
				t.Errorf("Get() = %q, want %q", got, "created")
			}
		})
	}
}

func TestUpdateDeletesOnNil(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("k", []byte("v")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			if err := st.Update("k", func([]byte) ([]byte, error) {
				return nil, nil
			}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			if _, err := st.Get("k"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
			}
		})
	}
}

func TestUpdatePropagatesError(t *testing.T) {
	sentinel := errors.New("boom")

	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("k", []byte("v")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			err := st.Update("k", func([]byte) ([]byte, error) {
				return nil, sentinel
			})
			if !errors.Is(err, sentinel) {
				t.Errorf("Update() error = %v, want sentinel", err)
			}

			// Value must be untouched after a failed update.
			got, err := st.Get("k")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "v" {
				t.Errorf("Get() = %q, want %q", got, "v")
			}
		})
	}
}

func TestUpdateConcurrent(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("counter", []byte("0")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			const writers = 10
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = st.Update("counter", func(current []byte) ([]byte, error) {
						var n int
						if _, err := fmt.Sscanf(string(current), "%d", &n); err != nil {
							return nil, err
						}
						return []byte(fmt.Sprintf("%d", n+1)), nil
					})
				}()
			}
			wg.Wait()

			got, err := st.Get("counter")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != fmt.Sprintf("%d", writers) {
				t.Errorf("counter = %s, want %d (lost update)", got, writers)
			}
		})
	}
}

func TestClosedStore(t *testing.T) {
	st := NewMemory()
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := st.Get("k"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Get() on closed store error = %v, want ErrStoreClosed", err)
	}
	if err := st.Set("k", nil); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Set() on closed store error = %v, want ErrStoreClosed", err)
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := NewBolt(Config{DBPath: dbPath}, logger.Noop())
	if err != nil {
		t.Fatalf("NewBolt() error = %v", err)
	}
	if err := st.Set("k", []byte("survives")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	st, err = NewBolt(Config{DBPath: dbPath}, logger.Noop())
	if err != nil {
		t.Fatalf("NewBolt() reopen error = %v", err)
	}
	defer func() { _ = st.Close() }()

	got, err := st.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "survives" {
		t.Errorf("Get() = %q, want %q", got, "survives")
	}
}
