package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("create file kv: %v", err)
	}

	sqliteKV, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open sqlite kv: %v", err)
	}
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"file":   fileKV,
		"sqlite": sqliteKV,
		"memory": NewMemoryKV(),
	}
}

func mustGet(t *testing.T, kv KV, key string) string {
	t.Helper()

	value, ok, err := kv.Get(key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	if !ok {
		t.Fatalf("expected %s to be stored", key)
	}
	return string(value)
}

func TestKV_MissingKey(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			value, ok, err := kv.Get("todo_list_tasks")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if ok || value != nil {
				t.Fatalf("expected missing key, got ok=%v value=%q", ok, value)
			}
		})
	}
}

func TestKV_SetGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set("todo_list_tasks", []byte(`[{"id":"a"}]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if got := mustGet(t, kv, "todo_list_tasks"); got != `[{"id":"a"}]` {
				t.Fatalf("expected first value, got %q", got)
			}

			if err := kv.Set("todo_list_tasks", []byte(`[]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if got := mustGet(t, kv, "todo_list_tasks"); got != `[]` {
				t.Fatalf("expected overwritten value, got %q", got)
			}

			if err := kv.Delete("todo_list_tasks"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, err := kv.Get("todo_list_tasks"); err != nil || ok {
				t.Fatalf("expected key gone, got ok=%v err=%v", ok, err)
			}

			if err := kv.Delete("todo_list_tasks"); err != nil {
				t.Fatalf("deleting a missing key should succeed: %v", err)
			}
		})
	}
}

func TestKV_KeysAreIndependent(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set("one", []byte("1")); err != nil {
				t.Fatalf("set one: %v", err)
			}
			if err := kv.Set("two", []byte("2")); err != nil {
				t.Fatalf("set two: %v", err)
			}

			if got := mustGet(t, kv, "one"); got != "1" {
				t.Errorf("one = %q", got)
			}
			if got := mustGet(t, kv, "two"); got != "2" {
				t.Errorf("two = %q", got)
			}
		})
	}
}

func TestKV_Update(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := kv.Update("counter", func(value []byte, ok bool) ([]byte, error) {
				if ok {
					t.Fatalf("expected missing key, got %q", value)
				}
				return []byte("1"), nil
			})
			if err != nil {
				t.Fatalf("first update: %v", err)
			}

			err = kv.Update("counter", func(value []byte, ok bool) ([]byte, error) {
				if !ok || string(value) != "1" {
					t.Fatalf("expected stored 1, got ok=%v value=%q", ok, value)
				}
				return append(value, '2'), nil
			})
			if err != nil {
				t.Fatalf("second update: %v", err)
			}
			if got := mustGet(t, kv, "counter"); got != "12" {
				t.Fatalf("expected 12, got %q", got)
			}
		})
	}
}

func TestKV_UpdateSkipAndError(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set("key", []byte("kept")); err != nil {
				t.Fatalf("set: %v", err)
			}

			err := kv.Update("key", func([]byte, bool) ([]byte, error) {
				return []byte("dropped"), ErrSkipWrite
			})
			if err != nil {
				t.Fatalf("skipped update should succeed: %v", err)
			}

			boom := errors.New("boom")
			err = kv.Update("key", func([]byte, bool) ([]byte, error) {
				return []byte("dropped"), boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected callback error, got %v", err)
			}

			if got := mustGet(t, kv, "key"); got != "kept" {
				t.Fatalf("expected value untouched, got %q", got)
			}
		})
	}
}

func TestKV_ConcurrentUpdatesAreSerialized(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	// Each writer gets its own handle, like separate processes would.
	open := map[string]func(t *testing.T) KV{
		"file": func(t *testing.T) KV {
			kv, err := NewFileKV(dir)
			if err != nil {
				t.Fatalf("create file kv: %v", err)
			}
			return kv
		},
		"sqlite": func(t *testing.T) KV {
			kv, err := OpenSQLiteKV(dbPath)
			if err != nil {
				t.Fatalf("open sqlite kv: %v", err)
			}
			t.Cleanup(func() { kv.Close() })
			return kv
		},
	}

	for name, openKV := range open {
		t.Run(name, func(t *testing.T) {
			const writers = 8
			handles := make([]KV, writers)
			for i := range handles {
				handles[i] = openKV(t)
			}

			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for _, kv := range handles {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- kv.Update("log", func(value []byte, _ bool) ([]byte, error) {
						return append(value, 'x'), nil
					})
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatalf("update: %v", err)
				}
			}

			if got := mustGet(t, handles[0], "log"); got != strings.Repeat("x", writers) {
				t.Fatalf("expected %d appends, got %q", writers, got)
			}
		})
	}
}

func TestMemoryKV_UpdateFailWrites(t *testing.T) {
	kv := NewMemoryKV()
	kv.FailWrites = errors.New("quota exceeded")

	called := false
	err := kv.Update("key", func([]byte, bool) ([]byte, error) {
		called = true
		return []byte("value"), nil
	})
	if !errors.Is(err, kv.FailWrites) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if !called {
		t.Fatal("expected callback to run before the write fails")
	}
	if _, ok, _ := kv.Get("key"); ok {
		t.Fatal("expected nothing stored")
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"todo_list_tasks", "tasks.corrupt", "a-b", "A1"}
	for _, key := range valid {
		if err := ValidateKey(key); err != nil {
			t.Errorf("ValidateKey(%q) = %v", key, err)
		}
	}

	invalid := []string{"", "../escape", "a/b", ".hidden", "a..b", "with space"}
	for _, key := range invalid {
		if err := ValidateKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestFileKV_WritesUnderDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("create file kv: %v", err)
	}

	if err := kv.Set("todo_list_tasks", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "todo_list_tasks.json"))
	if err != nil {
		t.Fatalf("read value file: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileKV_DefaultsToStateDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	kv, err := NewFileKV("")
	if err != nil {
		t.Fatalf("create file kv: %v", err)
	}
	want := filepath.Join(home, ".local", "state", "tasklist")
	if kv.Dir() != want {
		t.Fatalf("expected %s, got %s", want, kv.Dir())
	}
}

func TestOpen(t *testing.T) {
	kv, err := Open(OpenOptions{Backend: "Memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := kv.(*MemoryKV); !ok {
		t.Errorf("expected *MemoryKV, got %T", kv)
	}

	kv, err = Open(OpenOptions{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	if _, ok := kv.(*FileKV); !ok {
		t.Errorf("expected *FileKV, got %T", kv)
	}

	kv, err = Open(OpenOptions{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, ok := kv.(*SQLiteKV); !ok {
		t.Errorf("expected *SQLiteKV, got %T", kv)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	if _, err := Open(OpenOptions{Backend: "redis"}); !errors.Is(err, ErrInvalidBackend) {
		t.Fatalf("expected ErrInvalidBackend, got %v", err)
	}
}
