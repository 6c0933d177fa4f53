package task

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/amonks/tasklist/storage"
)

const browserPayload = `[
  {"id":"1718000000001","text":"Comprar leche","completed":false,"createdAt":"2024-06-10T06:13:20.001Z","updatedAt":"2024-06-10T06:13:20.001Z"},
  {"id":"1718000000000","text":"Pasear al perro","completed":true,"createdAt":"2024-06-10T06:13:20.000Z","updatedAt":"2024-06-10T07:00:00.500Z"}
]`

func TestOpen_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	if got := store.Filtered(FilterAll); len(got) != 0 {
		t.Fatalf("expected empty collection, got %+v", got)
	}
	if _, ok, _ := store.kv.Get(DefaultStorageKey); ok {
		t.Fatal("opening should not write anything")
	}
}

func TestOpen_LoadsBrowserPayload(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Set(DefaultStorageKey, []byte(browserPayload)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := openTestStore(t, kv, Options{})
	all := store.Filtered(FilterAll)
	if got := taskTexts(all); !reflect.DeepEqual(got, []string{"Comprar leche", "Pasear al perro"}) {
		t.Fatalf("expected stored order preserved, got %v", got)
	}
	wantUpdated := time.Date(2024, 6, 10, 7, 0, 0, 500000000, time.UTC)
	if !all[1].UpdatedAt.Equal(wantUpdated) {
		t.Errorf("expected millisecond timestamp %v, got %v", wantUpdated, all[1].UpdatedAt)
	}
	if store.Stats() != (Stats{Total: 2, Pending: 1, Completed: 1}) {
		t.Errorf("unexpected stats %+v", store.Stats())
	}
}

func TestOpen_CorruptFails(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"id":`},
		{name: "wrong shape", payload: `{"tasks":[]}`},
		{name: "duplicate ids", payload: `[
			{"id":"a","text":"one","completed":false,"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
			{"id":"a","text":"two","completed":false,"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}
		]`},
		{name: "missing id", payload: `[{"text":"one","completed":false,"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			if err := kv.Set(DefaultStorageKey, []byte(tt.payload)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			persister, err := NewPersister(kv, "")
			if err != nil {
				t.Fatalf("persister: %v", err)
			}

			_, err = Open(persister, Options{})
			if !errors.Is(err, storage.ErrCorrupt) {
				t.Fatalf("expected storage.ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestOpen_ResetCorruptBacksUp(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Set(DefaultStorageKey, []byte("garbage")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := openTestStore(t, kv, Options{ResetCorrupt: true})
	if got := store.Stats().Total; got != 0 {
		t.Fatalf("expected empty store after reset, got %d", got)
	}
	if len(store.observer.persistErrs) != 1 || !errors.Is(store.observer.persistErrs[0], storage.ErrCorrupt) {
		t.Fatalf("expected corrupt warning, got %v", store.observer.persistErrs)
	}

	backup, ok, err := kv.Get(DefaultStorageKey + CorruptSuffix)
	if err != nil || !ok || string(backup) != "garbage" {
		t.Fatalf("expected raw value backed up, got %q ok=%v err=%v", backup, ok, err)
	}

	store.mustAdd(t, "fresh start")
	if got := store.persisted(t); len(got) != 1 {
		t.Fatalf("expected corrupt value replaced on next write, got %+v", got)
	}
}

func TestOpen_ResetDoesNotHideReadErrors(t *testing.T) {
	persister := failingPersister{loadErr: errors.New("disk on fire")}

	_, err := Open(persister, Options{ResetCorrupt: true})
	if err == nil || errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected the read error to surface, got %v", err)
	}
}

func TestOpen_RequiresPersister(t *testing.T) {
	if _, err := Open(nil, Options{}); err == nil {
		t.Fatal("expected error without a persister")
	}
}

func TestStore_PersistFailureKeepsMutation(t *testing.T) {
	store := newTestStore(t)
	kept := store.mustAdd(t, "saved")

	store.kv.FailWrites = errors.New("quota exceeded")

	created, err := store.Add("unsaved")
	if !errors.Is(err, ErrPersist) || !errors.Is(err, store.kv.FailWrites) {
		t.Fatalf("expected ErrPersist wrapping the write error, got %v", err)
	}
	if created.Text != "unsaved" {
		t.Errorf("expected the created task back, got %+v", created)
	}
	if got := taskTexts(store.Filtered(FilterAll)); !reflect.DeepEqual(got, []string{"unsaved", "saved"}) {
		t.Errorf("expected in-memory mutation kept, got %v", got)
	}
	if len(store.observer.persistErrs) != 1 {
		t.Errorf("expected one PersistFailed notification, got %d", len(store.observer.persistErrs))
	}

	_, found, err := store.Toggle(kept.ID)
	if !found || !errors.Is(err, ErrPersist) {
		t.Errorf("expected toggle to apply and warn, got found=%v err=%v", found, err)
	}

	store.kv.FailWrites = nil
	if _, err := store.Add("recovered"); err != nil {
		t.Fatalf("expected writes to recover: %v", err)
	}
	if got := store.persisted(t); len(got) != 3 {
		t.Fatalf("expected next successful write to include every task, got %d", len(got))
	}
}

func TestStore_WritesAfterEveryMutation(t *testing.T) {
	counting := &countingPersister{}
	store, err := Open(counting, Options{NewID: counterIDs()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	a, _ := store.Add("a")
	store.Add("b")
	store.Toggle(a.ID)
	store.Edit(a.ID, "a2")
	store.Delete(a.ID)
	store.Toggle("missing")
	store.Add("")

	if counting.saves != 5 {
		t.Fatalf("expected 5 writes (one per successful mutation), got %d", counting.saves)
	}
	if got := taskTexts(counting.last); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected last write to reflect the final state, got %v", got)
	}
}

func TestStore_RoundTripThroughStorage(t *testing.T) {
	kv := storage.NewMemoryKV()
	first := openTestStore(t, kv, Options{})
	a := first.mustAdd(t, "alpha")
	first.mustAdd(t, "beta")
	first.Toggle(a.ID)
	want := first.Filtered(FilterAll)

	second := openTestStore(t, kv, Options{})
	got := second.Filtered(FilterAll)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected reopened store to match\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestStore_IndependentInstances(t *testing.T) {
	one := newTestStore(t)
	two := newTestStore(t)

	one.mustAdd(t, "only in one")
	if err := one.SetFilter(FilterCompleted); err != nil {
		t.Fatalf("set filter: %v", err)
	}

	if two.Stats().Total != 0 || two.CurrentFilter() != FilterAll {
		t.Fatal("stores must not share state")
	}
}

func openFileStore(t *testing.T, dir string) *Store {
	t.Helper()

	kv, err := storage.NewFileKV(dir)
	if err != nil {
		t.Fatalf("create file kv: %v", err)
	}
	persister, err := NewPersister(kv, "")
	if err != nil {
		t.Fatalf("create persister: %v", err)
	}
	store, err := Open(persister, Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestStore_TwoWritersSharingFiles(t *testing.T) {
	dir := t.TempDir()
	web := openFileStore(t, dir)
	cli := openFileStore(t, dir)

	if _, err := cli.Add("from cli"); err != nil {
		t.Fatalf("cli add: %v", err)
	}
	if _, err := web.Add("from web"); err != nil {
		t.Fatalf("web add: %v", err)
	}

	reopened := openFileStore(t, dir)
	if got := taskTexts(reopened.Filtered(FilterAll)); !reflect.DeepEqual(got, []string{"from web", "from cli"}) {
		t.Fatalf("expected both writes kept, got %v", got)
	}
	if got := taskTexts(web.Filtered(FilterAll)); !reflect.DeepEqual(got, []string{"from web", "from cli"}) {
		t.Fatalf("expected the later writer to see the earlier task, got %v", got)
	}
}

func TestStore_MutationsSeeOtherWriters(t *testing.T) {
	dir := t.TempDir()
	one := openFileStore(t, dir)
	two := openFileStore(t, dir)

	created, err := one.Add("shared")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	toggled, found, err := two.Toggle(created.ID)
	if err != nil || !found || !toggled.Completed {
		t.Fatalf("expected second store to toggle the new task, got %+v found=%v err=%v", toggled, found, err)
	}

	if _, found, err := one.Edit(created.ID, "shared, edited"); err != nil || !found {
		t.Fatalf("edit: found=%v err=%v", found, err)
	}
	reopened := openFileStore(t, dir)
	got, _ := reopened.Get(created.ID)
	if got.Text != "shared, edited" || !got.Completed {
		t.Fatalf("expected edit and toggle both kept, got %+v", got)
	}

	if _, found, _ := two.Delete(created.ID); !found {
		t.Fatal("expected delete to find the task")
	}
	if _, found, _ := one.Toggle(created.ID); found {
		t.Fatal("expected toggle of a task deleted elsewhere to be a no-op")
	}
}

func TestStore_Reload(t *testing.T) {
	kv := storage.NewMemoryKV()
	first := openTestStore(t, kv, Options{})
	second := openTestStore(t, kv, Options{})

	first.mustAdd(t, "elsewhere")
	if second.Stats().Total != 0 {
		t.Fatal("expected no change before reload")
	}
	if err := second.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := taskTexts(second.Filtered(FilterAll)); !reflect.DeepEqual(got, []string{"elsewhere"}) {
		t.Fatalf("expected reloaded task, got %v", got)
	}

	if err := kv.Set(DefaultStorageKey, []byte("garbage")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := second.Reload(); !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if second.Stats().Total != 1 {
		t.Fatal("expected a failed reload to keep the collection")
	}
}

func TestStore_ReloadKeepsUnsavedChanges(t *testing.T) {
	store := newTestStore(t)
	store.mustAdd(t, "saved")

	store.kv.FailWrites = errors.New("quota exceeded")
	if _, err := store.Add("unsaved"); !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := taskTexts(store.Filtered(FilterAll)); !reflect.DeepEqual(got, []string{"unsaved", "saved"}) {
		t.Fatalf("expected unsaved task kept across reload, got %v", got)
	}
}

type failingPersister struct {
	loadErr error
}

func (p failingPersister) Load() ([]Task, error) { return nil, p.loadErr }
func (p failingPersister) Save([]Task) error     { return nil }

type countingPersister struct {
	saves int
	last  []Task
}

func (p *countingPersister) Load() ([]Task, error) { return nil, nil }

func (p *countingPersister) Save(tasks []Task) error {
	p.saves++
	p.last = tasks
	return nil
}
