package task

import (
	"fmt"
	"testing"
	"time"

	"github.com/amonks/tasklist/storage"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 2, 9, 12, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func counterIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("task%04d", next)
	}
}

type recordingObserver struct {
	changes     int
	lastVisible []Task
	lastStats   Stats
	reasons     []Reason
	deleted     []string
	persistErrs []error
}

func (o *recordingObserver) TasksChanged(visible []Task, stats Stats) {
	o.changes++
	o.lastVisible = visible
	o.lastStats = stats
}

func (o *recordingObserver) ValidationFailed(reason Reason) {
	o.reasons = append(o.reasons, reason)
}

func (o *recordingObserver) TaskDeleted(text string) {
	o.deleted = append(o.deleted, text)
}

func (o *recordingObserver) PersistFailed(err error) {
	o.persistErrs = append(o.persistErrs, err)
}

type testStore struct {
	*Store
	kv       *storage.MemoryKV
	clock    *fakeClock
	observer *recordingObserver
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	return openTestStore(t, storage.NewMemoryKV(), Options{})
}

func openTestStore(t *testing.T, kv *storage.MemoryKV, opts Options) *testStore {
	t.Helper()

	if kv == nil {
		kv = storage.NewMemoryKV()
	}
	persister, err := NewPersister(kv, "")
	if err != nil {
		t.Fatalf("create persister: %v", err)
	}

	clock := newFakeClock()
	observer := &recordingObserver{}
	opts.Observer = observer
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if opts.NewID == nil {
		opts.NewID = counterIDs()
	}

	store, err := Open(persister, opts)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return &testStore{Store: store, kv: kv, clock: clock, observer: observer}
}

func (s *testStore) mustAdd(t *testing.T, text string) Task {
	t.Helper()
	created, err := s.Add(text)
	if err != nil {
		t.Fatalf("add %q: %v", text, err)
	}
	s.clock.Advance(time.Second)
	return created
}

// persisted decodes the value currently held by the KV.
func (s *testStore) persisted(t *testing.T) []Task {
	t.Helper()
	persister, err := NewPersister(s.kv, "")
	if err != nil {
		t.Fatalf("create persister: %v", err)
	}
	tasks, err := persister.Load()
	if err != nil {
		t.Fatalf("load persisted tasks: %v", err)
	}
	return tasks
}

func taskTexts(tasks []Task) []string {
	texts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		texts = append(texts, t.Text)
	}
	return texts
}
