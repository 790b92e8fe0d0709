package distroboard

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/internal/store"
	"github.com/jpalmerr/distroboard/source"
)

// autoStarted returns options for a dashboard whose session starts on launch
// so that view callbacks fire without any HTTP interaction.
func autoStarted(port int, src *source.MemorySource, extra ...Option) []Option {
	return append(append(testOptions(port, src, testCreds), WithAutoStart(true)), extra...)
}

func TestWithViewCallback_InvokedOnSessionStart(t *testing.T) {
	var mu sync.Mutex
	var snaps []Snapshot

	db, err := New(autoStarted(19320, source.NewMemorySource(), WithViewCallback(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, s)
	}))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = db.Start(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) == 0 {
		t.Fatal("callback should have been invoked at least once")
	}
	if !snaps[0].Running || snaps[0].SessionID == "" {
		t.Errorf("first snapshot = %+v, want running with session id", snaps[0])
	}
}

func TestWithViewCallback_ReceivesRecords(t *testing.T) {
	src := source.NewMemorySource(
		source.Item{Domain: "b.example.com", Name: "B", Region: "eu-west-1", PlaylistFresh: true, DistroOpen: false, ReplicatedAt: 1700000000.5},
		source.Item{Domain: "a.example.com", Name: "A", Region: "us-east-1", DistroOpen: true},
	)

	var mu sync.Mutex
	var got Snapshot
	done := make(chan struct{})

	db, err := New(autoStarted(19321, src, WithViewCallback(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if len(s.Records) == 2 && got.Records == nil {
			got = s
			close(done)
		}
	}))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = db.Start(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("records never reached the callback")
	}
	cancel()
	<-finished

	mu.Lock()
	defer mu.Unlock()

	if !got.Connected || got.AlertKind != AlertNone {
		t.Errorf("snapshot = connected:%v alert:%q, want connected without alert", got.Connected, got.Alert)
	}
	if got.Records[0].Domain != "a.example.com" {
		t.Errorf("records not sorted by name: %+v", got.Records)
	}
	b := got.Records[1]
	if !b.Blocking() || !b.PlaylistFresh || b.Region != "eu-west-1" {
		t.Errorf("record b = %+v", b)
	}
	if b.UpdatedAt.UnixMilli() != 1700000000500 {
		t.Errorf("UpdatedAt = %d ms, want 1700000000500", b.UpdatedAt.UnixMilli())
	}
}

func TestWithViewCallback_PanicRecovery(t *testing.T) {
	var normalCalled atomic.Bool

	// use a logger that captures output to verify panic was logged
	var logBuf safeBuffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	opts := autoStarted(19322, source.NewMemorySource(),
		WithViewCallback(func(Snapshot) { panic("intentional test panic") }),
		WithViewCallback(func(Snapshot) { normalCalled.Store(true) }), // should still be called after panic
		WithLogger(logger),
	)

	db, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// should not panic
	if err := db.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	if !normalCalled.Load() {
		t.Error("subsequent callbacks should still run after panic")
	}
	if !strings.Contains(logBuf.String(), "view callback panicked") {
		t.Error("panic should have been logged")
	}
}

func TestWithViewCallback_ExecutionOrder(t *testing.T) {
	var order []int
	var mu sync.Mutex
	record := func(n int) func(Snapshot) {
		return func(Snapshot) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	db, err := New(autoStarted(19323, source.NewMemorySource(),
		WithViewCallback(record(1)),
		WithViewCallback(record(2)),
		WithViewCallback(record(3)),
	)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = db.Start(ctx)

	mu.Lock()
	defer mu.Unlock()

	if len(order) < 3 {
		t.Fatalf("expected at least 3 callback invocations, got %d", len(order))
	}

	// verify order is always 1, 2, 3, 1, 2, 3, ...
	for i := 0; i < len(order); i++ {
		expected := (i % 3) + 1
		if order[i] != expected {
			t.Errorf("order[%d] = %d, want %d (callbacks should execute in registration order)", i, order[i], expected)
		}
	}
}

func TestWithViewCallback_MutationDoesNotReachView(t *testing.T) {
	src := source.NewMemorySource(source.Item{Domain: "a.example.com", Name: "original"})

	var mu sync.Mutex
	var names []string
	done := make(chan struct{})
	var once sync.Once

	db, err := New(autoStarted(19324, src,
		WithViewCallback(func(s Snapshot) {
			if len(s.Records) == 0 {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			names = append(names, s.Records[0].Name)
			if len(names) == 2 {
				once.Do(func() { close(done) })
			}
		}),
		WithViewCallback(func(s Snapshot) {
			for i := range s.Records {
				s.Records[i].Name = "mutated"
			}
		}),
	)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = db.Start(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("two record snapshots never reached the callback")
	}
	cancel()
	<-finished

	mu.Lock()
	defer mu.Unlock()
	for i, name := range names {
		if name != "original" {
			t.Errorf("snapshot %d name = %q, want original", i, name)
		}
	}
}

func TestSnapshotFromView(t *testing.T) {
	v := store.View{
		Running:   true,
		Connected: true,
		SessionID: "abc",
		AlertKind: store.AlertNone,
		Records:   []store.Record{{Domain: "a", DistroOpen: true}},
	}

	s := snapshotFromView(v)
	if !s.Running || !s.Connected || s.SessionID != "abc" || len(s.Records) != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Records[0].Blocking() {
		t.Error("open distribution reported as blocking")
	}

	s.Records[0].Domain = "changed"
	if v.Records[0].Domain != "a" {
		t.Error("snapshot shares records with the view")
	}

	if empty := snapshotFromView(store.View{}); empty.Records != nil {
		t.Errorf("empty view records = %v, want nil", empty.Records)
	}
}

func TestStart_AutoStartPersistsDefaults(t *testing.T) {
	creds := credentials.NewMemoryStore(testCreds)
	opts := append(autoStarted(19325, source.NewMemorySource()), WithCredentialStore(creds))

	db, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = db.Start(ctx)

	stored, _ := creds.Load()
	if stored.Region != credentials.DefaultRegion {
		t.Errorf("auto start did not persist default region: %+v", stored)
	}
}

// safeBuffer is a bytes.Buffer safe for concurrent writes from the logger.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
