// Package session owns the DistroBoard polling session.
//
// A [Session] is a two-state machine (Stopped, Running). Start persists the
// operator's credentials and begins a fresh poll loop, replacing any loop
// that was already running. Stop, or any failed poll, ends it.
//
// Every Start and Stop bumps a generation counter. Each tick remembers the
// generation it was dispatched under and its result is discarded if the
// generation has moved on, so a slow scan from a stopped or restarted session
// can never repaint the view. Ticks of the same generation may overlap; the
// last one to finish wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/internal/metrics"
	"github.com/jpalmerr/distroboard/internal/poller"
	"github.com/jpalmerr/distroboard/internal/store"
	"github.com/jpalmerr/distroboard/source"
)

const (
	// DefaultInterval is the time between poll ticks.
	DefaultInterval = 2 * time.Second

	// StandbyMessage is shown in the alert banner while stopped.
	StandbyMessage = "Update the fields below and click Start to show status"
)

// ErrIncompleteCredentials is returned when an operation needs the stream
// name, access key id and secret access key and one of them is missing.
var ErrIncompleteCredentials = errors.New("credentials incomplete")

// Config holds the collaborators of a [Session].
type Config struct {
	// Interval between ticks. Zero means DefaultInterval.
	Interval time.Duration

	// Credentials persists the operator's credentials. Required.
	Credentials credentials.Store

	// Sources builds the remote source for a set of credentials. Required.
	Sources source.Factory

	// View is the render surface. Required.
	View store.Store

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Location and TimeFormat control how replication timestamps are
	// rendered. Nil Location means time.Local; empty TimeFormat means
	// DefaultTimeFormat.
	Location   *time.Location
	TimeFormat string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is the dashboard's polling session.
//
// All methods are safe for concurrent use.
type Session struct {
	ctx      context.Context
	interval time.Duration
	creds    credentials.Store
	sources  source.Factory
	view     store.Store
	metrics  *metrics.Metrics
	clock    Clock
	logger   *slog.Logger

	mu         sync.Mutex
	running    bool
	generation uint64
	sessionID  string
	active     credentials.Credentials
	src        source.Source
	scheduler  *poller.Scheduler

	// tracks retired schedulers until their in-flight ticks return
	retired sync.WaitGroup
}

// New creates a stopped Session. ctx bounds the lifetime of every poll loop
// and in-flight remote call; cancel it (or call Close) on shutdown.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.Sources == nil {
		return nil, errors.New("source factory is required")
	}
	if cfg.View == nil {
		return nil, errors.New("view store is required")
	}
	if cfg.Interval < 0 {
		return nil, errors.New("interval must not be negative")
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		ctx:      ctx,
		interval: interval,
		creds:    cfg.Credentials,
		sources:  cfg.Sources,
		view:     cfg.View,
		metrics:  cfg.Metrics,
		clock:    NewClock(cfg.Location, cfg.TimeFormat),
		logger:   logger,
	}, nil
}

// InitialView is the view shown before the first Start.
func InitialView() store.View {
	return store.View{
		Alert:     StandbyMessage,
		AlertKind: store.AlertStandby,
	}
}

// Running reports whether a poll loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// StoredCredentials returns the persisted credentials.
func (s *Session) StoredCredentials() (credentials.Credentials, error) {
	return s.creds.Load()
}

// Start persists creds and begins a fresh poll loop, stopping any loop that
// is already running.
//
// Incomplete credentials are accepted: the loop runs but every tick is a
// silent no-op. An error is returned if the credentials cannot be persisted
// or the remote source cannot be built; in the latter case the session ends
// up stopped with the error shown in the alert banner.
func (s *Session) Start(creds credentials.Credentials) error {
	creds = creds.WithDefaults()
	if err := s.creds.Save(creds); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	var src source.Source
	if creds.Complete() {
		var err error
		src, err = s.sources(creds)
		if err != nil {
			err = fmt.Errorf("failed to create source: %w", err)
			s.mu.Lock()
			s.stopLocked(store.AlertError, err.Error())
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.retireSchedulerLocked()
	s.generation++
	gen := s.generation
	s.running = true
	s.sessionID = uuid.NewString()
	s.active = creds
	s.src = src

	sessionID := s.sessionID
	s.view.Update(func(v *store.View) {
		v.Records = nil
		v.Running = true
		v.SessionID = sessionID
	})

	s.scheduler = poller.NewScheduler(
		s.interval,
		func(ctx context.Context) error { return s.tick(ctx, gen) },
		func(err error) { s.fail(gen, err) },
		s.logger,
	)
	s.scheduler.Start(s.ctx)

	s.metrics.SessionStarted()
	s.metrics.SetRunning(true)
	s.metrics.SetRecords(0)
	s.logger.Info("session started",
		"session_id", sessionID,
		"generation", gen,
		"interval", s.interval.String(),
		"credentials", creds,
	)
	return nil
}

// Stop ends the poll loop, clears the records and shows the standby alert.
// Stopping a stopped session resets the view again and is otherwise a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(store.AlertStandby, StandbyMessage)
}

// Close stops the poll loop without touching the view and waits for every
// in-flight tick to return.
func (s *Session) Close() {
	s.mu.Lock()
	s.retireSchedulerLocked()
	s.generation++
	s.running = false
	s.mu.Unlock()

	s.retired.Wait()
}

// stopLocked moves the session to Stopped. Caller must hold s.mu.
func (s *Session) stopLocked(kind store.AlertKind, alert string) {
	wasRunning := s.running
	sessionID := s.sessionID

	s.retireSchedulerLocked()
	s.generation++
	s.running = false
	s.sessionID = ""

	s.view.Update(func(v *store.View) {
		v.Records = nil
		v.Running = false
		v.Connected = false
		v.SessionID = ""
		v.Alert = alert
		v.AlertKind = kind
	})

	s.metrics.SetRunning(false)
	s.metrics.SetRecords(0)
	if wasRunning {
		s.logger.Info("session stopped",
			"session_id", sessionID,
			"generation", s.generation,
			"reason", string(kind),
		)
	}
}

// retireSchedulerLocked stops the current scheduler without waiting for its
// in-flight ticks. Caller must hold s.mu.
func (s *Session) retireSchedulerLocked() {
	if s.scheduler == nil {
		return
	}
	old := s.scheduler
	s.scheduler = nil
	old.Stop()

	s.retired.Add(1)
	go func() {
		defer s.retired.Done()
		old.Wait()
	}()
}

// tick performs one poll for generation gen.
func (s *Session) tick(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.Tick(metrics.TickStale)
		return nil
	}
	creds, src, sessionID := s.active, s.src, s.sessionID
	s.mu.Unlock()

	if !creds.Complete() || src == nil {
		s.logger.Debug("skipping poll, credentials incomplete", "session_id", sessionID)
		s.metrics.Tick(metrics.TickSkipped)
		return nil
	}

	start := time.Now()
	items, err := src.Scan(ctx)
	s.metrics.ObserveScan(time.Since(start))
	if err != nil {
		return err
	}

	records := s.toRecords(items)

	s.mu.Lock()
	defer s.mu.Unlock()

	// the session may have been stopped or restarted while scanning
	if gen != s.generation {
		s.logger.Debug("discarding stale poll result",
			"tick_generation", gen,
			"generation", s.generation,
		)
		s.metrics.Tick(metrics.TickStale)
		return nil
	}

	s.view.Update(func(v *store.View) {
		v.Records = records
		v.Connected = true
		v.Alert = ""
		v.AlertKind = store.AlertNone
	})

	s.metrics.Tick(metrics.TickOK)
	s.metrics.SetRecords(len(records))
	s.logger.Debug("poll completed",
		"session_id", sessionID,
		"records", len(records),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// fail handles a tick error for generation gen.
func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("ignoring error from stale poll", "error", err.Error())
		s.metrics.Tick(metrics.TickStale)
		return
	}

	s.metrics.Tick(metrics.TickError)
	s.logger.Warn("poll failed, stopping session",
		"session_id", s.sessionID,
		"error", err.Error(),
	)
	s.stopLocked(store.AlertError, err.Error())
}

// toRecords converts scanned items into display records sorted by name,
// then domain.
func (s *Session) toRecords(items []source.Item) []store.Record {
	records := make([]store.Record, 0, len(items))
	for _, it := range items {
		updated, at := s.clock.Format(it.ReplicatedAt)
		records = append(records, store.Record{
			Name:          it.Name,
			Region:        it.Region,
			Domain:        it.Domain,
			PlaylistFresh: it.PlaylistFresh,
			DistroOpen:    it.DistroOpen,
			Updated:       updated,
			UpdatedAt:     at,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Domain < records[j].Domain
	})
	return records
}
