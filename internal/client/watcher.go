package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/view"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// ErrUnknownDay is returned by DeleteDay for a day the view does not hold.
var ErrUnknownDay = errors.New("day not in view")

// API is the part of the logbook API a Watcher drives.
type API interface {
	ListLogs(ctx context.Context, projectID, search string) (aggregate.Buckets, error)
	DeleteLog(ctx context.Context, id string) error
	DeleteLogs(ctx context.Context, projectID string, at time.Time) (int64, error)
	Stream(ctx context.Context) (*Stream, error)
}

var _ API = (*Client)(nil)

// WatcherOptions tunes reconnects.
type WatcherOptions struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     logger.Logger
}

// Watcher keeps a merged, live view of one project.
//
// It subscribes to the live channel before asking for a snapshot and
// buffers live events while the snapshot is in flight, so nothing created
// in between is lost. Every snapshot carries a generation; switching
// project or reconnecting bumps it and late results are dropped.
type Watcher struct {
	api  API
	log  logger.Logger
	opts WatcherOptions

	mu       sync.Mutex
	engine   *view.Engine
	gen      uint64
	loading  bool
	buffered []domain.LiveEvent
	search   string
	lastErr  error

	updates chan struct{}
	resync  chan struct{}
}

// NewWatcher creates a watcher for projectID. Call Run to start it.
func NewWatcher(api API, projectID string, opts WatcherOptions) *Watcher {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = defaultMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(defaultMaxBackoff, opts.MinBackoff)
	}
	return &Watcher{
		api:     api,
		log:     opts.Logger,
		opts:    opts,
		engine:  view.NewEngine(projectID),
		updates: make(chan struct{}, 1),
		resync:  make(chan struct{}, 1),
	}
}

// Updates signals after every change to the view. Signals coalesce: one
// receive may stand for several changes.
func (w *Watcher) Updates() <-chan struct{} { return w.updates }

// Run connects, snapshots and merges live events until ctx is done.
// Stream and snapshot failures are retried with capped exponential
// backoff; the backoff only resets once a connection has delivered a
// snapshot.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := w.opts.MinBackoff

	for {
		stream, err := w.api.Stream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.setErr(fmt.Errorf("connect: %w", err))
			w.debug("live stream connect failed", logger.Error(err), logger.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, w.opts.MaxBackoff)
			continue
		}

		w.debug("live stream connected")
		// A failure signalled while disconnected belongs to a snapshot
		// this connection supersedes.
		select {
		case <-w.resync:
		default:
		}
		w.refresh(ctx)

		resynced := w.consume(ctx, stream)
		stream.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := stream.Err(); err != nil {
			w.setErr(fmt.Errorf("stream: %w", err))
		}

		// Invalidate any in-flight snapshot; the next connection re-snapshots.
		w.mu.Lock()
		healthy := !resynced && !w.loading
		w.gen++
		w.mu.Unlock()

		if healthy {
			backoff = w.opts.MinBackoff
		}
		w.debug("live stream ended", logger.Bool("snapshot_failed", resynced), logger.Duration("retry_in", backoff))
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		if !healthy {
			backoff = min(backoff*2, w.opts.MaxBackoff)
		}
	}
}

// consume merges live events until the stream ends, ctx is done or a
// snapshot fails. It reports whether it stopped for a failed snapshot.
func (w *Watcher) consume(ctx context.Context, stream *Stream) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-w.resync:
			w.debug("snapshot failed, reconnecting")
			return true
		case ev, ok := <-stream.Events():
			if !ok {
				return false
			}
			w.onLive(ev)
		}
	}
}

func (w *Watcher) onLive(ev domain.LiveEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.loading {
		w.buffered = append(w.buffered, ev)
		return
	}
	if w.engine.OnLiveEntry(ev.Entry, ev.DayLabel) {
		w.notify()
	}
}

// refresh starts a snapshot fetch under a new generation.
func (w *Watcher) refresh(ctx context.Context) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	projectID := w.engine.ProjectID()
	w.loading = true
	w.buffered = nil
	w.mu.Unlock()

	go func() {
		buckets, err := w.api.ListLogs(ctx, projectID, "")
		w.applySnapshot(gen, buckets, err)
	}()
}

func (w *Watcher) applySnapshot(gen uint64, buckets aggregate.Buckets, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		return
	}
	if err != nil {
		w.lastErr = fmt.Errorf("snapshot: %w", err)
		w.notify()
		select {
		case w.resync <- struct{}{}:
		default:
		}
		return
	}

	w.engine.LoadSnapshot(buckets)
	for _, ev := range w.buffered {
		w.engine.OnLiveEntry(ev.Entry, ev.DayLabel)
	}
	w.buffered = nil
	w.loading = false
	w.lastErr = nil
	w.notify()
}

// SetProject switches the watched project and fetches its snapshot.
func (w *Watcher) SetProject(ctx context.Context, projectID string) {
	w.mu.Lock()
	w.engine.Reset(projectID)
	w.mu.Unlock()

	w.refresh(ctx)
	w.notify()
}

// SetSearch changes the view filter. Queries shorter than
// view.MinSearchLength show everything.
func (w *Watcher) SetSearch(q string) {
	w.mu.Lock()
	w.search = q
	w.mu.Unlock()
	w.notify()
}

// View returns the current filtered view.
func (w *Watcher) View() aggregate.Buckets {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.ApplyFilter(view.Search(w.search))
}

// State reports whether a snapshot is loaded.
func (w *Watcher) State() view.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.State()
}

// ProjectID returns the watched project.
func (w *Watcher) ProjectID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.ProjectID()
}

// Err returns the last connection or snapshot failure, cleared by the
// next successful snapshot.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// DeleteEntry deletes one entry on the server, then locally.
func (w *Watcher) DeleteEntry(ctx context.Context, id string) error {
	if err := w.api.DeleteLog(ctx, id); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffered = slices.DeleteFunc(w.buffered, func(ev domain.LiveEvent) bool { return ev.Entry.ID == id })
	if w.engine.OnDeleteEntry(id) {
		w.notify()
	}
	return nil
}

// DeleteDay deletes the day bucket labelled day on the server, then
// locally. The server resolves the day from the timestamp of one of the
// bucket's entries, so labels never have to be parsed back.
func (w *Watcher) DeleteDay(ctx context.Context, day string) (int64, error) {
	w.mu.Lock()
	projectID := w.engine.ProjectID()
	bucket, ok := w.engine.Bucket(day)
	w.mu.Unlock()

	if !ok || len(bucket.Entries) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}

	n, err := w.api.DeleteLogs(ctx, projectID, bucket.Entries[0].CreatedAt)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffered = slices.DeleteFunc(w.buffered, func(ev domain.LiveEvent) bool { return ev.DayLabel == day })
	if w.engine.OnDeleteRange(day) > 0 {
		w.notify()
	}
	return n, nil
}

// ClearAll deletes every entry of the project on the server, then locally.
func (w *Watcher) ClearAll(ctx context.Context) (int64, error) {
	projectID := w.ProjectID()

	n, err := w.api.DeleteLogs(ctx, projectID, time.Time{})
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffered = nil
	w.engine.OnDeleteRange("")
	w.notify()
	return n, nil
}

func (w *Watcher) notify() {
	select {
	case w.updates <- struct{}{}:
	default:
	}
}

func (w *Watcher) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
	w.notify()
}

func (w *Watcher) debug(msg string, fields ...logger.Field) {
	if w.log != nil {
		w.log.Debug(msg, fields...)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
