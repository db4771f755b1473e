// Package store holds the cart and wishlist stores: in-memory ordered
// collections that persist a full snapshot after every mutation.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/utafrali/storefront/internal/persist"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/logger"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_mutations_total",
			Help: "Store mutations applied in memory, by store and operation",
		},
		[]string{"store", "op"},
	)

	snapshotWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_snapshot_write_failures_total",
			Help: "Snapshot writes that failed after the in-memory mutation was applied",
		},
		[]string{"store"},
	)

	snapshotRestores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_snapshot_restores_total",
			Help: "Snapshot restores at store construction, by outcome",
		},
		[]string{"store", "outcome"},
	)
)

const (
	storeCart     = "cart"
	storeWishlist = "wishlist"
)

// EventType names a store event.
type EventType string

const (
	EventCartUpdated         EventType = "cart.updated"
	EventCartCleared         EventType = "cart.cleared"
	EventWishlistItemAdded   EventType = "wishlist.item_added"
	EventWishlistItemRemoved EventType = "wishlist.item_removed"
	EventWishlistCleared     EventType = "wishlist.cleared"
	EventWishlistReordered   EventType = "wishlist.reordered"
)

// Event describes a completed mutation. ProductID and Name are set for
// events about a single product.
type Event struct {
	Type      EventType
	Session   string
	ProductID int
	Name      string
	ItemCount int
	Total     decimal.Decimal
}

// Listener observes events after the mutation has been applied and
// persisted. Listeners run on the caller's goroutine, outside the store lock.
type Listener func(ctx context.Context, e Event)

type options struct {
	logger    *slog.Logger
	clock     func() time.Time
	listeners []Listener
	session   string
	language  func() language.Tag
	guard     func() error
}

// Option configures a store.
type Option func(*options)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides time.Now, used for wishlist timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithListener registers an event listener. May be repeated.
func WithListener(l Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// WithSession tags events and logs with a session ID.
func WithSession(id string) Option {
	return func(o *options) { o.session = id }
}

// WithLanguage supplies the current language, used for name collation.
func WithLanguage(fn func() language.Tag) Option {
	return func(o *options) { o.language = fn }
}

// WithWriteGuard is consulted before every snapshot write. A non-nil error
// refuses the write; it is logged like any other persistence failure.
func WithWriteGuard(fn func() error) Option {
	return func(o *options) { o.guard = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logger.Discard(),
		clock:    time.Now,
		language: func() language.Tag { return language.English },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries what both stores share: the lock, persistence target and
// event dispatch.
type base struct {
	mu      sync.Mutex
	kv      repository.KeyValueStore
	key     string
	version int
	name    string
	opts    options
}

// mutate runs fn under the lock. If fn reports a change, the snapshot is
// written before the lock is released and the returned events are
// dispatched afterwards. A failed write is logged and counted; the
// in-memory change stands.
func (b *base) mutate(ctx context.Context, op string, fn func() (changed bool, events []Event), save func(ctx context.Context) error) {
	b.mu.Lock()
	changed, events := fn()
	if changed {
		mutationsTotal.WithLabelValues(b.name, op).Inc()
		if err := b.save(ctx, save); err != nil {
			snapshotWriteFailures.WithLabelValues(b.name).Inc()
			b.log(ctx).ErrorContext(ctx, "failed to persist snapshot",
				slog.String("store", b.name),
				slog.String("op", op),
				slog.String("key", b.key),
				slog.String("error", err.Error()),
			)
		}
	}
	b.mu.Unlock()

	for _, e := range events {
		e.Session = b.opts.session
		for _, l := range b.opts.listeners {
			l(ctx, e)
		}
	}
}

// SaveTimeout bounds a snapshot write once it no longer follows the
// caller's cancellation.
const SaveTimeout = 5 * time.Second

// saveDetached runs save on a context that survives the request being
// cancelled or timing out, so a change applied in memory still reaches the
// store. Trace and log values are kept.
func saveDetached(ctx context.Context, save func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SaveTimeout)
	defer cancel()
	return save(ctx)
}

func (b *base) save(ctx context.Context, save func(ctx context.Context) error) error {
	if b.opts.guard != nil {
		if err := b.opts.guard(); err != nil {
			return err
		}
	}
	return saveDetached(ctx, save)
}

func (b *base) log(ctx context.Context) *slog.Logger {
	l := logger.WithContext(ctx, b.opts.logger)
	if b.opts.session != "" && logger.SessionIDFromContext(ctx) == "" {
		l = l.With(slog.String("session_id", b.opts.session))
	}
	return l
}

// restore loads the snapshot and records the outcome. Failures leave the
// store empty.
func restore[T any](ctx context.Context, b *base) []T {
	items, err := persist.Load[T](ctx, b.kv, b.key, b.version)
	switch {
	case errors.Is(err, persist.ErrCorrupt):
		snapshotRestores.WithLabelValues(b.name, "corrupt").Inc()
		b.log(ctx).WarnContext(ctx, "discarding corrupt snapshot",
			slog.String("store", b.name),
			slog.String("key", b.key),
			slog.String("error", err.Error()),
		)
	case err != nil:
		snapshotRestores.WithLabelValues(b.name, "error").Inc()
		b.log(ctx).ErrorContext(ctx, "failed to restore snapshot, starting empty",
			slog.String("store", b.name),
			slog.String("key", b.key),
			slog.String("error", err.Error()),
		)
	case len(items) == 0:
		snapshotRestores.WithLabelValues(b.name, "empty").Inc()
	default:
		snapshotRestores.WithLabelValues(b.name, "restored").Inc()
	}
	return items
}
