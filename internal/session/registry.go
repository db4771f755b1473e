// Package session keeps the per-visitor cart, wishlist, language preference
// and notification outbox.
package session

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/persist"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrEvicted refuses writes from a session that has left the registry. A
// fresh copy owns the session's snapshots from then on.
var ErrEvicted = errors.New("session evicted")

// loadTimeout bounds restoring a session from the key-value store.
const loadTimeout = 5 * time.Second

func init() {
	validator.RegisterValidation("session_id", idPattern.MatchString, "may only contain letters, digits, '-' and '_'")
}

// ValidateID checks that id is 1-128 characters of [A-Za-z0-9_-].
func ValidateID(id string) error {
	if err := validator.Var(id, "required,max=128,session_id"); err != nil {
		return apperrors.InvalidInput("invalid session id: " + err.Error())
	}
	return nil
}

// Session is the state of one visitor.
type Session struct {
	ID       string
	Cart     *store.CartStore
	Wishlist *store.WishlistStore
	Locale   *locale.Preference
	Outbox   *notify.Outbox

	lastSeen time.Time
	evicted  atomic.Bool
}

// checkLive is the write guard of the session's stores.
func (s *Session) checkLive() error {
	if s.evicted.Load() {
		return ErrEvicted
	}
	return nil
}

// Config controls how sessions are built.
type Config struct {
	DefaultLanguage locale.Language
	OutboxCapacity  int

	// MaxSessions bounds how many sessions are kept in memory. The least
	// recently used session is dropped beyond it; its state stays in the
	// key-value store and is restored on next access. 0 means unbounded.
	MaxSessions int

	// Listeners receive every store event of every session.
	Listeners []store.Listener

	// Notifier, if set, receives every notification alongside the
	// session's outbox.
	Notifier notify.Notifier
}

// Registry lazily builds sessions on first access.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	kv         repository.KeyValueStore
	cfg        Config
	translator *notify.Translator
	logger     *slog.Logger
	now        func() time.Time
	loading    singleflight.Group
}

// NewRegistry creates a registry backed by kv.
func NewRegistry(kv repository.KeyValueStore, cfg Config, logger *slog.Logger) *Registry {
	if !cfg.DefaultLanguage.Valid() {
		cfg.DefaultLanguage = locale.English
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		kv:         kv,
		cfg:        cfg,
		translator: notify.NewTranslator(),
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the session for id, restoring it from the key-value store if
// it is not in memory. Restores run outside the registry lock, and
// concurrent requests for the same id share one restore.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if s := r.lookup(id); s != nil {
		return s, nil
	}

	v, _, _ := r.loading.Do(id, func() (any, error) {
		if s := r.lookup(id); s != nil {
			return s, nil
		}

		// A restore shared by several requests must not fail because the
		// first of them went away.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s := r.build(loadCtx, id)

		r.mu.Lock()
		r.sessions[id] = s
		r.evict(id)
		r.mu.Unlock()

		r.logger.DebugContext(ctx, "session loaded",
			slog.String("session_id", id),
			slog.Int("cart_lines", len(s.Cart.Items())),
			slog.Int("wishlist_items", s.Wishlist.Len()),
		)
		return s, nil
	})
	return v.(*Session), nil
}

func (r *Registry) lookup(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.lastSeen = r.now()
	return s
}

func (r *Registry) build(ctx context.Context, id string) *Session {
	s := &Session{ID: id, lastSeen: r.now()}

	s.Locale = locale.NewPreference(ctx, r.kv, persist.Namespace(id, persist.LocaleKey), r.cfg.DefaultLanguage, r.logger)
	s.Locale.GuardWrites(s.checkLive)
	s.Outbox = notify.NewOutbox(r.cfg.OutboxCapacity)

	opts := []store.Option{
		store.WithLogger(r.logger),
		store.WithSession(id),
		store.WithLanguage(s.Locale.Tag),
		store.WithWriteGuard(s.checkLive),
	}
	for _, l := range r.cfg.Listeners {
		opts = append(opts, store.WithListener(l))
	}

	var notifier notify.Notifier = s.Outbox
	if r.cfg.Notifier != nil {
		notifier = notify.Multi{s.Outbox, r.cfg.Notifier}
	}
	wishlistOpts := append([]store.Option{
		store.WithListener(notify.Listener(r.translator, s.Locale.Language, notifier)),
	}, opts...)

	s.Cart = store.NewCartStore(ctx, r.kv, persist.Namespace(id, persist.CartKey), opts...)
	s.Wishlist = store.NewWishlistStore(ctx, r.kv, persist.Namespace(id, persist.WishlistKey), wishlistOpts...)
	return s
}

// evict drops least recently used sessions other than keep beyond
// MaxSessions. Caller holds r.mu.
func (r *Registry) evict(keep string) {
	if r.cfg.MaxSessions <= 0 {
		return
	}
	for len(r.sessions) > r.cfg.MaxSessions {
		var oldest *Session
		for _, s := range r.sessions {
			if s.ID == keep {
				continue
			}
			if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
				oldest = s
			}
		}
		if oldest == nil {
			return
		}
		oldest.evicted.Store(true)
		delete(r.sessions, oldest.ID)
	}
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
