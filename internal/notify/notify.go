// Package notify turns store events into user-facing notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/store"
)

// Notification is a short toast message.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type message struct {
	title       string
	description string // may contain one %s for the product name
}

// Translator renders notifications for store events.
type Translator struct {
	messages map[locale.Language]map[store.EventType]message
	now      func() time.Time
}

// NewTranslator returns a translator with the built-in English and Hebrew
// wishlist messages.
func NewTranslator() *Translator {
	return &Translator{
		now: time.Now,
		messages: map[locale.Language]map[store.EventType]message{
			locale.English: {
				store.EventWishlistItemAdded:   {"Added to Wishlist", "%s has been added to your wishlist"},
				store.EventWishlistItemRemoved: {"Removed from Wishlist", "%s has been removed from your wishlist"},
				store.EventWishlistCleared:     {"Wishlist Cleared", "All items have been removed from your wishlist"},
			},
			locale.Hebrew: {
				store.EventWishlistItemAdded:   {"נוסף לרשימת המשאלות", "%s נוסף לרשימת המשאלות שלך"},
				store.EventWishlistItemRemoved: {"הוסר מרשימת המשאלות", "%s הוסר מרשימת המשאלות שלך"},
				store.EventWishlistCleared:     {"רשימת המשאלות נוקתה", "כל הפריטים הוסרו מרשימת המשאלות שלך"},
			},
		},
	}
}

// Translate returns the notification for e in lang. ok is false for events
// that are not announced. Unknown languages fall back to English.
func (t *Translator) Translate(lang locale.Language, e store.Event) (n Notification, ok bool) {
	msgs, found := t.messages[lang]
	if !found {
		lang = locale.English
		msgs = t.messages[lang]
	}
	m, ok := msgs[e.Type]
	if !ok {
		return Notification{}, false
	}

	desc := m.description
	if e.Type != store.EventWishlistCleared {
		desc = fmt.Sprintf(m.description, e.Name)
	}
	return Notification{
		Title:       m.title,
		Description: desc,
		Language:    string(lang),
		CreatedAt:   t.now().UTC(),
	}, true
}

// Listener adapts store events to notifications in the language lang
// returns at dispatch time.
func Listener(tr *Translator, lang func() locale.Language, n Notifier) store.Listener {
	return func(ctx context.Context, e store.Event) {
		if msg, ok := tr.Translate(lang(), e); ok {
			n.Notify(ctx, msg)
		}
	}
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.InfoContext(ctx, "notification",
		slog.String("title", n.Title),
		slog.String("description", n.Description),
		slog.String("language", n.Language),
	)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Outbox queues notifications until a client drains them. When full, the
// oldest notification is dropped.
type Outbox struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	dropped  int
}

// DefaultOutboxCapacity bounds an outbox when no capacity is given.
const DefaultOutboxCapacity = 50

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	return &Outbox{capacity: capacity}
}

func (o *Outbox) Notify(_ context.Context, n Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.items) == o.capacity {
		o.items = o.items[1:]
		o.dropped++
	}
	o.items = append(o.items, n)
}

// Drain returns the queued notifications, oldest first, and empties the
// outbox.
func (o *Outbox) Drain() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.items
	o.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len returns the number of queued notifications.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Dropped returns how many notifications were discarded because the
// outbox was full.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
