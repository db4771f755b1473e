package notify

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n Notification) {
	m.Called(ctx, n)
}

func fixedTranslator() *Translator {
	tr := NewTranslator()
	tr.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return tr
}

func TestTranslate_English(t *testing.T) {
	tr := fixedTranslator()

	n, ok := tr.Translate(locale.English, store.Event{Type: store.EventWishlistItemAdded, Name: "Linen Shirt"})
	require.True(t, ok)
	assert.Equal(t, "Added to Wishlist", n.Title)
	assert.Equal(t, "Linen Shirt has been added to your wishlist", n.Description)
	assert.Equal(t, "en", n.Language)

	n, ok = tr.Translate(locale.English, store.Event{Type: store.EventWishlistItemRemoved, Name: "Linen Shirt"})
	require.True(t, ok)
	assert.Equal(t, "Removed from Wishlist", n.Title)
	assert.Equal(t, "Linen Shirt has been removed from your wishlist", n.Description)

	n, ok = tr.Translate(locale.English, store.Event{Type: store.EventWishlistCleared})
	require.True(t, ok)
	assert.Equal(t, "Wishlist Cleared", n.Title)
	assert.Equal(t, "All items have been removed from your wishlist", n.Description)
}

func TestTranslate_Hebrew(t *testing.T) {
	tr := fixedTranslator()

	n, ok := tr.Translate(locale.Hebrew, store.Event{Type: store.EventWishlistItemAdded, Name: "חולצה"})
	require.True(t, ok)
	assert.Equal(t, "נוסף לרשימת המשאלות", n.Title)
	assert.Equal(t, "חולצה נוסף לרשימת המשאלות שלך", n.Description)
	assert.Equal(t, "he", n.Language)
}

func TestTranslate_SilentEvents(t *testing.T) {
	tr := fixedTranslator()
	for _, typ := range []store.EventType{store.EventCartUpdated, store.EventCartCleared, store.EventWishlistReordered} {
		_, ok := tr.Translate(locale.English, store.Event{Type: typ})
		assert.False(t, ok, typ)
	}
}

func TestTranslate_UnknownLanguageFallsBack(t *testing.T) {
	n, ok := fixedTranslator().Translate(locale.Language("fr"), store.Event{Type: store.EventWishlistCleared})
	require.True(t, ok)
	assert.Equal(t, "Wishlist Cleared", n.Title)
	assert.Equal(t, "en", n.Language)
}

func TestListener_UsesCurrentLanguage(t *testing.T) {
	ctx := context.Background()
	n := &mockNotifier{}
	n.On("Notify", ctx, mock.MatchedBy(func(msg Notification) bool {
		return msg.Language == "he" && msg.Title == "רשימת המשאלות נוקתה"
	})).Once()

	lang := locale.English
	l := Listener(fixedTranslator(), func() locale.Language { return lang }, n)
	lang = locale.Hebrew
	l(ctx, store.Event{Type: store.EventWishlistCleared})
	l(ctx, store.Event{Type: store.EventCartCleared})

	n.AssertExpectations(t)
}

func TestListener_WithWishlistStore(t *testing.T) {
	ctx := context.Background()
	outbox := NewOutbox(0)
	ws := store.NewWishlistStore(ctx, memory.NewKeyValueStore(), "",
		store.WithListener(Listener(NewTranslator(), func() locale.Language { return locale.English }, outbox)))

	require.NoError(t, ws.AddItem(ctx, domain.ProductDescriptor{ProductID: 1, Name: "Wool Coat", Price: "$249"}))
	require.NoError(t, ws.AddItem(ctx, domain.ProductDescriptor{ProductID: 1, Name: "Wool Coat", Price: "$249"}))
	ws.RemoveItem(ctx, 1)
	ws.RemoveItem(ctx, 1)
	ws.Clear(ctx)

	got := outbox.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "Wool Coat has been added to your wishlist", got[0].Description)
	assert.Equal(t, "Wool Coat has been removed from your wishlist", got[1].Description)
	assert.Equal(t, "Wishlist Cleared", got[2].Title)
	assert.Zero(t, outbox.Len())
}

func TestOutbox_DropsOldest(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(2)
	for i := range 3 {
		o.Notify(ctx, Notification{Title: fmt.Sprint(i)})
	}

	got := o.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Title)
	assert.Equal(t, "2", got[1].Title)
	assert.Equal(t, 1, o.Dropped())
	assert.NotNil(t, o.Drain())
}

func TestLogNotifierAndMulti(t *testing.T) {
	var buf bytes.Buffer
	outbox := NewOutbox(5)
	m := Multi{NewLogNotifier(logger.NewWithWriter("storefront", "info", &buf)), outbox}

	m.Notify(context.Background(), Notification{Title: "Wishlist Cleared", Language: "en"})

	assert.Contains(t, buf.String(), `"title":"Wishlist Cleared"`)
	assert.Equal(t, 1, outbox.Len())
}
