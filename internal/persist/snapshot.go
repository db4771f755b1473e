package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Snapshot keys and schema versions. Bumping a version discards data
// written under the old one.
const (
	CartKey     = "cart-storage"
	WishlistKey = "wishlist-storage"
	LocaleKey   = "i18n-storage"

	CartVersion     = 1
	WishlistVersion = 1
	LocaleVersion   = 1
)

// Snapshot is the persisted layout of a whole collection.
type Snapshot[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Document is the persisted layout of a single value.
type Document[T any] struct {
	Version int `json:"version"`
	State   T   `json:"state"`
}

var tracer = tracing.Tracer("github.com/utafrali/storefront/persist")

// ErrCorrupt marks a stored payload that could not be decoded.
var ErrCorrupt = errors.New("corrupt snapshot")

// Namespace prefixes key with a session ID. An empty session leaves the key
// unchanged.
func Namespace(session, key string) string {
	if session == "" {
		return key
	}
	return session + ":" + key
}

// Load restores the collection stored under key. A missing key or a
// version other than want yields an empty collection and no error. An
// undecodable payload yields an empty collection and an error wrapping
// ErrCorrupt. Backend failures are returned as is.
func Load[T any](ctx context.Context, kv repository.KeyValueStore, key string, want int) ([]T, error) {
	var snap Snapshot[T]
	found, err := read(ctx, kv, key, &snap)
	if err != nil || !found {
		return []T{}, err
	}
	if snap.Version != want || snap.Items == nil {
		return []T{}, nil
	}
	return snap.Items, nil
}

// Save writes the whole collection under key, tagged with version.
func Save[T any](ctx context.Context, kv repository.KeyValueStore, key string, version int, items []T) error {
	if items == nil {
		items = []T{}
	}
	return write(ctx, kv, key, Snapshot[T]{Version: version, Items: items})
}

// LoadDocument restores a single value. ok is false when nothing usable is
// stored, in which case the zero T is returned.
func LoadDocument[T any](ctx context.Context, kv repository.KeyValueStore, key string, want int) (state T, ok bool, err error) {
	var doc Document[T]
	found, err := read(ctx, kv, key, &doc)
	if err != nil || !found || doc.Version != want {
		var zero T
		return zero, false, err
	}
	return doc.State, true, nil
}

// SaveDocument writes a single value under key.
func SaveDocument[T any](ctx context.Context, kv repository.KeyValueStore, key string, version int, state T) error {
	return write(ctx, kv, key, Document[T]{Version: version, State: state})
}

func read(ctx context.Context, kv repository.KeyValueStore, key string, dst any) (found bool, err error) {
	ctx, span := tracer.Start(ctx, "snapshot.read", trace.WithAttributes(attribute.String("storefront.snapshot_key", key)))
	defer func() { tracing.End(span, err) }()

	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrCorrupt, key, err)
	}
	return true, nil
}

func write(ctx context.Context, kv repository.KeyValueStore, key string, v any) (err error) {
	ctx, span := tracer.Start(ctx, "snapshot.write", trace.WithAttributes(attribute.String("storefront.snapshot_key", key)))
	defer func() { tracing.End(span, err) }()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}
