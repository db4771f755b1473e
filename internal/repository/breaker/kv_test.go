package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Set(context.Context, string, []byte) error {
	f.calls++
	return f.err
}

func (f *failingStore) Delete(context.Context, string) error {
	f.calls++
	return f.err
}

func testConfig() Config {
	cfg := DefaultConfig("kv-test")
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	return cfg
}

func TestWrap_PassesThrough(t *testing.T) {
	ctx := context.Background()
	s := Wrap(memory.NewKeyValueStore(), testConfig(), logger.Discard())

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestWrap_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("connection refused")}
	s := Wrap(inner, testConfig(), logger.Discard())

	for i := 0; i < 3; i++ {
		assert.Error(t, s.Set(ctx, "k", []byte("v")))
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())

	err := s.Set(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the backend")

	assert.ErrorIs(t, s.Ping(ctx), apperrors.ErrUnavailable)
}

func TestWrap_NotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: apperrors.NotFound("snapshot", "k")}
	s := Wrap(inner, testConfig(), logger.Discard())

	for i := 0; i < 10; i++ {
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, s.State())
}
