package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("snapshot", "cart-storage")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Error(), "snapshot cart-storage not found")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("quantity must not be negative")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("circuit breaker is open")
	err := Unavailable("redis", cause)

	assert.Equal(t, "redis is unavailable", err.Message)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestClassify(t *testing.T) {
	app := InvalidInput("price is required")
	assert.Same(t, app, Classify(fmt.Errorf("add item: %w", app)))

	got := Classify(fmt.Errorf("kv: %w", ErrUnavailable))
	assert.Equal(t, CodeUnavailable, got.Code)
	assert.Equal(t, "a dependency is unavailable", got.Message)

	got = Classify(fmt.Errorf("decode: %w", ErrInvalidInput))
	assert.Equal(t, CodeInvalidInput, got.Code)
	assert.Equal(t, "decode: invalid input", got.Message)

	cause := errors.New("pq: password authentication failed")
	got = Classify(cause)
	assert.Equal(t, CodeInternal, got.Code)
	assert.NotContains(t, got.Message, "password")
	assert.ErrorIs(t, got, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("ctx: %w", NotFound("x", "1")), http.StatusNotFound},
		{"sentinel not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel invalid", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
