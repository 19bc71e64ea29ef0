package backend_errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"invalid state", fmt.Errorf("callback: %w", ErrInvalidState), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"upstream wrapped", fmt.Errorf("discord: %w", ErrUpstream), http.StatusBadGateway},
		{"not configured", ErrNotConfigured, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "UNAUTHORIZED", Code(http.StatusUnauthorized))
	assert.Equal(t, "UPSTREAM_ERROR", Code(http.StatusBadGateway))
	assert.Equal(t, "INTERNAL_ERROR", Code(http.StatusTeapot))
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("discord /users/@me: status 503: %w", ErrUpstream)

	assert.Equal(t, "upstream request failed", PublicMessage(err))
	assert.Equal(t, "invalid oauth state", PublicMessage(fmt.Errorf("jwt expired: %w", ErrInvalidState)))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
}
