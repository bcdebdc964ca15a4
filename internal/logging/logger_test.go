package logging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	InitLogger()

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify correlation ID is present
		cid := GetCorrelationID(r.Context())
		assert.NotEmpty(t, cid)

		// Verify logger is in context
		logger := FromContext(r.Context())
		assert.NotNil(t, logger)

		w.WriteHeader(http.StatusOK)
	}))

	req, _ := http.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddleware_ExistingCorrelationID(t *testing.T) {
	InitLogger()

	existingID := "existing-id-123"

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := GetCorrelationID(r.Context())
		assert.Equal(t, existingID, cid)
	}))

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Correlation-ID", existingID)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
}

func TestStageMiddleware_PropagatesError(t *testing.T) {
	InitLogger()
	ctx := WithSessionID(context.Background(), "sess-1")

	boom := errors.New("boom")
	err := StageMiddleware(ctx, "elevation", func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestStageMiddleware_Success(t *testing.T) {
	InitLogger()
	ctx := WithSessionID(context.Background(), "sess-2")

	called := false
	err := StageMiddleware(ctx, "plates", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
}
