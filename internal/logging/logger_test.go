package logging

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestCtx_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	SetLogger(zerolog.New(&buf))

	var ctx context.Context
	h := chimiddleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	Ctx(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request_id"`)
	assert.Contains(t, buf.String(), `"hello"`)
}

func TestWatermillAdapter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	SetLogger(zerolog.New(&buf))

	a := NewWatermillAdapter().With(watermill.LogFields{"handler": "deliver"})
	a.Error("delivery failed", errors.New("boom"), watermill.LogFields{"attempt": 2})

	out := buf.String()
	assert.Contains(t, out, `"handler":"deliver"`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, `"boom"`)
	assert.Contains(t, out, `"component":"queue"`)
}
