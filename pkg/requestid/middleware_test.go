package requestid_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"reused", "abc-123_XYZ", true},
		{"invalid characters", "abc 123;drop", false},
		{"too long", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = requestid.FromContext(r.Context())
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				r.Header.Set(requestid.Header, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, seen, w.Header().Get(requestid.Header))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()
	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(requestid.WithContext(context.Background(), "req-1"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	h := requestid.Middleware(requestid.AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	r := httptest.NewRequest(http.MethodGet, "http://acme.example.com/items", nil)
	r.Header.Set(requestid.Header, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), r)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "http request", rec["msg"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "/items", rec["path"])
	assert.Equal(t, "acme.example.com", rec["host"])
	assert.EqualValues(t, http.StatusTeapot, rec["status"])
	assert.EqualValues(t, len("short and stout"), rec["bytes"])
}
