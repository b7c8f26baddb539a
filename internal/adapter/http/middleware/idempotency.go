package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	maxIdempotencyKeyLen = 255
	storeTimeout         = 2 * time.Second
)

// storedResponse is what is kept under a completed key.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// IdempotencyMiddleware replays the first successful response of a
// mutating request for every retry carrying the same Idempotency-Key.
// Keys are scoped to the caller's owner id.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			writeError(w, http.StatusBadRequest, "idempotency key too long")
			return
		}

		scoped := scopeKey(r, key)

		exists, cached, err := m.store.CheckAndSet(r.Context(), scoped, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			m.replay(w, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), storeTimeout)
		defer cancel()

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Release(ctx, scoped); err != nil {
				m.logger.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status: recorder.statusCode,
			Body:   recorder.jsonBody(),
		})
		if err != nil {
			return
		}
		if err := m.store.Update(ctx, scoped, payload, m.ttl); err != nil {
			m.logger.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, cached []byte) {
	var stored storedResponse
	if len(cached) == 0 || json.Unmarshal(cached, &stored) != nil || stored.Status == 0 {
		// the first request is still running or its claim just expired
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusConflict, "request with this idempotency key is in progress")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(stored.Status)
	if len(stored.Body) > 0 {
		w.Write(stored.Body)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func scopeKey(r *http.Request, key string) string {
	owner := ""
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		owner = p.OwnerID
	}
	return owner + ":" + r.Method + ":" + r.URL.Path + ":" + key
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) jsonBody() json.RawMessage {
	b := bytes.TrimSpace(r.body.Bytes())
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return json.RawMessage(b)
}
