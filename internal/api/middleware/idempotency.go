package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	HeaderKey = "Idempotency-Key"
	HeaderHit = "X-Idempotency-Hit"

	processing = "PROCESSING"
	lockTTL    = 10 * time.Second
)

// Store is the subset of *redis.Client the middleware uses.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Only successful responses are kept; failures release the key.
func Idempotency(redisClient Store, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			idemKey := "idempotency:" + r.URL.Path + ":" + key
			ctx := r.Context()

			val, err := redisClient.Get(ctx, idemKey).Bytes()
			switch {
			case err == nil:
				replay(w, val)
				return
			case !errors.Is(err, redis.Nil):
				slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := redisClient.SetNX(ctx, idemKey, processing, lockTTL).Result()
			if err != nil {
				slog.WarnContext(ctx, "idempotency lock failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"message":"concurrent request"}`))
				return
			}

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				redisClient.Del(ctx, idemKey)
				return
			}

			stored := storedResponse{Status: rec.status}
			if json.Valid(rec.buf.Bytes()) {
				stored.Body = rec.buf.Bytes()
			}
			data, _ := json.Marshal(stored)
			redisClient.Set(ctx, idemKey, data, ttl)
		})
	}
}

func replay(w http.ResponseWriter, val []byte) {
	w.Header().Set(HeaderHit, "true")
	w.Header().Set("Content-Type", "application/json")

	var stored storedResponse
	if string(val) == processing || json.Unmarshal(val, &stored) != nil || stored.Status == 0 {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"request is being processed"}`))
		return
	}

	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}
