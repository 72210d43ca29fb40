package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tablepos-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tablepos-backend/pkg/redis"
)

const defaultReplayWindow = 24 * time.Hour

// idempotencyRule selects a write route by method and path.Match pattern.
// Money moving routes are critical: longer replay window, key mandatory.
type idempotencyRule struct {
	method   string
	pattern  string
	critical bool
	required bool
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, pattern: "/api/v1/orders"},
	{method: http.MethodPost, pattern: "/api/v1/orders/*/status"},
	{method: http.MethodPost, pattern: "/api/v1/orders/*/kitchen-tickets"},
	{method: http.MethodPost, pattern: "/api/v1/orders/*/payments", critical: true, required: true},
}

// IdempotencyTTLs holds the replay windows for ordinary and money moving
// routes.
type IdempotencyTTLs struct {
	Default  time.Duration
	Critical time.Duration
}

func (t IdempotencyTTLs) forRule(rule idempotencyRule) time.Duration {
	switch {
	case rule.critical && t.Critical > 0:
		return t.Critical
	case t.Default > 0:
		return t.Default
	}
	return defaultReplayWindow
}

// storedResponse is what a key resolves to. InFlight marks a first request
// that has not finished yet.
type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the routes in idempotencyRules. Payment routes reject requests without a
// key; the others only dedupe when a key is sent. A retry that arrives while
// the first request is still running gets a 409.
func Idempotency(store pkgredis.IdempotencyStore, ttls IdempotencyTTLs, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Router level middleware runs before chi knows the final
			// pattern, so rules match the raw path.
			rule, ok := matchRule(r.Method, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				if rule.required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := fingerprint(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)
			ttl := ttls.forRule(rule)

			claimed, err := claim(ctx, store, key, hash, ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !claimed {
				replay(ctx, store, key, hash, w, r, logg)
				return
			}

			var captured bytes.Buffer
			ww := wrap(w, r)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)
			status := statusOf(ww)

			// Release the claim first so a failed attempt can be retried with
			// the same key.
			if err := store.Del(context.WithoutCancel(ctx), key); err != nil {
				logIdempotencyError(ctx, logg, "release idempotency claim", err)
			}
			if status >= http.StatusInternalServerError {
				return
			}
			record, _ := json.Marshal(storedResponse{
				RequestHash: hash,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			})
			if _, err := store.SetNX(context.WithoutCancel(ctx), key, string(record), ttl); err != nil {
				logIdempotencyError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

// claim writes an in-flight marker and reports whether this request owns
// the key.
func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, ttl time.Duration) (bool, error) {
	marker, _ := json.Marshal(storedResponse{InFlight: true, RequestHash: hash})
	ok, err := store.SetNX(ctx, key, string(marker), ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// The first attempt released its claim between our SETNX and GET.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is being retried; try again"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.InFlight:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

// replayScope isolates keys per tenant and endpoint.
func replayScope(r *http.Request) string {
	tenantID, _ := TenantIDFromContext(r.Context())
	return strings.Join([]string{tenantID.String(), r.Method, r.URL.Path}, "|")
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func matchRule(method, urlPath string) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.method != method {
			continue
		}
		if ok, _ := path.Match(rule.pattern, urlPath); ok {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

func logIdempotencyError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil {
		logg.Error(ctx, msg, err)
	}
}
