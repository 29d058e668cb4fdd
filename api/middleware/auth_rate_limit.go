package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/soundmarket/api/responses"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// maxPeekBody bounds how much of a login or registration body is buffered to
// find the account.
const maxPeekBody = 64 << 10

const msgTooManyAttempts = "Too many attempts, please retry later"

// RateLimiterStore counts attempts per key within a window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string, parts ...string) string
}

// AuthRateLimitPolicy caps attempts per client address and per account on
// one auth endpoint. A zero limit disables that counter.
type AuthRateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	accountLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, accountLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, accountLimit: accountLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.accountLimit > 0)
}

type counter struct {
	scope string
	value string
	limit int
}

// AuthRateLimit throttles an auth endpoint. The account is the form
// "username" of a login or the JSON "email" of a registration, hashed before
// it reaches the store. A nil store disables throttling.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters := make([]counter, 0, 2)
			if ip := ClientIP(r); policy.ipLimit > 0 && ip != "" {
				counters = append(counters, counter{scope: "ip", value: ip, limit: policy.ipLimit})
			}
			if policy.accountLimit > 0 && r.Body != nil {
				account, err := peekAccount(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
					return
				}
				if account != "" {
					counters = append(counters, counter{scope: "email", value: hashValue(account), limit: policy.accountLimit})
				}
			}

			for _, c := range counters {
				key := store.RateLimitKey(policy.name, c.scope, c.value)
				count, err := store.IncrWithTTL(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.name,
							"scope":    c.scope,
							"key":      c.value,
							"attempts": count,
							"limit":    c.limit,
						}), "auth.rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgTooManyAttempts))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// peekAccount reads the body, puts it back, and returns the normalized
// account it names.
func peekAccount(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxPeekBody {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "request body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var account string
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/x-www-form-urlencoded" {
		if values, err := url.ParseQuery(string(body)); err == nil {
			account = values.Get("username")
		}
	} else {
		var payload struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &payload) == nil {
			account = payload.Email
		}
	}
	return strings.ToLower(strings.TrimSpace(account)), nil
}

// ClientIP returns the first forwarded address, falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(forwarded) != "" {
		return strings.TrimSpace(forwarded)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
