package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/redis"
)

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimitPolicy caps attempts per fixed window. PerIP counts by client
// address; PerAccount counts by the email or phone named in the JSON body.
// A zero limit disables that dimension.
type RateLimitPolicy struct {
	Name       string
	Window     time.Duration
	PerIP      int
	PerAccount int
}

func (p RateLimitPolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerAccount > 0)
}

type rateCheck struct {
	scope string
	value string
	limit int
}

// RateLimit throttles credential endpoints. It expects chi's RealIP to have
// rewritten RemoteAddr upstream.
func RateLimit(policy RateLimitPolicy, store counterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.ToLower(strings.TrimSpace(policy.Name))
	if name == "" {
		name = "auth"
	}

	return func(next http.Handler) http.Handler {
		if !policy.active() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks := make([]rateCheck, 0, 2)
			if ip := remoteHost(r); policy.PerIP > 0 && ip != "" {
				checks = append(checks, rateCheck{scope: "ip", value: ip, limit: policy.PerIP})
			}
			if policy.PerAccount > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if account := accountIdentifier(body); account != "" {
					checks = append(checks, rateCheck{scope: "account", value: digest(account), limit: policy.PerAccount})
				}
			}

			for _, c := range checks {
				count, err := store.IncrWithTTL(ctx, redis.Key("rl", name, c.scope, c.value), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if count > int64(c.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   name,
							"scope":    c.scope,
							"key":      c.value,
							"attempts": count,
							"limit":    c.limit,
						}), "auth.rate_limited")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// accountIdentifier keys on the email when present, else the normalized phone.
func accountIdentifier(body []byte) string {
	var creds struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if json.Unmarshal(body, &creds) != nil {
		return ""
	}
	if email := customers.NormalizeEmail(creds.Email); email != "" {
		return "email:" + email
	}
	if phone := customers.NormalizePhone(creds.Phone); phone != "" {
		return "phone:" + phone
	}
	return ""
}

func digest(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
