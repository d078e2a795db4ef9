package webui

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Failed logins allowed per client before a short block.
const (
	maxFailedLogins    = 5
	failedLoginsWindow = 5 * time.Minute
)

// ErrEmptyPassword is returned by NewPasswordGuard for an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordGuard protects the page with HTTP Basic auth. Only the bcrypt hash
// of the password is kept in memory; the user name is ignored.
type PasswordGuard struct {
	hash     []byte
	failures *RateLimiter
	realm    string
}

// NewPasswordGuard hashes password with bcrypt's default cost.
func NewPasswordGuard(password string) (*PasswordGuard, error) {
	return newPasswordGuard(password, bcrypt.DefaultCost)
}

func newPasswordGuard(password string, cost int) (*PasswordGuard, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	return &PasswordGuard{
		hash:     hash,
		failures: NewRateLimiter(maxFailedLogins, failedLoginsWindow),
		realm:    "Smart Summarizer",
	}, nil
}

// Verify reports whether password matches.
func (g *PasswordGuard) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}

// Middleware requires the password on every request it wraps.
func (g *PasswordGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if blocked, wait := g.failures.Blocked(ip); blocked {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many failed password attempts")
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok || !g.Verify(password) {
			if ok {
				g.failures.Allow(ip)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="`+g.realm+`", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Password required")
			return
		}

		g.failures.Reset(ip)
		next.ServeHTTP(w, r)
	})
}
