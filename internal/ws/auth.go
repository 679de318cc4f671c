package ws

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/craftpanel/backend/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const authRealm = "Minecraft Server Control Panel"

// Authenticator checks HTTP basic auth credentials against a single admin
// account. The password may be stored as a bcrypt hash.
type Authenticator struct {
	username string
	password []byte
	hashed   bool
}

func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: []byte(password),
		hashed:   isBcryptHash(password),
	}
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Check reports whether user and pass match. The username comparison runs
// even when it fails so timing does not reveal which half was wrong.
func (a *Authenticator) Check(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	var passOK bool
	if a.hashed {
		passOK = bcrypt.CompareHashAndPassword(a.password, []byte(pass)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(pass), a.password) == 1
	}
	return userOK && passOK
}

// Middleware challenges every request without valid credentials.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok && a.Check(user, pass) {
			next.ServeHTTP(w, r)
			return
		}
		if ok {
			logging.WithContext(r.Context()).Warn("authentication failed",
				zap.String("user", user),
				zap.String("remote_addr", r.RemoteAddr),
			)
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// securityHeaders sets the browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}
