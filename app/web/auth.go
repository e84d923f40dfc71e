package web

import (
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"
)

// authUser is the basic auth user name, the password is checked against the bcrypt hash
const authUser = "jobtrack"

// authMiddleware requires basic auth on everything except static resources and ping
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
			log.Printf("[WARN] failed login attempt from %s", r.RemoteAddr)
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="jobtrack"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
