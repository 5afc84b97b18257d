package httpapi

import (
	"net/http"
	"strings"
)

// Authorizer decides whether a request may use the API. Login itself is
// handled by an identity proxy in front of the server.
type Authorizer interface {
	Authorized(r *http.Request) bool
}

// HeaderAuthorizer accepts requests carrying a non-empty identity header,
// as set by an auth proxy such as oauth2-proxy.
type HeaderAuthorizer struct {
	Header string
}

func (a HeaderAuthorizer) Authorized(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(a.Header)) != ""
}

type AllowAll struct{}

func (AllowAll) Authorized(*http.Request) bool { return true }

type AuthorizerFunc func(r *http.Request) bool

func (f AuthorizerFunc) Authorized(r *http.Request) bool { return f(r) }

func requireAuth(auth Authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth != nil && !auth.Authorized(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
