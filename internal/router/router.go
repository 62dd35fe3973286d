package router

import (
	"net/http"

	"github.com/scribewell/backend/internal/auth"
	"github.com/scribewell/backend/internal/dashboard"
)

// New returns an http.Handler serving the auth and dashboard surface under
// /api/v1. Task and submission routes are registered separately with the
// JWT middleware chain (see cmd/api/routes.go).
func New(authHandler *auth.Handler, dashHandler *dashboard.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc(base+"/auth/login", authHandler.Login)

	mux.HandleFunc(base+"/me", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			dashHandler.GetMe(w, r)
		case http.MethodPatch:
			dashHandler.UpdateMe(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc(base+"/transactions", methodGET(dashHandler.ListTransactions))
	mux.HandleFunc(base+"/admin/users", methodGET(dashHandler.ListUsers))
	mux.HandleFunc("PATCH "+base+"/admin/users/{id}", dashHandler.UpdateUser)

	return mux
}

func methodGET(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
