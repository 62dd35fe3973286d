package dashboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/scribewell/backend/internal/auth"
	"github.com/scribewell/backend/internal/ledger"
	"github.com/scribewell/backend/internal/models"
	"github.com/scribewell/backend/internal/repository"
)

// Handler serves profile, wallet history, and admin user management.
type Handler struct {
	authSvc auth.Service
	userR   *repository.UserRepo
	ledger  ledger.Service
	log     *slog.Logger
}

func NewHandler(authSvc auth.Service, userR *repository.UserRepo, ledgerSvc ledger.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{authSvc: authSvc, userR: userR, ledger: ledgerSvc, log: log}
}

func (h *Handler) userFromRequest(r *http.Request) (*models.User, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return nil, fmt.Errorf("missing authorization")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return nil, fmt.Errorf("bad authorization format")
	}
	token := strings.TrimSpace(authz[len(prefix):])
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	id, _, err := h.authSvc.ValidateToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return h.userR.GetByID(r.Context(), id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// PATCH /api/v1/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		DisplayName *string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.DisplayName != nil {
		name := strings.TrimSpace(*body.DisplayName)
		if err := h.userR.UpdateDisplayName(r.Context(), user.ID, name); err != nil {
			h.log.Error("update display name", "error", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
		user.DisplayName = name
	}
	writeJSON(w, http.StatusOK, user)
}

// GET /api/v1/transactions
// Wallet history, newest first. Admins see every user's entries.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := h.userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var entries []*models.Transaction
	if user.Role == models.RoleAdmin {
		entries, err = h.ledger.ListAll(r.Context())
	} else {
		entries, err = h.ledger.ListByUser(r.Context(), user.ID)
	}
	if err != nil {
		h.log.Error("list transactions", "error", err)
		http.Error(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	admin, err := h.userFromRequest(r)
	if err != nil || admin.Role != models.RoleAdmin {
		http.Error(w, "admin access required", http.StatusForbidden)
		return
	}
	users, err := h.userR.List(r.Context())
	if err != nil {
		h.log.Error("list users", "error", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// PATCH /api/v1/admin/users/{id}
// Only the verification flag is writable here. Role is not: promotion is
// the single legal role transition and it runs inside the evaluator.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	admin, err := h.userFromRequest(r)
	if err != nil || admin.Role != models.RoleAdmin {
		http.Error(w, "admin access required", http.StatusForbidden)
		return
	}
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var body struct {
		IsVerified *bool           `json:"is_verified"`
		Role       json.RawMessage `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Role != nil {
		http.Error(w, "role cannot be set directly; promotion is automatic", http.StatusBadRequest)
		return
	}
	if body.IsVerified != nil {
		if err := h.userR.SetVerified(r.Context(), userID, *body.IsVerified); err != nil {
			h.log.Error("set verified", "error", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
	}
	user, err := h.userR.GetByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
