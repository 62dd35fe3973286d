package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/scribewell/backend/internal/models"
)

type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
	Password    string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Login handles POST /api/v1/auth/login. A password selects the admin
// path; otherwise the OTP flow runs, creating a trainee on first login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.PhoneNumber == "" {
		http.Error(w, "phone_number is required", http.StatusBadRequest)
		return
	}

	var (
		token string
		user  *models.User
		err   error
	)
	switch {
	case req.Password != "":
		token, user, err = h.svc.LoginWithPassword(r.Context(), req.PhoneNumber, req.Password)
	case req.OTP != "":
		token, user, err = h.svc.LoginWithOTP(r.Context(), req.PhoneNumber, req.OTP)
	default:
		http.Error(w, "otp or password is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) || errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusBadRequest)
			return
		}
		h.log.Error("login failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{Token: token, User: user})
}
