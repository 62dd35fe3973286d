package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/scribewell/backend/internal/middleware"
	"github.com/scribewell/backend/internal/models"
	"github.com/scribewell/backend/internal/services"
)

// SubmissionRepoForHandler is the read side the handler needs for listing.
type SubmissionRepoForHandler interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error)
	ListAll(ctx context.Context) ([]*models.Submission, error)
}

// SubmissionEvaluator abstracts the evaluator operations.
type SubmissionEvaluator interface {
	Submit(ctx context.Context, taskID, userID uuid.UUID, content string) (*services.SubmitResult, error)
	Moderate(ctx context.Context, submissionID uuid.UUID, targetStatus string) (*services.ModerationResult, error)
}

// SubmissionHandler serves /api/v1/submissions endpoints.
type SubmissionHandler struct {
	Subs      SubmissionRepoForHandler
	Evaluator SubmissionEvaluator
	Logger    *slog.Logger
}

// --- POST /api/v1/submissions ---

type createSubmissionRequest struct {
	TaskID       string `json:"task"`
	TypedContent string `json:"typed_content"`
}

// CreateSubmission handles submitted work. The evaluator scores it and
// applies approve/reject side effects atomically; the response carries the
// submission, the refreshed user, and a promotion flag so the client can
// update its state immediately.
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	if req.TypedContent == "" {
		http.Error(w, `{"error":"typed_content is required"}`, http.StatusBadRequest)
		return
	}

	result, err := h.Evaluator.Submit(r.Context(), taskID, user.ID, req.TypedContent)
	if err != nil {
		writeServiceError(w, h.Logger, "submit work", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submission": result.Submission,
		"user":       result.User,
		"promoted":   result.Promoted,
	})
}

// --- GET /api/v1/submissions ---

// ListSubmissions returns the caller's submissions; admins see all.
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var (
		subs []*models.Submission
		err  error
	)
	if user.Role == models.RoleAdmin {
		subs, err = h.Subs.ListAll(r.Context())
	} else {
		subs, err = h.Subs.ListByUser(r.Context(), user.ID)
	}
	if err != nil {
		h.Logger.Error("list submissions", "error", err)
		http.Error(w, `{"error":"failed to list submissions"}`, http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// --- POST /api/v1/submissions/{id}/moderate (admin) ---

type moderateRequest struct {
	Status string `json:"status"`
}

// ModerateSubmission is the manual override for a wrong automated decision.
// Admin-gated via middleware.
func (h *SubmissionHandler) ModerateSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid submission id"}`, http.StatusBadRequest)
		return
	}
	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	result, err := h.Evaluator.Moderate(r.Context(), submissionID, req.Status)
	if err != nil {
		writeServiceError(w, h.Logger, "moderate submission", err)
		return
	}
	if result.Detail != "" {
		writeJSON(w, http.StatusOK, map[string]string{"detail": result.Detail})
		return
	}
	resp := map[string]any{"submission": result.Submission}
	if result.User != nil {
		resp["user"] = result.User
	}
	writeJSON(w, http.StatusOK, resp)
}
