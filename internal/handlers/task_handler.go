package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/middleware"
	"github.com/scribewell/backend/internal/models"
	"github.com/scribewell/backend/internal/services"
)

// TaskRepoForHandler is the subset of the task repository the handler needs.
type TaskRepoForHandler interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
}

// TaskLocker abstracts the lifecycle lock operation.
type TaskLocker interface {
	Lock(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error)
}

// TaskHandler serves /api/v1/tasks endpoints.
type TaskHandler struct {
	Tasks     TaskRepoForHandler
	Lifecycle TaskLocker
	Logger    *slog.Logger
}

// --- GET /api/v1/tasks ---

// ListTasks returns every task so the UI can render unavailable ones as
// disabled rather than hiding them.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context())
	if err != nil {
		h.Logger.Error("list tasks", "error", err)
		http.Error(w, `{"error":"failed to list tasks"}`, http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// --- GET /api/v1/tasks/{id} ---

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}
	task, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, h.Logger, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- POST /api/v1/tasks (admin) ---

type createTaskRequest struct {
	Type             string          `json:"type"`
	ImageURL         string          `json:"image_url"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	RewardAmount     decimal.Decimal `json:"reward_amount"`
	TimeLimitMinutes int             `json:"time_limit"`
}

// CreateTask handles POST /api/v1/tasks. Admin-gated via middleware.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Type != models.TaskTypeAssessment && req.Type != models.TaskTypePaid {
		http.Error(w, `{"error":"type must be ASSESSMENT or PAID"}`, http.StatusBadRequest)
		return
	}
	if req.DepositAmount.IsNegative() || req.RewardAmount.IsNegative() {
		http.Error(w, `{"error":"amounts must not be negative"}`, http.StatusBadRequest)
		return
	}
	// Assessment tasks carry no money.
	if req.Type == models.TaskTypeAssessment && (req.DepositAmount.IsPositive() || req.RewardAmount.IsPositive()) {
		http.Error(w, `{"error":"assessment tasks cannot have deposit or reward"}`, http.StatusBadRequest)
		return
	}
	if req.TimeLimitMinutes <= 0 {
		req.TimeLimitMinutes = 30
	}

	task := &models.Task{
		ID:               uuid.New(),
		Type:             req.Type,
		ImageURL:         req.ImageURL,
		Status:           models.TaskStatusOpen,
		DepositAmount:    req.DepositAmount,
		RewardAmount:     req.RewardAmount,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if err := h.Tasks.Create(r.Context(), task); err != nil {
		h.Logger.Error("create task", "error", err)
		http.Error(w, `{"error":"failed to create task"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// --- POST /api/v1/tasks/{id}/lock ---

// LockTask handles the exclusive claim on a task. Exactly one of two
// concurrent lockers succeeds; the other receives 409.
func (h *TaskHandler) LockTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}

	task, err := h.Lifecycle.Lock(r.Context(), taskID, user.ID)
	if err != nil {
		writeServiceError(w, h.Logger, "lock task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "locked", "task": task})
}

// --- helpers shared by the handlers package ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Repositories called directly by handlers surface pgx.ErrNoRows; anything
// unrecognized is an infrastructure failure and reports as 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, `{"error":"task is not open"}`, http.StatusConflict)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, `{"error":"operation not permitted"}`, http.StatusForbidden)
	case errors.Is(err, services.ErrInsufficientFunds):
		http.Error(w, `{"error":"insufficient funds for deposit"}`, http.StatusPaymentRequired)
	case errors.Is(err, services.ErrInvalidStatus):
		http.Error(w, `{"error":"invalid status"}`, http.StatusBadRequest)
	default:
		log.Error(op, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}
