package main

import (
	"log/slog"
	"net/http"

	"github.com/scribewell/backend/internal/auth"
	"github.com/scribewell/backend/internal/handlers"
	"github.com/scribewell/backend/internal/middleware"
	"github.com/scribewell/backend/internal/repository"
	"github.com/scribewell/backend/internal/services"
)

// RegisterTaskRoutes adds the task and submission endpoints to the mux.
// Middleware chain: JWTAuth -> (AdminOnly on admin-only routes) -> handler.
func RegisterTaskRoutes(
	mux *http.ServeMux,
	authSvc auth.Service,
	userRepo *repository.UserRepo,
	taskRepo *repository.TaskRepo,
	subRepo *repository.SubmissionRepo,
	lifecycle *services.Lifecycle,
	evaluator *services.Evaluator,
	logger *slog.Logger,
) {
	th := &handlers.TaskHandler{
		Tasks:     taskRepo,
		Lifecycle: lifecycle,
		Logger:    logger,
	}
	sh := &handlers.SubmissionHandler{
		Subs:      subRepo,
		Evaluator: evaluator,
		Logger:    logger,
	}

	authed := middleware.JWTAuth(authSvc, userRepo)

	mux.Handle("GET /api/v1/tasks", authed(http.HandlerFunc(th.ListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", authed(http.HandlerFunc(th.GetTask)))
	mux.Handle("POST /api/v1/tasks", authed(middleware.AdminOnly(http.HandlerFunc(th.CreateTask))))
	mux.Handle("POST /api/v1/tasks/{id}/lock", authed(http.HandlerFunc(th.LockTask)))

	mux.Handle("POST /api/v1/submissions", authed(http.HandlerFunc(sh.CreateSubmission)))
	mux.Handle("GET /api/v1/submissions", authed(http.HandlerFunc(sh.ListSubmissions)))
	mux.Handle("POST /api/v1/submissions/{id}/moderate", authed(middleware.AdminOnly(http.HandlerFunc(sh.ModerateSubmission))))
}
