package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scribewell/backend/internal/models"
)

type stubAuthService struct {
	userID uuid.UUID
	role   string
	err    error
}

func (s *stubAuthService) LoginWithOTP(context.Context, string, string) (string, *models.User, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubAuthService) LoginWithPassword(context.Context, string, string) (string, *models.User, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubAuthService) ValidateToken(_ context.Context, _ string) (uuid.UUID, string, error) {
	return s.userID, s.role, s.err
}

type stubUserLookup struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserLookup) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func TestJWTAuthLoadsUser(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleTrainee}
	mw := JWTAuth(&stubAuthService{userID: u.ID, role: u.Role}, &stubUserLookup{users: map[uuid.UUID]*models.User{u.ID: u}})

	var seen *models.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != u.ID {
		t.Errorf("user in context = %+v, want %s", seen, u.ID)
	}
}

// The token carries the role at issue time, but the context user reflects
// the database. A promotion is visible on the very next request.
func TestJWTAuthReloadsRoleFromStore(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleWriter}
	mw := JWTAuth(&stubAuthService{userID: u.ID, role: models.RoleTrainee}, &stubUserLookup{users: map[uuid.UUID]*models.User{u.ID: u}})

	var seen *models.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale-role-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.Role != models.RoleWriter {
		t.Errorf("role = %v, want WRITER from store", seen)
	}
}

func TestJWTAuthRejections(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleTrainee}
	lookup := &stubUserLookup{users: map[uuid.UUID]*models.User{u.ID: u}}

	cases := []struct {
		name    string
		header  string
		authSvc *stubAuthService
	}{
		{"missing header", "", &stubAuthService{userID: u.ID}},
		{"not bearer", "Basic abc", &stubAuthService{userID: u.ID}},
		{"invalid token", "Bearer bad", &stubAuthService{err: errors.New("expired")}},
		{"unknown user", "Bearer ok", &stubAuthService{userID: uuid.New()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := JWTAuth(tc.authSvc, lookup)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler reached")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	cases := []struct {
		name string
		user *models.User
		want int
	}{
		{"admin", &models.User{ID: uuid.New(), Role: models.RoleAdmin}, http.StatusOK},
		{"writer", &models.User{ID: uuid.New(), Role: models.RoleWriter}, http.StatusForbidden},
		{"trainee", &models.User{ID: uuid.New(), Role: models.RoleTrainee}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
