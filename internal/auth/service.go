package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/scribewell/backend/internal/models"
)

// ErrInvalidOTP is returned when the one-time code does not verify.
var ErrInvalidOTP = errors.New("invalid otp")

// ErrInvalidCredentials is returned on a failed password login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// OTPVerifier checks a one-time code for a phone number. The production
// deployment plugs in a real SMS provider; MockOTPVerifier is the dev
// stand-in.
type OTPVerifier interface {
	Verify(ctx context.Context, phone, code string) error
}

// MockOTPVerifier accepts a single configured code for every phone number.
type MockOTPVerifier struct {
	Code string
}

func (v *MockOTPVerifier) Verify(_ context.Context, _ string, code string) error {
	expected := v.Code
	if expected == "" {
		expected = "1234"
	}
	if code != expected {
		return ErrInvalidOTP
	}
	return nil
}

type Service interface {
	// LoginWithOTP verifies the code, creating a trainee account on first
	// login, and returns a session token plus the user.
	LoginWithOTP(ctx context.Context, phone, otp string) (string, *models.User, error)
	// LoginWithPassword is the admin path; admin accounts are provisioned
	// out of band with a password hash.
	LoginWithPassword(ctx context.Context, phone, password string) (string, *models.User, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

type service struct {
	repo   *Repository
	otp    OTPVerifier
	secret []byte
}

func NewService(repo *Repository, otp OTPVerifier) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "supersecretmvp"
	}
	return &service{repo: repo, otp: otp, secret: []byte(secret)}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *service) LoginWithOTP(ctx context.Context, phone, otp string) (string, *models.User, error) {
	if err := s.otp.Verify(ctx, phone, otp); err != nil {
		return "", nil, err
	}
	user, err := s.repo.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		return "", nil, err
	}
	token, err := s.issueToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *service) LoginWithPassword(ctx context.Context, phone, password string) (string, *models.User, error) {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.issueToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *service) issueToken(userID uuid.UUID, role string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, c.Role, nil
}
