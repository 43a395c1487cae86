package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/debate-tab/middleware"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/services"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubAuthService struct {
	user *models.User
	err  error
}

func (s *stubAuthService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: 2, Email: input.Email, Role: models.RoleOrganizer}, nil
}

func (s *stubAuthService) Login(_ context.Context, _ services.LoginInput) (*models.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) EnsureAdmin(context.Context, string, string) error { return nil }

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{user: &models.User{ID: 7, Email: "chief@tab.org", Role: models.RoleAdmin}}, testSecret)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"chief@tab.org","password":"s3cret-pass"}`))
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	tokenString, ok := body["token"].(string)
	require.True(t, ok)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, float64(7), claims[middleware.JWTClaimUserID])
	assert.Equal(t, "admin", claims[middleware.JWTClaimRole])
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: services.ErrAuthInvalidCredentials}, testSecret)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"nope-nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, testSecret)
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"org@tab.org","password":"long-enough"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	h = NewAuthHandler(&stubAuthService{err: services.ErrUserEmailConflict}, testSecret)
	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"org@tab.org","password":"long-enough"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
