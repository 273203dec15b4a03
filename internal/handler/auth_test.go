package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/finance-ledger/internal/auth"
	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const testJWTSecret = "handler-test-secret"

type mockUsers struct {
	user *domain.User
	err  error
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Email != email {
		return nil, domain.ErrNotFound
	}
	return m.user, nil
}

func seededUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: uuid.New(), Email: "owner@test.com", Name: "Owner", PasswordHash: string(hash)}
}

func postLogin(h *AuthHandler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	return rec
}

func TestLogin_Success(t *testing.T) {
	user := seededUser(t, "password123")
	h := NewAuthHandler(&mockUsers{user: user}, testJWTSecret, time.Hour)

	rec := postLogin(h, `{"email":"owner@test.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, data := decodeEnvelope(t, rec)
	var out loginResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, user.ID, out.User.ID)

	claims, err := auth.ValidateToken(out.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.OwnerID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), out.ExpiresAt, time.Minute)
}

func TestLogin_Failures(t *testing.T) {
	user := seededUser(t, "password123")
	noPassword := &domain.User{ID: uuid.New(), Email: "owner@test.com"}

	tests := []struct {
		name       string
		users      *mockUsers
		body       string
		wantStatus int
		wantCode   string
	}{
		{"wrong password", &mockUsers{user: user}, `{"email":"owner@test.com","password":"nope-nope"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown email", &mockUsers{user: user}, `{"email":"ghost@test.com","password":"password123"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"owner without password", &mockUsers{user: noPassword}, `{"email":"owner@test.com","password":"password123"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"missing fields", &mockUsers{user: user}, `{"email":""}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"store down", &mockUsers{err: errors.New("connection reset")}, `{"email":"owner@test.com","password":"password123"}`, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(tt.users, testJWTSecret, time.Hour)
			rec := postLogin(h, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp, _ := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
