package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/faltometro/faltometro-api/internal/models"
	"github.com/faltometro/faltometro-api/internal/service"
	"github.com/faltometro/faltometro-api/pkg/response"
)

type userRepoStub struct {
	byEmail map[string]*models.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{byEmail: make(map[string]*models.User)}
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return &pq.Error{Code: "23505", Constraint: "users_email_key"}
	}
	clone := *user
	s.byEmail[user.Email] = &clone
	return nil
}

func (s *userRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, exists := s.byEmail[email]
	if !exists {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newAuthHandler(repo *userRepoStub) *AuthHandler {
	svc := service.NewAuthService(repo, nil, zap.NewNop(), service.AuthConfig{
		Secret:     "handler-test-secret",
		Expiration: time.Hour,
	})
	return NewAuthHandler(svc)
}

func postJSON(t *testing.T, target string, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func TestAuthHandlerRegister(t *testing.T) {
	handler := newAuthHandler(newUserRepoStub())

	w, c := postJSON(t, "/users/register", `{"name":"Ana","email":"ana@example.com","password":"s3cret!!"}`)
	handler.Register(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", data["email"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "passwordHash")
}

func TestAuthHandlerRegisterDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	handler := newAuthHandler(repo)

	w, c := postJSON(t, "/users/register", `{"name":"Ana","email":"ana@example.com","password":"s3cret!!"}`)
	handler.Register(c)
	require.Equal(t, http.StatusOK, w.Code)

	w, c = postJSON(t, "/users/register", `{"name":"Other","email":"ana@example.com","password":"s3cret!!"}`)
	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}

func TestAuthHandlerRegisterInvalidBody(t *testing.T) {
	handler := newAuthHandler(newUserRepoStub())

	w, c := postJSON(t, "/users/register", `{"name":"Ana"`)
	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLogin(t *testing.T) {
	repo := newUserRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!!"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.byEmail["ana@example.com"] = &models.User{
		ID:           "user-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
	}
	handler := newAuthHandler(repo)

	w, c := postJSON(t, "/users/login", `{"email":"ana@example.com","password":"s3cret!!"}`)
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	repo := newUserRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!!"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.byEmail["ana@example.com"] = &models.User{
		ID:           "user-1",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
	}
	handler := newAuthHandler(repo)

	w, c := postJSON(t, "/users/login", `{"email":"ana@example.com","password":"nope"}`)
	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
