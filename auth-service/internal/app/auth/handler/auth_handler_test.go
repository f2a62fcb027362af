package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/auth-service/internal/app/auth/repository"
	"launchpad/auth-service/internal/app/auth/repository/mocks"
	"launchpad/auth-service/internal/app/auth/service"
	"launchpad/auth-service/internal/app/auth/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testServer - полный роутер сервиса поверх мок-репозиториев
type testServer struct {
	router     *gin.Engine
	userRepo   *mocks.MockUserRepository
	tokenRepo  *mocks.MockTokenRepository
	jwtManager *util.JWTManager
}

func newTestServer() *testServer {
	userRepo := new(mocks.MockUserRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	jwtManager := util.NewJWTManager("test-secret-key", 15*time.Minute, 7*24*time.Hour)

	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager)
	router := SetupRoutes(NewAuthHandler(authService), NewAuthMiddleware(authService), []string{"http://localhost:3000"})

	return &testServer{
		router:     router,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login выпускает валидный токен и разрешает его в черном списке
func (s *testServer) login(t *testing.T, user *entity.User) string {
	t.Helper()
	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Name, user.Role)
	require.NoError(t, err)
	s.tokenRepo.On("IsBlacklisted", mock.Anything, token).Return(false, nil)
	return token
}

func newTestUser(role string) *entity.User {
	hash, _ := util.HashPassword("password123")
	return &entity.User{
		ID:           uuid.New(),
		Email:        "maker@example.com",
		PasswordHash: hash,
		Name:         "Maker",
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// ==================== Register Handler Tests ====================

func TestAuthHandler_Register_Success(t *testing.T) {
	// Arrange
	s := newTestServer()
	s.userRepo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrUserNotFound)
	s.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)
	s.tokenRepo.On("SaveRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Act
	rec := s.do(http.MethodPost, "/api/auth/register", "", entity.RegisterRequest{
		Name:     "New Maker",
		Email:    "new@example.com",
		Password: "password123",
	})

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)

	var response entity.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "New Maker", response.User.Name)
	assert.Equal(t, entity.RoleUser, response.User.Role)
	assert.NotEmpty(t, response.Tokens.AccessToken)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		request entity.RegisterRequest
		field   string
	}{
		{"short name", entity.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"}, "Name"},
		{"bad email", entity.RegisterRequest{Name: "Maker", Email: "not-an-email", Password: "password123"}, "Email"},
		{"short password", entity.RegisterRequest{Name: "Maker", Email: "a@example.com", Password: "12345"}, "Password"},
		{"bad avatar", entity.RegisterRequest{Name: "Maker", Email: "a@example.com", Password: "password123", Avatar: "not a url"}, "Avatar"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()

			rec := s.do(http.MethodPost, "/api/auth/register", "", tc.request)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.field)
			s.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Register_UserAlreadyExists(t *testing.T) {
	s := newTestServer()
	s.userRepo.On("GetByEmail", mock.Anything, "maker@example.com").Return(newTestUser(entity.RoleUser), nil)

	rec := s.do(http.MethodPost, "/api/auth/register", "", entity.RegisterRequest{
		Name:     "Maker",
		Email:    "maker@example.com",
		Password: "password123",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ==================== Login Handler Tests ====================

func TestAuthHandler_Login_Success(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	s.userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	s.tokenRepo.On("SaveRefreshToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)

	rec := s.do(http.MethodPost, "/api/auth/login", "", entity.LoginRequest{Email: user.Email, Password: "password123"})

	require.Equal(t, http.StatusOK, rec.Code)
	var response entity.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, user.ID, response.User.ID)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	s.userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	rec := s.do(http.MethodPost, "/api/auth/login", "", entity.LoginRequest{Email: user.Email, Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Login_RepositoryFailure(t *testing.T) {
	s := newTestServer()
	s.userRepo.On("GetByEmail", mock.Anything, "maker@example.com").Return(nil, errors.New("connection reset"))

	rec := s.do(http.MethodPost, "/api/auth/login", "", entity.LoginRequest{Email: "maker@example.com", Password: "password123"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

// ==================== Refresh Handler Tests ====================

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	s.tokenRepo.On("GetRefreshToken", mock.Anything, "old-refresh").Return(&entity.RefreshToken{UserID: user.ID, Token: "old-refresh"}, nil)
	s.tokenRepo.On("DeleteRefreshToken", mock.Anything, "old-refresh").Return(nil)
	s.tokenRepo.On("SaveRefreshToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
	s.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	rec := s.do(http.MethodPost, "/api/auth/refresh", "", entity.RefreshRequest{RefreshToken: "old-refresh"})

	require.Equal(t, http.StatusOK, rec.Code)
	var pair entity.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
}

func TestAuthHandler_RefreshToken_InvalidToken(t *testing.T) {
	s := newTestServer()
	s.tokenRepo.On("GetRefreshToken", mock.Anything, "unknown").Return(nil, repository.ErrRefreshTokenNotFound)

	rec := s.do(http.MethodPost, "/api/auth/refresh", "", entity.RefreshRequest{RefreshToken: "unknown"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==================== Profile Handler Tests ====================

func TestAuthHandler_GetMe_Success(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	token := s.login(t, user)
	s.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	rec := s.do(http.MethodGet, "/api/auth/me", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got entity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthHandler_GetMe_Unauthorized(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_UpdateProfile_Success(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	token := s.login(t, user)
	s.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	s.userRepo.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
		return u.Name == "Renamed" && u.Bio == "Ships weekly"
	})).Return(nil)

	bio := "Ships weekly"
	rec := s.do(http.MethodPut, "/api/auth/profile", token, entity.UpdateProfileRequest{Name: "Renamed", Bio: &bio})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile updated successfully")
	s.userRepo.AssertExpectations(t)
}

func TestAuthHandler_UpdateProfile_InvalidAvatar(t *testing.T) {
	s := newTestServer()
	token := s.login(t, newTestUser(entity.RoleUser))

	avatar := "ftp is not a url"
	rec := s.do(http.MethodPut, "/api/auth/profile", token, entity.UpdateProfileRequest{Avatar: &avatar})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==================== Logout Handler Tests ====================

func TestAuthHandler_Logout_Success(t *testing.T) {
	s := newTestServer()
	user := newTestUser(entity.RoleUser)
	token := s.login(t, user)
	s.tokenRepo.On("AddToBlacklist", mock.Anything, token, mock.AnythingOfType("time.Time")).Return(nil)
	s.tokenRepo.On("DeleteUserRefreshTokens", mock.Anything, user.ID).Return(nil)

	rec := s.do(http.MethodPost, "/api/auth/logout", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	s.tokenRepo.AssertExpectations(t)
}

func TestAuthHandler_Logout_NoAuthHeader(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/auth/logout", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==================== Admin Handler Tests ====================

func TestAuthHandler_ListUsers_Admin(t *testing.T) {
	s := newTestServer()
	admin := newTestUser(entity.RoleAdmin)
	token := s.login(t, admin)
	s.userRepo.On("List", mock.Anything).Return([]entity.User{*admin, *newTestUser(entity.RoleUser)}, nil)

	rec := s.do(http.MethodGet, "/api/admin/users", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var response entity.UserListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
}

func TestAuthHandler_ListUsers_ForbiddenForUser(t *testing.T) {
	s := newTestServer()
	token := s.login(t, newTestUser(entity.RoleUser))

	rec := s.do(http.MethodGet, "/api/admin/users", token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.userRepo.AssertNotCalled(t, "List", mock.Anything)
}

// ==================== Helper Function Tests ====================

func TestFormatValidationErrors(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/auth/register", "", entity.RegisterRequest{})

	var response entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	// Все ошибки валидации в одном сообщении
	assert.Contains(t, response.Message, "Email")
	assert.Contains(t, response.Message, "Password")
	assert.Contains(t, response.Message, "Name")
}
