package service

import (
	"context"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/auth-service/internal/app/auth/util"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.AuthResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *entity.UpdateProfileRequest) (*entity.User, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) error
	ListUsers(ctx context.Context) ([]entity.User, error)
	ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error)
}
