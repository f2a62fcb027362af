package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	refreshTokenPrefix = "refresh_token:"
	userTokensPrefix   = "user_tokens:"

	// BlacklistPrefix - общий с Products Service формат ключа отозванного access токена
	BlacklistPrefix = "blacklist:"
)

type redisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository создает новый Redis репозиторий для токенов
func NewRedisTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

// SaveRefreshToken сохраняет refresh токен с TTL и добавляет его в множество токенов пользователя
func (r *redisTokenRepository) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpPipeline)
	userTokensKey := userTokensPrefix + userID.String()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshTokenPrefix+token, userID.String(), ttl)
		pipe.SAdd(ctx, userTokensKey, token)
		pipe.Expire(ctx, userTokensKey, ttl)
		return nil
	})
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to save refresh token to Redis: %w", err)
	}

	return nil
}

// GetRefreshToken получает refresh токен. Отсутствующий или истекший ключ - ErrRefreshTokenNotFound
func (r *redisTokenRepository) GetRefreshToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	key := refreshTokenPrefix + token
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)

	userIDStr, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		timer.Done(nil)
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get token TTL: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in Redis: %w", err)
	}

	return &entity.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// DeleteRefreshToken удаляет refresh токен. Повторное удаление не ошибка
func (r *redisTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	key := refreshTokenPrefix + token
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)

	userIDStr, err := r.client.GetDel(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		timer.Done(err)
		return fmt.Errorf("failed to delete refresh token from Redis: %w", err)
	}

	if userIDStr == "" {
		timer.Done(nil)
		return nil
	}

	err = r.client.SRem(ctx, userTokensPrefix+userIDStr, token).Err()
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to remove token from user tokens set: %w", err)
	}

	return nil
}

// DeleteUserRefreshTokens удаляет все refresh токены пользователя
func (r *redisTokenRepository) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	userTokensKey := userTokensPrefix + userID.String()
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)

	tokens, err := r.client.SMembers(ctx, userTokensKey).Result()
	if err != nil {
		timer.Done(err)
		return fmt.Errorf("failed to get user tokens: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, refreshTokenPrefix+token)
	}
	keys = append(keys, userTokensKey)

	err = r.client.Del(ctx, keys...).Err()
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}

	return nil
}

// AddToBlacklist добавляет токен в черный список до момента его истечения
func (r *redisTokenRepository) AddToBlacklist(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Истекший токен и так не пройдет проверку
		return nil
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err := r.client.Set(ctx, BlacklistPrefix+token, "1", ttl).Err()
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}

	return nil
}

// IsBlacklisted проверяет, находится ли токен в черном списке
func (r *redisTokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpExists)

	exists, err := r.client.Exists(ctx, BlacklistPrefix+token).Result()
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check if token is blacklisted: %w", err)
	}

	return exists > 0, nil
}
