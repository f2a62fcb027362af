package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	serviceName = "auth-service"
	usersTable  = "users"

	userColumns = `id, email, password_hash, name, role, bio, avatar, created_at, updated_at`
)

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

// Create создает нового пользователя. Email хранится в нижнем регистре
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, usersTable)

	query := `
		INSERT INTO users (id, email, password_hash, name, role, bio, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	user.Email = normalizeEmail(user.Email)
	_, err := r.db.Exec(
		ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
		user.Bio, user.Avatar, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			timer.Done(nil)
			return ErrUserExists
		}
		timer.Done(err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	timer.Done(nil)

	return nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail получает пользователя по email без учета регистра
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, normalizeEmail(email))
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable)

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			timer.Done(nil)
			return nil, ErrUserNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	timer.Done(nil)

	return user, nil
}

// UpdateProfile обновляет имя, био и аватар
func (r *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, usersTable)

	query := `
		UPDATE users
		SET name = $1, bio = $2, avatar = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(ctx, query, user.Name, user.Bio, user.Avatar, user.UpdatedAt, user.ID)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// List получает список всех пользователей, новые первыми
func (r *userRepository) List(ctx context.Context) ([]entity.User, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersTable)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			timer.Done(err)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	err = rows.Err()
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.Bio,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// isUniqueViolation распознает нарушение уникального индекса (email)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
