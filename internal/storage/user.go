package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserStorage interface {
	// UpsertUser создаёт пользователя или обновляет профильные поля по email.
	// Роль при upsert не трогается: её меняет только SetRole.
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, email string, name, phone, location string) (*models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserStorage {
	return &userRepository{db: db}
}

func (r *userRepository) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, name, phone, location)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, location = EXCLUDED.location
		 RETURNING id, role`,
		user.Email, user.Name, user.Phone, user.Location,
	)
	if err := row.Scan(&user.ID, &user.Role); err != nil {
		return nil, err
	}
	return user, nil
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx, "SELECT id, email, name, phone, location, role FROM users WHERE email = $1", email)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, name, phone, location, role FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location, &user.Role); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, email string, name, phone, location string) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx,
		`UPDATE users SET name = $1, phone = $2, location = $3 WHERE email = $4
		 RETURNING id, email, name, phone, location, role`,
		name, phone, location, email,
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetRole(ctx context.Context, email string, role models.Role) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role = $1 WHERE email = $2", role, email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
