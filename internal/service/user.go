package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token"
)

// UserService определяет операции над пользователями и ролями.
type UserService interface {
	// UpsertUser сохраняет профиль по email и выпускает токен для этого email.
	UpsertUser(ctx context.Context, user *models.User) (*models.User, string, error)
	GetUser(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, email, name, phone, location string) (*models.User, error)
	MakeAdmin(ctx context.Context, email string) error
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type userService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokens   *token.Service
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage, tokens *token.Service) UserService {
	return &userService{
		log:      log,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *userService) UpsertUser(ctx context.Context, user *models.User) (*models.User, string, error) {
	const op = "service.UserService.UpsertUser"
	logger := s.log.With(slog.String("op", op), slog.String("email", user.Email))

	stored, err := s.userRepo.UpsertUser(ctx, user)
	if err != nil {
		logger.Error("failed to upsert user", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to upsert user: %w", op, err)
	}

	// Токен выпускается на email, как в исходном PUT /user/:email
	tokenStr, err := s.tokens.Issue(stored.Email)
	if err != nil {
		logger.Error("failed to issue token", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to issue token: %w", op, err)
	}

	logger.Info("user upserted", slog.Int64("userID", stored.ID))
	return stored, tokenStr, nil
}

func (s *userService) GetUser(ctx context.Context, email string) (*models.User, error) {
	const op = "service.UserService.GetUser"

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "service.UserService.ListUsers"

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, email, name, phone, location string) (*models.User, error) {
	const op = "service.UserService.UpdateProfile"

	user, err := s.userRepo.UpdateProfile(ctx, email, name, phone, location)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		s.log.Error("failed to update profile", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update profile: %w", op, err)
	}
	return user, nil
}

func (s *userService) MakeAdmin(ctx context.Context, email string) error {
	const op = "service.UserService.MakeAdmin"
	logger := s.log.With(slog.String("op", op), slog.String("email", email))

	if err := s.userRepo.SetRole(ctx, email, models.RoleAdmin); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return err
		}
		logger.Error("failed to set role", slog.Any("error", err))
		return fmt.Errorf("%s: failed to set role: %w", op, err)
	}

	logger.Info("role set to admin")
	return nil
}

// IsAdmin отвечает на GET /admin/:email; неизвестный email — просто не админ.
func (s *userService) IsAdmin(ctx context.Context, email string) (bool, error) {
	const op = "service.UserService.IsAdmin"

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return false, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	return user.IsAdmin(), nil
}
