package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
)

// ReviewService — отзывы: список и добавление, без проверок владения.
type ReviewService interface {
	ListReviews(ctx context.Context) ([]*models.Review, error)
	AddReview(ctx context.Context, review *models.Review) (*models.Review, error)
}

type reviewService struct {
	log        *slog.Logger
	reviewRepo storage.ReviewStorage
}

func NewReviewService(log *slog.Logger, reviewRepo storage.ReviewStorage) ReviewService {
	return &reviewService{
		log:        log,
		reviewRepo: reviewRepo,
	}
}

func (s *reviewService) ListReviews(ctx context.Context) ([]*models.Review, error) {
	const op = "service.ReviewService.ListReviews"

	reviews, err := s.reviewRepo.ListReviews(ctx)
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list reviews: %w", op, err)
	}
	return reviews, nil
}

func (s *reviewService) AddReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	const op = "service.ReviewService.AddReview"

	stored, err := s.reviewRepo.CreateReview(ctx, review)
	if err != nil {
		s.log.Error("failed to add review", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to add review: %w", op, err)
	}
	return stored, nil
}
