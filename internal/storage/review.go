package storage

import (
	"context"
	"database/sql"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
)

// ReviewStorage описывает методы для отзывов (append-only).
type ReviewStorage interface {
	ListReviews(ctx context.Context) ([]*models.Review, error)
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
}

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewStorage {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ListReviews(ctx context.Context) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, name, rating, comment, created_at FROM reviews ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review := &models.Review{}
		if err := rows.Scan(&review.ID, &review.Email, &review.Name, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reviews (email, name, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`,
		review.Email, review.Name, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return nil, err
	}
	return review, nil
}
