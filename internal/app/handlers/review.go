package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token/tokenmiddleware"
)

// AddReviewRequest — тело POST /reviews; поля заполняет автор, проверок владения нет
type AddReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ListReviewsHandler обрабатывает GET /reviews.
func ListReviewsHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListReviewsHandler"
		logger := log.With(slog.String("op", op))

		reviews, err := reviewService.ListReviews(r.Context())
		if err != nil {
			logger.Error("failed to list reviews", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, reviews)
	}
}

// AddReviewHandler обрабатывает POST /reviews (требуется токен).
func AddReviewHandler(log *slog.Logger, reviewService service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddReviewHandler"
		logger := log.With(slog.String("op", op))

		email, ok := tokenmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("email not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req AddReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		review := &models.Review{
			Email:   email,
			Name:    req.Name,
			Rating:  req.Rating,
			Comment: req.Comment,
		}
		stored, err := reviewService.AddReview(r.Context(), review)
		if err != nil {
			logger.Error("failed to add review", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, stored)
	}
}
