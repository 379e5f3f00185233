package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token/tokenmiddleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UpsertUserRequest — профильные поля для PUT /user/{email}
type UpsertUserRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// UpsertUserResponse повторяет форму ответа исходного API: {result, token}
type UpsertUserResponse struct {
	Result *models.User `json:"result"`
	Token  string       `json:"token"`
}

// UpsertUserHandler обрабатывает PUT /user/{email}: апсертит профиль и выдаёт токен.
func UpsertUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpsertUserHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		if err := validate.Var(email, "required,email"); err != nil {
			logger.Error("invalid email parameter", slog.Any("error", err))
			http.Error(w, "invalid email", http.StatusBadRequest)
			return
		}

		var req UpsertUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user := &models.User{
			Email:    email,
			Name:     req.Name,
			Phone:    req.Phone,
			Location: req.Location,
		}
		stored, tokenStr, err := userService.UpsertUser(r.Context(), user)
		if err != nil {
			logger.Error("failed to upsert user", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, UpsertUserResponse{Result: stored, Token: tokenStr})
	}
}

// ListUsersHandler обрабатывает GET /user (только админ, проверяется middleware).
func ListUsersHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListUsersHandler"
		logger := log.With(slog.String("op", op))

		users, err := userService.ListUsers(r.Context())
		if err != nil {
			logger.Error("failed to list users", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, users)
	}
}

// GetUserHandler обрабатывает GET /user/{email}: читать можно только свой профиль.
func GetUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetUserHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		if !isSelf(w, r, email) {
			return
		}

		user, err := userService.GetUser(r.Context(), email)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get user", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, user)
	}
}

// UpdateUserHandler обрабатывает PUT /updateUser/{email} (админ + только свой профиль).
func UpdateUserHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateUserHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		if !isSelf(w, r, email) {
			return
		}

		var req UpsertUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user, err := userService.UpdateProfile(r.Context(), email, req.Name, req.Phone, req.Location)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update user", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, user)
	}
}

// MakeAdminResponse — ответ PUT /makeAdmin/{email}
type MakeAdminResponse struct {
	Message string `json:"message"`
}

// MakeAdminHandler обрабатывает PUT /makeAdmin/{email} (только админ).
func MakeAdminHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MakeAdminHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		if err := userService.MakeAdmin(r.Context(), email); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to make admin", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, MakeAdminResponse{Message: "role updated"})
	}
}

// IsAdminResponse — ответ GET /admin/{email}
type IsAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// IsAdminHandler обрабатывает GET /admin/{email}.
func IsAdminHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.IsAdminHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		isAdmin, err := userService.IsAdmin(r.Context(), email)
		if err != nil {
			logger.Error("failed to check role", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, IsAdminResponse{IsAdmin: isAdmin})
	}
}

// isSelf сверяет email из пути с email из токена; чужие данные — 403.
func isSelf(w http.ResponseWriter, r *http.Request, target string) bool {
	email, ok := tokenmiddleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if email != target {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// writeJSON отправляет JSON-ответ клиенту.
func writeJSON(w http.ResponseWriter, log *slog.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
