package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/go-chi/chi/v5"
)

// CreateToolRequest — тело POST /tools с тегами валидации
type CreateToolRequest struct {
	Name              string  `json:"name" validate:"required"`
	Description       string  `json:"description"`
	Image             string  `json:"image"`
	Price             float64 `json:"price" validate:"required,gt=0"`
	AvailableQuantity int     `json:"availableQuantity" validate:"gte=0"`
	MinOrderQuantity  int     `json:"minOrderQuantity" validate:"gte=0"`
}

// ListToolsHandler обрабатывает GET /tools.
func ListToolsHandler(log *slog.Logger, toolService service.ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListToolsHandler"
		logger := log.With(slog.String("op", op))

		tools, err := toolService.ListTools(r.Context())
		if err != nil {
			logger.Error("failed to list tools", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, tools)
	}
}

// ListToolsByLimitHandler обрабатывает GET /toolsByLimit?limit=N.
func ListToolsByLimitHandler(log *slog.Logger, toolService service.ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListToolsByLimitHandler"
		logger := log.With(slog.String("op", op))

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}

		tools, err := toolService.ListToolsLimited(r.Context(), limit)
		if err != nil {
			logger.Error("failed to list tools", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, tools)
	}
}

// GetToolHandler обрабатывает GET /tools/{id}.
func GetToolHandler(log *slog.Logger, toolService service.ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetToolHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		tool, err := toolService.GetTool(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrToolNotFound) {
				http.Error(w, "tool not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get tool", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, tool)
	}
}

// CreateToolHandler обрабатывает POST /tools (требуется токен).
func CreateToolHandler(log *slog.Logger, toolService service.ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateToolHandler"
		logger := log.With(slog.String("op", op))

		var req CreateToolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		tool := &models.Tool{
			Name:              req.Name,
			Description:       req.Description,
			Image:             req.Image,
			Price:             req.Price,
			AvailableQuantity: req.AvailableQuantity,
			MinOrderQuantity:  req.MinOrderQuantity,
		}
		stored, err := toolService.CreateTool(r.Context(), tool)
		if err != nil {
			logger.Error("failed to create tool", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, stored)
	}
}

// DeleteToolResponse — подтверждение удаления
type DeleteToolResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteToolHandler обрабатывает DELETE /tools/{id}.
// Авторизации нет — асимметрия унаследована от исходного API.
func DeleteToolHandler(log *slog.Logger, toolService service.ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteToolHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		if err := toolService.DeleteTool(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrToolNotFound) {
				http.Error(w, "tool not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to delete tool", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, DeleteToolResponse{Deleted: true})
	}
}

// parseID извлекает числовой параметр {id} из URL.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
