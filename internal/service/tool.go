package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
)

// ToolService определяет операции над каталогом инструментов.
// Количество на складе через этот сервис не меняется: все изменения
// остатков идут из order workflow атомарными декрементами.
type ToolService interface {
	ListTools(ctx context.Context) ([]*models.Tool, error)
	ListToolsLimited(ctx context.Context, limit int) ([]*models.Tool, error)
	GetTool(ctx context.Context, id int64) (*models.Tool, error)
	CreateTool(ctx context.Context, tool *models.Tool) (*models.Tool, error)
	DeleteTool(ctx context.Context, id int64) error
}

type toolService struct {
	log      *slog.Logger
	toolRepo storage.ToolStorage
}

func NewToolService(log *slog.Logger, toolRepo storage.ToolStorage) ToolService {
	return &toolService{
		log:      log,
		toolRepo: toolRepo,
	}
}

func (s *toolService) ListTools(ctx context.Context) ([]*models.Tool, error) {
	const op = "service.ToolService.ListTools"

	tools, err := s.toolRepo.ListTools(ctx)
	if err != nil {
		s.log.Error("failed to list tools", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list tools: %w", op, err)
	}
	return tools, nil
}

func (s *toolService) ListToolsLimited(ctx context.Context, limit int) ([]*models.Tool, error) {
	const op = "service.ToolService.ListToolsLimited"

	tools, err := s.toolRepo.ListToolsLimited(ctx, limit)
	if err != nil {
		s.log.Error("failed to list tools", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list tools: %w", op, err)
	}
	return tools, nil
}

func (s *toolService) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	const op = "service.ToolService.GetTool"

	tool, err := s.toolRepo.GetToolByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrToolNotFound) {
			return nil, err
		}
		s.log.Error("failed to get tool", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get tool: %w", op, err)
	}
	return tool, nil
}

func (s *toolService) CreateTool(ctx context.Context, tool *models.Tool) (*models.Tool, error) {
	const op = "service.ToolService.CreateTool"
	logger := s.log.With(slog.String("op", op), slog.String("name", tool.Name))

	stored, err := s.toolRepo.CreateTool(ctx, tool)
	if err != nil {
		logger.Error("failed to create tool", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create tool: %w", op, err)
	}

	logger.Info("tool created", slog.Int64("toolID", stored.ID))
	return stored, nil
}

func (s *toolService) DeleteTool(ctx context.Context, id int64) error {
	const op = "service.ToolService.DeleteTool"

	if err := s.toolRepo.DeleteTool(ctx, id); err != nil {
		if errors.Is(err, storage.ErrToolNotFound) {
			return err
		}
		s.log.Error("failed to delete tool", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete tool: %w", op, err)
	}
	return nil
}
