package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
)

var (
	ErrToolNotFound         = errors.New("tool not found")
	ErrInsufficientQuantity = errors.New("insufficient available quantity")
)

// ToolStorage описывает методы для работы с каталогом инструментов.
type ToolStorage interface {
	ListTools(ctx context.Context) ([]*models.Tool, error)
	ListToolsLimited(ctx context.Context, limit int) ([]*models.Tool, error)
	GetToolByID(ctx context.Context, id int64) (*models.Tool, error)
	// GetToolByIDTx читает инструмент в рамках транзакции заказа.
	GetToolByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Tool, error)
	CreateTool(ctx context.Context, tool *models.Tool) (*models.Tool, error)
	DeleteTool(ctx context.Context, id int64) error
	// ReserveQuantity атомарно списывает qty со склада; отказывает, если
	// остатка не хватает (available_quantity никогда не уходит в минус).
	ReserveQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error
	// ReleaseQuantity атомарно возвращает qty на склад.
	ReleaseQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error
}

type toolRepository struct {
	db *sql.DB
}

func NewToolRepository(db *sql.DB) ToolStorage {
	return &toolRepository{db: db}
}

const toolColumns = "id, name, description, image, price, available_quantity, min_order_quantity"

func scanTool(row interface{ Scan(...interface{}) error }) (*models.Tool, error) {
	tool := &models.Tool{}
	err := row.Scan(&tool.ID, &tool.Name, &tool.Description, &tool.Image, &tool.Price, &tool.AvailableQuantity, &tool.MinOrderQuantity)
	return tool, err
}

func (r *toolRepository) ListTools(ctx context.Context) ([]*models.Tool, error) {
	return r.queryTools(ctx, "SELECT "+toolColumns+" FROM tools ORDER BY id")
}

func (r *toolRepository) ListToolsLimited(ctx context.Context, limit int) ([]*models.Tool, error) {
	return r.queryTools(ctx, "SELECT "+toolColumns+" FROM tools ORDER BY id LIMIT $1", limit)
}

func (r *toolRepository) queryTools(ctx context.Context, query string, args ...interface{}) ([]*models.Tool, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []*models.Tool
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tools, nil
}

func (r *toolRepository) GetToolByID(ctx context.Context, id int64) (*models.Tool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+toolColumns+" FROM tools WHERE id = $1", id)
	tool, err := scanTool(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return tool, nil
}

func (r *toolRepository) GetToolByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Tool, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+toolColumns+" FROM tools WHERE id = $1", id)
	tool, err := scanTool(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return tool, nil
}

func (r *toolRepository) CreateTool(ctx context.Context, tool *models.Tool) (*models.Tool, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tools (name, description, image, price, available_quantity, min_order_quantity)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		tool.Name, tool.Description, tool.Image, tool.Price, tool.AvailableQuantity, tool.MinOrderQuantity,
	).Scan(&tool.ID)
	if err != nil {
		return nil, err
	}
	return tool, nil
}

func (r *toolRepository) DeleteTool(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tools WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrToolNotFound
	}
	return nil
}

// ReserveQuantity — условный декремент одним запросом: защита от lost update
// при конкурентных заказах на один инструмент.
func (r *toolRepository) ReserveQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE tools SET available_quantity = available_quantity - $1 WHERE id = $2 AND available_quantity >= $1",
		qty, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientQuantity
	}
	return nil
}

func (r *toolRepository) ReleaseQuantity(ctx context.Context, tx *sql.Tx, id int64, qty int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE tools SET available_quantity = available_quantity + $1 WHERE id = $2",
		qty, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrToolNotFound
	}
	return nil
}
