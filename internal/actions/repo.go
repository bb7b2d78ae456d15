package actions

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/pagination"
)

// Repository exposes persistence for actions, action types and the sale rows
// the amount sync and clone operations touch.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an actions repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ActionsRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateAction inserts an action row.
func (r *Repository) CreateAction(ctx context.Context, action *models.Action) (*models.Action, error) {
	if err := r.db.WithContext(ctx).Create(action).Error; err != nil {
		return nil, err
	}
	return action, nil
}

// FindActionByID loads an action with its type and the type's allowed
// follow-ups.
func (r *Repository) FindActionByID(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	var action models.Action
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Type.AllowedNextTypes").
		First(&action, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// ListActions pages actions newest first, optionally filtered by subject
// substring. The cursor bounds on (created_at, id) so pages stay stable under
// concurrent inserts.
func (r *Repository) ListActions(ctx context.Context, cursor *pagination.Cursor, limit int, subject string) ([]models.Action, error) {
	query := r.db.WithContext(ctx).
		Preload("Type").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if subject != "" {
		query = query.Where("subject ILIKE ?", "%"+subject+"%")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Action
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateAction saves the provided action row.
func (r *Repository) UpdateAction(ctx context.Context, action *models.Action) (*models.Action, error) {
	if err := r.db.WithContext(ctx).Save(action).Error; err != nil {
		return nil, err
	}
	return action, nil
}

// UpdateActionAmount rewrites only the cached amount.
func (r *Repository) UpdateActionAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Action{}).
		Where("id = ?", id).
		Update("amount", amount).Error
}

// CreateActionType inserts an action type with its allowed follow-up set.
func (r *Repository) CreateActionType(ctx context.Context, actionType *models.ActionType) (*models.ActionType, error) {
	if err := r.db.WithContext(ctx).Create(actionType).Error; err != nil {
		return nil, err
	}
	return actionType, nil
}

// FindActionTypeByID loads an action type with its allowed follow-ups.
func (r *Repository) FindActionTypeByID(ctx context.Context, id uuid.UUID) (*models.ActionType, error) {
	var actionType models.ActionType
	err := r.db.WithContext(ctx).
		Preload("AllowedNextTypes").
		First(&actionType, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &actionType, nil
}

// FindSaleWithLines loads a sale with its lines in ledger order.
func (r *Repository) FindSaleWithLines(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Lines.VatRate").
		Preload("Lines.Discount").
		First(&sale, "id = ?", saleID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindSaleByActionID loads an action's sale with its lines in ledger order.
func (r *Repository) FindSaleByActionID(ctx context.Context, actionID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Lines.VatRate").
		Preload("Lines.Discount").
		First(&sale, "action_id = ?", actionID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreateSale inserts a sale row.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// CreateSaleLine inserts a sale line row.
func (r *Repository) CreateSaleLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}
