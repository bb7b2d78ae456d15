package actions

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/pagination"
)

// ActionsRepository abstracts persistence for actions and the sale rows the
// amount sync and clone operations read and copy.
type ActionsRepository interface {
	WithTx(tx *gorm.DB) ActionsRepository
	CreateAction(ctx context.Context, action *models.Action) (*models.Action, error)
	FindActionByID(ctx context.Context, id uuid.UUID) (*models.Action, error)
	ListActions(ctx context.Context, cursor *pagination.Cursor, limit int, subject string) ([]models.Action, error)
	UpdateAction(ctx context.Context, action *models.Action) (*models.Action, error)
	UpdateActionAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	CreateActionType(ctx context.Context, actionType *models.ActionType) (*models.ActionType, error)
	FindActionTypeByID(ctx context.Context, id uuid.UUID) (*models.ActionType, error)
	FindSaleWithLines(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	FindSaleByActionID(ctx context.Context, actionID uuid.UUID) (*models.Sale, error)
	CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	CreateSaleLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error)
}
