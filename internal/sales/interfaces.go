package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// SalesRepository abstracts persistence for sales and their lines.
type SalesRepository interface {
	WithTx(tx *gorm.DB) SalesRepository
	FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindSaleByActionID(ctx context.Context, actionID uuid.UUID) (*models.Sale, error)
	EnsureSaleForAction(ctx context.Context, actionID uuid.UUID) (*models.Sale, error)
	CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	CreateLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error)
	FindLineByID(ctx context.Context, id uuid.UUID) (*models.SaleLine, error)
	UpdateLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error)
	DeleteLine(ctx context.Context, id uuid.UUID) error
	LinesBySale(ctx context.Context, saleID uuid.UUID) ([]models.SaleLine, error)
	MaxOrderIndex(ctx context.Context, saleID uuid.UUID) (int, error)
}

// catalogClient is the slice of the catalog service the sale ledger needs:
// item snapshots and discount resolution.
type catalogClient interface {
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.StoreItem, error)
	BestDiscountFor(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID, quantity decimal.Decimal) (*models.Discount, error)
}

// amountSyncer rewrites the owning action's cached amount inside the line
// mutation's transaction.
type amountSyncer interface {
	Recalculate(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) error
}
