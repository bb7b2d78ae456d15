package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// Repository exposes persistence for sales and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SalesRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindSaleByID loads a sale with its lines in ledger order.
func (r *Repository) FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Lines.VatRate").
		Preload("Lines.Discount").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindSaleByActionID loads the sale attached to an action, lines in ledger
// order.
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

// EnsureSaleForAction returns the action's sale, creating it on first use.
// The action itself must exist.
func (r *Repository) EnsureSaleForAction(ctx context.Context, actionID uuid.UUID) (*models.Sale, error) {
	sale, err := r.FindSaleByActionID(ctx, actionID)
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var action models.Action
	if err := r.db.WithContext(ctx).First(&action, "id = ?", actionID).Error; err != nil {
		return nil, err
	}

	created := &models.Sale{ActionID: actionID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// CreateSale inserts a sale row.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// CreateLine inserts a sale line.
func (r *Repository) CreateLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// FindLineByID loads a line with its VAT rate and discount.
func (r *Repository) FindLineByID(ctx context.Context, id uuid.UUID) (*models.SaleLine, error) {
	var line models.SaleLine
	err := r.db.WithContext(ctx).
		Preload("VatRate").
		Preload("Discount").
		First(&line, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine saves the provided line row.
func (r *Repository) UpdateLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error) {
	if err := r.db.WithContext(ctx).Save(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// DeleteLine removes a line row.
func (r *Repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SaleLine{}, "id = ?", id).Error
}

// LinesBySale lists a sale's lines in ledger order.
func (r *Repository) LinesBySale(ctx context.Context, saleID uuid.UUID) ([]models.SaleLine, error) {
	var lines []models.SaleLine
	err := r.db.WithContext(ctx).
		Preload("VatRate").
		Preload("Discount").
		Where("sale_id = ?", saleID).
		Order("order_index ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// MaxOrderIndex returns the highest order index used on a sale, zero when the
// sale has no lines.
func (r *Repository) MaxOrderIndex(ctx context.Context, saleID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.SaleLine{}).
		Where("sale_id = ?", saleID).
		Select("MAX(order_index)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
