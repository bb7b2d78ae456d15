package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// CatalogRepository abstracts persistence for categories, items, policies,
// tags, price classes and discounts.
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository
	CreateCategory(ctx context.Context, category *models.StoreItemCategory) (*models.StoreItemCategory, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.StoreItemCategory, error)
	FindCategoryByName(ctx context.Context, name string) (*models.StoreItemCategory, error)
	UpdateCategory(ctx context.Context, category *models.StoreItemCategory) (*models.StoreItemCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ChildCategories(ctx context.Context, parentID uuid.UUID) ([]models.StoreItemCategory, error)
	ReparentChildren(ctx context.Context, fromID, toID uuid.UUID) error
	ReassignItems(ctx context.Context, fromID, toID uuid.UUID) error
	Ancestors(ctx context.Context, id uuid.UUID) ([]models.StoreItemCategory, error)
	Descendants(ctx context.Context, id uuid.UUID) ([]models.StoreItemCategory, error)
	CreateItem(ctx context.Context, item *models.StoreItem) (*models.StoreItem, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.StoreItem, error)
	UpdateItem(ctx context.Context, item *models.StoreItem) (*models.StoreItem, error)
	UpdateItemPreTaxPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	ItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.StoreItem, error)
	CreatePricePolicy(ctx context.Context, policy *models.PricePolicy) (*models.PricePolicy, error)
	FindPricePolicyByID(ctx context.Context, id uuid.UUID) (*models.PricePolicy, error)
	CreateVatRate(ctx context.Context, rate *models.VatRate) (*models.VatRate, error)
	FindVatRateByID(ctx context.Context, id uuid.UUID) (*models.VatRate, error)
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	ReplaceItemTags(ctx context.Context, item *models.StoreItem, tags []models.Tag) error
	CreateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	FindDiscountByID(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	ActiveDiscountsByTagIDs(ctx context.Context, tagIDs []uuid.UUID) ([]models.Discount, error)
	FindPriceClassByID(ctx context.Context, id uuid.UUID) (*models.PriceClass, error)
	CreatePriceClass(ctx context.Context, class *models.PriceClass) (*models.PriceClass, error)
	CandidateDiscounts(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID) ([]models.Discount, error)
}
