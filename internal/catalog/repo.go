package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for the catalog: categories,
// items, price policies, tags, price classes and discounts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CatalogRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.StoreItemCategory) (*models.StoreItemCategory, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindCategoryByID loads a category with its policy preloaded.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.StoreItemCategory, error) {
	var category models.StoreItemCategory
	err := r.db.WithContext(ctx).
		Preload("PricePolicy").
		First(&category, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByName loads a category by its exact (already normalized) name.
func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*models.StoreItemCategory, error) {
	var category models.StoreItemCategory
	err := r.db.WithContext(ctx).
		Preload("PricePolicy").
		First(&category, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory saves the provided category row.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.StoreItemCategory) (*models.StoreItemCategory, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category row.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.StoreItemCategory{}, "id = ?", id).Error
}

// ChildCategories lists the direct children of a category.
func (r *Repository) ChildCategories(ctx context.Context, parentID uuid.UUID) ([]models.StoreItemCategory, error) {
	var children []models.StoreItemCategory
	err := r.db.WithContext(ctx).
		Preload("PricePolicy").
		Where("parent_id = ?", parentID).
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

// ReparentChildren moves every child of one category under another.
func (r *Repository) ReparentChildren(ctx context.Context, fromID, toID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreItemCategory{}).
		Where("parent_id = ?", fromID).
		Update("parent_id", toID).Error
}

// ReassignItems moves every item of one category onto another.
func (r *Repository) ReassignItems(ctx context.Context, fromID, toID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreItem{}).
		Where("category_id = ?", fromID).
		Update("category_id", toID).Error
}

// Ancestors walks parent pointers iteratively, nearest first, ending at the
// root. The visited set guards against accidental cycles in stored data.
func (r *Repository) Ancestors(ctx context.Context, id uuid.UUID) ([]models.StoreItemCategory, error) {
	var ancestors []models.StoreItemCategory
	visited := map[uuid.UUID]struct{}{id: {}}

	current, err := r.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for current.ParentID != nil {
		if _, seen := visited[*current.ParentID]; seen {
			break
		}
		parent, err := r.FindCategoryByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		visited[parent.ID] = struct{}{}
		ancestors = append(ancestors, *parent)
		current = parent
	}
	return ancestors, nil
}

// Descendants collects the whole subtree, including the starting category,
// with an iterative breadth-first walk.
func (r *Repository) Descendants(ctx context.Context, id uuid.UUID) ([]models.StoreItemCategory, error) {
	root, err := r.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := []models.StoreItemCategory{*root}
	visited := map[uuid.UUID]struct{}{root.ID: {}}
	queue := []uuid.UUID{root.ID}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		children, err := r.ChildCategories(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}
	return result, nil
}

// CreateItem inserts a new store item.
func (r *Repository) CreateItem(ctx context.Context, item *models.StoreItem) (*models.StoreItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindItemByID loads an item with its pricing context preloaded.
func (r *Repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.StoreItem, error) {
	var item models.StoreItem
	err := r.db.WithContext(ctx).
		Preload("VatRate").
		Preload("Category").
		Preload("PricePolicy").
		Preload("PriceClass").
		Preload("Tags").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem saves the provided item row.
func (r *Repository) UpdateItem(ctx context.Context, item *models.StoreItem) (*models.StoreItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemPreTaxPrice rewrites only the cached derived price.
func (r *Repository) UpdateItemPreTaxPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreItem{}).
		Where("id = ?", id).
		Update("pre_tax_price", price).Error
}

// ItemsByCategory lists the items directly attached to a category, with
// pricing context preloaded.
func (r *Repository) ItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.StoreItem, error) {
	var items []models.StoreItem
	err := r.db.WithContext(ctx).
		Preload("PricePolicy").
		Where("category_id = ?", categoryID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreatePricePolicy inserts a new price policy.
func (r *Repository) CreatePricePolicy(ctx context.Context, policy *models.PricePolicy) (*models.PricePolicy, error) {
	if err := r.db.WithContext(ctx).Create(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

// FindPricePolicyByID loads a price policy.
func (r *Repository) FindPricePolicyByID(ctx context.Context, id uuid.UUID) (*models.PricePolicy, error) {
	var policy models.PricePolicy
	if err := r.db.WithContext(ctx).First(&policy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

// CreateVatRate inserts a new VAT rate.
func (r *Repository) CreateVatRate(ctx context.Context, rate *models.VatRate) (*models.VatRate, error) {
	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		return nil, err
	}
	return rate, nil
}

// FindVatRateByID loads a VAT rate.
func (r *Repository) FindVatRateByID(ctx context.Context, id uuid.UUID) (*models.VatRate, error) {
	var rate models.VatRate
	if err := r.db.WithContext(ctx).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

// GetOrCreateTag returns the tag with the given name, creating it on demand.
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	tag = models.Tag{ID: uuid.New(), Name: name}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ReplaceItemTags rewrites the item/tag association set.
func (r *Repository) ReplaceItemTags(ctx context.Context, item *models.StoreItem, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(item).Association("Tags").Replace(tags)
}

// CreateDiscount inserts a new discount with its tag set.
func (r *Repository) CreateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

// FindDiscountByID loads a discount with its tags.
func (r *Repository) FindDiscountByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Preload("Tags").
		First(&discount, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// ActiveDiscountsByTagIDs lists active discounts whose tag set intersects the
// provided tags.
func (r *Repository) ActiveDiscountsByTagIDs(ctx context.Context, tagIDs []uuid.UUID) ([]models.Discount, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Distinct("discounts.*").
		Joins("JOIN discount_tags ON discount_tags.discount_id = discounts.id").
		Where("discount_tags.tag_id IN ?", tagIDs).
		Where("discounts.active = ?", true).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// FindPriceClassByID loads a price class with its discounts.
func (r *Repository) FindPriceClassByID(ctx context.Context, id uuid.UUID) (*models.PriceClass, error) {
	var class models.PriceClass
	err := r.db.WithContext(ctx).
		Preload("Discounts").
		First(&class, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// CreatePriceClass inserts a new price class with its discount set.
func (r *Repository) CreatePriceClass(ctx context.Context, class *models.PriceClass) (*models.PriceClass, error) {
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		return nil, err
	}
	return class, nil
}

// CandidateDiscounts unions the active tag-matching discounts with the price
// class's active discounts, deduplicated by id.
func (r *Repository) CandidateDiscounts(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID) ([]models.Discount, error) {
	byTag, err := r.ActiveDiscountsByTagIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(byTag))
	candidates := make([]models.Discount, 0, len(byTag))
	for _, discount := range byTag {
		seen[discount.ID] = struct{}{}
		candidates = append(candidates, discount)
	}

	if priceClassID != nil {
		class, err := r.FindPriceClassByID(ctx, *priceClassID)
		if err != nil {
			return nil, err
		}
		for _, discount := range class.Discounts {
			if !discount.Active {
				continue
			}
			if _, ok := seen[discount.ID]; ok {
				continue
			}
			seen[discount.ID] = struct{}{}
			candidates = append(candidates, discount)
		}
	}
	return candidates, nil
}
