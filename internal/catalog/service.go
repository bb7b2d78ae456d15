package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db"
	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
	"github.com/angelmondragon/crmstore-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management: categories with their price-policy
// cascade, items, price policies, discounts and price classes.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.StoreItemCategory, error)
	RenameCategory(ctx context.Context, categoryID uuid.UUID, name string) (*models.StoreItemCategory, error)
	SetCategoryPricePolicy(ctx context.Context, categoryID uuid.UUID, policyID *uuid.UUID) error
	CreatePricePolicy(ctx context.Context, input CreatePricePolicyInput) (*models.PricePolicy, error)
	CreateVatRate(ctx context.Context, rate decimal.Decimal) (*models.VatRate, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*models.StoreItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, input UpdateItemInput) (*models.StoreItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.StoreItem, error)
	EffectivePrice(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	ApplicableDiscounts(ctx context.Context, itemID uuid.UUID) ([]models.Discount, error)
	CreateDiscount(ctx context.Context, input CreateDiscountInput) (*models.Discount, error)
	CreatePriceClass(ctx context.Context, input CreatePriceClassInput) (*models.PriceClass, error)
	BestDiscountFor(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID, quantity decimal.Decimal) (*models.Discount, error)
}

type service struct {
	repo     CatalogRepository
	tx       txRunner
	cascades *metrics.CascadeMetrics
}

// NewService constructs a catalog service instance.
func NewService(repo CatalogRepository, tx txRunner, cascades *metrics.CascadeMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, cascades: cascades}, nil
}

// CreateCategoryInput captures the payload to create a category.
type CreateCategoryInput struct {
	Name          string
	ParentID      *uuid.UUID
	PricePolicyID *uuid.UUID
}

// CreatePricePolicyInput captures the payload to create a price policy.
type CreatePricePolicyInput struct {
	Name       string
	Kind       enums.PricePolicyKind
	Parameters string
}

// CreateItemInput captures the payload to create a store item.
type CreateItemInput struct {
	Name          string
	PurchasePrice *decimal.Decimal
	PreTaxPrice   decimal.Decimal
	VatRateID     *uuid.UUID
	CategoryID    *uuid.UUID
	PricePolicyID *uuid.UUID
	PriceClassID  *uuid.UUID
	TagNames      []string
}

// UpdateItemInput holds optional mutation values for an item.
type UpdateItemInput struct {
	Name          *string
	PurchasePrice *decimal.Decimal
	PreTaxPrice   *decimal.Decimal
	VatRateID     *uuid.UUID
	CategoryID    *uuid.UUID
	PricePolicyID *uuid.UUID
	PriceClassID  *uuid.UUID
	TagNames      *[]string
}

// CreateDiscountInput captures the payload to create a discount.
type CreateDiscountInput struct {
	Name              string
	Rate              decimal.Decimal
	QuantityThreshold decimal.Decimal
	Active            bool
	TagNames          []string
}

// CreatePriceClassInput captures the payload to create a price class.
type CreatePriceClassInput struct {
	Name        string
	Description string
	DiscountIDs []uuid.UUID
}

// CreateCategory normalizes the name and either inserts a new category or
// returns the survivor with the same normalized name. Duplicate creation is
// tolerated on purpose so concurrent import scripts converge on one row.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.StoreItemCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	if existing, err := s.repo.FindCategoryByName(ctx, name); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup category")
	}

	if input.ParentID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent category")
		}
	}
	if input.PricePolicyID != nil {
		if _, err := s.repo.FindPricePolicyByID(ctx, *input.PricePolicyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price policy not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price policy")
		}
	}

	category := &models.StoreItemCategory{
		Name:          name,
		ParentID:      input.ParentID,
		PricePolicyID: input.PricePolicyID,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		// A concurrent creator won the insert; converge on its row.
		if db.IsUniqueViolation(err, "") {
			if existing, lookupErr := s.repo.FindCategoryByName(ctx, name); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return created, nil
}

// RenameCategory renames a category. Renaming onto an existing normalized
// name merges this category into the survivor: items and sub-categories are
// re-parented and the duplicate row is discarded.
func (s *service) RenameCategory(ctx context.Context, categoryID uuid.UUID, name string) (*models.StoreItemCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	survivor, err := s.repo.FindCategoryByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup category")
	}

	if survivor == nil || survivor.ID == category.ID {
		category.Name = name
		updated, err := s.repo.UpdateCategory(ctx, category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
		}
		return updated, nil
	}

	started := time.Now()
	var updated, skipped int
	var merged *models.StoreItemCategory
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ReparentChildren(ctx, category.ID, survivor.ID); err != nil {
			return err
		}
		if err := txRepo.ReassignItems(ctx, category.ID, survivor.ID); err != nil {
			return err
		}
		if err := txRepo.DeleteCategory(ctx, category.ID); err != nil {
			return err
		}
		// Reassigned items and sub-categories now sit under the survivor's
		// policy chain, so their cached prices must be re-derived.
		var cascadeErr error
		updated, skipped, cascadeErr = propagatePrices(ctx, txRepo, survivor.ID)
		if cascadeErr != nil {
			return cascadeErr
		}
		merged = survivor
		return nil
	}); err != nil {
		s.cascades.IncFailure("category_merge")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge category")
	}

	s.cascades.ObserveDuration("category_merge", time.Since(started))
	s.cascades.AddUpdated("category_merge", updated)
	s.cascades.AddSkipped("category_merge", skipped)
	return merged, nil
}

// SetCategoryPricePolicy assigns (or clears) a category's price policy and
// runs the price cascade over the whole subtree within the same transaction.
func (s *service) SetCategoryPricePolicy(ctx context.Context, categoryID uuid.UUID, policyID *uuid.UUID) error {
	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if policyID != nil {
		if _, err := s.repo.FindPricePolicyByID(ctx, *policyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "price policy not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price policy")
		}
	}

	started := time.Now()
	var updated, skipped int
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		category.PricePolicyID = policyID
		category.PricePolicy = nil
		if _, err := txRepo.UpdateCategory(ctx, category); err != nil {
			return err
		}
		var cascadeErr error
		updated, skipped, cascadeErr = propagatePrices(ctx, txRepo, categoryID)
		return cascadeErr
	}); err != nil {
		s.cascades.IncFailure("policy_save")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply price policy")
	}

	s.cascades.ObserveDuration("policy_save", time.Since(started))
	s.cascades.AddUpdated("policy_save", updated)
	s.cascades.AddSkipped("policy_save", skipped)
	return nil
}

// propagatePrices walks the saved category's subtree breadth first and
// rewrites the cached pre-tax price of every item governed by an inherited
// policy. Items with no applicable policy, an absent purchase price, or an
// unparseable ratio are left untouched, which keeps the walk idempotent.
// Persistence errors are collected so one bad row does not stall the rest of
// the subtree.
func propagatePrices(ctx context.Context, repo CatalogRepository, categoryID uuid.UUID) (updated, skipped int, err error) {
	root, lookupErr := repo.FindCategoryByID(ctx, categoryID)
	if lookupErr != nil {
		return 0, 0, lookupErr
	}
	aboveRoot, lookupErr := repo.Ancestors(ctx, root.ID)
	if lookupErr != nil {
		return 0, 0, lookupErr
	}

	type node struct {
		category  models.StoreItemCategory
		inherited *models.PricePolicy
	}

	var errs error
	visited := map[uuid.UUID]struct{}{root.ID: {}}
	queue := []node{{category: *root, inherited: governingPolicy(nil, aboveRoot)}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		effective := current.inherited
		if current.category.PricePolicy != nil && current.category.PricePolicy.Kind == enums.PricePolicyRatioOfPurchase {
			effective = current.category.PricePolicy
		}

		items, itemsErr := repo.ItemsByCategory(ctx, current.category.ID)
		if itemsErr != nil {
			errs = multierr.Append(errs, itemsErr)
		}
		for _, item := range items {
			// Items carrying their own concrete policy are not governed by
			// the category chain.
			if item.PricePolicy != nil && item.PricePolicy.Kind == enums.PricePolicyRatioOfPurchase {
				continue
			}
			newPrice, ok := applyPolicyPrice(&item, effective)
			if !ok {
				skipped++
				continue
			}
			if item.PreTaxPrice.Equal(newPrice) {
				continue
			}
			if updateErr := repo.UpdateItemPreTaxPrice(ctx, item.ID, newPrice); updateErr != nil {
				errs = multierr.Append(errs, updateErr)
				continue
			}
			updated++
		}

		children, childErr := repo.ChildCategories(ctx, current.category.ID)
		if childErr != nil {
			errs = multierr.Append(errs, childErr)
			continue
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			queue = append(queue, node{category: child, inherited: effective})
		}
	}
	return updated, skipped, errs
}

// applyPolicyPrice computes the item price under the given concrete policy.
// The boolean is false when the price must stay unchanged.
func applyPolicyPrice(item *models.StoreItem, policy *models.PricePolicy) (decimal.Decimal, bool) {
	if policy == nil {
		return decimal.Zero, false
	}
	ratio, err := ratioMultiplier(policy)
	if err != nil {
		return decimal.Zero, false
	}
	if item.PurchasePrice == nil {
		return decimal.Zero, false
	}
	return item.PurchasePrice.Mul(ratio), true
}

// CreatePricePolicy inserts a new price policy.
func (s *service) CreatePricePolicy(ctx context.Context, input CreatePricePolicyInput) (*models.PricePolicy, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price policy kind")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price policy name is required")
	}
	policy := &models.PricePolicy{
		Name:       strings.TrimSpace(input.Name),
		Kind:       input.Kind,
		Parameters: strings.TrimSpace(input.Parameters),
	}
	created, err := s.repo.CreatePricePolicy(ctx, policy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert price policy")
	}
	return created, nil
}

// CreateVatRate inserts a new VAT rate.
func (s *service) CreateVatRate(ctx context.Context, rate decimal.Decimal) (*models.VatRate, error) {
	if rate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vat rate must be non-negative")
	}
	created, err := s.repo.CreateVatRate(ctx, &models.VatRate{Rate: rate})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert vat rate")
	}
	return created, nil
}

// CreateItem inserts an item and immediately derives its cached pre-tax price
// from the policy chain.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.StoreItem, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if err := s.ensureItemRefs(ctx, input.VatRateID, input.CategoryID, input.PricePolicyID, input.PriceClassID); err != nil {
		return nil, err
	}

	var itemID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		item := &models.StoreItem{
			Name:          strings.TrimSpace(input.Name),
			PurchasePrice: input.PurchasePrice,
			PreTaxPrice:   input.PreTaxPrice,
			VatRateID:     input.VatRateID,
			CategoryID:    input.CategoryID,
			PricePolicyID: input.PricePolicyID,
			PriceClassID:  input.PriceClassID,
		}
		created, err := txRepo.CreateItem(ctx, item)
		if err != nil {
			return err
		}
		itemID = created.ID

		if len(input.TagNames) > 0 {
			tags, err := s.resolveTags(ctx, txRepo, input.TagNames)
			if err != nil {
				return err
			}
			if err := txRepo.ReplaceItemTags(ctx, created, tags); err != nil {
				return err
			}
		}

		return s.recomputeItemPrice(ctx, txRepo, created.ID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}

	return s.GetItem(ctx, itemID)
}

// UpdateItem mutates an item and re-derives its cached price when the policy
// or purchase cost changed.
func (s *service) UpdateItem(ctx context.Context, itemID uuid.UUID, input UpdateItemInput) (*models.StoreItem, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if err := s.ensureItemRefs(ctx, input.VatRateID, input.CategoryID, input.PricePolicyID, input.PriceClassID); err != nil {
		return nil, err
	}

	priceContextChanged := input.PurchasePrice != nil || input.PricePolicyID != nil || input.CategoryID != nil

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if input.Name != nil {
			item.Name = strings.TrimSpace(*input.Name)
		}
		if input.PurchasePrice != nil {
			item.PurchasePrice = input.PurchasePrice
		}
		if input.PreTaxPrice != nil {
			item.PreTaxPrice = *input.PreTaxPrice
		}
		if input.VatRateID != nil {
			item.VatRateID = input.VatRateID
		}
		if input.CategoryID != nil {
			item.CategoryID = input.CategoryID
		}
		if input.PricePolicyID != nil {
			item.PricePolicyID = input.PricePolicyID
		}
		if input.PriceClassID != nil {
			item.PriceClassID = input.PriceClassID
		}
		item.VatRate = nil
		item.Category = nil
		item.PricePolicy = nil
		item.PriceClass = nil

		if _, err := txRepo.UpdateItem(ctx, item); err != nil {
			return err
		}

		if input.TagNames != nil {
			tags, err := s.resolveTags(ctx, txRepo, *input.TagNames)
			if err != nil {
				return err
			}
			if err := txRepo.ReplaceItemTags(ctx, item, tags); err != nil {
				return err
			}
		}

		if priceContextChanged {
			return s.recomputeItemPrice(ctx, txRepo, item.ID)
		}
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}

	return s.GetItem(ctx, itemID)
}

// GetItem loads an item with its pricing context.
func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*models.StoreItem, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

// EffectivePrice resolves the item's price through the policy chain. When no
// policy applies, or the policy cannot be applied, the cached price stands.
func (s *service) EffectivePrice(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	ancestors, err := s.itemAncestry(ctx, s.repo, item)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category chain")
	}

	price, resolveErr := ResolvePreTaxPrice(item, ancestors)
	if resolveErr != nil {
		var softErr *ConfigurationError
		if errors.Is(resolveErr, ErrNoPolicy) || errors.As(resolveErr, &softErr) {
			return item.PreTaxPrice, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, resolveErr, "resolve price")
	}
	return price, nil
}

// ApplicableDiscounts lists every active discount matching the item's tags or
// price class, ascending by quantity threshold, for display.
func (s *service) ApplicableDiscounts(ctx context.Context, itemID uuid.UUID) ([]models.Discount, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.CandidateDiscounts(ctx, item.TagIDs(), item.PriceClassID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	return SortApplicable(candidates), nil
}

// CreateDiscount inserts a discount with its tag set.
func (s *service) CreateDiscount(ctx context.Context, input CreateDiscountInput) (*models.Discount, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name is required")
	}
	if input.Rate.IsNegative() || input.Rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount rate must be between 0 and 100")
	}
	if input.QuantityThreshold.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity threshold must be non-negative")
	}

	var discountID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		tags, err := s.resolveTags(ctx, txRepo, input.TagNames)
		if err != nil {
			return err
		}
		discount := &models.Discount{
			Name:              strings.TrimSpace(input.Name),
			Rate:              input.Rate,
			QuantityThreshold: input.QuantityThreshold,
			Active:            input.Active,
			Tags:              tags,
		}
		created, err := txRepo.CreateDiscount(ctx, discount)
		if err != nil {
			return err
		}
		discountID = created.ID
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}

	discount, err := s.repo.FindDiscountByID(ctx, discountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	return discount, nil
}

// CreatePriceClass inserts a price class bundling the given discounts. The
// class is the item-side alternative to tag matching, so every referenced
// discount must already exist.
func (s *service) CreatePriceClass(ctx context.Context, input CreatePriceClassInput) (*models.PriceClass, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price class name is required")
	}

	discounts := make([]models.Discount, 0, len(input.DiscountIDs))
	seen := make(map[uuid.UUID]struct{}, len(input.DiscountIDs))
	for _, id := range input.DiscountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		discount, err := s.repo.FindDiscountByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
		}
		discounts = append(discounts, *discount)
	}

	class := &models.PriceClass{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Discounts:   discounts,
	}
	created, err := s.repo.CreatePriceClass(ctx, class)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert price class")
	}
	return created, nil
}

// BestDiscountFor resolves the single qualifying discount for the given tag
// set, price class and quantity. Sale-line edits call this at snapshot time.
func (s *service) BestDiscountFor(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID, quantity decimal.Decimal) (*models.Discount, error) {
	candidates, err := s.repo.CandidateDiscounts(ctx, tagIDs, priceClassID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	return BestDiscount(candidates, quantity), nil
}

// recomputeItemPrice applies the policy chain to one item, leaving the cached
// price alone on no-policy and soft configuration errors.
func (s *service) recomputeItemPrice(ctx context.Context, repo CatalogRepository, itemID uuid.UUID) error {
	item, err := repo.FindItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	ancestors, err := s.itemAncestry(ctx, repo, item)
	if err != nil {
		return err
	}

	price, resolveErr := ResolvePreTaxPrice(item, ancestors)
	if resolveErr != nil {
		var softErr *ConfigurationError
		if errors.Is(resolveErr, ErrNoPolicy) || errors.As(resolveErr, &softErr) {
			return nil
		}
		return resolveErr
	}
	if item.PreTaxPrice.Equal(price) {
		return nil
	}
	return repo.UpdateItemPreTaxPrice(ctx, item.ID, price)
}

// itemAncestry builds the category chain governing an item, nearest first:
// the item's own category followed by that category's ancestors.
func (s *service) itemAncestry(ctx context.Context, repo CatalogRepository, item *models.StoreItem) ([]models.StoreItemCategory, error) {
	if item.CategoryID == nil {
		return nil, nil
	}
	category, err := repo.FindCategoryByID(ctx, *item.CategoryID)
	if err != nil {
		return nil, err
	}
	above, err := repo.Ancestors(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	return append([]models.StoreItemCategory{*category}, above...), nil
}

// resolveTags maps tag names onto rows, creating missing tags on the fly.
func (s *service) resolveTags(ctx context.Context, repo CatalogRepository, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tag, err := repo.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// ensureItemRefs verifies the optional references an item points at.
func (s *service) ensureItemRefs(ctx context.Context, vatRateID, categoryID, policyID, priceClassID *uuid.UUID) error {
	if vatRateID != nil {
		if _, err := s.repo.FindVatRateByID(ctx, *vatRateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vat rate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vat rate")
		}
	}
	if categoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}
	if policyID != nil {
		if _, err := s.repo.FindPricePolicyByID(ctx, *policyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "price policy not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price policy")
		}
	}
	if priceClassID != nil {
		if _, err := s.repo.FindPriceClassByID(ctx, *priceClassID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "price class not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price class")
		}
	}
	return nil
}
