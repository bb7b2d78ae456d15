package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/api/responses"
	"github.com/angelmondragon/crmstore-backend/api/validators"
	catalogsvc "github.com/angelmondragon/crmstore-backend/internal/catalog"
	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
	"github.com/angelmondragon/crmstore-backend/pkg/logger"
)

// CategoryCreate handles creation of a catalog category. Creating a category
// whose normalized name already exists returns the surviving row.
func CategoryCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalogsvc.CreateCategoryInput{
			Name:          payload.Name,
			ParentID:      payload.ParentID,
			PricePolicyID: payload.PricePolicyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCategoryResponse(category))
	}
}

// CategoryRename handles renaming, which merges into an existing category when
// the new name collides.
func CategoryRename(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := pathUUID(r, "categoryId", "category id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload renameCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.RenameCategory(r.Context(), categoryID, payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCategoryResponse(category))
	}
}

// CategorySetPricePolicy assigns or clears a category's price policy and runs
// the subtree price cascade.
func CategorySetPricePolicy(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := pathUUID(r, "categoryId", "category id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setCategoryPolicyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetCategoryPricePolicy(r.Context(), categoryID, payload.PricePolicyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "applied"})
	}
}

// PricePolicyCreate handles creation of a price policy.
func PricePolicyCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPricePolicyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParsePricePolicyKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}

		policy, err := svc.CreatePricePolicy(r.Context(), catalogsvc.CreatePricePolicyInput{
			Name:       payload.Name,
			Kind:       kind,
			Parameters: payload.Parameters,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPricePolicyResponse(policy))
	}
}

// VatRateCreate handles creation of a VAT rate.
func VatRateCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createVatRateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.CreateVatRate(r.Context(), payload.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vatRateResponse{ID: rate.ID, Rate: rate.Rate, IsDefault: rate.IsDefault})
	}
}

// ItemCreate handles creation of a store item.
func ItemCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), catalogsvc.CreateItemInput{
			Name:          payload.Name,
			PurchasePrice: payload.PurchasePrice,
			PreTaxPrice:   payload.PreTaxPrice,
			VatRateID:     payload.VatRateID,
			CategoryID:    payload.CategoryID,
			PricePolicyID: payload.PricePolicyID,
			PriceClassID:  payload.PriceClassID,
			TagNames:      payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ItemUpdate handles partial mutation of a store item.
func ItemUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), itemID, catalogsvc.UpdateItemInput{
			Name:          payload.Name,
			PurchasePrice: payload.PurchasePrice,
			PreTaxPrice:   payload.PreTaxPrice,
			VatRateID:     payload.VatRateID,
			CategoryID:    payload.CategoryID,
			PricePolicyID: payload.PricePolicyID,
			PriceClassID:  payload.PriceClassID,
			TagNames:      payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ItemGet returns one item with its pricing context.
func ItemGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newItemResponse(item))
	}
}

// ItemEffectivePrice resolves the item's price through the policy chain.
func ItemEffectivePrice(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.EffectivePrice(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]decimal.Decimal{"pre_tax_price": price})
	}
}

// ItemDiscounts lists the active discounts applicable to one item, ascending
// by quantity threshold.
func ItemDiscounts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discounts, err := svc.ApplicableDiscounts(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]discountResponse, 0, len(discounts))
		for _, discount := range discounts {
			out = append(out, newDiscountResponse(&discount))
		}
		responses.WriteSuccess(w, out)
	}
}

// DiscountCreate handles creation of a discount with its tag set.
func DiscountCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.Active != nil {
			active = *payload.Active
		}
		discount, err := svc.CreateDiscount(r.Context(), catalogsvc.CreateDiscountInput{
			Name:              payload.Name,
			Rate:              payload.Rate,
			QuantityThreshold: payload.QuantityThreshold,
			Active:            active,
			TagNames:          payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountResponse(discount))
	}
}

// PriceClassCreate handles creation of a price class bundling discounts.
func PriceClassCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPriceClassRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		class, err := svc.CreatePriceClass(r.Context(), catalogsvc.CreatePriceClassInput{
			Name:        payload.Name,
			Description: payload.Description,
			DiscountIDs: payload.DiscountIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPriceClassResponse(class))
	}
}

func pathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

type createCategoryRequest struct {
	Name          string     `json:"name" validate:"required,max=128"`
	ParentID      *uuid.UUID `json:"parent_id"`
	PricePolicyID *uuid.UUID `json:"price_policy_id"`
}

type renameCategoryRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type setCategoryPolicyRequest struct {
	PricePolicyID *uuid.UUID `json:"price_policy_id"`
}

type createPricePolicyRequest struct {
	Name       string `json:"name" validate:"required,max=128"`
	Kind       string `json:"kind" validate:"required"`
	Parameters string `json:"parameters"`
}

type createVatRateRequest struct {
	Rate decimal.Decimal `json:"rate" validate:"required"`
}

type createItemRequest struct {
	Name          string           `json:"name" validate:"required,max=256"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	PreTaxPrice   decimal.Decimal  `json:"pre_tax_price"`
	VatRateID     *uuid.UUID       `json:"vat_rate_id"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	PricePolicyID *uuid.UUID       `json:"price_policy_id"`
	PriceClassID  *uuid.UUID       `json:"price_class_id"`
	Tags          []string         `json:"tags"`
}

type updateItemRequest struct {
	Name          *string          `json:"name"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	PreTaxPrice   *decimal.Decimal `json:"pre_tax_price"`
	VatRateID     *uuid.UUID       `json:"vat_rate_id"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	PricePolicyID *uuid.UUID       `json:"price_policy_id"`
	PriceClassID  *uuid.UUID       `json:"price_class_id"`
	Tags          *[]string        `json:"tags"`
}

type createDiscountRequest struct {
	Name              string          `json:"name" validate:"required,max=128"`
	Rate              decimal.Decimal `json:"rate" validate:"required"`
	QuantityThreshold decimal.Decimal `json:"quantity_threshold"`
	Active            *bool           `json:"active"`
	Tags              []string        `json:"tags"`
}

type createPriceClassRequest struct {
	Name        string      `json:"name" validate:"required,max=128"`
	Description string      `json:"description" validate:"max=512"`
	DiscountIDs []uuid.UUID `json:"discount_ids"`
}

type categoryResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	PricePolicyID *uuid.UUID `json:"price_policy_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newCategoryResponse(category *models.StoreItemCategory) categoryResponse {
	return categoryResponse{
		ID:            category.ID,
		Name:          category.Name,
		ParentID:      category.ParentID,
		PricePolicyID: category.PricePolicyID,
		CreatedAt:     category.CreatedAt,
		UpdatedAt:     category.UpdatedAt,
	}
}

type pricePolicyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Parameters string    `json:"parameters"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newPricePolicyResponse(policy *models.PricePolicy) pricePolicyResponse {
	return pricePolicyResponse{
		ID:         policy.ID,
		Name:       policy.Name,
		Kind:       string(policy.Kind),
		Parameters: policy.Parameters,
		CreatedAt:  policy.CreatedAt,
		UpdatedAt:  policy.UpdatedAt,
	}
}

type vatRateResponse struct {
	ID        uuid.UUID       `json:"id"`
	Rate      decimal.Decimal `json:"rate"`
	IsDefault bool            `json:"is_default"`
}

type itemResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	PreTaxPrice   decimal.Decimal  `json:"pre_tax_price"`
	VatRateID     *uuid.UUID       `json:"vat_rate_id,omitempty"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	PricePolicyID *uuid.UUID       `json:"price_policy_id,omitempty"`
	PriceClassID  *uuid.UUID       `json:"price_class_id,omitempty"`
	Tags          []string         `json:"tags"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func newItemResponse(item *models.StoreItem) itemResponse {
	tags := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		tags = append(tags, tag.Name)
	}
	return itemResponse{
		ID:            item.ID,
		Name:          item.Name,
		PurchasePrice: item.PurchasePrice,
		PreTaxPrice:   item.PreTaxPrice,
		VatRateID:     item.VatRateID,
		CategoryID:    item.CategoryID,
		PricePolicyID: item.PricePolicyID,
		PriceClassID:  item.PriceClassID,
		Tags:          tags,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

type discountResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Rate              decimal.Decimal `json:"rate"`
	QuantityThreshold decimal.Decimal `json:"quantity_threshold"`
	Active            bool            `json:"active"`
	Tags              []string        `json:"tags"`
}

func newDiscountResponse(discount *models.Discount) discountResponse {
	tags := make([]string, 0, len(discount.Tags))
	for _, tag := range discount.Tags {
		tags = append(tags, tag.Name)
	}
	return discountResponse{
		ID:                discount.ID,
		Name:              discount.Name,
		Rate:              discount.Rate,
		QuantityThreshold: discount.QuantityThreshold,
		Active:            discount.Active,
		Tags:              tags,
	}
}

type priceClassResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Discounts   []discountResponse `json:"discounts"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newPriceClassResponse(class *models.PriceClass) priceClassResponse {
	discounts := make([]discountResponse, 0, len(class.Discounts))
	for i := range class.Discounts {
		discounts = append(discounts, newDiscountResponse(&class.Discounts[i]))
	}
	return priceClassResponse{
		ID:          class.ID,
		Name:        class.Name,
		Description: class.Description,
		Discounts:   discounts,
		CreatedAt:   class.CreatedAt,
		UpdatedAt:   class.UpdatedAt,
	}
}
