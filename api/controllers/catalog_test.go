package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/angelmondragon/crmstore-backend/internal/catalog"
	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
	"github.com/angelmondragon/crmstore-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestItemCreate(t *testing.T) {
	logg := testLogger()

	t.Run("missing name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/items", strings.NewReader(`{"pre_tax_price":"10"}`))
		rec := httptest.NewRecorder()
		ItemCreate(&stubItemService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing name, got %d", rec.Code)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/items", strings.NewReader(`{"name":"Espresso","surprise":true}`))
		rec := httptest.NewRecorder()
		ItemCreate(&stubItemService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		body := `{"name":"Espresso","pre_tax_price":"2.50","tags":["coffee"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/items", strings.NewReader(body))
		stub := &stubItemService{}
		rec := httptest.NewRecorder()
		ItemCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.createdInput == nil {
			t.Fatalf("expected CreateItem to be invoked")
		}
		if stub.createdInput.Name != "Espresso" {
			t.Fatalf("unexpected name %q", stub.createdInput.Name)
		}
		if !stub.createdInput.PreTaxPrice.Equal(decimal.RequireFromString("2.50")) {
			t.Fatalf("unexpected price %s", stub.createdInput.PreTaxPrice)
		}
		if len(stub.createdInput.TagNames) != 1 || stub.createdInput.TagNames[0] != "coffee" {
			t.Fatalf("unexpected tags %v", stub.createdInput.TagNames)
		}

		var payload struct {
			Data itemResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.Name != "Espresso" {
			t.Fatalf("unexpected response name %q", payload.Data.Name)
		}
	})
}

func TestItemGet(t *testing.T) {
	logg := testLogger()
	itemID := uuid.New()

	makeRequest := func(param string, stub *stubItemService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/items/"+param, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("itemId", param)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		ItemGet(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid id", func(t *testing.T) {
		rec := makeRequest("not-a-uuid", &stubItemService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubItemService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "item not found")}
		rec := makeRequest(itemID.String(), stub)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubItemService{item: &models.StoreItem{ID: itemID, Name: "Espresso"}}
		rec := makeRequest(itemID.String(), stub)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.gotItemID != itemID {
			t.Fatalf("expected lookup for %s, got %s", itemID, stub.gotItemID)
		}
	})
}

func TestPriceClassCreate(t *testing.T) {
	logg := testLogger()

	t.Run("missing name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/price-classes", strings.NewReader(`{"description":"wholesale"}`))
		rec := httptest.NewRecorder()
		PriceClassCreate(&stubItemService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing name, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		discountID := uuid.New()
		body := `{"name":"Wholesale","description":"bulk buyers","discount_ids":["` + discountID.String() + `"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/price-classes", strings.NewReader(body))
		stub := &stubItemService{}
		rec := httptest.NewRecorder()
		PriceClassCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.priceClassInput == nil {
			t.Fatalf("expected CreatePriceClass to be invoked")
		}
		if stub.priceClassInput.Name != "Wholesale" {
			t.Fatalf("unexpected name %q", stub.priceClassInput.Name)
		}
		if len(stub.priceClassInput.DiscountIDs) != 1 || stub.priceClassInput.DiscountIDs[0] != discountID {
			t.Fatalf("unexpected discount ids %v", stub.priceClassInput.DiscountIDs)
		}

		var payload struct {
			Data priceClassResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.Name != "Wholesale" {
			t.Fatalf("unexpected response name %q", payload.Data.Name)
		}
	})
}

type stubItemService struct {
	createdInput    *catalogsvc.CreateItemInput
	priceClassInput *catalogsvc.CreatePriceClassInput
	item            *models.StoreItem
	getErr          error
	gotItemID       uuid.UUID
}

func (s *stubItemService) CreateCategory(ctx context.Context, input catalogsvc.CreateCategoryInput) (*models.StoreItemCategory, error) {
	panic("unimplemented")
}

func (s *stubItemService) RenameCategory(ctx context.Context, categoryID uuid.UUID, name string) (*models.StoreItemCategory, error) {
	panic("unimplemented")
}

func (s *stubItemService) SetCategoryPricePolicy(ctx context.Context, categoryID uuid.UUID, policyID *uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubItemService) CreatePricePolicy(ctx context.Context, input catalogsvc.CreatePricePolicyInput) (*models.PricePolicy, error) {
	panic("unimplemented")
}

func (s *stubItemService) CreateVatRate(ctx context.Context, rate decimal.Decimal) (*models.VatRate, error) {
	panic("unimplemented")
}

func (s *stubItemService) CreateItem(ctx context.Context, input catalogsvc.CreateItemInput) (*models.StoreItem, error) {
	s.createdInput = &input
	return &models.StoreItem{ID: uuid.New(), Name: input.Name, PreTaxPrice: input.PreTaxPrice}, nil
}

func (s *stubItemService) UpdateItem(ctx context.Context, itemID uuid.UUID, input catalogsvc.UpdateItemInput) (*models.StoreItem, error) {
	panic("unimplemented")
}

func (s *stubItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.StoreItem, error) {
	s.gotItemID = itemID
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.item, nil
}

func (s *stubItemService) EffectivePrice(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	panic("unimplemented")
}

func (s *stubItemService) ApplicableDiscounts(ctx context.Context, itemID uuid.UUID) ([]models.Discount, error) {
	panic("unimplemented")
}

func (s *stubItemService) CreateDiscount(ctx context.Context, input catalogsvc.CreateDiscountInput) (*models.Discount, error) {
	panic("unimplemented")
}

func (s *stubItemService) CreatePriceClass(ctx context.Context, input catalogsvc.CreatePriceClassInput) (*models.PriceClass, error) {
	s.priceClassInput = &input
	return &models.PriceClass{ID: uuid.New(), Name: input.Name, Description: input.Description}, nil
}

func (s *stubItemService) BestDiscountFor(ctx context.Context, tagIDs []uuid.UUID, priceClassID *uuid.UUID, quantity decimal.Decimal) (*models.Discount, error) {
	panic("unimplemented")
}
