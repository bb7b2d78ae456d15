package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/enums"
)

func ratioPolicy(ratio string) *models.PricePolicy {
	return &models.PricePolicy{Kind: enums.PricePolicyRatioOfPurchase, Parameters: ratio}
}

func fromCategoryPolicy() *models.PricePolicy {
	return &models.PricePolicy{Kind: enums.PricePolicyFromCategory}
}

func TestGoverningPolicyOwnRatioWins(t *testing.T) {
	t.Parallel()

	own := ratioPolicy("2")
	ancestors := []models.StoreItemCategory{{PricePolicy: ratioPolicy("3")}}

	if got := governingPolicy(own, ancestors); got != own {
		t.Fatalf("expected own policy, got %+v", got)
	}
}

func TestGoverningPolicyWalksNearestFirst(t *testing.T) {
	t.Parallel()

	near := ratioPolicy("1.5")
	far := ratioPolicy("3")
	ancestors := []models.StoreItemCategory{
		{PricePolicy: fromCategoryPolicy()},
		{PricePolicy: near},
		{PricePolicy: far},
	}

	if got := governingPolicy(fromCategoryPolicy(), ancestors); got != near {
		t.Fatalf("expected nearest concrete ancestor policy, got %+v", got)
	}
}

func TestGoverningPolicyNoneConcrete(t *testing.T) {
	t.Parallel()

	ancestors := []models.StoreItemCategory{
		{PricePolicy: fromCategoryPolicy()},
		{},
	}
	if got := governingPolicy(nil, ancestors); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestResolvePreTaxPriceExactProduct(t *testing.T) {
	t.Parallel()

	purchase := decimal.RequireFromString("10.01")
	item := &models.StoreItem{
		PurchasePrice: &purchase,
		PricePolicy:   ratioPolicy("1.5"),
	}

	price, err := ResolvePreTaxPrice(item, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("15.015"); !price.Equal(want) {
		t.Fatalf("expected %s, got %s", want, price)
	}
}

func TestResolvePreTaxPriceNoPolicy(t *testing.T) {
	t.Parallel()

	purchase := decimal.NewFromInt(10)
	item := &models.StoreItem{PurchasePrice: &purchase}

	_, err := ResolvePreTaxPrice(item, []models.StoreItemCategory{{PricePolicy: fromCategoryPolicy()}})
	if !errors.Is(err, ErrNoPolicy) {
		t.Fatalf("expected ErrNoPolicy, got %v", err)
	}
}

func TestResolvePreTaxPricePurchaseAbsent(t *testing.T) {
	t.Parallel()

	item := &models.StoreItem{PricePolicy: ratioPolicy("2")}

	_, err := ResolvePreTaxPrice(item, nil)
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestResolvePreTaxPriceBadRatio(t *testing.T) {
	t.Parallel()

	purchase := decimal.NewFromInt(10)
	item := &models.StoreItem{PurchasePrice: &purchase}

	for _, raw := range []string{"", "  ", "2x"} {
		_, err := ResolvePreTaxPrice(item, []models.StoreItemCategory{{PricePolicy: ratioPolicy(raw)}})
		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("ratio %q: expected ConfigurationError, got %v", raw, err)
		}
	}
}
