package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

func discount(name string, rate, threshold int64, active bool) models.Discount {
	return models.Discount{
		Name:              name,
		Rate:              decimal.NewFromInt(rate),
		QuantityThreshold: decimal.NewFromInt(threshold),
		Active:            active,
	}
}

func TestBestDiscountLargestThresholdWins(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{
		discount("base", 5, 0, true),
		discount("bulk", 10, 10, true),
		discount("pallet", 20, 50, true),
	}

	if got := BestDiscount(candidates, decimal.NewFromInt(49)); got == nil || got.Name != "bulk" {
		t.Fatalf("qty 49: expected bulk, got %+v", got)
	}
	if got := BestDiscount(candidates, decimal.NewFromInt(50)); got == nil || got.Name != "pallet" {
		t.Fatalf("qty 50: expected pallet, got %+v", got)
	}
	if got := BestDiscount(candidates, decimal.NewFromInt(3)); got == nil || got.Name != "base" {
		t.Fatalf("qty 3: expected the zero-threshold discount, got %+v", got)
	}
}

func TestBestDiscountNoQualifier(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{discount("bulk", 10, 10, true)}
	if got := BestDiscount(candidates, decimal.NewFromInt(9)); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := BestDiscount(nil, decimal.NewFromInt(100)); got != nil {
		t.Fatalf("expected nil for empty candidates, got %+v", got)
	}
}

func TestBestDiscountSkipsInactive(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{
		discount("retired", 50, 10, false),
		discount("bulk", 10, 10, true),
	}
	if got := BestDiscount(candidates, decimal.NewFromInt(20)); got == nil || got.Name != "bulk" {
		t.Fatalf("expected bulk, got %+v", got)
	}
}

func TestBestDiscountTieBrokenByRate(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{
		discount("weak", 5, 10, true),
		discount("strong", 15, 10, true),
	}
	if got := BestDiscount(candidates, decimal.NewFromInt(10)); got == nil || got.Name != "strong" {
		t.Fatalf("expected the higher rate on a threshold tie, got %+v", got)
	}

	// Deterministic regardless of order.
	reversed := []models.Discount{candidates[1], candidates[0]}
	if got := BestDiscount(reversed, decimal.NewFromInt(10)); got == nil || got.Name != "strong" {
		t.Fatalf("expected strong after reorder, got %+v", got)
	}
}

func TestBestDiscountFractionalQuantity(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{
		discount("base", 5, 0, true),
		{Name: "half", Rate: decimal.NewFromInt(10), QuantityThreshold: decimal.RequireFromString("2.5"), Active: true},
	}
	if got := BestDiscount(candidates, decimal.RequireFromString("2.5")); got == nil || got.Name != "half" {
		t.Fatalf("expected the fractional threshold to qualify, got %+v", got)
	}
	if got := BestDiscount(candidates, decimal.RequireFromString("2.4")); got == nil || got.Name != "base" {
		t.Fatalf("expected base below the fractional threshold, got %+v", got)
	}
}

func TestSortApplicableAscendingActiveOnly(t *testing.T) {
	t.Parallel()

	candidates := []models.Discount{
		discount("pallet", 20, 50, true),
		discount("retired", 50, 5, false),
		discount("base", 5, 0, true),
		discount("bulk", 10, 10, true),
	}

	sorted := SortApplicable(candidates)
	if len(sorted) != 3 {
		t.Fatalf("expected 3 active discounts, got %d", len(sorted))
	}
	for i, want := range []string{"base", "bulk", "pallet"} {
		if sorted[i].Name != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, sorted[i].Name)
		}
	}
}
