package catalog

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// BestDiscount selects the single discount a quantity qualifies for: among
// candidates with quantityThreshold <= quantity, the one with the largest
// threshold wins. Equal thresholds are broken by the higher rate, so the
// selection stays deterministic regardless of candidate order. Returns nil
// when no threshold is met.
func BestDiscount(candidates []models.Discount, quantity decimal.Decimal) *models.Discount {
	var selected *models.Discount
	for i := range candidates {
		candidate := &candidates[i]
		if !candidate.Active {
			continue
		}
		if candidate.QuantityThreshold.GreaterThan(quantity) {
			continue
		}
		if selected == nil ||
			candidate.QuantityThreshold.GreaterThan(selected.QuantityThreshold) ||
			(candidate.QuantityThreshold.Equal(selected.QuantityThreshold) && candidate.Rate.GreaterThan(selected.Rate)) {
			selected = candidate
		}
	}
	if selected == nil {
		return nil
	}
	chosen := *selected
	return &chosen
}

// SortApplicable orders active discounts ascending by quantity threshold for
// display. This is the listing contract: thresholds are not compared against
// any quantity here.
func SortApplicable(candidates []models.Discount) []models.Discount {
	applicable := make([]models.Discount, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Active {
			applicable = append(applicable, candidate)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].QuantityThreshold.LessThan(applicable[j].QuantityThreshold)
	})
	return applicable
}
