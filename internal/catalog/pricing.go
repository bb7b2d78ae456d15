package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/enums"
)

// ErrNoPolicy marks an entity with no concrete price policy anywhere on its
// category chain. Callers keep the existing cached price.
var ErrNoPolicy = errors.New("no concrete price policy")

// ConfigurationError is a soft pricing failure: an absent purchase price or an
// unparseable policy parameter. Callers keep the existing cached price instead
// of surfacing it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "price policy configuration: " + e.Reason
}

// governingPolicy returns the concrete ratio policy that applies to an entity
// with the given own policy and ancestor chain (nearest first). Own policies
// of kind from_category defer to the chain, as does an absent policy.
func governingPolicy(own *models.PricePolicy, ancestors []models.StoreItemCategory) *models.PricePolicy {
	if own != nil && own.Kind == enums.PricePolicyRatioOfPurchase {
		return own
	}
	for _, ancestor := range ancestors {
		if ancestor.PricePolicy != nil && ancestor.PricePolicy.Kind == enums.PricePolicyRatioOfPurchase {
			return ancestor.PricePolicy
		}
	}
	return nil
}

// ratioMultiplier parses the policy parameters into the decimal ratio.
func ratioMultiplier(policy *models.PricePolicy) (decimal.Decimal, error) {
	raw := strings.TrimSpace(policy.Parameters)
	if raw == "" {
		return decimal.Zero, &ConfigurationError{Reason: "empty ratio parameter"}
	}
	ratio, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ConfigurationError{Reason: fmt.Sprintf("invalid ratio parameter %q", raw)}
	}
	return ratio, nil
}

// ResolvePreTaxPrice computes an item's effective pre-tax price from its
// purchase price and the governing policy. The ancestor chain must be ordered
// nearest first. It returns ErrNoPolicy when nothing on the chain carries a
// concrete policy and a *ConfigurationError when the policy cannot be applied;
// in both cases the caller leaves the cached price unchanged. The result is
// the literal product, never rounded.
func ResolvePreTaxPrice(item *models.StoreItem, ancestors []models.StoreItemCategory) (decimal.Decimal, error) {
	policy := governingPolicy(item.PricePolicy, ancestors)
	if policy == nil {
		return decimal.Zero, ErrNoPolicy
	}

	ratio, err := ratioMultiplier(policy)
	if err != nil {
		return decimal.Zero, err
	}

	if item.PurchasePrice == nil {
		return decimal.Zero, &ConfigurationError{Reason: "purchase price absent"}
	}
	return item.PurchasePrice.Mul(ratio), nil
}
