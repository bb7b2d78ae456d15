package enums

import "fmt"

// PricePolicyKind selects how an item's pre-tax price is derived.
type PricePolicyKind string

const (
	// PricePolicyFromCategory defers to the nearest ancestor category policy.
	PricePolicyFromCategory PricePolicyKind = "from_category"
	// PricePolicyRatioOfPurchase multiplies the purchase price by a ratio.
	PricePolicyRatioOfPurchase PricePolicyKind = "ratio_of_purchase"
)

var validPricePolicyKinds = []PricePolicyKind{
	PricePolicyFromCategory,
	PricePolicyRatioOfPurchase,
}

// String implements fmt.Stringer.
func (k PricePolicyKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PricePolicyKind.
func (k PricePolicyKind) IsValid() bool {
	for _, candidate := range validPricePolicyKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePricePolicyKind converts raw input into a PricePolicyKind.
func ParsePricePolicyKind(value string) (PricePolicyKind, error) {
	for _, candidate := range validPricePolicyKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price policy kind %q", value)
}
