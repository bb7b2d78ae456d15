package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreItem is a catalog entry. PreTaxPrice is derived from the price policy
// chain but cached on the row; PurchasePrice may legitimately be absent.
type StoreItem struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string             `gorm:"column:name;not null"`
	PurchasePrice *decimal.Decimal   `gorm:"column:purchase_price;type:numeric(20,4)"`
	PreTaxPrice   decimal.Decimal    `gorm:"column:pre_tax_price;type:numeric(20,4);not null;default:0"`
	VatRateID     *uuid.UUID         `gorm:"column:vat_rate_id;type:uuid"`
	VatRate       *VatRate           `gorm:"foreignKey:VatRateID"`
	CategoryID    *uuid.UUID         `gorm:"column:category_id;type:uuid"`
	Category      *StoreItemCategory `gorm:"foreignKey:CategoryID"`
	PricePolicyID *uuid.UUID         `gorm:"column:price_policy_id;type:uuid"`
	PricePolicy   *PricePolicy       `gorm:"foreignKey:PricePolicyID"`
	PriceClassID  *uuid.UUID         `gorm:"column:price_class_id;type:uuid"`
	PriceClass    *PriceClass        `gorm:"foreignKey:PriceClassID"`
	Tags          []Tag              `gorm:"many2many:store_item_tags"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// VatInclusivePrice returns the cached pre-tax price plus VAT, for catalog
// listings. Items without a VAT rate are returned as-is.
func (i StoreItem) VatInclusivePrice() decimal.Decimal {
	if i.VatRate == nil {
		return i.PreTaxPrice
	}
	return i.PreTaxPrice.Add(i.PreTaxPrice.Mul(i.VatRate.Rate).Div(decimal.NewFromInt(100)))
}

// TagIDs collects the ids of the item's tags.
func (i StoreItem) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.Tags))
	for _, tag := range i.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}
