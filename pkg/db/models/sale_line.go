package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SaleLine is one row of a Sale: a snapshot of price, quantity, VAT rate and
// resolved discount taken at edit time. Blank lines are layout spacers that
// keep their row but contribute zero to every derived amount.
type SaleLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID      uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ItemID      *uuid.UUID      `gorm:"column:item_id;type:uuid"`
	Item        *StoreItem      `gorm:"foreignKey:ItemID"`
	Text        string          `gorm:"column:text;not null;default:''"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null;default:0"`
	PreTaxPrice decimal.Decimal `gorm:"column:pre_tax_price;type:numeric(20,4);not null;default:0"`
	VatRateID   *uuid.UUID      `gorm:"column:vat_rate_id;type:uuid"`
	VatRate     *VatRate        `gorm:"foreignKey:VatRateID"`
	DiscountID  *uuid.UUID      `gorm:"column:discount_id;type:uuid"`
	Discount    *Discount       `gorm:"foreignKey:DiscountID"`
	IsBlank     bool            `gorm:"column:is_blank;not null;default:false"`
	OrderIndex  int             `gorm:"column:order_index;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPrice is the pre-tax price after the resolved discount.
func (l SaleLine) UnitPrice() decimal.Decimal {
	if l.IsBlank {
		return decimal.Zero
	}
	if l.Discount != nil {
		return l.PreTaxPrice.Mul(decimal.NewFromInt(1).Sub(l.Discount.Rate.Div(hundred)))
	}
	return l.PreTaxPrice
}

// VatPrice is the VAT amount on a single unit. Lines without a VAT rate carry
// no VAT.
func (l SaleLine) VatPrice() decimal.Decimal {
	if l.IsBlank || l.VatRate == nil {
		return decimal.Zero
	}
	return l.UnitPrice().Mul(l.VatRate.Rate).Div(hundred)
}

// VatInclusivePrice is the unit price plus VAT.
func (l SaleLine) VatInclusivePrice() decimal.Decimal {
	return l.UnitPrice().Add(l.VatPrice())
}

// TotalVatPrice is the VAT amount across the line quantity.
func (l SaleLine) TotalVatPrice() decimal.Decimal {
	if l.IsBlank {
		return decimal.Zero
	}
	return l.VatPrice().Mul(l.Quantity)
}

// VatInclusiveTotalPrice is the VAT-inclusive amount across the line quantity.
func (l SaleLine) VatInclusiveTotalPrice() decimal.Decimal {
	if l.IsBlank {
		return decimal.Zero
	}
	return l.VatInclusivePrice().Mul(l.Quantity)
}

// PreTaxTotalPrice is the discounted pre-tax amount across the line quantity.
func (l SaleLine) PreTaxTotalPrice() decimal.Decimal {
	if l.IsBlank {
		return decimal.Zero
	}
	return l.UnitPrice().Mul(l.Quantity)
}
