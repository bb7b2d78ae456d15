package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the ordered collection of lines attached to one Action. Totals are
// always derived from the current line set, never stored.
type Sale struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActionID  uuid.UUID  `gorm:"column:action_id;type:uuid;not null;uniqueIndex"`
	Lines     []SaleLine `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// VatTotal is the aggregated VAT amount for one rate.
type VatTotal struct {
	VatRate VatRate
	Amount  decimal.Decimal
}

// PreTaxTotalPrice sums the discounted pre-tax amounts of all non-blank lines.
func (s Sale) PreTaxTotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		if line.IsBlank {
			continue
		}
		total = total.Add(line.PreTaxTotalPrice())
	}
	return total
}

// VatInclusiveTotalPrice sums the VAT-inclusive amounts of all lines.
func (s Sale) VatInclusiveTotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.VatInclusiveTotalPrice())
	}
	return total
}

// VatTotalAmounts groups lines by VAT rate value and sums their VAT amounts,
// ascending by rate. Distinct rate rows carrying the same value fold into one
// bucket. Lines without a VAT rate are excluded.
func (s Sale) VatTotalAmounts() []VatTotal {
	byRate := map[string]*VatTotal{}
	for _, line := range s.Lines {
		if line.IsBlank || line.VatRate == nil {
			continue
		}
		key := line.VatRate.Rate.String()
		entry, ok := byRate[key]
		if !ok {
			entry = &VatTotal{VatRate: *line.VatRate, Amount: decimal.Zero}
			byRate[key] = entry
		}
		entry.Amount = entry.Amount.Add(line.TotalVatPrice())
	}

	totals := make([]VatTotal, 0, len(byRate))
	for _, entry := range byRate {
		totals = append(totals, *entry)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].VatRate.Rate.LessThan(totals[j].VatRate.Rate)
	})
	return totals
}

// NextOrderIndex returns the auto-increment order index for a new line.
func (s Sale) NextOrderIndex() int {
	max := 0
	for _, line := range s.Lines {
		if line.OrderIndex > max {
			max = line.OrderIndex
		}
	}
	return max + 1
}
