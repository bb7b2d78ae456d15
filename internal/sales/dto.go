package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// SaleLineDTO is the API shape of one ledger row, amounts pre-computed.
type SaleLineDTO struct {
	ID                uuid.UUID        `json:"id"`
	ItemID            *uuid.UUID       `json:"item_id,omitempty"`
	Text              string           `json:"text"`
	Quantity          decimal.Decimal  `json:"quantity"`
	PreTaxPrice       decimal.Decimal  `json:"pre_tax_price"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	VatRate           *decimal.Decimal `json:"vat_rate,omitempty"`
	DiscountID        *uuid.UUID       `json:"discount_id,omitempty"`
	DiscountRate      *decimal.Decimal `json:"discount_rate,omitempty"`
	IsBlank           bool             `json:"is_blank"`
	OrderIndex        int              `json:"order_index"`
	PreTaxTotal       decimal.Decimal  `json:"pre_tax_total"`
	VatInclusiveTotal decimal.Decimal  `json:"vat_inclusive_total"`
}

// VatTotalDTO is one VAT bucket of the sale summary.
type VatTotalDTO struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// SaleDTO is the API shape of a sale with derived totals.
type SaleDTO struct {
	ID                uuid.UUID       `json:"id"`
	ActionID          uuid.UUID       `json:"action_id"`
	Lines             []SaleLineDTO   `json:"lines"`
	PreTaxTotal       decimal.Decimal `json:"pre_tax_total"`
	VatInclusiveTotal decimal.Decimal `json:"vat_inclusive_total"`
	VatTotals         []VatTotalDTO   `json:"vat_totals"`
}

// ToSaleLineDTO maps a line row onto its API shape.
func ToSaleLineDTO(line models.SaleLine) SaleLineDTO {
	dto := SaleLineDTO{
		ID:                line.ID,
		ItemID:            line.ItemID,
		Text:              line.Text,
		Quantity:          line.Quantity,
		PreTaxPrice:       line.PreTaxPrice,
		UnitPrice:         line.UnitPrice(),
		DiscountID:        line.DiscountID,
		IsBlank:           line.IsBlank,
		OrderIndex:        line.OrderIndex,
		PreTaxTotal:       line.PreTaxTotalPrice(),
		VatInclusiveTotal: line.VatInclusiveTotalPrice(),
	}
	if line.VatRate != nil {
		rate := line.VatRate.Rate
		dto.VatRate = &rate
	}
	if line.Discount != nil {
		rate := line.Discount.Rate
		dto.DiscountRate = &rate
	}
	return dto
}

// ToSaleDTO maps a sale with its lines onto the API shape.
func ToSaleDTO(sale *models.Sale) SaleDTO {
	dto := SaleDTO{
		ID:                sale.ID,
		ActionID:          sale.ActionID,
		Lines:             make([]SaleLineDTO, 0, len(sale.Lines)),
		PreTaxTotal:       sale.PreTaxTotalPrice(),
		VatInclusiveTotal: sale.VatInclusiveTotalPrice(),
	}
	for _, line := range sale.Lines {
		dto.Lines = append(dto.Lines, ToSaleLineDTO(line))
	}
	for _, total := range sale.VatTotalAmounts() {
		dto.VatTotals = append(dto.VatTotals, VatTotalDTO{Rate: total.VatRate.Rate, Amount: total.Amount})
	}
	return dto
}
