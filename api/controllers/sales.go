package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/api/responses"
	"github.com/angelmondragon/crmstore-backend/api/validators"
	salesvc "github.com/angelmondragon/crmstore-backend/internal/sales"
	"github.com/angelmondragon/crmstore-backend/pkg/logger"
)

// SaleGet returns the action's sale with derived totals, creating the empty
// sale on first access.
func SaleGet(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionID, err := pathUUID(r, "actionId", "action id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetSale(r.Context(), actionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, salesvc.ToSaleDTO(sale))
	}
}

// SaleLineAdd appends a line to the action's sale.
func SaleLineAdd(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionID, err := pathUUID(r, "actionId", "action id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addSaleLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddLine(r.Context(), actionID, salesvc.AddLineInput{
			ItemID:      payload.ItemID,
			Text:        payload.Text,
			Quantity:    payload.Quantity,
			PreTaxPrice: payload.PreTaxPrice,
			VatRateID:   payload.VatRateID,
			IsBlank:     payload.IsBlank,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, salesvc.ToSaleLineDTO(*line))
	}
}

// SaleLineUpdate mutates one ledger line.
func SaleLineUpdate(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := pathUUID(r, "lineId", "line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSaleLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateLine(r.Context(), lineID, salesvc.UpdateLineInput{
			Text:        payload.Text,
			Quantity:    payload.Quantity,
			PreTaxPrice: payload.PreTaxPrice,
			VatRateID:   payload.VatRateID,
			IsBlank:     payload.IsBlank,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, salesvc.ToSaleLineDTO(*line))
	}
}

// SaleLineDelete removes one ledger line.
func SaleLineDelete(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := pathUUID(r, "lineId", "line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteLine(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type addSaleLineRequest struct {
	ItemID      *uuid.UUID       `json:"item_id"`
	Text        string           `json:"text"`
	Quantity    decimal.Decimal  `json:"quantity"`
	PreTaxPrice *decimal.Decimal `json:"pre_tax_price"`
	VatRateID   *uuid.UUID       `json:"vat_rate_id"`
	IsBlank     bool             `json:"is_blank"`
}

type updateSaleLineRequest struct {
	Text        *string          `json:"text"`
	Quantity    *decimal.Decimal `json:"quantity"`
	PreTaxPrice *decimal.Decimal `json:"pre_tax_price"`
	VatRateID   *uuid.UUID       `json:"vat_rate_id"`
	IsBlank     *bool            `json:"is_blank"`
}
