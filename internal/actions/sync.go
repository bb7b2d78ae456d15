package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
)

// AmountSync rewrites the cached amount of the action owning a sale. Line
// mutations invoke it inside their own transaction so the amount and the line
// set never diverge.
type AmountSync struct {
	repo ActionsRepository
}

// NewAmountSync constructs the amount synchronizer.
func NewAmountSync(repo ActionsRepository) (*AmountSync, error) {
	if repo == nil {
		return nil, fmt.Errorf("actions repository required")
	}
	return &AmountSync{repo: repo}, nil
}

// Recalculate derives the sale total under the basis configured on the owning
// action's type and writes it onto the action. Passing the mutating
// transaction keeps the write atomic with the line change.
func (s *AmountSync) Recalculate(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	sale, err := repo.FindSaleWithLines(ctx, saleID)
	if err != nil {
		return err
	}
	action, err := repo.FindActionByID(ctx, sale.ActionID)
	if err != nil {
		return err
	}
	return repo.UpdateActionAmount(ctx, action.ID, saleAmount(sale, action))
}

// saleAmount picks the sale total matching the action's amount basis.
func saleAmount(sale *models.Sale, action *models.Action) decimal.Decimal {
	if action.AmountShownAsPreTax() {
		return sale.PreTaxTotalPrice()
	}
	return sale.VatInclusiveTotalPrice()
}
