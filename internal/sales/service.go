package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the sale ledger: line mutations with snapshot pricing,
// automatic discount resolution and action amount sync.
type Service interface {
	GetSale(ctx context.Context, actionID uuid.UUID) (*models.Sale, error)
	AddLine(ctx context.Context, actionID uuid.UUID, input AddLineInput) (*models.SaleLine, error)
	UpdateLine(ctx context.Context, lineID uuid.UUID, input UpdateLineInput) (*models.SaleLine, error)
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
}

type service struct {
	repo    SalesRepository
	tx      txRunner
	catalog catalogClient
	amounts amountSyncer
}

// NewService builds a sales service backed by the provided stack.
func NewService(repo SalesRepository, tx txRunner, catalog catalogClient, amounts amountSyncer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if amounts == nil {
		return nil, fmt.Errorf("amount syncer required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, amounts: amounts}, nil
}

// AddLineInput captures the payload to append a sale line. Text, price and
// VAT rate default from the referenced item when omitted.
type AddLineInput struct {
	ItemID      *uuid.UUID
	Text        string
	Quantity    decimal.Decimal
	PreTaxPrice *decimal.Decimal
	VatRateID   *uuid.UUID
	IsBlank     bool
}

// UpdateLineInput holds optional mutation values for a line.
type UpdateLineInput struct {
	Text        *string
	Quantity    *decimal.Decimal
	PreTaxPrice *decimal.Decimal
	VatRateID   *uuid.UUID
	IsBlank     *bool
}

// GetSale returns the action's sale with lines in ledger order, creating the
// sale on first access.
func (s *service) GetSale(ctx context.Context, actionID uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.EnsureSaleForAction(ctx, actionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

// AddLine appends a line to the action's sale. Item-backed lines snapshot the
// item's name, price and VAT rate and resolve the best discount for the
// quantity. Blank lines are forced to zero quantity and price. The owning
// action's amount is rewritten in the same transaction.
func (s *service) AddLine(ctx context.Context, actionID uuid.UUID, input AddLineInput) (*models.SaleLine, error) {
	if input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	line := &models.SaleLine{
		ItemID:      input.ItemID,
		Text:        strings.TrimSpace(input.Text),
		Quantity:    input.Quantity,
		VatRateID:   input.VatRateID,
		IsBlank:     input.IsBlank,
		PreTaxPrice: decimal.Zero,
	}
	if input.PreTaxPrice != nil {
		line.PreTaxPrice = *input.PreTaxPrice
	}

	if input.ItemID != nil {
		item, err := s.catalog.GetItem(ctx, *input.ItemID)
		if err != nil {
			return nil, err
		}
		if line.Text == "" {
			line.Text = item.Name
		}
		if input.PreTaxPrice == nil {
			line.PreTaxPrice = item.PreTaxPrice
		}
		if input.VatRateID == nil {
			line.VatRateID = item.VatRateID
		}
	}

	if line.IsBlank {
		forceBlank(line)
	} else if err := s.resolveDiscount(ctx, line); err != nil {
		return nil, err
	}

	if !line.IsBlank && line.ItemID == nil && line.Text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a line needs an item or a text")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		sale, err := txRepo.EnsureSaleForAction(ctx, actionID)
		if err != nil {
			return err
		}
		maxIndex, err := txRepo.MaxOrderIndex(ctx, sale.ID)
		if err != nil {
			return err
		}
		line.SaleID = sale.ID
		line.OrderIndex = maxIndex + 1

		if _, err := txRepo.CreateLine(ctx, line); err != nil {
			return err
		}
		return s.amounts.Recalculate(ctx, tx, sale.ID)
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add sale line")
	}

	created, err := s.repo.FindLineByID(ctx, line.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale line")
	}
	return created, nil
}

// UpdateLine mutates a line. A quantity change re-resolves the discount; text
// and price edits keep the snapshot untouched. The owning action's amount is
// rewritten in the same transaction.
func (s *service) UpdateLine(ctx context.Context, lineID uuid.UUID, input UpdateLineInput) (*models.SaleLine, error) {
	line, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale line")
	}
	if input.Quantity != nil && input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	quantityChanged := input.Quantity != nil && !input.Quantity.Equal(line.Quantity)

	if input.Text != nil {
		line.Text = strings.TrimSpace(*input.Text)
	}
	if input.Quantity != nil {
		line.Quantity = *input.Quantity
	}
	if input.PreTaxPrice != nil {
		line.PreTaxPrice = *input.PreTaxPrice
	}
	if input.VatRateID != nil {
		line.VatRateID = input.VatRateID
	}
	if input.IsBlank != nil {
		line.IsBlank = *input.IsBlank
	}

	if line.IsBlank {
		forceBlank(line)
	} else if quantityChanged {
		if err := s.resolveDiscount(ctx, line); err != nil {
			return nil, err
		}
	}

	line.VatRate = nil
	line.Discount = nil
	line.Item = nil

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.UpdateLine(ctx, line); err != nil {
			return err
		}
		return s.amounts.Recalculate(ctx, tx, line.SaleID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale line")
	}

	updated, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale line")
	}
	return updated, nil
}

// DeleteLine removes a line and rewrites the owning action's amount in the
// same transaction.
func (s *service) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	line, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale line not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale line")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeleteLine(ctx, line.ID); err != nil {
			return err
		}
		return s.amounts.Recalculate(ctx, tx, line.SaleID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sale line")
	}
	return nil
}

// resolveDiscount snapshots the best discount for the line's item and
// quantity. Lines without an item never carry a discount.
func (s *service) resolveDiscount(ctx context.Context, line *models.SaleLine) error {
	line.DiscountID = nil
	line.Discount = nil
	if line.ItemID == nil {
		return nil
	}

	item, err := s.catalog.GetItem(ctx, *line.ItemID)
	if err != nil {
		return err
	}
	discount, err := s.catalog.BestDiscountFor(ctx, item.TagIDs(), item.PriceClassID, line.Quantity)
	if err != nil {
		return err
	}
	if discount != nil {
		line.DiscountID = &discount.ID
		line.Discount = discount
	}
	return nil
}

// forceBlank resets the amounts of a layout spacer line.
func forceBlank(line *models.SaleLine) {
	line.Quantity = decimal.Zero
	line.PreTaxPrice = decimal.Zero
	line.DiscountID = nil
	line.Discount = nil
}
