package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
	"github.com/angelmondragon/crmstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes action management: action types with their follow-up
// graph, action CRUD and workflow cloning.
type Service interface {
	CreateActionType(ctx context.Context, input CreateActionTypeInput) (*models.ActionType, error)
	CreateAction(ctx context.Context, input CreateActionInput) (*models.Action, error)
	GetAction(ctx context.Context, actionID uuid.UUID) (*models.Action, error)
	ListActions(ctx context.Context, input ListActionsInput) (*ActionPage, error)
	UpdateAction(ctx context.Context, actionID uuid.UUID, input UpdateActionInput) (*models.Action, error)
	CloneAction(ctx context.Context, actionID, targetTypeID uuid.UUID) (*models.Action, error)
}

type service struct {
	repo ActionsRepository
	tx   txRunner
	sync *AmountSync
}

// NewService builds an actions service backed by the provided stack.
func NewService(repo ActionsRepository, tx txRunner, sync *AmountSync) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("actions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sync == nil {
		return nil, fmt.Errorf("amount sync required")
	}
	return &service{repo: repo, tx: tx, sync: sync}, nil
}

// CreateActionTypeInput captures the payload to create an action type.
type CreateActionTypeInput struct {
	Name                  string
	ShowAmountAsPreTax    bool
	NotAssignedWhenCloned bool
	AllowedNextTypeIDs    []uuid.UUID
}

// CreateActionInput captures the payload to create an action.
type CreateActionInput struct {
	Subject        string
	TypeID         *uuid.UUID
	PlannedDate    *time.Time
	AssignedUserID *uuid.UUID
}

// UpdateActionInput holds optional mutation values for an action. The cached
// amount is never writable from the outside.
type UpdateActionInput struct {
	Subject        *string
	Done           *bool
	PlannedDate    *time.Time
	AssignedUserID *uuid.UUID
}

// CreateActionType inserts an action type with its allowed follow-up set.
func (s *service) CreateActionType(ctx context.Context, input CreateActionTypeInput) (*models.ActionType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action type name is required")
	}

	next := make([]models.ActionType, 0, len(input.AllowedNextTypeIDs))
	for _, id := range input.AllowedNextTypeIDs {
		target, err := s.repo.FindActionTypeByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "allowed next type not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load action type")
		}
		next = append(next, *target)
	}

	actionType := &models.ActionType{
		Name:                  name,
		ShowAmountAsPreTax:    input.ShowAmountAsPreTax,
		NotAssignedWhenCloned: input.NotAssignedWhenCloned,
		AllowedNextTypes:      next,
	}
	created, err := s.repo.CreateActionType(ctx, actionType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert action type")
	}
	return created, nil
}

// CreateAction inserts an action.
func (s *service) CreateAction(ctx context.Context, input CreateActionInput) (*models.Action, error) {
	if input.TypeID != nil {
		if _, err := s.repo.FindActionTypeByID(ctx, *input.TypeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action type not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load action type")
		}
	}

	action := &models.Action{
		Subject:        strings.TrimSpace(input.Subject),
		TypeID:         input.TypeID,
		PlannedDate:    input.PlannedDate,
		AssignedUserID: input.AssignedUserID,
	}
	created, err := s.repo.CreateAction(ctx, action)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert action")
	}
	return s.GetAction(ctx, created.ID)
}

// GetAction loads an action with its type.
func (s *service) GetAction(ctx context.Context, actionID uuid.UUID) (*models.Action, error) {
	action, err := s.repo.FindActionByID(ctx, actionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "action not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load action")
	}
	return action, nil
}

// ListActionsInput captures cursor pagination inputs for the action list.
type ListActionsInput struct {
	Limit   int
	Cursor  string
	Subject string
}

// ActionPage is one page of the action list.
type ActionPage struct {
	Actions    []models.Action
	NextCursor string
}

// ListActions pages actions newest first, optionally filtered by subject
// substring.
func (s *service) ListActions(ctx context.Context, input ListActionsInput) (*ActionPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.ListActions(ctx, cursor, pagination.LimitWithBuffer(input.Limit), strings.TrimSpace(input.Subject))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list actions")
	}

	page := &ActionPage{Actions: rows}
	if len(rows) > limit {
		page.Actions = rows[:limit]
		last := page.Actions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UpdateAction mutates an action's workflow fields.
func (s *service) UpdateAction(ctx context.Context, actionID uuid.UUID, input UpdateActionInput) (*models.Action, error) {
	action, err := s.GetAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if input.Subject != nil {
		action.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.Done != nil {
		action.Done = *input.Done
	}
	if input.PlannedDate != nil {
		action.PlannedDate = input.PlannedDate
	}
	if input.AssignedUserID != nil {
		action.AssignedUserID = input.AssignedUserID
	}
	action.Type = nil

	if _, err := s.repo.UpdateAction(ctx, action); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update action")
	}
	return s.GetAction(ctx, actionID)
}

// CloneAction produces the follow-up action of the target type. The source
// type's follow-up graph gates the clone. The sale, when present, is
// deep-copied line by line with order preserved, and the clone's amount is
// derived under its own type's basis, so the copies diverge freely afterwards.
func (s *service) CloneAction(ctx context.Context, actionID, targetTypeID uuid.UUID) (*models.Action, error) {
	source, err := s.GetAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	targetType, err := s.repo.FindActionTypeByID(ctx, targetTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target action type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load action type")
	}
	if source.Type != nil && !source.Type.AllowsNext(targetTypeID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target type is not an allowed follow-up")
	}

	clone := &models.Action{
		Subject:        source.Subject,
		TypeID:         &targetTypeID,
		PlannedDate:    source.PlannedDate,
		AssignedUserID: source.AssignedUserID,
	}
	if targetType.NotAssignedWhenCloned {
		clone.AssignedUserID = nil
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.CreateAction(ctx, clone); err != nil {
			return err
		}

		sourceSale, err := txRepo.FindSaleByActionID(ctx, source.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		copiedSale, err := txRepo.CreateSale(ctx, &models.Sale{ActionID: clone.ID})
		if err != nil {
			return err
		}
		for _, line := range sourceSale.Lines {
			copied := models.SaleLine{
				SaleID:      copiedSale.ID,
				ItemID:      line.ItemID,
				Text:        line.Text,
				Quantity:    line.Quantity,
				PreTaxPrice: line.PreTaxPrice,
				VatRateID:   line.VatRateID,
				DiscountID:  line.DiscountID,
				IsBlank:     line.IsBlank,
				OrderIndex:  line.OrderIndex,
			}
			if _, err := txRepo.CreateSaleLine(ctx, &copied); err != nil {
				return err
			}
		}
		return s.sync.Recalculate(ctx, tx, copiedSale.ID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clone action")
	}

	return s.GetAction(ctx, clone.ID)
}
