package actions

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/crmstore-backend/pkg/errors"
)

func newTestActionsService(t *testing.T, repo *stubActionsRepo) Service {
	t.Helper()
	sync, err := NewAmountSync(repo)
	if err != nil {
		t.Fatalf("new amount sync: %v", err)
	}
	svc, err := NewService(repo, stubTxRunner{}, sync)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAmountSyncPreTaxBasis(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	actionType := repo.addType("offer", true, false)
	action := repo.addAction("big deal", &actionType.ID, nil)
	sale := repo.addSale(action.ID)
	vat := &models.VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	repo.addLine(sale.ID, 1, "100", "2", vat, nil)

	sync, err := NewAmountSync(repo)
	if err != nil {
		t.Fatalf("new amount sync: %v", err)
	}
	if err := sync.Recalculate(context.Background(), nil, sale.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.actions[action.ID].Amount; !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected the pre-tax total 200, got %s", got)
	}
}

func TestAmountSyncVatInclusiveBasis(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	actionType := repo.addType("invoice", false, false)
	action := repo.addAction("big deal", &actionType.ID, nil)
	sale := repo.addSale(action.ID)
	vat := &models.VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	repo.addLine(sale.ID, 1, "100", "2", vat, nil)

	sync, err := NewAmountSync(repo)
	if err != nil {
		t.Fatalf("new amount sync: %v", err)
	}
	if err := sync.Recalculate(context.Background(), nil, sale.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.actions[action.ID].Amount; !got.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected the vat-inclusive total 250, got %s", got)
	}
}

func TestAmountSyncDefaultsToPreTaxWithoutType(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	action := repo.addAction("untyped", nil, nil)
	sale := repo.addSale(action.ID)
	vat := &models.VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	repo.addLine(sale.ID, 1, "100", "1", vat, nil)

	sync, err := NewAmountSync(repo)
	if err != nil {
		t.Fatalf("new amount sync: %v", err)
	}
	if err := sync.Recalculate(context.Background(), nil, sale.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.actions[action.ID].Amount; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected the pre-tax basis by default, got %s", got)
	}
}

func TestCloneActionRespectsFollowUpGraph(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	offer := repo.addType("offer", true, false)
	order := repo.addType("order", true, false)
	unrelated := repo.addType("note", true, false)
	repo.allowNext(offer, order)

	action := repo.addAction("deal", &offer.ID, nil)
	svc := newTestActionsService(t, repo)

	if _, err := svc.CloneAction(context.Background(), action.ID, unrelated.ID); err == nil {
		t.Fatal("expected the follow-up graph to reject the clone")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}

	clone, err := svc.CloneAction(context.Background(), action.ID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clone.TypeID == nil || *clone.TypeID != order.ID {
		t.Fatalf("expected the clone typed as order, got %v", clone.TypeID)
	}
	if clone.ID == action.ID {
		t.Fatalf("expected a new action row")
	}
}

func TestCloneActionDeepCopiesSale(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	offer := repo.addType("offer", true, false)
	invoice := repo.addType("invoice", false, false)
	repo.allowNext(offer, invoice)

	userID := uuid.New()
	action := repo.addAction("deal", &offer.ID, &userID)
	sale := repo.addSale(action.ID)
	vat := &models.VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	repo.addLine(sale.ID, 1, "100", "2", vat, nil)
	repo.addBlankLine(sale.ID, 2)
	repo.addLine(sale.ID, 3, "50", "1", nil, nil)

	svc := newTestActionsService(t, repo)

	clone, err := svc.CloneAction(context.Background(), action.ID, invoice.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cloneSale := repo.saleByAction(clone.ID)
	if cloneSale == nil {
		t.Fatal("expected the sale copied onto the clone")
	}
	if cloneSale.ID == sale.ID {
		t.Fatal("expected an independent sale row")
	}

	cloneLines := repo.linesOf(cloneSale.ID)
	if len(cloneLines) != 3 {
		t.Fatalf("expected 3 copied lines, got %d", len(cloneLines))
	}
	for i, want := range []int{1, 2, 3} {
		if cloneLines[i].OrderIndex != want {
			t.Fatalf("line %d: expected order index %d, got %d", i, want, cloneLines[i].OrderIndex)
		}
	}
	if !cloneLines[1].IsBlank {
		t.Fatal("expected the blank spacer preserved")
	}

	// The clone's amount is derived under its own type's basis:
	// 2 x 100 at 25% VAT plus 1 x 50 without VAT, gross.
	if got := repo.actions[clone.ID].Amount; !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected the clone amount 300, got %s", got)
	}

	// Mutating the source afterwards leaves the clone untouched.
	sourceLines := repo.linesOf(sale.ID)
	repo.lines[sourceLines[0].ID].Quantity = decimal.NewFromInt(99)
	if got := repo.linesOf(cloneSale.ID)[0].Quantity; !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected the copies to diverge, got %s", got)
	}
}

func TestCloneActionClearsAssigneeWhenConfigured(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	offer := repo.addType("offer", true, false)
	handoff := repo.addType("handoff", true, true)
	repo.allowNext(offer, handoff)

	userID := uuid.New()
	action := repo.addAction("deal", &offer.ID, &userID)
	svc := newTestActionsService(t, repo)

	clone, err := svc.CloneAction(context.Background(), action.ID, handoff.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clone.AssignedUserID != nil {
		t.Fatalf("expected the assignee cleared, got %v", clone.AssignedUserID)
	}
}

func TestCloneActionWithoutSale(t *testing.T) {
	t.Parallel()

	repo := newStubActionsRepo()
	offer := repo.addType("offer", true, false)
	order := repo.addType("order", true, false)
	repo.allowNext(offer, order)

	action := repo.addAction("deal", &offer.ID, nil)
	svc := newTestActionsService(t, repo)

	clone, err := svc.CloneAction(context.Background(), action.ID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saleByAction(clone.ID) != nil {
		t.Fatal("expected no sale on the clone")
	}
	if !clone.Amount.IsZero() {
		t.Fatalf("expected a zero amount, got %s", clone.Amount)
	}
}

func TestCreateActionTypeUnknownFollowUp(t *testing.T) {
	t.Parallel()

	svc := newTestActionsService(t, newStubActionsRepo())

	_, err := svc.CreateActionType(context.Background(), CreateActionTypeInput{
		Name:               "offer",
		AllowedNextTypeIDs: []uuid.UUID{uuid.New()},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubActionsRepo struct {
	actions   map[uuid.UUID]*models.Action
	types     map[uuid.UUID]*models.ActionType
	sales     map[uuid.UUID]*models.Sale
	lines     map[uuid.UUID]*models.SaleLine
	vatRates  map[uuid.UUID]*models.VatRate
	discounts map[uuid.UUID]*models.Discount
}

func newStubActionsRepo() *stubActionsRepo {
	return &stubActionsRepo{
		actions:   map[uuid.UUID]*models.Action{},
		types:     map[uuid.UUID]*models.ActionType{},
		sales:     map[uuid.UUID]*models.Sale{},
		lines:     map[uuid.UUID]*models.SaleLine{},
		vatRates:  map[uuid.UUID]*models.VatRate{},
		discounts: map[uuid.UUID]*models.Discount{},
	}
}

func (s *stubActionsRepo) addType(name string, preTax, clearAssignee bool) *models.ActionType {
	actionType := &models.ActionType{
		ID:                    uuid.New(),
		Name:                  name,
		ShowAmountAsPreTax:    preTax,
		NotAssignedWhenCloned: clearAssignee,
	}
	s.types[actionType.ID] = actionType
	return actionType
}

func (s *stubActionsRepo) allowNext(from, to *models.ActionType) {
	from.AllowedNextTypes = append(from.AllowedNextTypes, *to)
}

func (s *stubActionsRepo) addAction(subject string, typeID, assignee *uuid.UUID) *models.Action {
	action := &models.Action{
		ID:             uuid.New(),
		Subject:        subject,
		TypeID:         typeID,
		AssignedUserID: assignee,
		Amount:         decimal.Zero,
	}
	s.actions[action.ID] = action
	return action
}

func (s *stubActionsRepo) addSale(actionID uuid.UUID) *models.Sale {
	sale := &models.Sale{ID: uuid.New(), ActionID: actionID}
	s.sales[sale.ID] = sale
	return sale
}

func (s *stubActionsRepo) addLine(saleID uuid.UUID, orderIndex int, price, qty string, vat *models.VatRate, discount *models.Discount) *models.SaleLine {
	line := &models.SaleLine{
		ID:          uuid.New(),
		SaleID:      saleID,
		Text:        "row",
		Quantity:    decimal.RequireFromString(qty),
		PreTaxPrice: decimal.RequireFromString(price),
		VatRate:     vat,
		Discount:    discount,
		OrderIndex:  orderIndex,
	}
	if vat != nil {
		line.VatRateID = &vat.ID
		s.vatRates[vat.ID] = vat
	}
	if discount != nil {
		line.DiscountID = &discount.ID
		s.discounts[discount.ID] = discount
	}
	s.lines[line.ID] = line
	return line
}

func (s *stubActionsRepo) addBlankLine(saleID uuid.UUID, orderIndex int) *models.SaleLine {
	line := &models.SaleLine{
		ID:         uuid.New(),
		SaleID:     saleID,
		IsBlank:    true,
		OrderIndex: orderIndex,
	}
	s.lines[line.ID] = line
	return line
}

func (s *stubActionsRepo) saleByAction(actionID uuid.UUID) *models.Sale {
	for _, sale := range s.sales {
		if sale.ActionID == actionID {
			return sale
		}
	}
	return nil
}

// linesOf emulates the preload of VAT rates and discounts onto each line.
func (s *stubActionsRepo) linesOf(saleID uuid.UUID) []models.SaleLine {
	var lines []models.SaleLine
	for _, line := range s.lines {
		if line.SaleID == saleID {
			copied := *line
			if copied.VatRate == nil && copied.VatRateID != nil {
				copied.VatRate = s.vatRates[*copied.VatRateID]
			}
			if copied.Discount == nil && copied.DiscountID != nil {
				copied.Discount = s.discounts[*copied.DiscountID]
			}
			lines = append(lines, copied)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].OrderIndex < lines[j].OrderIndex })
	return lines
}

func (s *stubActionsRepo) WithTx(tx *gorm.DB) ActionsRepository { return s }

func (s *stubActionsRepo) CreateAction(ctx context.Context, action *models.Action) (*models.Action, error) {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	stored := *action
	s.actions[action.ID] = &stored
	return action, nil
}

func (s *stubActionsRepo) FindActionByID(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	action, ok := s.actions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *action
	if copied.TypeID != nil {
		if actionType, ok := s.types[*copied.TypeID]; ok {
			copied.Type = actionType
		}
	}
	return &copied, nil
}

func (s *stubActionsRepo) UpdateAction(ctx context.Context, action *models.Action) (*models.Action, error) {
	if _, ok := s.actions[action.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	stored := *action
	s.actions[action.ID] = &stored
	return action, nil
}

func (s *stubActionsRepo) UpdateActionAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	action, ok := s.actions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	action.Amount = amount
	return nil
}

func (s *stubActionsRepo) CreateActionType(ctx context.Context, actionType *models.ActionType) (*models.ActionType, error) {
	if actionType.ID == uuid.Nil {
		actionType.ID = uuid.New()
	}
	stored := *actionType
	s.types[actionType.ID] = &stored
	return actionType, nil
}

func (s *stubActionsRepo) FindActionTypeByID(ctx context.Context, id uuid.UUID) (*models.ActionType, error) {
	actionType, ok := s.types[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *actionType
	return &copied, nil
}

func (s *stubActionsRepo) FindSaleWithLines(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	sale, ok := s.sales[saleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sale
	copied.Lines = s.linesOf(saleID)
	return &copied, nil
}

func (s *stubActionsRepo) FindSaleByActionID(ctx context.Context, actionID uuid.UUID) (*models.Sale, error) {
	sale := s.saleByAction(actionID)
	if sale == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sale
	copied.Lines = s.linesOf(sale.ID)
	return &copied, nil
}

func (s *stubActionsRepo) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	stored := *sale
	s.sales[sale.ID] = &stored
	return sale, nil
}

func (s *stubActionsRepo) CreateSaleLine(ctx context.Context, line *models.SaleLine) (*models.SaleLine, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	stored := *line
	s.lines[line.ID] = &stored
	return line, nil
}
