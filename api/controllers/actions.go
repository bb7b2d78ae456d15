package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crmstore-backend/api/responses"
	"github.com/angelmondragon/crmstore-backend/api/validators"
	actionsvc "github.com/angelmondragon/crmstore-backend/internal/actions"
	"github.com/angelmondragon/crmstore-backend/pkg/db/models"
	"github.com/angelmondragon/crmstore-backend/pkg/logger"
)

// ActionTypeCreate handles creation of an action type with its follow-up set.
func ActionTypeCreate(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createActionTypeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actionType, err := svc.CreateActionType(r.Context(), actionsvc.CreateActionTypeInput{
			Name:                  payload.Name,
			ShowAmountAsPreTax:    payload.ShowAmountAsPreTax,
			NotAssignedWhenCloned: payload.NotAssignedWhenCloned,
			AllowedNextTypeIDs:    payload.AllowedNextTypeIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newActionTypeResponse(actionType))
	}
}

// ActionCreate handles creation of an action.
func ActionCreate(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := svc.CreateAction(r.Context(), actionsvc.CreateActionInput{
			Subject:        payload.Subject,
			TypeID:         payload.TypeID,
			PlannedDate:    payload.PlannedDate,
			AssignedUserID: payload.AssignedUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newActionResponse(action))
	}
}

// ActionList pages actions newest first. Supports a subject substring filter
// via the q query parameter.
func ActionList(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListActions(r.Context(), actionsvc.ListActionsInput{
			Limit:   limit,
			Cursor:  r.URL.Query().Get("cursor"),
			Subject: validators.SanitizeString(r.URL.Query().Get("q"), 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]actionResponse, 0, len(page.Actions))
		for i := range page.Actions {
			items = append(items, newActionResponse(&page.Actions[i]))
		}
		responses.WriteSuccess(w, actionPageResponse{Actions: items, NextCursor: page.NextCursor})
	}
}

// ActionGet returns one action with its type.
func ActionGet(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionID, err := pathUUID(r, "actionId", "action id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := svc.GetAction(r.Context(), actionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newActionResponse(action))
	}
}

// ActionUpdate handles partial mutation of an action. The cached amount is not
// writable here.
func ActionUpdate(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionID, err := pathUUID(r, "actionId", "action id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := svc.UpdateAction(r.Context(), actionID, actionsvc.UpdateActionInput{
			Subject:        payload.Subject,
			Done:           payload.Done,
			PlannedDate:    payload.PlannedDate,
			AssignedUserID: payload.AssignedUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newActionResponse(action))
	}
}

// ActionClone produces a follow-up action of the requested type, deep-copying
// the sale when present.
func ActionClone(svc actionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actionID, err := pathUUID(r, "actionId", "action id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cloneActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clone, err := svc.CloneAction(r.Context(), actionID, payload.TargetTypeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newActionResponse(clone))
	}
}

type createActionTypeRequest struct {
	Name                  string      `json:"name" validate:"required,max=128"`
	ShowAmountAsPreTax    bool        `json:"show_amount_as_pre_tax"`
	NotAssignedWhenCloned bool        `json:"not_assigned_when_cloned"`
	AllowedNextTypeIDs    []uuid.UUID `json:"allowed_next_type_ids"`
}

type createActionRequest struct {
	Subject        string     `json:"subject" validate:"max=256"`
	TypeID         *uuid.UUID `json:"type_id"`
	PlannedDate    *time.Time `json:"planned_date"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

type updateActionRequest struct {
	Subject        *string    `json:"subject"`
	Done           *bool      `json:"done"`
	PlannedDate    *time.Time `json:"planned_date"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

type cloneActionRequest struct {
	TargetTypeID uuid.UUID `json:"target_type_id" validate:"required"`
}

type actionTypeResponse struct {
	ID                    uuid.UUID   `json:"id"`
	Name                  string      `json:"name"`
	ShowAmountAsPreTax    bool        `json:"show_amount_as_pre_tax"`
	NotAssignedWhenCloned bool        `json:"not_assigned_when_cloned"`
	AllowedNextTypeIDs    []uuid.UUID `json:"allowed_next_type_ids"`
}

func newActionTypeResponse(actionType *models.ActionType) actionTypeResponse {
	next := make([]uuid.UUID, 0, len(actionType.AllowedNextTypes))
	for _, t := range actionType.AllowedNextTypes {
		next = append(next, t.ID)
	}
	return actionTypeResponse{
		ID:                    actionType.ID,
		Name:                  actionType.Name,
		ShowAmountAsPreTax:    actionType.ShowAmountAsPreTax,
		NotAssignedWhenCloned: actionType.NotAssignedWhenCloned,
		AllowedNextTypeIDs:    next,
	}
}

type actionPageResponse struct {
	Actions    []actionResponse `json:"actions"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type actionResponse struct {
	ID             uuid.UUID       `json:"id"`
	Subject        string          `json:"subject"`
	TypeID         *uuid.UUID      `json:"type_id,omitempty"`
	TypeName       *string         `json:"type_name,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Done           bool            `json:"done"`
	PlannedDate    *time.Time      `json:"planned_date,omitempty"`
	AssignedUserID *uuid.UUID      `json:"assigned_user_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newActionResponse(action *models.Action) actionResponse {
	resp := actionResponse{
		ID:             action.ID,
		Subject:        action.Subject,
		TypeID:         action.TypeID,
		Amount:         action.Amount,
		Done:           action.Done,
		PlannedDate:    action.PlannedDate,
		AssignedUserID: action.AssignedUserID,
		CreatedAt:      action.CreatedAt,
		UpdatedAt:      action.UpdatedAt,
	}
	if action.Type != nil {
		name := action.Type.Name
		resp.TypeName = &name
	}
	return resp
}
