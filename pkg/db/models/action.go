package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActionType configures how actions of one kind behave: which total feeds the
// cached amount, and what the clone operation may produce.
type ActionType struct {
	ID                    uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string       `gorm:"column:name;not null;uniqueIndex"`
	ShowAmountAsPreTax    bool         `gorm:"column:show_amount_as_pre_tax;not null;default:true"`
	NotAssignedWhenCloned bool         `gorm:"column:not_assigned_when_cloned;not null;default:false"`
	AllowedNextTypes      []ActionType `gorm:"many2many:action_type_allowed_next;joinForeignKey:FromTypeID;joinReferences:ToTypeID"`
	CreatedAt             time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsNext reports whether cloning into the target type is permitted.
func (t ActionType) AllowsNext(typeID uuid.UUID) bool {
	for _, next := range t.AllowedNextTypes {
		if next.ID == typeID {
			return true
		}
	}
	return false
}

// Action is the CRM record owning at most one Sale. Amount caches the sale
// total under the basis configured on the action type and is rewritten on
// every line mutation.
type Action struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Subject        string          `gorm:"column:subject;not null;default:''"`
	TypeID         *uuid.UUID      `gorm:"column:type_id;type:uuid"`
	Type           *ActionType     `gorm:"foreignKey:TypeID"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(20,4);not null;default:0"`
	Done           bool            `gorm:"column:done;not null;default:false"`
	PlannedDate    *time.Time      `gorm:"column:planned_date"`
	AssignedUserID *uuid.UUID      `gorm:"column:assigned_user_id;type:uuid"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AmountShownAsPreTax reports which basis feeds the cached amount. Actions
// without a type default to the pre-tax basis.
func (a Action) AmountShownAsPreTax() bool {
	if a.Type == nil {
		return true
	}
	return a.Type.ShowAmountAsPreTax
}
