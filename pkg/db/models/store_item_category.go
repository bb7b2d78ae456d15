package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreItemCategory is one node of the category forest. Names are unique after
// trimming; duplicate creations merge into the surviving row.
type StoreItemCategory struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string             `gorm:"column:name;not null;uniqueIndex"`
	ParentID      *uuid.UUID         `gorm:"column:parent_id;type:uuid"`
	Parent        *StoreItemCategory `gorm:"foreignKey:ParentID"`
	PricePolicyID *uuid.UUID         `gorm:"column:price_policy_id;type:uuid"`
	PricePolicy   *PricePolicy       `gorm:"foreignKey:PricePolicyID"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
