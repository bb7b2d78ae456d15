package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/crmstore-backend/pkg/enums"
)

// PricePolicy is a shared pricing rule attachable to categories and items.
// Parameters is kept as raw text; ratio policies parse it at application time
// and treat unparseable values as a soft configuration error.
type PricePolicy struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string                `gorm:"column:name;not null"`
	Kind       enums.PricePolicyKind `gorm:"column:kind;not null"`
	Parameters string                `gorm:"column:parameters;not null;default:''"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
