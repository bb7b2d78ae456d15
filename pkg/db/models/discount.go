package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount reduces a line's unit price by a percentage once the line quantity
// reaches the threshold. Matching is gated by tags or price-class membership.
type Discount struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Rate              decimal.Decimal `gorm:"column:rate;type:numeric(6,2);not null"`
	QuantityThreshold decimal.Decimal `gorm:"column:quantity_threshold;type:numeric(20,4);not null"`
	Active            bool            `gorm:"column:active;not null;default:true"`
	Tags              []Tag           `gorm:"many2many:discount_tags"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
