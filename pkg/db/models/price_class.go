package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceClass is a named bundle of discounts attachable to items as an
// alternative to tag matching.
type PriceClass struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description string     `gorm:"column:description;not null;default:''"`
	Discounts   []Discount `gorm:"many2many:price_class_discounts"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
