package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. Baskets reference products live, so
// price changes flow into open baskets without re-pricing items.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Description     string    `gorm:"column:description;not null"`
	PriceCents      int64     `gorm:"column:price_cents;not null"`
	PictureURL      string    `gorm:"column:picture_url"`
	Type            string    `gorm:"column:type;not null"`
	Brand           string    `gorm:"column:brand;not null"`
	QuantityInStock int       `gorm:"column:quantity_in_stock;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
