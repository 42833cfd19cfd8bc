package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarrez/storefront-backend/pkg/enums"
)

// Order is the immutable snapshot produced when a basket is submitted.
// Unlike baskets, orders copy product name and price at submission time.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          string            `gorm:"column:buyer_id;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ShippingAddress  Address           `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	SubtotalCents    int64             `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents int64             `gorm:"column:delivery_fee_cents;not null"`
	PaymentIntentID  string            `gorm:"column:payment_intent_id;index"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCents is the amount charged for the order.
func (o *Order) TotalCents() int64 {
	return o.SubtotalCents + o.DeliveryFeeCents
}

// OrderItem snapshots one ordered product line.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	PictureURL string    `gorm:"column:picture_url"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Address is the shipping destination captured with an order.
type Address struct {
	FullName string `json:"fullName"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}
