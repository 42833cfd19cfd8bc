package models

import (
	"time"

	"github.com/google/uuid"
)

// Basket is the mutable shopping basket addressed by a single owner key.
// BuyerID is either the authenticated username or the anonymous correlation
// token stored in the client cookie; the column carries a unique constraint so
// two concurrent creates for the same new token cannot both land.
type Basket struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   string       `gorm:"column:buyer_id;not null;uniqueIndex:idx_baskets_buyer_id"`
	Version   int64        `gorm:"column:version;not null;default:0"`
	Items     []BasketItem `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// FindItem returns the line item for the product, or nil.
func (b *Basket) FindItem(productID uuid.UUID) *BasketItem {
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			return &b.Items[i]
		}
	}
	return nil
}

// SubtotalCents sums line prices against the live product records.
func (b *Basket) SubtotalCents() int64 {
	var total int64
	for i := range b.Items {
		total += b.Items[i].Product.PriceCents * int64(b.Items[i].Quantity)
	}
	return total
}
