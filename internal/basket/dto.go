package basket

import (
	"github.com/google/uuid"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
)

// BasketDTO is the API shape of a basket. Item prices come from the live
// product records.
type BasketDTO struct {
	ID            uuid.UUID `json:"id"`
	BuyerID       string    `json:"buyerId"`
	Items         []ItemDTO `json:"items"`
	SubtotalCents int64     `json:"subtotalCents"`
}

// ItemDTO is one basket line with its product summary.
type ItemDTO struct {
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	PictureURL     string    `json:"pictureUrl"`
	PriceCents     int64     `json:"priceCents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"lineTotalCents"`
}

// ToDTO converts a loaded basket into its API shape.
func ToDTO(b *models.Basket) *BasketDTO {
	if b == nil {
		return nil
	}
	dto := &BasketDTO{
		ID:      b.ID,
		BuyerID: b.BuyerID,
		Items:   make([]ItemDTO, 0, len(b.Items)),
	}
	for i := range b.Items {
		line := b.Items[i]
		lineTotal := line.Product.PriceCents * int64(line.Quantity)
		dto.Items = append(dto.Items, ItemDTO{
			ProductID:      line.ProductID,
			Name:           line.Product.Name,
			PictureURL:     line.Product.PictureURL,
			PriceCents:     line.Product.PriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
		})
		dto.SubtotalCents += lineTotal
	}
	return dto
}
