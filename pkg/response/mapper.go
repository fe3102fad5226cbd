package response

import (
	"github.com/andikarp/keranjang/internal/domain"
)

func FromCart(cart domain.Cart) Cart {
	items := make([]CartItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = FromCartItem(item)
	}
	return Cart{
		ID:              cart.ID,
		Items:           items,
		TotalItems:      cart.TotalItems,
		Subtotal:        cart.Subtotal,
		SubtotalDisplay: DisplayPrice(cart.Subtotal),
		Tax:             cart.Tax,
		TaxDisplay:      DisplayPrice(cart.Tax),
		Total:           cart.Total,
		TotalDisplay:    DisplayPrice(cart.Total),
		Version:         cart.Version,
		CreatedAt:       cart.CreatedAt,
		ModifiedAt:      cart.ModifiedAt,
	}
}

func FromCartItem(item domain.CartItem) CartItem {
	subtotal := item.Total()
	return CartItem{
		ID:               item.ID,
		ProductID:        item.ProductID,
		Name:             item.Name,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		UnitPriceDisplay: DisplayPrice(item.UnitPrice),
		Subtotal:         subtotal,
		SubtotalDisplay:  DisplayPrice(subtotal),
	}
}

func FromCartEvent(event domain.CartEvent) CartEvent {
	return CartEvent{
		ID:        event.ID,
		CartID:    event.CartID,
		ProductID: event.ProductID,
		EventType: string(event.EventType),
		Quantity:  event.Quantity,
		CreatedAt: event.CreatedAt,
	}
}
