package settlement

import "github.com/jinseokoh/socrates/internal/models"

// shippingPlan is the outcome of pairing a payment's orders into boxes.
type shippingPlan struct {
	Subtotal       int
	Discount       int
	DoubleBoxCount int
}

// planShipping bills every order of one payment for the given destination
// tariff and writes the per-order shipping fields in place.
//
// Combinable orders are greedily paired two to a box at half cost each; an
// odd count always leaves exactly one combinable order billed as a single
// shipment. This is deliberate policy, not an approximation to improve on.
func planShipping(orders []*models.Order, reason string, unitCost, packingFee int) shippingPlan {
	unit := unitCost + packingFee

	var combinable []*models.Order
	for _, o := range orders {
		if o.Auction != nil && o.Auction.IsCombinable {
			combinable = append(combinable, o)
			continue
		}
		o.Shipping = unit
		o.IsCombined = false
		o.ShippingComment = reason + " 단일배송"
	}

	rest := combinable
	if len(combinable)%2 == 1 {
		single := combinable[0]
		single.Shipping = unit
		single.IsCombined = false
		single.ShippingComment = reason + " 단일배송"
		rest = combinable[1:]
	}
	for _, o := range rest {
		o.Shipping = unit / 2
		o.IsCombined = true
		o.ShippingComment = reason + " 묶음배송"
	}

	doubleBoxCount := len(combinable) / 2
	return shippingPlan{
		Subtotal:       len(orders) * unit,
		Discount:       doubleBoxCount * unit,
		DoubleBoxCount: doubleBoxCount,
	}
}
