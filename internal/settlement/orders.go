package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinseokoh/socrates/internal/models"
)

// Destination is where a payment's orders ship to.
type Destination struct {
	Country    string
	PostalCode string
}

// CreateOrderFromAuction turns an ended auction's winning bid into an order.
// Billing is a separate, explicit step.
func (e *Engine) CreateOrderFromAuction(ctx context.Context, auctionID uint) (*models.Order, error) {
	var order *models.Order
	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		auction, err := uow.Auctions().Find(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Status != models.AuctionEnded {
			return fmt.Errorf("%w: auction %d has not ended", ErrPreconditionFailed, auctionID)
		}
		if auction.LastBidderID == nil {
			return fmt.Errorf("%w: auction %d has no winning bidder", ErrPreconditionFailed, auctionID)
		}
		if auction.LastBidAmount == nil || *auction.LastBidAmount < auction.ReservePrice {
			return fmt.Errorf("%w: auction %d winning bid is below the reserve price", ErrPreconditionFailed, auctionID)
		}

		existing, err := uow.Orders().FindByAuction(ctx, auctionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: auction %d already has order %d", ErrConflict, auctionID, existing.ID)
		}

		order = &models.Order{
			OrderType: models.OrderTypeAuction,
			Price:     *auction.LastBidAmount,
			AuctionID: auction.ID,
			UserID:    *auction.LastBidderID,
		}
		return uow.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// BuyItNow atomically creates the order and its single-order payment, sized
// to the buy-it-now price with no discount.
func (e *Engine) BuyItNow(ctx context.Context, userID, auctionID uint, dest Destination) (*models.Payment, error) {
	var payment *models.Payment
	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		auction, err := uow.Auctions().Find(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Status == models.AuctionEnded {
			return fmt.Errorf("%w: auction %d already ended", ErrInvalidState, auctionID)
		}
		if auction.BuyItNowPrice <= 0 {
			return fmt.Errorf("%w: auction %d has no buy-it-now price", ErrPreconditionFailed, auctionID)
		}

		existing, err := uow.Orders().FindByAuction(ctx, auctionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: auction %d already has order %d", ErrConflict, auctionID, existing.ID)
		}

		order := &models.Order{
			OrderType: models.OrderTypeBuyItNow,
			Price:     auction.BuyItNowPrice,
			AuctionID: auction.ID,
			UserID:    userID,
		}
		if err := uow.Orders().Create(ctx, order); err != nil {
			return err
		}

		payment = &models.Payment{
			PriceSubtotal: order.Price,
			Total:         order.Price,
			GrandTotal:    order.Price,
			PaymentStatus: models.PaymentUnset,
			Country:       dest.Country,
			PostalCode:    dest.PostalCode,
			UserID:        userID,
		}
		if err := uow.Payments().Create(ctx, payment); err != nil {
			return err
		}
		if err := uow.Orders().AttachToPayment(ctx, []uint{order.ID}, payment.ID); err != nil {
			return err
		}
		order.PaymentID = &payment.ID
		payment.Orders = []models.Order{*order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePayment bundles the given orders into one billable payment. Every
// order must be unbilled and unpaid; the offending order id is named on
// conflict. Orders are attached in the same transaction that creates the
// payment, so no order can reference a payment that was never committed.
func (e *Engine) CreatePayment(ctx context.Context, userID uint, orderIDs []uint, grantID *uint, dest Destination) (*models.Payment, error) {
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("%w: no orders selected", ErrPreconditionFailed)
	}

	var payment *models.Payment
	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		orders, err := uow.Orders().FindByIDs(ctx, orderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(orderIDs) {
			return fmt.Errorf("%w: some orders do not exist", ErrNotFound)
		}

		priceSubtotal := 0
		shippingSubtotal := 0
		for _, o := range orders {
			if o.UserID != userID {
				return fmt.Errorf("%w: order %d belongs to another user", ErrPreconditionFailed, o.ID)
			}
			if o.PaymentID != nil {
				return fmt.Errorf("%w: order %d is already billed by payment %d", ErrConflict, o.ID, *o.PaymentID)
			}
			if o.OrderStatus == models.OrderPaid {
				return fmt.Errorf("%w: order %d is already paid", ErrConflict, o.ID)
			}
			priceSubtotal += o.Price
			shippingSubtotal += o.Shipping
		}

		couponDiscount := 0
		if grantID != nil {
			grant, err := uow.Grants().Find(ctx, *grantID)
			if err != nil {
				return err
			}
			if grant.UserID != userID {
				return fmt.Errorf("%w: grant %d belongs to another user", ErrPreconditionFailed, grant.ID)
			}
			if grant.IsUsed {
				return fmt.Errorf("%w: grant %d is already used", ErrConflict, grant.ID)
			}
			if grant.Coupon != nil {
				couponDiscount = grant.Coupon.Discount
			}
		}

		total := priceSubtotal + shippingSubtotal
		payment = &models.Payment{
			PriceSubtotal:    priceSubtotal,
			ShippingSubtotal: shippingSubtotal,
			CouponDiscount:   couponDiscount,
			Total:            total,
			GrandTotal:       total - couponDiscount,
			PaymentStatus:    models.PaymentUnset,
			Country:          dest.Country,
			PostalCode:       dest.PostalCode,
			UserID:           userID,
			GrantID:          grantID,
		}
		if err := uow.Payments().Create(ctx, payment); err != nil {
			return err
		}
		if err := uow.Orders().AttachToPayment(ctx, orderIDs, payment.ID); err != nil {
			return err
		}
		for i := range orders {
			orders[i].PaymentID = &payment.ID
		}
		payment.Orders = orders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// WithdrawOrder hard-deletes an unpaid buy-it-now order, the one case the
// order lifecycle allows deletion. An unpaid sibling payment is soft-removed
// with it.
func (e *Engine) WithdrawOrder(ctx context.Context, userID, orderID uint) error {
	return e.tx.InTx(ctx, func(uow UnitOfWork) error {
		order, err := uow.Orders().Find(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return fmt.Errorf("%w: order %d belongs to another user", ErrPreconditionFailed, orderID)
		}
		if order.OrderType != models.OrderTypeBuyItNow {
			return fmt.Errorf("%w: only buy-it-now orders can be withdrawn", ErrInvalidState)
		}
		if order.OrderStatus == models.OrderPaid {
			return fmt.Errorf("%w: order %d is already paid", ErrInvalidState, orderID)
		}

		if order.PaymentID != nil {
			p, err := uow.Payments().Find(ctx, *order.PaymentID)
			if err != nil {
				return err
			}
			if p.PaymentStatus == models.PaymentPaid {
				return fmt.Errorf("%w: payment %d is already paid", ErrInvalidState, p.ID)
			}
			if err := uow.Payments().SoftRemove(ctx, p.ID); err != nil {
				return err
			}
		}
		return uow.Orders().Delete(ctx, orderID)
	})
}

// GetPayment returns the payment with its orders, owner only.
func (e *Engine) GetPayment(ctx context.Context, userID, paymentID uint) (*models.Payment, error) {
	var payment *models.Payment
	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		p, err := uow.Payments().Find(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			// a foreign payment looks like a missing one, so the id space
			// cannot be probed
			return fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
