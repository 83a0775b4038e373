package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinseokoh/socrates/internal/gateway"
	"github.com/jinseokoh/socrates/internal/models"
	"github.com/jinseokoh/socrates/internal/notify"
	"github.com/jinseokoh/socrates/internal/shipping"
	"go.uber.org/zap"
)

// Engine reconciles gateway status reports into payment, order, auction and
// ledger state. Both the client verification call and the gateway webhook
// funnel into Settle; every transition is idempotent against the payment's
// current persisted status, so duplicate or out-of-order delivery is safe.
type Engine struct {
	tx       TxRunner
	gateway  gateway.Adapter
	calc     *shipping.Calculator
	notifier notify.Notifier
	log      *zap.Logger
}

func NewEngine(tx TxRunner, gw gateway.Adapter, calc *shipping.Calculator, notifier notify.Notifier, log *zap.Logger) *Engine {
	return &Engine{
		tx:       tx,
		gateway:  gw,
		calc:     calc,
		notifier: notifier,
		log:      log,
	}
}

// Settle resolves the payment behind merchantUID, fetches the authoritative
// report for txnID from the gateway and applies the matching transition.
// Caller-supplied status claims are never trusted.
func (e *Engine) Settle(ctx context.Context, txnID, merchantUID string) (string, error) {
	paymentID, err := ParseMerchantUID(merchantUID)
	if err != nil {
		return "", err
	}

	report, err := e.gateway.Verify(ctx, txnID)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", txnID, err)
	}

	switch report.Status {
	case "paid":
		if err := e.applyPaid(ctx, paymentID, report); err != nil {
			return "", err
		}
		return "결제가 완료되었습니다.", nil
	case "ready":
		if err := e.applyReady(ctx, paymentID, report); err != nil {
			return "", err
		}
		return "가상계좌가 발급되었습니다.", nil
	case "failed":
		if err := e.applyFailed(ctx, paymentID, report); err != nil {
			return "", err
		}
		return "결제에 실패했습니다.", nil
	case "cancelled", "canceled":
		if err := e.applyCanceled(ctx, paymentID, report, ""); err != nil {
			return "", err
		}
		return "결제가 취소되었습니다.", nil
	default:
		note := fmt.Sprintf("unrecognized gateway status %q for txn %s", report.Status, report.TxnID)
		e.log.Error("gateway contract drift", zap.Uint("payment_id", paymentID), zap.String("status", report.Status))
		if err := e.applyCanceled(ctx, paymentID, report, note); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownGatewayStatus, report.Status)
	}
}

// applyPaid runs the full paid-side reconciliation in one transaction:
// payment fields, shipping bundling over the orders, ledger debit, pay
// count, buy-it-now auction closure and grant consumption.
func (e *Engine) applyPaid(ctx context.Context, paymentID uint, report *gateway.Report) error {
	var settled bool
	var buyerID uint

	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		p, err := uow.Payments().FindForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		switch p.PaymentStatus {
		case models.PaymentPaid:
			// duplicate delivery of a transition we already applied
			return nil
		case models.PaymentFailed, models.PaymentCanceled:
			return fmt.Errorf("%w: payment %d is already %s", ErrInvalidState, p.ID, p.PaymentStatus)
		}

		if report.Amount != p.GrandTotal {
			return fmt.Errorf("%w: gateway reports %d, grand total is %d", ErrAmountMismatch, report.Amount, p.GrandTotal)
		}

		now := time.Now()
		p.PgID = report.TxnID
		p.PaymentMethod = report.Method
		p.PaymentStatus = models.PaymentPaid
		p.PaidAt = &now

		orders := make([]*models.Order, len(p.Orders))
		for i := range p.Orders {
			orders[i] = &p.Orders[i]
		}
		reason, unitCost := e.calc.Cost(p.Country, p.PostalCode)
		plan := planShipping(orders, reason, unitCost, e.calc.PackingFee())
		p.ShippingSubtotal = plan.Subtotal
		p.ShippingDiscount = plan.Discount

		if err := uow.Payments().Save(ctx, p); err != nil {
			return err
		}
		for _, o := range orders {
			o.OrderStatus = models.OrderPaid
			if err := uow.Orders().Save(ctx, o); err != nil {
				return err
			}
		}

		balance, err := uow.Ledger().LastBalance(ctx, p.UserID)
		if err != nil {
			return err
		}
		entry := &models.LedgerEntry{
			Debit:      p.GrandTotal,
			LedgerType: models.LedgerPayment,
			Balance:    balance - p.GrandTotal,
			Note:       p.MerchantUID(),
			UserID:     p.UserID,
		}
		if err := uow.Ledger().Append(ctx, entry); err != nil {
			return err
		}

		if err := uow.Users().IncrementPayCount(ctx, p.UserID); err != nil {
			return err
		}

		for _, o := range orders {
			if o.OrderType == models.OrderTypeBuyItNow {
				if err := uow.Auctions().SetStatus(ctx, o.AuctionID, models.AuctionEnded); err != nil {
					return err
				}
			}
		}

		if p.GrantID != nil {
			if err := uow.Grants().MarkUsed(ctx, *p.GrantID); err != nil {
				return err
			}
		}

		settled = true
		buyerID = p.UserID
		return nil
	})
	if err != nil {
		return err
	}

	if settled {
		e.notifier.Notify(notify.NewEvent("payment.paid", paymentID, buyerID))
	}
	return nil
}

// applyReady records virtual-account details. No money has moved, so no
// order, auction or ledger state changes here.
func (e *Engine) applyReady(ctx context.Context, paymentID uint, report *gateway.Report) error {
	return e.tx.InTx(ctx, func(uow UnitOfWork) error {
		p, err := uow.Payments().FindForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		switch p.PaymentStatus {
		case models.PaymentPaid:
			// late vbank notice after settlement completed
			return nil
		case models.PaymentFailed, models.PaymentCanceled:
			e.log.Warn("ready report for terminal payment",
				zap.Uint("payment_id", p.ID),
				zap.String("status", string(p.PaymentStatus)))
			return nil
		}

		p.PaymentStatus = models.PaymentReady
		p.PgID = report.TxnID
		p.PaymentMethod = report.Method
		p.Note = fmt.Sprintf("vbank %s %s, due %s",
			report.VbankName, report.VbankNum, report.VbankDate.Format("2006-01-02 15:04"))
		return uow.Payments().Save(ctx, p)
	})
}

// applyFailed records the failure for audit. Orders stay WAITING and remain
// billable through a fresh payment.
func (e *Engine) applyFailed(ctx context.Context, paymentID uint, report *gateway.Report) error {
	return e.tx.InTx(ctx, func(uow UnitOfWork) error {
		p, err := uow.Payments().FindForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		switch p.PaymentStatus {
		case models.PaymentFailed:
			return nil
		case models.PaymentPaid, models.PaymentCanceled:
			e.log.Warn("failed report for terminal payment",
				zap.Uint("payment_id", p.ID),
				zap.String("status", string(p.PaymentStatus)))
			return nil
		}

		p.PaymentStatus = models.PaymentFailed
		p.PgID = report.TxnID
		p.Note = fmt.Sprintf("gateway reported failed: txn=%s method=%s amount=%d",
			report.TxnID, report.Method, report.Amount)
		return uow.Payments().Save(ctx, p)
	})
}

// applyCanceled frees the payment's orders for rebilling and soft-removes
// the payment. Irreversible; only invoked once the gateway confirmed the
// cancellation (or as the defensive fallback for unknown statuses).
func (e *Engine) applyCanceled(ctx context.Context, paymentID uint, report *gateway.Report, note string) error {
	var canceled bool
	var buyerID uint

	err := e.tx.InTx(ctx, func(uow UnitOfWork) error {
		p, err := uow.Payments().FindForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// already removed by an earlier cancellation
				return nil
			}
			return err
		}
		if p.PaymentStatus == models.PaymentCanceled {
			return nil
		}
		wasPaid := p.PaymentStatus == models.PaymentPaid

		ids := make([]uint, 0, len(p.Orders))
		for _, o := range p.Orders {
			ids = append(ids, o.ID)
		}
		if len(ids) > 0 {
			if err := uow.Orders().ResetAfterCancellation(ctx, ids); err != nil {
				return err
			}
		}

		// The pay count only ever moved on the paid transition, so the
		// decrement (and the refund entry) is guarded by the same condition.
		if wasPaid {
			if err := uow.Users().DecrementPayCount(ctx, p.UserID); err != nil {
				return err
			}
			balance, err := uow.Ledger().LastBalance(ctx, p.UserID)
			if err != nil {
				return err
			}
			entry := &models.LedgerEntry{
				Credit:     p.GrandTotal,
				LedgerType: models.LedgerRefund,
				Balance:    balance + p.GrandTotal,
				Note:       p.MerchantUID(),
				UserID:     p.UserID,
			}
			if err := uow.Ledger().Append(ctx, entry); err != nil {
				return err
			}
		}

		now := time.Now()
		p.PaymentStatus = models.PaymentCanceled
		p.CanceledAt = &now
		if note != "" {
			p.Note = note
		}
		if err := uow.Payments().Save(ctx, p); err != nil {
			return err
		}
		if err := uow.Payments().SoftRemove(ctx, p.ID); err != nil {
			return err
		}

		canceled = true
		buyerID = p.UserID
		return nil
	})
	if err != nil {
		return err
	}

	if canceled {
		e.notifier.Notify(notify.NewEvent("payment.canceled", paymentID, buyerID))
	}
	return nil
}
