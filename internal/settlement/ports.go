package settlement

import (
	"context"

	"github.com/jinseokoh/socrates/internal/models"
)

// UnitOfWork exposes the repositories of one transaction scope. Everything
// obtained from the same UnitOfWork commits or rolls back together.
type UnitOfWork interface {
	Payments() PaymentRepository
	Orders() OrderRepository
	Auctions() AuctionRepository
	Users() UserRepository
	Ledger() LedgerRepository
	Grants() GrantRepository
}

// TxRunner runs fn inside a single database transaction. An error from fn
// rolls back every mutation made through the unit of work.
type TxRunner interface {
	InTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

type PaymentRepository interface {
	Find(ctx context.Context, id uint) (*models.Payment, error)
	// FindForUpdate loads the payment and its orders under a row lock, so
	// racing reconciliation attempts serialize on the payment row.
	FindForUpdate(ctx context.Context, id uint) (*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	Save(ctx context.Context, p *models.Payment) error
	SoftRemove(ctx context.Context, id uint) error
}

type OrderRepository interface {
	Find(ctx context.Context, id uint) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Order, error)
	FindByAuction(ctx context.Context, auctionID uint) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	Save(ctx context.Context, o *models.Order) error
	// AttachToPayment sets the payment reference on every given order,
	// failing with ErrConflict unless all of them are still unbilled. The
	// conditional write is what keeps two concurrent checkouts from billing
	// the same order twice.
	AttachToPayment(ctx context.Context, ids []uint, paymentID uint) error
	// ResetAfterCancellation reverts the given orders to WAITING and clears
	// their payment reference in one statement.
	ResetAfterCancellation(ctx context.Context, ids []uint) error
	Delete(ctx context.Context, id uint) error
}

type AuctionRepository interface {
	Find(ctx context.Context, id uint) (*models.Auction, error)
	SetStatus(ctx context.Context, id uint, status models.AuctionStatus) error
}

type UserRepository interface {
	IncrementPayCount(ctx context.Context, userID uint) error
	// DecrementPayCount floors at zero; decrementing a zero count is a no-op.
	DecrementPayCount(ctx context.Context, userID uint) error
}

type LedgerRepository interface {
	// LastBalance reads the user's current balance under a lock that
	// serializes concurrent appends for the same user.
	LastBalance(ctx context.Context, userID uint) (int, error)
	Append(ctx context.Context, entry *models.LedgerEntry) error
}

type GrantRepository interface {
	Find(ctx context.Context, id uint) (*models.Grant, error)
	MarkUsed(ctx context.Context, id uint) error
}
