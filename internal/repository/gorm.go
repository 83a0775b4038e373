package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinseokoh/socrates/internal/models"
	"github.com/jinseokoh/socrates/internal/settlement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Runner adapts a gorm database into the settlement engine's transaction
// port. Every InTx call maps to one database transaction.
type Runner struct {
	db *gorm.DB
}

func NewRunner(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) InTx(ctx context.Context, fn func(uow settlement.UnitOfWork) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&unitOfWork{tx: tx})
	})
}

type unitOfWork struct {
	tx *gorm.DB
}

func (u *unitOfWork) Payments() settlement.PaymentRepository { return &paymentRepository{tx: u.tx} }
func (u *unitOfWork) Orders() settlement.OrderRepository     { return &orderRepository{tx: u.tx} }
func (u *unitOfWork) Auctions() settlement.AuctionRepository { return &auctionRepository{tx: u.tx} }
func (u *unitOfWork) Users() settlement.UserRepository       { return &userRepository{tx: u.tx} }
func (u *unitOfWork) Ledger() settlement.LedgerRepository    { return &ledgerRepository{tx: u.tx} }
func (u *unitOfWork) Grants() settlement.GrantRepository     { return &grantRepository{tx: u.tx} }

func mapNotFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", settlement.ErrNotFound, what, id)
	}
	return err
}

type paymentRepository struct {
	tx *gorm.DB
}

func (r *paymentRepository) Find(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.tx.Preload("Orders.Auction").Preload("Grant.Coupon").First(&p, id).Error
	if err != nil {
		return nil, mapNotFound(err, "payment", id)
	}
	return &p, nil
}

// FindForUpdate reads unscoped so a soft-removed (canceled) payment still
// resolves; redelivered cancellation events must land on the status check,
// not on a not-found error.
func (r *paymentRepository) FindForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.tx.Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Orders.Auction").
		First(&p, id).Error
	if err != nil {
		return nil, mapNotFound(err, "payment", id)
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.tx.Omit(clause.Associations).Create(p).Error
}

func (r *paymentRepository) Save(ctx context.Context, p *models.Payment) error {
	return r.tx.Unscoped().Omit(clause.Associations).Save(p).Error
}

func (r *paymentRepository) SoftRemove(ctx context.Context, id uint) error {
	return r.tx.Delete(&models.Payment{}, id).Error
}

type orderRepository struct {
	tx *gorm.DB
}

func (r *orderRepository) Find(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.tx.Preload("Auction").First(&o, id).Error; err != nil {
		return nil, mapNotFound(err, "order", id)
	}
	return &o, nil
}

func (r *orderRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.tx.Preload("Auction").Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindByAuction(ctx context.Context, auctionID uint) (*models.Order, error) {
	var o models.Order
	if err := r.tx.Where("auction_id = ?", auctionID).First(&o).Error; err != nil {
		return nil, mapNotFound(err, "order for auction", auctionID)
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.tx.Omit(clause.Associations).Create(o).Error
}

func (r *orderRepository) Save(ctx context.Context, o *models.Order) error {
	return r.tx.Omit(clause.Associations).Save(o).Error
}

// AttachToPayment claims the orders for the payment. The payment_id guard
// makes the claim safe under READ COMMITTED: a concurrent checkout that read
// the same orders unbilled updates fewer rows and fails instead of stealing
// an order from an already committed payment.
func (r *orderRepository) AttachToPayment(ctx context.Context, ids []uint, paymentID uint) error {
	result := r.tx.Model(&models.Order{}).
		Where("id IN ? AND payment_id IS NULL", ids).
		Update("payment_id", paymentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: some orders are already billed by another payment", settlement.ErrConflict)
	}
	return nil
}

func (r *orderRepository) ResetAfterCancellation(ctx context.Context, ids []uint) error {
	return r.tx.Model(&models.Order{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"order_status": models.OrderWaiting,
			"payment_id":   nil,
		}).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	return r.tx.Unscoped().Delete(&models.Order{}, id).Error
}

type auctionRepository struct {
	tx *gorm.DB
}

func (r *auctionRepository) Find(ctx context.Context, id uint) (*models.Auction, error) {
	var a models.Auction
	if err := r.tx.First(&a, id).Error; err != nil {
		return nil, mapNotFound(err, "auction", id)
	}
	return &a, nil
}

func (r *auctionRepository) SetStatus(ctx context.Context, id uint, status models.AuctionStatus) error {
	result := r.tx.Model(&models.Auction{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: auction %d", settlement.ErrNotFound, id)
	}
	return nil
}

type userRepository struct {
	tx *gorm.DB
}

func (r *userRepository) IncrementPayCount(ctx context.Context, userID uint) error {
	return r.tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("pay_count", gorm.Expr("pay_count + 1")).Error
}

func (r *userRepository) DecrementPayCount(ctx context.Context, userID uint) error {
	// floored at zero in the predicate; a zero count stays untouched
	return r.tx.Model(&models.User{}).
		Where("id = ? AND pay_count > 0", userID).
		UpdateColumn("pay_count", gorm.Expr("pay_count - 1")).Error
}

type ledgerRepository struct {
	tx *gorm.DB
}

// LastBalance locks the user's newest ledger row so two settlements for the
// same user cannot both read the same balance and append over each other.
func (r *ledgerRepository) LastBalance(ctx context.Context, userID uint) (int, error) {
	var entry models.LedgerEntry
	err := r.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Balance, nil
}

func (r *ledgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	return r.tx.Create(entry).Error
}

type grantRepository struct {
	tx *gorm.DB
}

func (r *grantRepository) Find(ctx context.Context, id uint) (*models.Grant, error) {
	var g models.Grant
	if err := r.tx.Preload("Coupon").First(&g, id).Error; err != nil {
		return nil, mapNotFound(err, "grant", id)
	}
	return &g, nil
}

func (r *grantRepository) MarkUsed(ctx context.Context, id uint) error {
	result := r.tx.Model(&models.Grant{}).Where("id = ?", id).Update("is_used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: grant %d", settlement.ErrNotFound, id)
	}
	return nil
}
