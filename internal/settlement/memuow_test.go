package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jinseokoh/socrates/internal/models"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the relational store. memRunner
// gives it transactional semantics by snapshotting before each InTx and
// restoring the snapshot when the callback fails.
type memStore struct {
	payments map[uint]*models.Payment
	orders   map[uint]*models.Order
	auctions map[uint]*models.Auction
	users    map[uint]*models.User
	grants   map[uint]*models.Grant
	ledger   []models.LedgerEntry
	nextID   uint

	failLedgerAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		payments: map[uint]*models.Payment{},
		orders:   map[uint]*models.Order{},
		auctions: map[uint]*models.Auction{},
		users:    map[uint]*models.User{},
		grants:   map[uint]*models.Grant{},
		nextID:   1,
	}
}

func (s *memStore) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) addAuction(a models.Auction) *models.Auction {
	if a.ID == 0 {
		a.ID = s.id()
	}
	s.auctions[a.ID] = &a
	return &a
}

func (s *memStore) addOrder(o models.Order) *models.Order {
	if o.ID == 0 {
		o.ID = s.id()
	}
	o.Auction = nil
	s.orders[o.ID] = &o
	return &o
}

func (s *memStore) addPayment(p models.Payment) *models.Payment {
	if p.ID == 0 {
		p.ID = s.id()
	}
	p.Orders = nil
	s.payments[p.ID] = &p
	return &p
}

func (s *memStore) addUser(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = &u
	return &u
}

func (s *memStore) addGrant(g models.Grant) *models.Grant {
	if g.ID == 0 {
		g.ID = s.id()
	}
	s.grants[g.ID] = &g
	return &g
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	c.failLedgerAppend = s.failLedgerAppend
	for id, p := range s.payments {
		cp := *p
		c.payments[id] = &cp
	}
	for id, o := range s.orders {
		co := *o
		if o.PaymentID != nil {
			pid := *o.PaymentID
			co.PaymentID = &pid
		}
		c.orders[id] = &co
	}
	for id, a := range s.auctions {
		ca := *a
		c.auctions[id] = &ca
	}
	for id, u := range s.users {
		cu := *u
		c.users[id] = &cu
	}
	for id, g := range s.grants {
		cg := *g
		c.grants[id] = &cg
	}
	c.ledger = append([]models.LedgerEntry(nil), s.ledger...)
	return c
}

func (s *memStore) restore(from *memStore) {
	s.payments = from.payments
	s.orders = from.orders
	s.auctions = from.auctions
	s.users = from.users
	s.grants = from.grants
	s.ledger = from.ledger
	s.nextID = from.nextID
}

func (s *memStore) ordersOfPayment(paymentID uint) []models.Order {
	var out []models.Order
	for _, o := range s.orders {
		if o.PaymentID != nil && *o.PaymentID == paymentID {
			out = append(out, *s.readOrder(o.ID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) readOrder(id uint) *models.Order {
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	c := *o
	if o.PaymentID != nil {
		pid := *o.PaymentID
		c.PaymentID = &pid
	}
	if a, ok := s.auctions[o.AuctionID]; ok {
		ca := *a
		c.Auction = &ca
	}
	return &c
}

type memRunner struct {
	store *memStore
}

func (r *memRunner) InTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	snapshot := r.store.clone()
	if err := fn(&memUOW{store: r.store}); err != nil {
		r.store.restore(snapshot)
		return err
	}
	return nil
}

type memUOW struct {
	store *memStore
}

func (u *memUOW) Payments() PaymentRepository { return &memPayments{store: u.store} }
func (u *memUOW) Orders() OrderRepository     { return &memOrders{store: u.store} }
func (u *memUOW) Auctions() AuctionRepository { return &memAuctions{store: u.store} }
func (u *memUOW) Users() UserRepository       { return &memUsers{store: u.store} }
func (u *memUOW) Ledger() LedgerRepository    { return &memLedger{store: u.store} }
func (u *memUOW) Grants() GrantRepository     { return &memGrants{store: u.store} }

type memPayments struct {
	store *memStore
}

func (r *memPayments) read(id uint, unscoped bool) (*models.Payment, error) {
	p, ok := r.store.payments[id]
	if !ok || (!unscoped && p.DeletedAt.Valid) {
		return nil, fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	c := *p
	c.Orders = r.store.ordersOfPayment(id)
	return &c, nil
}

func (r *memPayments) Find(ctx context.Context, id uint) (*models.Payment, error) {
	return r.read(id, false)
}

func (r *memPayments) FindForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	return r.read(id, true)
}

func (r *memPayments) Create(ctx context.Context, p *models.Payment) error {
	p.ID = r.store.id()
	r.store.addPayment(*p)
	return nil
}

func (r *memPayments) Save(ctx context.Context, p *models.Payment) error {
	if _, ok := r.store.payments[p.ID]; !ok {
		return fmt.Errorf("%w: payment %d", ErrNotFound, p.ID)
	}
	c := *p
	c.Orders = nil
	r.store.payments[p.ID] = &c
	return nil
}

func (r *memPayments) SoftRemove(ctx context.Context, id uint) error {
	p, ok := r.store.payments[id]
	if !ok {
		return fmt.Errorf("%w: payment %d", ErrNotFound, id)
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

type memOrders struct {
	store *memStore
}

func (r *memOrders) Find(ctx context.Context, id uint) (*models.Order, error) {
	o := r.store.readOrder(id)
	if o == nil {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return o, nil
}

func (r *memOrders) FindByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	var out []models.Order
	for _, id := range ids {
		if o := r.store.readOrder(id); o != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrders) FindByAuction(ctx context.Context, auctionID uint) (*models.Order, error) {
	for _, o := range r.store.orders {
		if o.AuctionID == auctionID {
			return r.store.readOrder(o.ID), nil
		}
	}
	return nil, fmt.Errorf("%w: order for auction %d", ErrNotFound, auctionID)
}

func (r *memOrders) Create(ctx context.Context, o *models.Order) error {
	o.ID = r.store.id()
	if o.OrderStatus == "" {
		o.OrderStatus = models.OrderWaiting
	}
	r.store.addOrder(*o)
	return nil
}

func (r *memOrders) Save(ctx context.Context, o *models.Order) error {
	if _, ok := r.store.orders[o.ID]; !ok {
		return fmt.Errorf("%w: order %d", ErrNotFound, o.ID)
	}
	c := *o
	c.Auction = nil
	r.store.orders[o.ID] = &c
	return nil
}

func (r *memOrders) AttachToPayment(ctx context.Context, ids []uint, paymentID uint) error {
	for _, id := range ids {
		o, ok := r.store.orders[id]
		if !ok {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		if o.PaymentID != nil {
			return fmt.Errorf("%w: order %d is already billed by payment %d", ErrConflict, id, *o.PaymentID)
		}
	}
	for _, id := range ids {
		pid := paymentID
		r.store.orders[id].PaymentID = &pid
	}
	return nil
}

func (r *memOrders) ResetAfterCancellation(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		o, ok := r.store.orders[id]
		if !ok {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		o.OrderStatus = models.OrderWaiting
		o.PaymentID = nil
	}
	return nil
}

func (r *memOrders) Delete(ctx context.Context, id uint) error {
	delete(r.store.orders, id)
	return nil
}

type memAuctions struct {
	store *memStore
}

func (r *memAuctions) Find(ctx context.Context, id uint) (*models.Auction, error) {
	a, ok := r.store.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: auction %d", ErrNotFound, id)
	}
	c := *a
	return &c, nil
}

func (r *memAuctions) SetStatus(ctx context.Context, id uint, status models.AuctionStatus) error {
	a, ok := r.store.auctions[id]
	if !ok {
		return fmt.Errorf("%w: auction %d", ErrNotFound, id)
	}
	a.Status = status
	return nil
}

type memUsers struct {
	store *memStore
}

func (r *memUsers) IncrementPayCount(ctx context.Context, userID uint) error {
	u, ok := r.store.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	u.PayCount++
	return nil
}

func (r *memUsers) DecrementPayCount(ctx context.Context, userID uint) error {
	u, ok := r.store.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if u.PayCount > 0 {
		u.PayCount--
	}
	return nil
}

type memLedger struct {
	store *memStore
}

func (r *memLedger) LastBalance(ctx context.Context, userID uint) (int, error) {
	for i := len(r.store.ledger) - 1; i >= 0; i-- {
		if r.store.ledger[i].UserID == userID {
			return r.store.ledger[i].Balance, nil
		}
	}
	return 0, nil
}

func (r *memLedger) Append(ctx context.Context, entry *models.LedgerEntry) error {
	if r.store.failLedgerAppend {
		return errors.New("ledger append failed")
	}
	entry.ID = r.store.id()
	r.store.ledger = append(r.store.ledger, *entry)
	return nil
}

type memGrants struct {
	store *memStore
}

func (r *memGrants) Find(ctx context.Context, id uint) (*models.Grant, error) {
	g, ok := r.store.grants[id]
	if !ok {
		return nil, fmt.Errorf("%w: grant %d", ErrNotFound, id)
	}
	c := *g
	return &c, nil
}

func (r *memGrants) MarkUsed(ctx context.Context, id uint) error {
	g, ok := r.store.grants[id]
	if !ok {
		return fmt.Errorf("%w: grant %d", ErrNotFound, id)
	}
	g.IsUsed = true
	return nil
}
