package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Implémentations en mémoire, utilisées par les tests et le mode dev sans
// ScyllaDB. Les CAS tiennent le même contrat que les LWT Scylla.

type MemOrderStore struct {
	mu     sync.Mutex
	orders map[gocql.UUID]*models.Order
}

func NewMemOrderStore() *MemOrderStore {
	return &MemOrderStore{orders: make(map[gocql.UUID]*models.Order)}
}

func (s *MemOrderStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *MemOrderStore) GetByID(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *MemOrderStore) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (s *MemOrderStore) ListAll(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []models.Order
	for _, order := range s.orders {
		orders = append(orders, *order)
	}
	return orders, nil
}

func (s *MemOrderStore) CASOrderStatus(_ context.Context, id gocql.UUID, from, to string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return false, "", ErrNotFound
	}
	if order.OrderStatus != from {
		return false, order.OrderStatus, nil
	}
	order.OrderStatus = to
	order.UpdatedAt = time.Now()
	return true, from, nil
}

func (s *MemOrderStore) CASPaymentStatus(_ context.Context, id gocql.UUID, from, to string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return false, "", ErrNotFound
	}
	if order.PaymentStatus != from {
		return false, order.PaymentStatus, nil
	}
	order.PaymentStatus = to
	order.UpdatedAt = time.Now()
	return true, from, nil
}

func (s *MemOrderStore) SetPaymentIntent(_ context.Context, id gocql.UUID, method, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.PaymentMethod = method
	order.PaymentIntentID = intentID
	order.UpdatedAt = time.Now()
	return nil
}

func (s *MemOrderStore) SetCoupon(_ context.Context, id gocql.UUID, code string, discount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.CouponCode = code
	order.DiscountAmount = discount
	order.UpdatedAt = time.Now()
	return nil
}

type MemCouponStore struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
	usage   []models.CouponUsage
}

func NewMemCouponStore() *MemCouponStore {
	return &MemCouponStore{coupons: make(map[string]*models.Coupon)}
}

func (s *MemCouponStore) Insert(_ context.Context, coupon *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *coupon
	s.coupons[strings.ToUpper(coupon.Code)] = &copied
	return nil
}

func (s *MemCouponStore) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *coupon
	return &copied, nil
}

func (s *MemCouponStore) List(_ context.Context) ([]models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var coupons []models.Coupon
	for _, coupon := range s.coupons {
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

func (s *MemCouponStore) Update(_ context.Context, coupon *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.coupons[strings.ToUpper(coupon.Code)]
	if !ok {
		return ErrNotFound
	}
	usedCount := existing.UsedCount
	copied := *coupon
	copied.UsedCount = usedCount
	s.coupons[strings.ToUpper(coupon.Code)] = &copied
	return nil
}

func (s *MemCouponStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.coupons, strings.ToUpper(code))
	return nil
}

func (s *MemCouponStore) CASIncrementUsedCount(_ context.Context, code string, expected int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return false, ErrNotFound
	}
	if coupon.UsedCount != expected {
		return false, nil
	}
	coupon.UsedCount = expected + 1
	return true, nil
}

func (s *MemCouponStore) AppendUsage(_ context.Context, usage models.CouponUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, usage)
	return nil
}

// Usages expose le journal pour les assertions de test
func (s *MemCouponStore) Usages() []models.CouponUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CouponUsage(nil), s.usage...)
}

type MemReturnStore struct {
	mu      sync.Mutex
	returns map[gocql.UUID]*models.Return
}

func NewMemReturnStore() *MemReturnStore {
	return &MemReturnStore{returns: make(map[gocql.UUID]*models.Return)}
}

func (s *MemReturnStore) Insert(_ context.Context, ret *models.Return) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ret
	s.returns[ret.ID] = &copied
	return nil
}

func (s *MemReturnStore) GetByID(_ context.Context, id gocql.UUID) (*models.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret, ok := s.returns[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ret
	return &copied, nil
}

func (s *MemReturnStore) GetByOrder(_ context.Context, orderID gocql.UUID) (*models.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ret := range s.returns {
		if ret.OrderID == orderID {
			copied := *ret
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemReturnStore) ListByUser(_ context.Context, userID string) ([]models.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var returns []models.Return
	for _, ret := range s.returns {
		if ret.UserID == userID {
			returns = append(returns, *ret)
		}
	}
	return returns, nil
}

func (s *MemReturnStore) ListAll(_ context.Context) ([]models.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var returns []models.Return
	for _, ret := range s.returns {
		returns = append(returns, *ret)
	}
	return returns, nil
}

func (s *MemReturnStore) CASStatus(_ context.Context, id gocql.UUID, from, to, adminNotes string, refundAmount *int64) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret, ok := s.returns[id]
	if !ok {
		return false, "", ErrNotFound
	}
	if ret.Status != from {
		return false, ret.Status, nil
	}
	ret.Status = to
	if adminNotes != "" {
		ret.AdminNotes = adminNotes
	}
	if refundAmount != nil {
		ret.RefundAmount = *refundAmount
	}
	ret.UpdatedAt = time.Now()
	return true, from, nil
}

// MemCart est un panier figé, utile en test
type MemCart struct {
	mu      sync.Mutex
	carts   map[string][]models.CartItem
	cleared map[string]bool
}

func NewMemCart() *MemCart {
	return &MemCart{carts: make(map[string][]models.CartItem), cleared: make(map[string]bool)}
}

func (c *MemCart) Set(userID string, items []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carts[userID] = items
}

func (c *MemCart) Snapshot(_ context.Context, userID string) ([]models.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.carts[userID]
	if !ok || len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

func (c *MemCart) Clear(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, userID)
	c.cleared[userID] = true
	return nil
}

// Cleared indique si le panier a été vidé (assertions de test)
func (c *MemCart) Cleared(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared[userID]
}

// MemCatalog est un catalogue figé {product_id → (nom, prix)}
type MemCatalog struct {
	Entries map[string]MemProduct
}

type MemProduct struct {
	Name  string
	Price int64
}

func (c *MemCatalog) GetProduct(_ context.Context, productID string) (string, int64, error) {
	product, ok := c.Entries[productID]
	if !ok {
		return "", 0, ErrNotFound
	}
	return product.Name, product.Price, nil
}
