package store

import (
	"context"
	"encoding/json"
	"time"

	"savora_back_end/internal/database"
	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaOrderStore stocke les commandes dans ks_orders.orders.
// Les items et l'adresse sont sérialisés en JSON (colonnes text).
type ScyllaOrderStore struct{}

const orderColumns = `order_id, user_id, user_email, items_json, total_amount, address_json,
	payment_status, order_status, payment_method, payment_intent_id,
	coupon_code, discount_amount, created_at, updated_at`

func (s *ScyllaOrderStore) Insert(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return session.Query(query,
		order.ID, order.UserID, order.UserEmail, string(itemsJSON), order.TotalAmount, string(addressJSON),
		order.PaymentStatus, order.OrderStatus, order.PaymentMethod, order.PaymentIntentID,
		order.CouponCode, order.DiscountAmount, order.CreatedAt, order.UpdatedAt,
	).WithContext(ctx).Exec()
}

func scanOrder(scan func(dest ...interface{}) error) (*models.Order, error) {
	var order models.Order
	var itemsJSON, addressJSON string

	err := scan(&order.ID, &order.UserID, &order.UserEmail, &itemsJSON, &order.TotalAmount, &addressJSON,
		&order.PaymentStatus, &order.OrderStatus, &order.PaymentMethod, &order.PaymentIntentID,
		&order.CouponCode, &order.DiscountAmount, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(addressJSON), &order.ShippingAddress); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *ScyllaOrderStore) GetByID(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
	order, err := scanOrder(session.Query(query, id).WithContext(ctx).Scan)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	return order, err
}

func (s *ScyllaOrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? ALLOW FILTERING`
	return iterOrders(session.Query(query, userID).WithContext(ctx).Iter())
}

func (s *ScyllaOrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	return iterOrders(session.Query(query).WithContext(ctx).Iter())
}

// iterScan adapte le contrat bool de gocql.Iter.Scan à celui des scanXxx:
// la fin d'itération est signalée par gocql.ErrNotFound, comme Query.Scan.
func iterScan(iter *gocql.Iter) func(dest ...interface{}) error {
	return func(dest ...interface{}) error {
		if !iter.Scan(dest...) {
			return gocql.ErrNotFound
		}
		return nil
	}
}

func collectOrders(scan func(dest ...interface{}) error) ([]models.Order, error) {
	var orders []models.Order
	for {
		order, err := scanOrder(scan)
		if err == gocql.ErrNotFound {
			return orders, nil
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
}

func iterOrders(iter *gocql.Iter) ([]models.Order, error) {
	orders, err := collectOrders(iterScan(iter))
	if err != nil {
		iter.Close()
		return nil, err
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return orders, nil
}

// CASOrderStatus : une seule écriture conditionnelle LWT,
// pas de read-then-write séparé
func (s *ScyllaOrderStore) CASOrderStatus(ctx context.Context, id gocql.UUID, from, to string) (bool, string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, "", err
	}

	var observed string
	applied, err := session.Query(
		`UPDATE orders SET order_status = ?, updated_at = ? WHERE order_id = ? IF order_status = ?`,
		to, time.Now(), id, from,
	).WithContext(ctx).ScanCAS(&observed)
	if err != nil {
		return false, "", err
	}
	if applied {
		observed = from
	}
	return applied, observed, nil
}

func (s *ScyllaOrderStore) CASPaymentStatus(ctx context.Context, id gocql.UUID, from, to string) (bool, string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, "", err
	}

	var observed string
	applied, err := session.Query(
		`UPDATE orders SET payment_status = ?, updated_at = ? WHERE order_id = ? IF payment_status = ?`,
		to, time.Now(), id, from,
	).WithContext(ctx).ScanCAS(&observed)
	if err != nil {
		return false, "", err
	}
	if applied {
		observed = from
	}
	return applied, observed, nil
}

func (s *ScyllaOrderStore) SetPaymentIntent(ctx context.Context, id gocql.UUID, method, intentID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(
		`UPDATE orders SET payment_method = ?, payment_intent_id = ?, updated_at = ? WHERE order_id = ?`,
		method, intentID, time.Now(), id,
	).WithContext(ctx).Exec()
}

func (s *ScyllaOrderStore) SetCoupon(ctx context.Context, id gocql.UUID, code string, discount int64) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(
		`UPDATE orders SET coupon_code = ?, discount_amount = ?, updated_at = ? WHERE order_id = ?`,
		code, discount, time.Now(), id,
	).WithContext(ctx).Exec()
}
