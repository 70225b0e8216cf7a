package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de paiement
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Statuts de commande
const (
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

type Order struct {
	ID              gocql.UUID      `json:"id"`
	UserID          string          `json:"user_id"`
	UserEmail       string          `json:"user_email,omitempty"` // contact figé à la création, pour les notifications
	Items           []OrderItem     `json:"items"`
	TotalAmount     int64           `json:"total_amount"` // centimes, figé à la création
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentStatus   string          `json:"payment_status"`
	OrderStatus     string          `json:"order_status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	DiscountAmount  int64           `json:"discount_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // centimes, prix catalogue au moment de la commande
	Quantity  int    `json:"quantity"`
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// Validate vérifie que tous les champs de l'adresse sont renseignés
func (a ShippingAddress) Validate() []string {
	var missing []string
	fields := map[string]string{
		"full_name":   a.FullName,
		"address":     a.Address,
		"city":        a.City,
		"state":       a.State,
		"country":     a.Country,
		"postal_code": a.PostalCode,
		"phone":       a.Phone,
	}
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// CalcTotal calcule le montant total d'une liste d'articles (en centimes)
func CalcTotal(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Table des transitions autorisées pour order_status.
// "cancelled" est accessible depuis tout statut sauf "delivered".
var orderStatusTransitions = map[string][]string{
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// Table des transitions autorisées pour payment_status.
// paid → paid est traité comme un no-op idempotent par le réconciliateur,
// pas comme une transition admin.
var paymentStatusTransitions = map[string][]string{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPaid},
	PaymentPaid:    {},
}

// CanTransitionOrderStatus valide une transition de statut de commande
func CanTransitionOrderStatus(from, to string) bool {
	return canTransition(orderStatusTransitions, from, to)
}

// CanTransitionPaymentStatus valide une transition de statut de paiement
func CanTransitionPaymentStatus(from, to string) bool {
	return canTransition(paymentStatusTransitions, from, to)
}

func canTransition(table map[string][]string, from, to string) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidOrderStatus indique si le statut de commande existe
func IsValidOrderStatus(s string) bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// IsValidPaymentStatus indique si le statut de paiement existe
func IsValidPaymentStatus(s string) bool {
	_, ok := paymentStatusTransitions[s]
	return ok
}
