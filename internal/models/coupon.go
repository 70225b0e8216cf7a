package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Types de réduction
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID           gocql.UUID `json:"id"`
	Code         string     `json:"code"` // stocké en majuscules
	DiscountType string     `json:"discount_type"`
	Value        int64      `json:"value"`                // percentage: points de %, fixed: centimes
	MinAmount    int64      `json:"min_amount"`           // centimes
	MaxAmount    *int64     `json:"max_amount,omitempty"` // plafond de réduction (percentage), nil = sans plafond
	UsageLimit   *int       `json:"usage_limit,omitempty"`
	UsedCount    int        `json:"used_count"`
	StartsAt     time.Time  `json:"starts_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	IsActive     bool       `json:"is_active"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CouponUsage est un journal append-only des utilisations (audit uniquement,
// pas de limite par utilisateur)
type CouponUsage struct {
	CouponCode string     `json:"coupon_code"`
	UserID     string     `json:"user_id"`
	OrderID    gocql.UUID `json:"order_id"`
	UsedAt     time.Time  `json:"used_at"`
}

type CouponValidation struct {
	IsValid      bool   `json:"is_valid"`
	ErrorMessage string `json:"error_message,omitempty"`
	BelowMinimum bool   `json:"below_minimum,omitempty"`
	MinAmount    int64  `json:"min_amount,omitempty"`
	Code         string `json:"code,omitempty"`
	DiscountType string `json:"discount_type,omitempty"`
	Value        int64  `json:"value,omitempty"`
	Discount     int64  `json:"discount"`
	FinalAmount  int64  `json:"final_amount"`
}

// IsValidNow vérifie l'état du coupon: actif, dans sa fenêtre de validité,
// limite d'utilisation non atteinte
func (cp Coupon) IsValidNow(now time.Time) bool {
	if !cp.IsActive {
		return false
	}
	if now.Before(cp.StartsAt) || now.After(cp.ExpiresAt) {
		return false
	}
	if cp.UsageLimit != nil && cp.UsedCount >= *cp.UsageLimit {
		return false
	}
	return true
}

// CalculateDiscount calcule la réduction en centimes pour un sous-total donné.
// Retourne 0 (pas une erreur) si le sous-total est inférieur au minimum.
// Le résultat ne dépasse jamais le sous-total.
func (cp Coupon) CalculateDiscount(subtotal int64) int64 {
	if subtotal < cp.MinAmount {
		return 0
	}

	var discount int64
	switch cp.DiscountType {
	case DiscountPercentage:
		discount = subtotal * cp.Value / 100
		if cp.MaxAmount != nil && discount > *cp.MaxAmount {
			discount = *cp.MaxAmount
		}
	case DiscountFixed:
		discount = cp.Value
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
