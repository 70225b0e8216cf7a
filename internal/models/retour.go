package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de retour
const (
	ReturnPending  = "pending"
	ReturnApproved = "approved"
	ReturnDeclined = "declined"
	ReturnReceived = "received"
	ReturnRefunded = "refunded"
)

type Return struct {
	ID           gocql.UUID `json:"id"`
	OrderID      gocql.UUID `json:"order_id"`
	UserID       string     `json:"user_id"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	AdminNotes   string     `json:"admin_notes,omitempty"`
	RefundAmount int64      `json:"refund_amount"` // centimes, fixé par l'admin
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Table des transitions autorisées pour les retours.
// "declined" et "refunded" sont terminaux.
var returnStatusTransitions = map[string][]string{
	ReturnPending:  {ReturnApproved, ReturnDeclined},
	ReturnApproved: {ReturnReceived},
	ReturnReceived: {ReturnRefunded},
	ReturnDeclined: {},
	ReturnRefunded: {},
}

// CanTransitionReturnStatus valide une transition de statut de retour
func CanTransitionReturnStatus(from, to string) bool {
	return canTransition(returnStatusTransitions, from, to)
}

// IsValidReturnStatus indique si le statut de retour existe
func IsValidReturnStatus(s string) bool {
	_, ok := returnStatusTransitions[s]
	return ok
}

// CanSetRefundAmount indique si le montant de remboursement peut être fixé
// (approuvé ou plus loin dans le flux)
func CanSetRefundAmount(status string) bool {
	switch status {
	case ReturnApproved, ReturnReceived, ReturnRefunded:
		return true
	}
	return false
}
