package services

import (
	"context"
	"log"

	"savora_back_end/internal/models"
	"savora_back_end/internal/store"

	"github.com/gocql/gocql"
)

// Reconciler pilote les transitions de payment_status. Il est appelé depuis
// deux chemins indépendants — la confirmation utilisateur et le webhook — et
// les deux peuvent se présenter pour la même commande, dans n'importe quel
// ordre, plusieurs fois. Le contrat: la transition vers "paid" est
// idempotente, une seule écriture CAS gagne.
type Reconciler struct {
	orders   store.OrderStore
	notifier Notifier
}

func NewReconciler(orders store.OrderStore, notifier Notifier) *Reconciler {
	return &Reconciler{orders: orders, notifier: notifier}
}

// MarkPaid applique pending→paid (ou failed→paid après une nouvelle tentative
// réussie). Une commande déjà payée est un no-op: on retourne la commande sans
// réémettre la transition. Les notifications sont envoyées en séquence sur la
// transition effective, best-effort.
func (r *Reconciler) MarkPaid(ctx context.Context, orderID gocql.UUID, email string) (*models.Order, bool, error) {
	applied, observed, err := r.orders.CASPaymentStatus(ctx, orderID, models.PaymentPending, models.PaymentPaid)
	if err != nil {
		return nil, false, err
	}

	if !applied {
		switch observed {
		case models.PaymentPaid:
			// Déjà payé — transition idempotente, rien à réémettre
			log.Printf("🔁 Commande %s déjà payée, transition ignorée", orderID)
		case models.PaymentFailed:
			applied, _, err = r.orders.CASPaymentStatus(ctx, orderID, models.PaymentFailed, models.PaymentPaid)
			if err != nil {
				return nil, false, err
			}
		}
	}

	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	if applied {
		log.Printf("✅ Paiement confirmé pour commande %s", orderID)
		r.sendPaymentNotifications(order, email)
	}

	return order, applied, nil
}

// sendPaymentNotifications envoie confirmation de commande puis confirmation
// de paiement, en séquence. Un échec est loggé et n'annule rien.
func (r *Reconciler) sendPaymentNotifications(order *models.Order, email string) {
	if email == "" {
		email = order.UserEmail
	}
	if email == "" {
		log.Printf("⚠️ Pas d'e-mail pour la commande %s, notifications ignorées", order.ID)
		return
	}
	for _, event := range []Event{EventOrderConfirmed, EventPaymentSuccess} {
		if err := r.notifier.Send(event, Payload{Order: order, Email: email}); err != nil {
			log.Printf("❌ Erreur envoi notification %s pour %s: %v", event, order.ID, err)
		}
	}
}

// MarkFailed signale une charge refusée par la passerelle. Le payment_status
// reste "pending" (la commande peut être retentée); seule la notification
// d'échec part.
func (r *Reconciler) MarkFailed(ctx context.Context, orderID gocql.UUID, email string) error {
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	log.Printf("⚠️ Paiement refusé pour commande %s", orderID)
	if email == "" {
		email = order.UserEmail
	}
	if email != "" {
		if err := r.notifier.Send(EventPaymentError, Payload{Order: order, Email: email}); err != nil {
			log.Printf("❌ Erreur envoi notification payment_error pour %s: %v", orderID, err)
		}
	}
	return nil
}
