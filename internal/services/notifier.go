package services

import (
	"log"

	"savora_back_end/internal/models"
	"savora_back_end/internal/utils"
)

// Événements du cycle de vie déclenchant un e-mail
type Event string

const (
	EventOrderConfirmed Event = "order_confirmed"
	EventPaymentSuccess Event = "payment_success"
	EventPaymentError   Event = "payment_error"
	EventOrderShipped   Event = "order_shipped"
	EventOrderDelivered Event = "order_delivered"
	EventOrderCancelled Event = "order_cancelled"
	EventReturnCreated  Event = "return_created"
	EventReturnApproved Event = "return_approved"
	EventReturnDeclined Event = "return_declined"
	EventReturnReceived Event = "return_received"
)

type Payload struct {
	Order  *models.Order
	Return *models.Return
	Email  string
}

// Notifier est le dispatcher de notifications: best-effort, jamais bloquant
// pour la transition qui le déclenche.
type Notifier interface {
	Send(event Event, payload Payload) error
}

// Notify est le dispatcher global (remplaçable en test)
var Notify Notifier = &MailNotifier{}

// Dispatch envoie la notification dans une goroutine. L'échec est loggé,
// jamais propagé à l'appelant.
func Dispatch(event Event, payload Payload) {
	go DispatchSync(event, payload)
}

// DispatchSync envoie la notification en séquence (chemin de confirmation de
// paiement). L'échec reste loggé seulement: il ne remet jamais en cause la
// transition déjà commise.
func DispatchSync(event Event, payload Payload) {
	if payload.Email == "" {
		log.Printf("⚠️ Notification %s sans destinataire, ignorée", event)
		return
	}
	if err := Notify.Send(event, payload); err != nil {
		log.Printf("❌ Erreur envoi notification %s: %v", event, err)
	} else {
		log.Printf("📧 Notification %s envoyée à %s", event, payload.Email)
	}
}

// MailNotifier envoie les e-mails via SMTP (go-mail)
type MailNotifier struct{}

func (n *MailNotifier) Send(event Event, payload Payload) error {
	var subject, html string

	switch event {
	case EventOrderConfirmed:
		subject = "✅ Confirmation de votre commande Savora"
		html = utils.GenerateOrderConfirmationHTML(*payload.Order)
	case EventPaymentSuccess:
		subject = "💳 Paiement confirmé - Savora"
		html = utils.GenerateStatusEmailHTML(*payload.Order, models.PaymentPaid)
	case EventPaymentError:
		subject = "⚠️ Échec de votre paiement - Savora"
		html = utils.GeneratePaymentErrorHTML(*payload.Order)
	case EventOrderShipped:
		subject = "📦 Votre commande a été expédiée - Savora"
		html = utils.GenerateStatusEmailHTML(*payload.Order, models.OrderShipped)
	case EventOrderDelivered:
		subject = "🎉 Votre commande a été livrée - Savora"
		html = utils.GenerateStatusEmailHTML(*payload.Order, models.OrderDelivered)
	case EventOrderCancelled:
		subject = "❌ Commande annulée - Savora"
		html = utils.GenerateStatusEmailHTML(*payload.Order, models.OrderCancelled)
	case EventReturnCreated:
		subject = "📋 Demande de retour enregistrée - Savora"
		html = utils.GenerateReturnEmailHTML(*payload.Return, models.ReturnPending)
	case EventReturnApproved:
		subject = "✅ Retour approuvé - Savora"
		html = utils.GenerateReturnEmailHTML(*payload.Return, models.ReturnApproved)
	case EventReturnDeclined:
		subject = "❌ Retour refusé - Savora"
		html = utils.GenerateReturnEmailHTML(*payload.Return, models.ReturnDeclined)
	case EventReturnReceived:
		subject = "📦 Retour bien reçu - Savora"
		html = utils.GenerateReturnEmailHTML(*payload.Return, models.ReturnReceived)
	default:
		log.Printf("⚠️ Événement de notification inconnu: %s", event)
		return nil
	}

	return utils.SendEmail(payload.Email, subject, html)
}
