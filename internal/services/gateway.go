package services

import (
	"context"
	"errors"

	"savora_back_end/internal/models"
)

// Méthodes de paiement supportées
const (
	MethodStripe   = "stripe"
	MethodRazorpay = "razorpay"
)

var (
	ErrUnsupportedMethod    = errors.New("méthode de paiement non supportée")
	ErrGatewayNotConfigured = errors.New("passerelle de paiement non configurée")
)

// PaymentIntent est la référence éphémère côté passerelle. La commande ne
// garde que l'ID opaque; la réconciliation s'appuie sur l'order_id embarqué
// dans les métadonnées de la passerelle.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"` // Stripe
	KeyID        string `json:"key_id,omitempty"`        // Razorpay (clé publique)
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Gateway est la capacité commune aux deux passerelles.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, order *models.Order, amount int64) (*PaymentIntent, error)
	// ConfirmIntent demande à la passerelle si la référence correspond à une
	// charge encaissée, et rapporte l'order_id embarqué dans ses métadonnées
	// (vide si la passerelle n'en expose pas). settled=false = charge
	// refusée/non aboutie (non fatal).
	ConfirmIntent(ctx context.Context, intentID string) (settled bool, orderID string, err error)
}

// Registry associe chaque méthode à son constructeur. Les constructeurs
// vérifient la configuration et échouent AVANT tout appel réseau et avant
// toute mutation en base. Remplaçable en test.
var Registry = map[string]func() (Gateway, error){
	MethodStripe:   newStripeGateway,
	MethodRazorpay: newRazorpayGateway,
}

// ForMethod retourne la passerelle demandée ou une erreur de configuration
func ForMethod(method string) (Gateway, error) {
	build, ok := Registry[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return build()
}
