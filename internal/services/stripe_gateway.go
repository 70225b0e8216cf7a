package services

import (
	"context"
	"log"
	"os"

	"savora_back_end/internal/models"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// StripeGateway crée et vérifie des PaymentIntents Stripe.
// L'order_id est embarqué dans les métadonnées du PaymentIntent.
type StripeGateway struct{}

func newStripeGateway() (Gateway, error) {
	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		return nil, ErrGatewayNotConfigured
	}
	return &StripeGateway{}, nil
}

func (g *StripeGateway) Name() string { return MethodStripe }

func (g *StripeGateway) CreateIntent(ctx context.Context, order *models.Order, amount int64) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID,
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		return nil, err
	}

	log.Printf("💳 PaymentIntent Stripe créé : %s (%d centimes) pour commande %s",
		intent.ID, amount, order.ID)

	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     "eur",
	}, nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, intentID string) (bool, string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		return false, "", err
	}

	return intent.Status == stripe.PaymentIntentStatusSucceeded, intent.Metadata["order_id"], nil
}
