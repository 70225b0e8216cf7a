package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"savora_back_end/internal/models"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway crée des orders Razorpay et vérifie les paiements.
// L'order_id Savora est embarqué dans les notes Razorpay.
// NB: le SDK Razorpay ne propage pas de context.Context; le timeout est celui
// du client HTTP du SDK.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

func newRazorpayGateway() (Gateway, error) {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return nil, ErrGatewayNotConfigured
	}
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret), keyID: keyID}, nil
}

func (g *RazorpayGateway) Name() string { return MethodRazorpay }

func (g *RazorpayGateway) CreateIntent(_ context.Context, order *models.Order, amount int64) (*PaymentIntent, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": "EUR",
		"receipt":  order.ID.String(),
		"notes": map[string]interface{}{
			"order_id": order.ID.String(),
			"user_id":  order.UserID,
		},
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		log.Printf("❌ Erreur Razorpay: %v", err)
		return nil, err
	}

	rzpOrderID, ok := body["id"].(string)
	if !ok {
		return nil, fmt.Errorf("réponse Razorpay inattendue: %v", body)
	}

	log.Printf("💳 Order Razorpay créé : %s (%d centimes) pour commande %s",
		rzpOrderID, amount, order.ID)

	return &PaymentIntent{
		ID:       rzpOrderID,
		KeyID:    g.keyID,
		Amount:   amount,
		Currency: "EUR",
	}, nil
}

func (g *RazorpayGateway) ConfirmIntent(_ context.Context, intentID string) (bool, string, error) {
	payment, err := g.client.Payment.Fetch(intentID, nil, nil)
	if err != nil {
		return false, "", err
	}

	var orderID string
	if notes, ok := payment["notes"].(map[string]interface{}); ok {
		orderID, _ = notes["order_id"].(string)
	}

	status, _ := payment["status"].(string)
	return status == "captured", orderID, nil
}
