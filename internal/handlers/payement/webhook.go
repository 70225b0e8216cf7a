package payement

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"savora_back_end/internal/services"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	rzputils "github.com/razorpay/razorpay-go/utils"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const maxWebhookBodyBytes = int64(65536)

// StripeWebhook est le chemin asynchrone de réconciliation Stripe.
// Seule une signature invalide est fatale (400). Toute autre erreur de
// traitement est avalée et acquittée (200) pour éviter que Stripe ne
// retente en boucle: la commande reste simplement non réconciliée.
func StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(c, event)

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func handleStripeEvent(c *gin.Context, event stripe.Event) {
	var settled bool
	switch event.Type {
	case "payment_intent.succeeded":
		settled = true
	case "payment_intent.payment_failed":
		settled = false
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	applyGatewayEvent(c, pi.Metadata["order_id"], settled)
}

// RazorpayWebhook, même contrat que le webhook Stripe: signature HMAC
// vérifiée, tout le reste est acquitté.
func RazorpayWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	signature := c.GetHeader("X-Razorpay-Signature")
	if secret != "" && !rzputils.VerifyWebhookSignature(string(payload), signature, secret) {
		log.Println("❌ Signature Razorpay invalide")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	var event struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					Notes map[string]string `json:"notes"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Println("❌ JSON Razorpay invalide:", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	log.Printf("📥 Événement Razorpay reçu : %s", event.Event)

	switch event.Event {
	case "payment.captured":
		applyGatewayEvent(c, event.Payload.Payment.Entity.Notes["order_id"], true)
	case "payment.failed":
		applyGatewayEvent(c, event.Payload.Payment.Entity.Notes["order_id"], false)
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Event)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// applyGatewayEvent applique la transition portée par un événement webhook.
// Commande inconnue ou erreur de store: loggé, jamais propagé — l'événement
// est acquitté quoi qu'il arrive.
func applyGatewayEvent(c *gin.Context, orderID string, settled bool) {
	if orderID == "" {
		log.Println("⚠️ Événement sans order_id dans les métadonnées")
		return
	}

	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		log.Printf("⚠️ order_id invalide dans les métadonnées: %s", orderID)
		return
	}

	ctx := c.Request.Context()
	recon := services.NewReconciler(store.Orders, services.Notify)

	if settled {
		if _, _, err := recon.MarkPaid(ctx, gocql.UUID(orderUUID), ""); err != nil {
			log.Printf("⚠️ Réconciliation impossible pour %s: %v", orderID, err)
		}
	} else {
		if err := recon.MarkFailed(ctx, gocql.UUID(orderUUID), ""); err != nil {
			log.Printf("⚠️ MarkFailed impossible pour %s: %v", orderID, err)
		}
	}
}
