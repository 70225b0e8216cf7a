package payement

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"savora_back_end/internal/models"
	"savora_back_end/internal/services"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// Taux appliqués au sous-total lors de la création de l'intent
const (
	taxRatePercent           = 18
	serviceChargeRatePercent = 2
)

const gatewayTimeout = 15 * time.Second

type amountBreakdown struct {
	Subtotal      int64 `json:"subtotal"`
	Tax           int64 `json:"tax"`
	ServiceCharge int64 `json:"service_charge"`
	TotalAmount   int64 `json:"total_amount"`
}

// computeBreakdown calcule la décomposition du montant à encaisser:
// sous-total (après réduction coupon), TVA 18%, frais de service 2%
func computeBreakdown(order *models.Order) amountBreakdown {
	subtotal := order.TotalAmount - order.DiscountAmount
	if subtotal < 0 {
		subtotal = 0
	}
	tax := subtotal * taxRatePercent / 100
	service := subtotal * serviceChargeRatePercent / 100
	return amountBreakdown{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: service,
		TotalAmount:   subtotal + tax + service,
	}
}

// CreatePaymentIntent crée l'intent de paiement auprès de la passerelle
// choisie (stripe ou razorpay). Le choix est fait à la requête, pas figé sur
// la commande. Une passerelle non configurée échoue avant toute mutation.
func CreatePaymentIntent(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		OrderID       string `json:"order_id" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	// ✅ La passerelle d'abord: erreur de configuration avant toute écriture
	gateway, err := services.ForMethod(req.PaymentMethod)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedMethod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Méthode de paiement non supportée", "method": req.PaymentMethod})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Passerelle de paiement non configurée", "method": req.PaymentMethod})
		return
	}

	orderUUID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx := c.Request.Context()
	order, err := store.Orders.GetByID(ctx, gocql.UUID(orderUUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	if order.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande est déjà payée"})
		return
	}
	if order.OrderStatus == models.OrderCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande est annulée"})
		return
	}

	breakdown := computeBreakdown(order)

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	intent, err := gateway.CreateIntent(gwCtx, order, breakdown.TotalAmount)
	if err != nil {
		log.Printf("❌ Erreur création intent %s pour %s: %v", req.PaymentMethod, order.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur création paiement", "details": err.Error()})
		return
	}

	if err := store.Orders.SetPaymentIntent(ctx, order.ID, req.PaymentMethod, intent.ID); err != nil {
		log.Printf("⚠️ Intent %s non enregistré sur la commande %s: %v", intent.ID, order.ID, err)
	}

	log.Printf("💳 Intent créé: %s (%s, %d centimes) pour commande %s",
		intent.ID, req.PaymentMethod, breakdown.TotalAmount, order.ID)

	c.JSON(http.StatusOK, gin.H{
		"intent":    intent,
		"breakdown": breakdown,
	})
}
