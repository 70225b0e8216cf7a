package payement

import (
	"context"
	"errors"
	"log"
	"net/http"

	"savora_back_end/internal/services"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// ConfirmPayment est le chemin de confirmation côté utilisateur: on demande à
// la passerelle si la référence correspond bien à une charge encaissée, puis
// le réconciliateur applique pending→paid (idempotent si le webhook est passé
// avant). Une charge refusée est un résultat rapporté, pas une erreur fatale.
func ConfirmPayment(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var req struct {
		PaymentIntentID string `json:"payment_intent_id" binding:"required"`
		OrderID         string `json:"order_id" binding:"required"`
		PaymentMethod   string `json:"payment_method" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

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

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	settled, intentOrderID, err := gateway.ConfirmIntent(gwCtx, req.PaymentIntentID)
	if err != nil {
		// Timeout ou passerelle injoignable: échec retentable, jamais une
		// décision paid/failed silencieuse
		log.Printf("❌ Erreur vérification paiement %s: %v", req.PaymentIntentID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Vérification du paiement impossible, réessayez", "retryable": true})
		return
	}

	// ✅ L'intention doit référencer CETTE commande: une référence encaissée
	// pour une autre commande ne peut pas marquer celle-ci payée
	if intentOrderID != "" && intentOrderID != order.ID.String() {
		log.Printf("⚠️ Intention %s référence la commande %s, pas %s", req.PaymentIntentID, intentOrderID, order.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "L'intention de paiement ne correspond pas à cette commande"})
		return
	}

	recon := services.NewReconciler(store.Orders, services.Notify)

	if !settled {
		if err := recon.MarkFailed(ctx, order.ID, email); err != nil {
			log.Printf("⚠️ MarkFailed %s: %v", order.ID, err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paiement refusé par la passerelle", "payment_status": order.PaymentStatus})
		return
	}

	updated, _, err := recon.MarkPaid(ctx, order.ID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour paiement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Paiement confirmé", "order": updated})
}
