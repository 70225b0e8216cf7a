package handlers

import (
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

// CreateOrder crée une commande depuis l'instantané du panier.
// Les prix viennent du catalogue, jamais du client. Le panier est vidé dans
// la même opération logique. Pas d'e-mail ici: la confirmation ne part qu'au
// paiement réussi, pour ne pas spammer les paniers abandonnés.
func CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var req struct {
		ShippingAddress models.ShippingAddress `json:"shipping_address"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if missing := req.ShippingAddress.Validate(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Adresse de livraison incomplète",
			"missing_fields": missing,
		})
		return
	}

	ctx := c.Request.Context()

	// ✅ 1. Instantané du panier (Redis)
	cartItems, err := store.Cart.Snapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	// ✅ 2. Résoudre les prix catalogue de confiance
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, cartItem := range cartItems {
		if cartItem.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide pour " + cartItem.ProductID})
			return
		}
		name, unitPrice, err := store.Products.GetProduct(ctx, cartItem.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Produit introuvable: " + cartItem.ProductID})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
			return
		}
		items = append(items, models.OrderItem{
			ProductID: cartItem.ProductID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  cartItem.Quantity,
		})
	}

	now := time.Now()
	order := models.Order{
		ID:              gocql.TimeUUID(),
		UserID:          userID,
		UserEmail:       email,
		Items:           items,
		TotalAmount:     models.CalcTotal(items),
		ShippingAddress: req.ShippingAddress,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := store.Orders.Insert(ctx, &order); err != nil {
		log.Printf("❌ Erreur création commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	// ✅ 3. Vider le panier (même opération logique)
	if err := store.Cart.Clear(ctx, userID); err != nil {
		log.Printf("⚠️ Panier non vidé pour %s: %v", userID, err)
	}

	log.Printf("✅ Commande créée: %s (%s) pour %s", order.ID, order.PaymentStatus, userID)
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders récupère toutes les commandes de l'utilisateur connecté
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	orders, err := store.Orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Erreur récupération commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// GetOrderByID récupère une commande, limitée à son propriétaire
func GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := store.Orders.GetByID(c.Request.Context(), gocql.UUID(orderID))
	if err != nil || order.UserID != userID {
		// Sécurité: on vérifie que la commande appartient bien à l'utilisateur
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder annule une commande (utilisateur). Refusé après livraison.
// Pas de remboursement automatique: le remboursement éventuel passe par le
// flux de retour côté admin.
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx := c.Request.Context()
	order, err := store.Orders.GetByID(ctx, gocql.UUID(orderID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	if order.OrderStatus == models.OrderDelivered {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Une commande livrée ne peut plus être annulée"})
		return
	}
	if order.OrderStatus == models.OrderCancelled {
		c.JSON(http.StatusOK, gin.H{"message": "Commande déjà annulée", "order_status": models.OrderCancelled})
		return
	}

	applied, observed, err := store.Orders.CASOrderStatus(ctx, order.ID, order.OrderStatus, models.OrderCancelled)
	if err != nil {
		log.Printf("❌ Erreur annulation commande %s: %v", order.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur annulation commande"})
		return
	}
	if !applied {
		// Le statut a bougé entre la lecture et le CAS
		if observed == models.OrderDelivered {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Une commande livrée ne peut plus être annulée"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "Statut de commande modifié entre-temps, réessayez"})
		return
	}

	log.Printf("✅ Commande annulée: %s par %s", order.ID, userID)

	order.OrderStatus = models.OrderCancelled
	services.Dispatch(services.EventOrderCancelled, services.Payload{Order: order, Email: order.UserEmail})

	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée", "order_status": models.OrderCancelled})
}

// GetAllOrders récupère toutes les commandes (admin)
func GetAllOrders(c *gin.Context) {
	orders, err := store.Orders.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// UpdateOrderStatus met à jour les statuts d'une commande (admin).
// Les transitions passent par la table d'états: une transition illégale
// (ex: delivered → processing) est rejetée.
func UpdateOrderStatus(c *gin.Context) {
	var req struct {
		OrderStatus   string `json:"order_status"`
		PaymentStatus string `json:"payment_status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if req.OrderStatus == "" && req.PaymentStatus == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune mise à jour fournie"})
		return
	}

	if req.OrderStatus != "" && !models.IsValidOrderStatus(req.OrderStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Statut de commande invalide",
			"valid_statuses": []string{models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCancelled},
		})
		return
	}
	if req.PaymentStatus != "" && !models.IsValidPaymentStatus(req.PaymentStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "Statut de paiement invalide",
			"valid_statuses": []string{models.PaymentPending, models.PaymentPaid, models.PaymentFailed},
		})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx := c.Request.Context()
	order, err := store.Orders.GetByID(ctx, gocql.UUID(orderID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	// ✅ Les DEUX transitions sont validées avant la moindre écriture: un refus
	// ne laisse jamais un état partiel derrière un 400
	if req.OrderStatus != "" && !models.CanTransitionOrderStatus(order.OrderStatus, req.OrderStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Transition de statut non autorisée",
			"from":  order.OrderStatus,
			"to":    req.OrderStatus,
		})
		return
	}
	if req.PaymentStatus != "" && !models.CanTransitionPaymentStatus(order.PaymentStatus, req.PaymentStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Transition de paiement non autorisée",
			"from":  order.PaymentStatus,
			"to":    req.PaymentStatus,
		})
		return
	}

	if req.OrderStatus != "" {
		applied, _, err := store.Orders.CASOrderStatus(ctx, order.ID, order.OrderStatus, req.OrderStatus)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
			return
		}
		if !applied {
			c.JSON(http.StatusConflict, gin.H{"error": "Statut de commande modifié entre-temps, réessayez"})
			return
		}
		order.OrderStatus = req.OrderStatus
	}

	if req.PaymentStatus != "" {
		applied, _, err := store.Orders.CASPaymentStatus(ctx, order.ID, order.PaymentStatus, req.PaymentStatus)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour paiement"})
			return
		}
		if !applied {
			c.JSON(http.StatusConflict, gin.H{"error": "Statut de paiement modifié entre-temps, réessayez"})
			return
		}
		order.PaymentStatus = req.PaymentStatus
	}

	// ✅ Une notification par transition reconnue, après que tout est écrit
	switch req.OrderStatus {
	case models.OrderShipped:
		services.Dispatch(services.EventOrderShipped, services.Payload{Order: order, Email: order.UserEmail})
	case models.OrderDelivered:
		services.Dispatch(services.EventOrderDelivered, services.Payload{Order: order, Email: order.UserEmail})
	case models.OrderCancelled:
		services.Dispatch(services.EventOrderCancelled, services.Payload{Order: order, Email: order.UserEmail})
	}

	log.Printf("✅ Commande %s mise à jour (order=%s, payment=%s)", order.ID, order.OrderStatus, order.PaymentStatus)
	c.JSON(http.StatusOK, order)
}
