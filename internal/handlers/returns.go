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

// CreateReturn crée une demande de retour pour une commande livrée.
// Un seul retour par commande (vérification lecture-puis-écriture).
func CreateReturn(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var req struct {
		OrderID string `json:"order_id" binding:"required"`
		Reason  string `json:"reason" binding:"required,min=10,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
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

	// Précondition: seule une commande livrée peut être retournée
	if order.OrderStatus != models.OrderDelivered {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Seule une commande livrée peut faire l'objet d'un retour",
			"status": order.OrderStatus,
		})
		return
	}

	// Vérifier qu'il n'y a pas déjà un retour pour cette commande
	if _, err := store.Returns.GetByOrder(ctx, order.ID); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Une demande de retour existe déjà pour cette commande"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	now := time.Now()
	ret := models.Return{
		ID:        gocql.TimeUUID(),
		OrderID:   order.ID,
		UserID:    userID,
		Reason:    req.Reason,
		Status:    models.ReturnPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.Returns.Insert(ctx, &ret); err != nil {
		log.Printf("❌ Erreur création demande de retour: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("📋 Demande de retour créée: %s pour commande %s", ret.ID, order.ID)

	if email == "" {
		email = order.UserEmail
	}
	services.Dispatch(services.EventReturnCreated, services.Payload{Return: &ret, Email: email})

	c.JSON(http.StatusCreated, gin.H{"message": "Demande de retour créée", "return": ret})
}

// GetMyReturns récupère les demandes de retour de l'utilisateur connecté
func GetMyReturns(c *gin.Context) {
	userID := c.GetString("user_id")

	returns, err := store.Returns.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture retours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"returns": returns, "count": len(returns)})
}

// GetAllReturns récupère toutes les demandes de retour (admin)
func GetAllReturns(c *gin.Context) {
	returns, err := store.Returns.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture retours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"returns": returns, "count": len(returns)})
}

// UpdateReturnStatus traite une demande de retour (admin).
// pending → approved|declined ; approved → received ; received → refunded.
// declined et refunded sont terminaux.
func UpdateReturnStatus(c *gin.Context) {
	var req struct {
		Status       string `json:"status" binding:"required"`
		AdminNotes   string `json:"admin_notes"`
		RefundAmount *int64 `json:"refund_amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if !models.IsValidReturnStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Statut de retour invalide",
			"valid_statuses": []string{models.ReturnPending, models.ReturnApproved,
				models.ReturnDeclined, models.ReturnReceived, models.ReturnRefunded},
		})
		return
	}

	returnUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID retour invalide"})
		return
	}

	ctx := c.Request.Context()
	ret, err := store.Returns.GetByID(ctx, gocql.UUID(returnUUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande de retour introuvable"})
		return
	}

	if !models.CanTransitionReturnStatus(ret.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Transition de statut non autorisée",
			"from":  ret.Status,
			"to":    req.Status,
		})
		return
	}

	// Le montant du remboursement ne se fixe qu'à partir de l'approbation
	if req.RefundAmount != nil && !models.CanSetRefundAmount(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant de remboursement non autorisé à ce stade"})
		return
	}

	applied, _, err := store.Returns.CASStatus(ctx, ret.ID, ret.Status, req.Status, req.AdminNotes, req.RefundAmount)
	if err != nil {
		log.Printf("❌ Erreur mise à jour retour %s: %v", ret.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Statut de retour modifié entre-temps, réessayez"})
		return
	}

	ret.Status = req.Status
	if req.AdminNotes != "" {
		ret.AdminNotes = req.AdminNotes
	}
	if req.RefundAmount != nil {
		ret.RefundAmount = *req.RefundAmount
	}

	log.Printf("✅ Retour %s → %s", ret.ID, req.Status)

	// Notification best-effort vers le propriétaire de la commande
	var email string
	if order, err := store.Orders.GetByID(ctx, ret.OrderID); err == nil {
		email = order.UserEmail
	}
	switch req.Status {
	case models.ReturnApproved:
		services.Dispatch(services.EventReturnApproved, services.Payload{Return: ret, Email: email})
	case models.ReturnDeclined:
		services.Dispatch(services.EventReturnDeclined, services.Payload{Return: ret, Email: email})
	case models.ReturnReceived:
		services.Dispatch(services.EventReturnReceived, services.Payload{Return: ret, Email: email})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Retour mis à jour", "return": ret})
}
