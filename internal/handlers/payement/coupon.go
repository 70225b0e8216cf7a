package payement

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"savora_back_end/internal/models"
	"savora_back_end/internal/store"
	"savora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// CreateCoupon - Créer un nouveau coupon (Admin seulement)
func CreateCoupon(c *gin.Context) {
	var req struct {
		Code         string    `json:"code" binding:"required"`
		DiscountType string    `json:"discount_type" binding:"required"` // "percentage", "fixed"
		Value        int64     `json:"value" binding:"required"`
		MinAmount    int64     `json:"min_amount"`
		MaxAmount    *int64    `json:"max_amount"`
		UsageLimit   *int      `json:"usage_limit"`
		ExpiresAt    time.Time `json:"expires_at" binding:"required"`
		StartsAt     time.Time `json:"starts_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	if req.DiscountType != models.DiscountPercentage && req.DiscountType != models.DiscountFixed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de coupon invalide"})
		return
	}

	if req.DiscountType == models.DiscountPercentage && (req.Value <= 0 || req.Value > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage doit être entre 1 et 100"})
		return
	}

	if req.DiscountType == models.DiscountFixed && req.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant fixe doit être positif"})
		return
	}

	ctx := c.Request.Context()

	// Vérifier si le code existe déjà
	if _, err := store.Coupons.GetByCode(ctx, req.Code); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce code coupon existe déjà"})
		return
	}

	userID := c.GetString("user_id")
	now := time.Now()

	if req.StartsAt.IsZero() {
		req.StartsAt = now
	}

	coupon := models.Coupon{
		ID:           gocql.TimeUUID(),
		Code:         strings.ToUpper(req.Code),
		DiscountType: req.DiscountType,
		Value:        req.Value,
		MinAmount:    req.MinAmount,
		MaxAmount:    req.MaxAmount,
		UsageLimit:   req.UsageLimit,
		UsedCount:    0,
		StartsAt:     req.StartsAt,
		ExpiresAt:    req.ExpiresAt,
		IsActive:     true,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.Coupons.Insert(ctx, &coupon); err != nil {
		log.Printf("❌ Erreur création coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du coupon"})
		return
	}

	log.Printf("✅ Coupon créé: %s", coupon.Code)
	c.JSON(http.StatusCreated, gin.H{"message": "Coupon créé avec succès", "coupon": coupon})
}

// ValidateCoupon valide un code contre un sous-total, sans rien consommer
func ValidateCoupon(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Subtotal int64  `json:"subtotal"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	coupon, err := store.Coupons.GetByCode(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Code coupon invalide"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	validation := validateCoupon(coupon, req.Subtotal)
	if !validation.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         validation.ErrorMessage,
			"below_minimum": validation.BelowMinimum,
			"min_amount":    validation.MinAmount,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"coupon": gin.H{
			"code":           validation.Code,
			"discount_type":  validation.DiscountType,
			"discount_value": validation.Value,
			"discount":       validation.Discount,
			"final_amount":   validation.FinalAmount,
		},
	})
}

// ApplyCoupon consomme une utilisation du coupon pour une commande.
// L'incrément de used_count est un CAS: la limite ne peut pas être dépassée
// par des rédemptions concurrentes. La rédemption n'est volontairement pas
// atomique avec la confirmation du paiement.
func ApplyCoupon(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Code string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	orderUUID, err := uuid.Parse(c.Param("orderId"))
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

	// Rédemption: re-lecture, re-validation, incrément conditionnel.
	// Quelques tentatives en cas de course sur le compteur.
	var coupon *models.Coupon
	var validation models.CouponValidation
	redeemed := false

	for attempt := 0; attempt < 3 && !redeemed; attempt++ {
		coupon, err = store.Coupons.GetByCode(ctx, req.Code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Code coupon invalide"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
			return
		}

		validation = validateCoupon(coupon, order.TotalAmount)
		if !validation.IsValid {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         validation.ErrorMessage,
				"below_minimum": validation.BelowMinimum,
				"min_amount":    validation.MinAmount,
			})
			return
		}

		redeemed, err = store.Coupons.CASIncrementUsedCount(ctx, coupon.Code, coupon.UsedCount)
		if err != nil {
			log.Printf("❌ Erreur rédemption coupon %s: %v", coupon.Code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'application du coupon"})
			return
		}
	}

	if !redeemed {
		c.JSON(http.StatusConflict, gin.H{"error": "Coupon très demandé, réessayez"})
		return
	}

	// Journal d'utilisation append-only (audit, pas de limite par utilisateur)
	usage := models.CouponUsage{
		CouponCode: coupon.Code,
		UserID:     userID,
		OrderID:    order.ID,
		UsedAt:     time.Now(),
	}
	if err := store.Coupons.AppendUsage(ctx, usage); err != nil {
		log.Printf("⚠️ Usage coupon non journalisé (%s): %v", coupon.Code, err)
	}

	if err := store.Orders.SetCoupon(ctx, order.ID, coupon.Code, validation.Discount); err != nil {
		log.Printf("⚠️ Coupon non enregistré sur la commande %s: %v", order.ID, err)
	}

	log.Printf("✅ Coupon appliqué: %s sur commande %s (%s de réduction)",
		coupon.Code, order.ID, utils.FormatEuros(validation.Discount))

	c.JSON(http.StatusOK, gin.H{
		"message":      "Coupon appliqué avec succès",
		"code":         coupon.Code,
		"discount":     validation.Discount,
		"final_amount": validation.FinalAmount,
	})
}

// GetAllCoupons - Récupérer tous les coupons (Admin)
func GetAllCoupons(c *gin.Context) {
	coupons, err := store.Coupons.List(c.Request.Context())
	if err != nil {
		log.Printf("❌ Erreur récupération coupons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"coupons": coupons, "total": len(coupons)})
}

// UpdateCoupon - Mettre à jour un coupon (Admin)
func UpdateCoupon(c *gin.Context) {
	code := c.Param("code")

	var req struct {
		IsActive   *bool      `json:"is_active"`
		UsageLimit *int       `json:"usage_limit"`
		ExpiresAt  *time.Time `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.IsActive == nil && req.UsageLimit == nil && req.ExpiresAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune mise à jour fournie"})
		return
	}

	ctx := c.Request.Context()
	coupon, err := store.Coupons.GetByCode(ctx, code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon introuvable"})
		return
	}

	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = *req.ExpiresAt
	}

	if err := store.Coupons.Update(ctx, coupon); err != nil {
		log.Printf("❌ Erreur mise à jour coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon mis à jour avec succès", "coupon": coupon})
}

// DeleteCoupon - Supprimer un coupon (Admin)
func DeleteCoupon(c *gin.Context) {
	code := c.Param("code")

	ctx := c.Request.Context()
	if _, err := store.Coupons.GetByCode(ctx, code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon introuvable"})
		return
	}

	if err := store.Coupons.Delete(ctx, code); err != nil {
		log.Printf("❌ Erreur suppression coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la suppression"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon supprimé avec succès"})
}

// validateCoupon vérifie l'état du coupon et calcule la réduction.
// Un sous-total sous le minimum est un échec distinct qui porte le minimum
// requis: l'appelant doit pouvoir l'afficher à l'utilisateur.
func validateCoupon(coupon *models.Coupon, subtotal int64) models.CouponValidation {
	now := time.Now()

	if !coupon.IsActive {
		return models.CouponValidation{IsValid: false, ErrorMessage: "Ce coupon n'est plus actif"}
	}

	if now.Before(coupon.StartsAt) {
		return models.CouponValidation{IsValid: false, ErrorMessage: "Ce coupon n'est pas encore valide"}
	}

	if now.After(coupon.ExpiresAt) {
		return models.CouponValidation{IsValid: false, ErrorMessage: "Ce coupon a expiré"}
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return models.CouponValidation{IsValid: false, ErrorMessage: "Ce coupon a atteint sa limite d'utilisation"}
	}

	if subtotal < coupon.MinAmount {
		return models.CouponValidation{
			IsValid:      false,
			BelowMinimum: true,
			MinAmount:    coupon.MinAmount,
			ErrorMessage: "Montant d'achat minimum de " + utils.FormatEuros(coupon.MinAmount) + " requis",
		}
	}

	discount := coupon.CalculateDiscount(subtotal)

	return models.CouponValidation{
		IsValid:      true,
		Code:         coupon.Code,
		DiscountType: coupon.DiscountType,
		Value:        coupon.Value,
		Discount:     discount,
		FinalAmount:  subtotal - discount,
	}
}
