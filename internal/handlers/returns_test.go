package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"savora_back_end/internal/models"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReturn(t *testing.T, returns *store.MemReturnStore, orderID gocql.UUID, userID, status string) *models.Return {
	t.Helper()
	ret := &models.Return{
		ID:        gocql.TimeUUID(),
		OrderID:   orderID,
		UserID:    userID,
		Reason:    "Le produit est arrivé endommagé",
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, returns.Insert(t.Context(), ret))
	return ret
}

func TestCreateReturn(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/returns", gin.H{
		"order_id": order.ID.String(),
		"reason":   "Le produit est arrivé endommagé",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := returns.GetByOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnPending, stored.Status)
}

func TestCreateReturnRequiresDelivered(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderShipped, models.PaymentPaid)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/returns", gin.H{
		"order_id": order.ID.String(),
		"reason":   "Je n'en veux plus finalement",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "livrée")
}

func TestCreateReturnDuplicate(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)
	seedReturn(t, returns, order.ID, "user-1", models.ReturnPending)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/returns", gin.H{
		"order_id": order.ID.String(),
		"reason":   "Le produit est arrivé endommagé",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "existe déjà")
}

func TestCreateReturnNotOwner(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-2", models.OrderDelivered, models.PaymentPaid)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/returns", gin.H{
		"order_id": order.ID.String(),
		"reason":   "Le produit est arrivé endommagé",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateReturnReasonTooShort(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/returns", gin.H{
		"order_id": order.ID.String(),
		"reason":   "cassé",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReturnStatusApprove(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)
	ret := seedReturn(t, returns, order.ID, "user-1", models.ReturnPending)

	refund := int64(1200)
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/returns/"+ret.ID.String(), gin.H{
		"status":        models.ReturnApproved,
		"admin_notes":   "Photo du colis reçue",
		"refund_amount": refund,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Return models.Return `json:"return"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ReturnApproved, resp.Return.Status)
	assert.Equal(t, refund, resp.Return.RefundAmount)

	stored, err := returns.GetByID(t.Context(), ret.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnApproved, stored.Status)
}

func TestUpdateReturnStatusRefundBeforeApproval(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)
	ret := seedReturn(t, returns, order.ID, "user-1", models.ReturnPending)

	// refund_amount sur un refus: interdit
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/returns/"+ret.ID.String(), gin.H{
		"status":        models.ReturnDeclined,
		"refund_amount": 500,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReturnStatusIllegalTransition(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)
	ret := seedReturn(t, returns, order.ID, "user-1", models.ReturnPending)

	// pending → refunded sans approbation ni réception
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/returns/"+ret.ID.String(), gin.H{
		"status": models.ReturnRefunded,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Transition")
}

func TestUpdateReturnStatusFullFlow(t *testing.T) {
	orders, _, _, returns := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)
	ret := seedReturn(t, returns, order.ID, "user-1", models.ReturnPending)

	r := setupRouter("admin-1", "admin@savora.shop")

	for _, status := range []string{models.ReturnApproved, models.ReturnReceived, models.ReturnRefunded} {
		w := doJSON(r, http.MethodPut, "/returns/"+ret.ID.String(), gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	stored, err := returns.GetByID(t.Context(), ret.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRefunded, stored.Status)
}
