package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"savora_back_end/internal/models"
	"savora_back_end/internal/services"
	"savora_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopNotifier struct{}

func (n *noopNotifier) Send(services.Event, services.Payload) error { return nil }

// setupStores branche des implémentations en mémoire sur les globales
func setupStores(t *testing.T) (*store.MemOrderStore, *store.MemCart, *store.MemCatalog, *store.MemReturnStore) {
	t.Helper()

	orders := store.NewMemOrderStore()
	cart := store.NewMemCart()
	catalog := &store.MemCatalog{Entries: map[string]store.MemProduct{}}
	returns := store.NewMemReturnStore()

	store.Orders = orders
	store.Cart = cart
	store.Products = catalog
	store.Returns = returns
	services.Notify = &noopNotifier{}

	return orders, cart, catalog, returns
}

// setupRouter monte les routes avec une identité injectée (pas de vrai JWT)
func setupRouter(userID, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", email)
	})

	r.POST("/orders", CreateOrder)
	r.GET("/orders/:id", GetOrderByID)
	r.DELETE("/orders/:id", CancelOrder)
	r.PUT("/orders/:id", UpdateOrderStatus)

	r.POST("/returns", CreateReturn)
	r.GET("/returns", GetMyReturns)
	r.PUT("/returns/:id", UpdateReturnStatus)

	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Marie Dupont",
		Address:    "12 rue des Halles",
		City:       "Bruxelles",
		State:      "Bruxelles-Capitale",
		Country:    "Belgique",
		PostalCode: "1000",
		Phone:      "+32470000000",
	}
}

func seedOrder(t *testing.T, orders *store.MemOrderStore, userID, orderStatus, paymentStatus string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		UserEmail:     userID + "@example.com",
		TotalAmount:   1200,
		PaymentStatus: paymentStatus,
		OrderStatus:   orderStatus,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, orders.Insert(t.Context(), order))
	return order
}

func TestCreateOrder(t *testing.T) {
	orders, cart, catalog, _ := setupStores(t)
	catalog.Entries["p1"] = store.MemProduct{Name: "Granola bio", Price: 80}
	cart.Set("user-1", []models.CartItem{{ProductID: "p1", Quantity: 3}})

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/orders", gin.H{"shipping_address": validAddress()})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	// Prix catalogue, jamais le prix client: 3 × 80 centimes
	assert.Equal(t, int64(240), order.TotalAmount)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, order.OrderStatus)
	assert.Equal(t, "marie@example.com", order.UserEmail)

	// Le panier est vidé dans la même opération logique
	assert.True(t, cart.Cleared("user-1"))

	stored, err := orders.GetByID(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Granola bio", stored.Items[0].Name)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	setupStores(t)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/orders", gin.H{"shipping_address": validAddress()})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Panier vide")
}

func TestCreateOrderIncompleteAddress(t *testing.T) {
	_, cart, catalog, _ := setupStores(t)
	catalog.Entries["p1"] = store.MemProduct{Name: "Granola bio", Price: 80}
	cart.Set("user-1", []models.CartItem{{ProductID: "p1", Quantity: 1}})

	addr := validAddress()
	addr.PostalCode = ""

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/orders", gin.H{"shipping_address": addr})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "postal_code")

	// Rien n'a été consommé
	assert.False(t, cart.Cleared("user-1"))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	_, cart, _, _ := setupStores(t)
	cart.Set("user-1", []models.CartItem{{ProductID: "fantome", Quantity: 1}})

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodPost, "/orders", gin.H{"shipping_address": validAddress()})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "fantome")
}

func TestGetOrderByIDOwnerScoped(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-2", models.OrderProcessing, models.PaymentPending)

	// Un autre utilisateur reçoit 404, pas 403: on ne révèle pas l'existence
	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodGet, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelOrder(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderProcessing, models.PaymentPending)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := orders.GetByID(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, stored.OrderStatus)
}

func TestCancelOrderDelivered(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := orders.GetByID(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, stored.OrderStatus)
}

func TestCancelOrderAlreadyCancelled(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderCancelled, models.PaymentPending)

	// Idempotent: annuler une commande annulée reste un 200
	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelOrderNotOwner(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-2", models.OrderProcessing, models.PaymentPending)

	r := setupRouter("user-1", "marie@example.com")
	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateOrderStatusShipped(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderProcessing, models.PaymentPaid)

	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(),
		gin.H{"order_status": models.OrderShipped})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := orders.GetByID(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, stored.OrderStatus)
}

func TestUpdateOrderStatusIllegalTransition(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderDelivered, models.PaymentPaid)

	// delivered est terminal: pas de retour en arrière
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(),
		gin.H{"order_status": models.OrderProcessing})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Transition")
}

func TestUpdateOrderStatusSkipShipped(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderProcessing, models.PaymentPaid)

	// processing → delivered sans passer par shipped: refusé
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(),
		gin.H{"order_status": models.OrderDelivered})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatusCombinedRejectedAtomically(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderProcessing, models.PaymentPaid)

	// order_status valide + payment_status illégal (paid est terminal):
	// le refus ne doit laisser AUCUNE des deux mutations derrière lui
	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(), gin.H{
		"order_status":   models.OrderShipped,
		"payment_status": models.PaymentPending,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := orders.GetByID(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, stored.OrderStatus)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
}

func TestUpdateOrderStatusUnknownValue(t *testing.T) {
	orders, _, _, _ := setupStores(t)
	order := seedOrder(t, orders, "user-1", models.OrderProcessing, models.PaymentPending)

	r := setupRouter("admin-1", "admin@savora.shop")
	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(),
		gin.H{"order_status": "expedie"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "valid_statuses")
}
