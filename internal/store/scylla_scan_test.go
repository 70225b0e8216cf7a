package store

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowScanner simule le contrat d'itération des stores Scylla: chaque appel
// remplit dest avec la ligne suivante, puis gocql.ErrNotFound une fois le jeu
// de lignes épuisé.
func rowScanner(t *testing.T, rows [][]interface{}) func(dest ...interface{}) error {
	t.Helper()
	i := 0
	return func(dest ...interface{}) error {
		if i >= len(rows) {
			return gocql.ErrNotFound
		}
		row := rows[i]
		i++
		require.Len(t, dest, len(row))
		for j, d := range dest {
			reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[j]))
		}
		return nil
	}
}

func orderRow(t *testing.T, order models.Order) []interface{} {
	t.Helper()
	itemsJSON, err := json.Marshal(order.Items)
	require.NoError(t, err)
	addressJSON, err := json.Marshal(order.ShippingAddress)
	require.NoError(t, err)
	return []interface{}{
		order.ID, order.UserID, order.UserEmail, string(itemsJSON), order.TotalAmount, string(addressJSON),
		order.PaymentStatus, order.OrderStatus, order.PaymentMethod, order.PaymentIntentID,
		order.CouponCode, order.DiscountAmount, order.CreatedAt, order.UpdatedAt,
	}
}

func TestCollectOrders(t *testing.T) {
	now := time.Now()
	first := models.Order{
		ID:        gocql.TimeUUID(),
		UserID:    "user-1",
		UserEmail: "marie@example.com",
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Granola bio", UnitPrice: 80, Quantity: 3},
		},
		TotalAmount:   240,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	second := models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        "user-1",
		UserEmail:     "marie@example.com",
		TotalAmount:   500,
		PaymentStatus: models.PaymentPaid,
		OrderStatus:   models.OrderShipped,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	orders, err := collectOrders(rowScanner(t, [][]interface{}{
		orderRow(t, first),
		orderRow(t, second),
	}))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Les colonnes JSON sont bien désérialisées
	assert.Equal(t, first.ID, orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Granola bio", orders[0].Items[0].Name)
	assert.Equal(t, models.OrderShipped, orders[1].OrderStatus)
}

func TestCollectOrdersEmpty(t *testing.T) {
	orders, err := collectOrders(rowScanner(t, nil))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCollectOrdersCorruptItemsJSON(t *testing.T) {
	now := time.Now()
	row := orderRow(t, models.Order{ID: gocql.TimeUUID(), CreatedAt: now, UpdatedAt: now})
	row[3] = "pas-du-json"

	// Une ligne illisible remonte en erreur, elle n'est pas ignorée en silence
	_, err := collectOrders(rowScanner(t, [][]interface{}{row}))
	assert.Error(t, err)
}

func TestCollectCoupons(t *testing.T) {
	now := time.Now()
	maxAmount := int64(100)
	limit := 100

	coupons, err := collectCoupons(rowScanner(t, [][]interface{}{{
		gocql.TimeUUID(), "SAVE10", models.DiscountPercentage, int64(10), int64(500),
		&maxAmount, &limit, 3, now.Add(-time.Hour), now.Add(24 * time.Hour), true,
		"admin-1", now, now,
	}}))
	require.NoError(t, err)
	require.Len(t, coupons, 1)

	assert.Equal(t, "SAVE10", coupons[0].Code)
	assert.Equal(t, 3, coupons[0].UsedCount)
	require.NotNil(t, coupons[0].MaxAmount)
	assert.Equal(t, int64(100), *coupons[0].MaxAmount)
}

func TestCollectReturns(t *testing.T) {
	now := time.Now()

	returns, err := collectReturns(rowScanner(t, [][]interface{}{{
		gocql.TimeUUID(), gocql.TimeUUID(), "user-1", "Le produit est arrivé endommagé",
		models.ReturnApproved, "Photo du colis reçue", int64(1200), now, now,
	}}))
	require.NoError(t, err)
	require.Len(t, returns, 1)

	assert.Equal(t, models.ReturnApproved, returns[0].Status)
	assert.Equal(t, int64(1200), returns[0].RefundAmount)
}
