package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"savora_back_end/internal/models"
	"savora_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier enregistre les événements émis, au lieu d'envoyer des e-mails
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	emails []string
}

func (n *recordingNotifier) Send(event Event, payload Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.emails = append(n.emails, payload.Email)
	return nil
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

func newPendingOrder(t *testing.T, orders store.OrderStore) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        "user-1",
		UserEmail:     "marie@example.com",
		TotalAmount:   1200,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderProcessing,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, orders.Insert(context.Background(), order))
	return order
}

func TestMarkPaidAppliesTransition(t *testing.T) {
	orders := store.NewMemOrderStore()
	notifier := &recordingNotifier{}
	order := newPendingOrder(t, orders)

	recon := NewReconciler(orders, notifier)
	updated, applied, err := recon.MarkPaid(context.Background(), order.ID, "marie@example.com")

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	// Confirmation de commande puis confirmation de paiement, dans cet ordre
	assert.Equal(t, []Event{EventOrderConfirmed, EventPaymentSuccess}, notifier.Events())
}

func TestMarkPaidIdempotent(t *testing.T) {
	orders := store.NewMemOrderStore()
	notifier := &recordingNotifier{}
	order := newPendingOrder(t, orders)

	recon := NewReconciler(orders, notifier)

	// Premier chemin (webhook) gagne
	_, applied, err := recon.MarkPaid(context.Background(), order.ID, "")
	require.NoError(t, err)
	assert.True(t, applied)

	// Deuxième chemin (confirmation utilisateur): no-op, pas de double e-mail
	updated, applied, err := recon.MarkPaid(context.Background(), order.ID, "marie@example.com")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Len(t, notifier.Events(), 2)
}

func TestMarkPaidConcurrent(t *testing.T) {
	orders := store.NewMemOrderStore()
	notifier := &recordingNotifier{}
	order := newPendingOrder(t, orders)

	recon := NewReconciler(orders, notifier)

	const n = 20
	var wg sync.WaitGroup
	appliedCount := make(chan bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := recon.MarkPaid(context.Background(), order.ID, "marie@example.com")
			assert.NoError(t, err)
			appliedCount <- applied
		}()
	}
	wg.Wait()
	close(appliedCount)

	wins := 0
	for applied := range appliedCount {
		if applied {
			wins++
		}
	}
	// Une seule écriture CAS gagne, quelle que soit la concurrence
	assert.Equal(t, 1, wins)
	assert.Len(t, notifier.Events(), 2)

	final, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, final.PaymentStatus)
}

func TestMarkPaidAfterFailedRetry(t *testing.T) {
	orders := store.NewMemOrderStore()
	notifier := &recordingNotifier{}
	order := newPendingOrder(t, orders)

	ctx := context.Background()
	applied, _, err := orders.CASPaymentStatus(ctx, order.ID, models.PaymentPending, models.PaymentFailed)
	require.NoError(t, err)
	require.True(t, applied)

	recon := NewReconciler(orders, notifier)
	updated, applied, err := recon.MarkPaid(ctx, order.ID, "marie@example.com")

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

func TestMarkFailedLeavesPending(t *testing.T) {
	orders := store.NewMemOrderStore()
	notifier := &recordingNotifier{}
	order := newPendingOrder(t, orders)

	recon := NewReconciler(orders, notifier)
	require.NoError(t, recon.MarkFailed(context.Background(), order.ID, ""))

	// Le statut reste pending: la commande peut être retentée
	final, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, final.PaymentStatus)

	// Notification d'échec avec repli sur l'e-mail de la commande
	assert.Equal(t, []Event{EventPaymentError}, notifier.Events())
	assert.Equal(t, "marie@example.com", notifier.emails[0])
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	orders := store.NewMemOrderStore()
	recon := NewReconciler(orders, &recordingNotifier{})

	_, _, err := recon.MarkPaid(context.Background(), gocql.TimeUUID(), "")
	assert.Error(t, err)
}
