package store

import (
	"context"
	"errors"

	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
)

var (
	ErrNotFound  = errors.New("introuvable")
	ErrEmptyCart = errors.New("panier vide")
)

// OrderStore est le système de référence des commandes. Toute mutation de
// statut passe par un compare-and-set (LWT côté Scylla) : une seule écriture
// conditionnelle, jamais de read-then-write en deux temps.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id gocql.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)

	// CASOrderStatus applique `to` si le statut courant vaut `from`.
	// Retourne (appliqué, statut observé).
	CASOrderStatus(ctx context.Context, id gocql.UUID, from, to string) (bool, string, error)
	// CASPaymentStatus, même contrat pour payment_status.
	CASPaymentStatus(ctx context.Context, id gocql.UUID, from, to string) (bool, string, error)

	SetPaymentIntent(ctx context.Context, id gocql.UUID, method, intentID string) error
	SetCoupon(ctx context.Context, id gocql.UUID, code string, discount int64) error
}

type CouponStore interface {
	Insert(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, code string) error

	// CASIncrementUsedCount incrémente used_count à expected+1 seulement si
	// used_count vaut encore expected. Le compteur ne peut donc pas dépasser
	// usage_limit sous réclamations concurrentes.
	CASIncrementUsedCount(ctx context.Context, code string, expected int) (bool, error)
	// AppendUsage ajoute une ligne au journal append-only coupon_usage.
	AppendUsage(ctx context.Context, usage models.CouponUsage) error
}

type ReturnStore interface {
	Insert(ctx context.Context, ret *models.Return) error
	GetByID(ctx context.Context, id gocql.UUID) (*models.Return, error)
	// GetByOrder retourne ErrNotFound s'il n'existe pas de retour pour la commande.
	GetByOrder(ctx context.Context, orderID gocql.UUID) (*models.Return, error)
	ListByUser(ctx context.Context, userID string) ([]models.Return, error)
	ListAll(ctx context.Context) ([]models.Return, error)

	CASStatus(ctx context.Context, id gocql.UUID, from, to, adminNotes string, refundAmount *int64) (bool, string, error)
}

// CartReader lit l'instantané du panier (collaborateur externe, Redis)
type CartReader interface {
	Snapshot(ctx context.Context, userID string) ([]models.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// Catalog résout le prix catalogue de confiance d'un produit
// (jamais le prix envoyé par le client)
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (name string, unitPrice int64, err error)
}

// --- Variables Globales (instanciées au démarrage, remplaçables en test) ---
var (
	Orders   OrderStore
	Coupons  CouponStore
	Returns  ReturnStore
	Cart     CartReader
	Products Catalog
)

// InitStores branche les implémentations Scylla/Redis sur les globales
func InitStores() {
	Orders = &ScyllaOrderStore{}
	Coupons = &ScyllaCouponStore{}
	Returns = &ScyllaReturnStore{}
	Cart = &RedisCartReader{}
	Products = &ScyllaCatalog{}
}
