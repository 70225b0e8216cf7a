package store

import (
	"context"

	"savora_back_end/internal/database"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// ScyllaCatalog résout nom et prix catalogue depuis le keyspace products.
// Le prix est en centimes, colonne price_cents.
type ScyllaCatalog struct{}

func (c *ScyllaCatalog) GetProduct(ctx context.Context, productID string) (string, int64, error) {
	productUUID, err := uuid.Parse(productID)
	if err != nil {
		return "", 0, ErrNotFound
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return "", 0, err
	}

	var name string
	var price int64
	err = session.Query(`SELECT name, price_cents FROM products WHERE product_id = ?`,
		gocql.UUID(productUUID)).WithContext(ctx).Scan(&name, &price)
	if err == gocql.ErrNotFound {
		return "", 0, ErrNotFound
	}
	if err != nil {
		return "", 0, err
	}
	return name, price, nil
}
