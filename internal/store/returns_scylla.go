package store

import (
	"context"
	"time"

	"savora_back_end/internal/database"
	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaReturnStore stocke les retours dans ks_orders.returns.
type ScyllaReturnStore struct{}

const returnColumns = `return_id, order_id, user_id, reason, status,
	admin_notes, refund_amount, created_at, updated_at`

func (s *ScyllaReturnStore) Insert(ctx context.Context, ret *models.Return) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	query := `INSERT INTO returns (` + returnColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return session.Query(query,
		ret.ID, ret.OrderID, ret.UserID, ret.Reason, ret.Status,
		ret.AdminNotes, ret.RefundAmount, ret.CreatedAt, ret.UpdatedAt,
	).WithContext(ctx).Exec()
}

func scanReturn(scan func(dest ...interface{}) error) (*models.Return, error) {
	var ret models.Return
	err := scan(&ret.ID, &ret.OrderID, &ret.UserID, &ret.Reason, &ret.Status,
		&ret.AdminNotes, &ret.RefundAmount, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (s *ScyllaReturnStore) GetByID(ctx context.Context, id gocql.UUID) (*models.Return, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + returnColumns + ` FROM returns WHERE return_id = ?`
	ret, err := scanReturn(session.Query(query, id).WithContext(ctx).Scan)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	return ret, err
}

func (s *ScyllaReturnStore) GetByOrder(ctx context.Context, orderID gocql.UUID) (*models.Return, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + returnColumns + ` FROM returns WHERE order_id = ? LIMIT 1 ALLOW FILTERING`
	ret, err := scanReturn(session.Query(query, orderID).WithContext(ctx).Scan)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	return ret, err
}

func (s *ScyllaReturnStore) ListByUser(ctx context.Context, userID string) ([]models.Return, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + returnColumns + ` FROM returns WHERE user_id = ? ALLOW FILTERING`
	return iterReturns(session.Query(query, userID).WithContext(ctx).Iter())
}

func (s *ScyllaReturnStore) ListAll(ctx context.Context) ([]models.Return, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	return iterReturns(session.Query(`SELECT ` + returnColumns + ` FROM returns`).WithContext(ctx).Iter())
}

func collectReturns(scan func(dest ...interface{}) error) ([]models.Return, error) {
	var returns []models.Return
	for {
		ret, err := scanReturn(scan)
		if err == gocql.ErrNotFound {
			return returns, nil
		}
		if err != nil {
			return nil, err
		}
		returns = append(returns, *ret)
	}
}

func iterReturns(iter *gocql.Iter) ([]models.Return, error) {
	returns, err := collectReturns(iterScan(iter))
	if err != nil {
		iter.Close()
		return nil, err
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return returns, nil
}

func (s *ScyllaReturnStore) CASStatus(ctx context.Context, id gocql.UUID, from, to, adminNotes string, refundAmount *int64) (bool, string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, "", err
	}

	now := time.Now()
	var observed string
	var applied bool

	if refundAmount != nil {
		applied, err = session.Query(
			`UPDATE returns SET status = ?, admin_notes = ?, refund_amount = ?, updated_at = ?
			 WHERE return_id = ? IF status = ?`,
			to, adminNotes, *refundAmount, now, id, from,
		).WithContext(ctx).ScanCAS(&observed)
	} else {
		applied, err = session.Query(
			`UPDATE returns SET status = ?, admin_notes = ?, updated_at = ?
			 WHERE return_id = ? IF status = ?`,
			to, adminNotes, now, id, from,
		).WithContext(ctx).ScanCAS(&observed)
	}
	if err != nil {
		return false, "", err
	}
	if applied {
		observed = from
	}
	return applied, observed, nil
}
