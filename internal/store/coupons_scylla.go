package store

import (
	"context"
	"strings"
	"time"

	"savora_back_end/internal/database"
	"savora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaCouponStore stocke les coupons dans ks_orders.coupons (clé: code)
// et le journal d'utilisation dans ks_orders.coupon_usage.
type ScyllaCouponStore struct{}

const couponColumns = `id, code, discount_type, value, min_amount, max_amount,
	usage_limit, used_count, starts_at, expires_at, is_active,
	created_by, created_at, updated_at`

func (s *ScyllaCouponStore) Insert(ctx context.Context, coupon *models.Coupon) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	query := `INSERT INTO coupons (` + couponColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return session.Query(query,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.Value, coupon.MinAmount,
		coupon.MaxAmount, coupon.UsageLimit, coupon.UsedCount, coupon.StartsAt,
		coupon.ExpiresAt, coupon.IsActive, coupon.CreatedBy, coupon.CreatedAt, coupon.UpdatedAt,
	).WithContext(ctx).Exec()
}

func scanCoupon(scan func(dest ...interface{}) error) (*models.Coupon, error) {
	var coupon models.Coupon
	err := scan(&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.Value,
		&coupon.MinAmount, &coupon.MaxAmount, &coupon.UsageLimit, &coupon.UsedCount,
		&coupon.StartsAt, &coupon.ExpiresAt, &coupon.IsActive,
		&coupon.CreatedBy, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode normalise le code en majuscules avant la recherche
func (s *ScyllaCouponStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = ? LIMIT 1`
	coupon, err := scanCoupon(session.Query(query, strings.ToUpper(code)).WithContext(ctx).Scan)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	return coupon, err
}

func (s *ScyllaCouponStore) List(ctx context.Context) ([]models.Coupon, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + couponColumns + ` FROM coupons`).WithContext(ctx).Iter()
	coupons, err := collectCoupons(iterScan(iter))
	if err != nil {
		iter.Close()
		return nil, err
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return coupons, nil
}

func collectCoupons(scan func(dest ...interface{}) error) ([]models.Coupon, error) {
	var coupons []models.Coupon
	for {
		coupon, err := scanCoupon(scan)
		if err == gocql.ErrNotFound {
			return coupons, nil
		}
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
	}
}

func (s *ScyllaCouponStore) Update(ctx context.Context, coupon *models.Coupon) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	// used_count n'est jamais réécrit ici: seul le CAS de rédemption le mute
	return session.Query(`
		UPDATE coupons SET discount_type = ?, value = ?, min_amount = ?, max_amount = ?,
			usage_limit = ?, starts_at = ?, expires_at = ?, is_active = ?, updated_at = ?
		WHERE code = ?`,
		coupon.DiscountType, coupon.Value, coupon.MinAmount, coupon.MaxAmount,
		coupon.UsageLimit, coupon.StartsAt, coupon.ExpiresAt, coupon.IsActive,
		time.Now(), coupon.Code,
	).WithContext(ctx).Exec()
}

func (s *ScyllaCouponStore) Delete(ctx context.Context, code string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(`DELETE FROM coupons WHERE code = ?`, strings.ToUpper(code)).
		WithContext(ctx).Exec()
}

// CASIncrementUsedCount : incrément conditionnel LWT. Deux rédemptions
// concurrentes ne peuvent pas passer toutes les deux sur le même expected.
func (s *ScyllaCouponStore) CASIncrementUsedCount(ctx context.Context, code string, expected int) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	var observed int
	applied, err := session.Query(
		`UPDATE coupons SET used_count = ?, updated_at = ? WHERE code = ? IF used_count = ?`,
		expected+1, time.Now(), strings.ToUpper(code), expected,
	).WithContext(ctx).ScanCAS(&observed)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *ScyllaCouponStore) AppendUsage(ctx context.Context, usage models.CouponUsage) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(`
		INSERT INTO coupon_usage (coupon_code, user_id, order_id, used_at)
		VALUES (?, ?, ?, ?)`,
		usage.CouponCode, usage.UserID, usage.OrderID, usage.UsedAt,
	).WithContext(ctx).Exec()
}
