package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/database"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// PostgresRepository triển khai PromotionRepository với PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PromotionRepository {
	return &PostgresRepository{db: db}
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// FindPromotionByID tìm promotion kèm danh sách gift
func (r *PostgresRepository) FindPromotionByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	query := `
		SELECT
			id, name, description, type, start_date, end_date, is_active,
			min_product_quantity, min_product_value, apply_districts,
			allow_combine_order, allow_combine_product, allow_combine_shipping,
			product_ids, category_ids, created_at
		FROM promotions
		WHERE id = $1
	`

	var p model.Promotion
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Type, &p.StartDate, &p.EndDate, &p.IsActive,
		&p.MinProductQuantity, &p.MinProductValue, &p.ApplyDistricts,
		&p.AllowCombineOrder, &p.AllowCombineProduct, &p.AllowCombineShipping,
		&p.ProductIDs, &p.CategoryIDs, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find promotion by id: %w", err)
	}

	if p.Type == model.TypeGift {
		gifts, err := r.findGifts(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Gifts = gifts
	}
	return &p, nil
}

func (r *PostgresRepository) findGifts(ctx context.Context, promotionID uuid.UUID) ([]model.PromotionGift, error) {
	query := `
		SELECT
			id, promotion_id, buy_condition_type, buy_condition_value_type,
			buy_quantity, buy_condition_value, buy_product_ids, buy_category_ids,
			gift_product_ids, gift_quantity, gift_discount_type, gift_discount_value, limit_per_order
		FROM promotion_gifts
		WHERE promotion_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, promotionID)
	if err != nil {
		return nil, fmt.Errorf("find promotion gifts: %w", err)
	}
	defer rows.Close()

	var gifts []model.PromotionGift
	for rows.Next() {
		var g model.PromotionGift
		if err := rows.Scan(
			&g.ID, &g.PromotionID, &g.BuyConditionType, &g.BuyConditionValueType,
			&g.BuyQuantity, &g.BuyConditionValue, &g.BuyProductIDs, &g.BuyCategoryIDs,
			&g.GiftProductIDs, &g.GiftQuantity, &g.GiftDiscountType, &g.GiftDiscountValue, &g.LimitPerOrder,
		); err != nil {
			return nil, fmt.Errorf("scan promotion gift: %w", err)
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

const codeColumns = `
	id, promotion_id, code, is_percent, value, max_discount, min_order_value,
	usage_limit, used_count, expiry_date, is_active`

func scanCode(row pgx.Row) (*model.PromotionCode, error) {
	var c model.PromotionCode
	err := row.Scan(
		&c.ID, &c.PromotionID, &c.Code, &c.IsPercent, &c.Value, &c.MaxDiscount, &c.MinOrderValue,
		&c.UsageLimit, &c.UsedCount, &c.ExpiryDate, &c.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan promotion code: %w", err)
	}
	return &c, nil
}

// FindCodeByCode - so khớp không phân biệt hoa thường
func (r *PostgresRepository) FindCodeByCode(ctx context.Context, code string) (*model.PromotionCode, error) {
	query := `SELECT ` + codeColumns + ` FROM promotion_codes WHERE UPPER(code) = UPPER($1)`
	return scanCode(r.db.QueryRow(ctx, query, code))
}

func (r *PostgresRepository) FindCodeByID(ctx context.Context, id uuid.UUID) (*model.PromotionCode, error) {
	query := `SELECT ` + codeColumns + ` FROM promotion_codes WHERE id = $1`
	return scanCode(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) FindUserVoucher(ctx context.Context, id uuid.UUID) (*model.UserVoucher, error) {
	query := `
		SELECT id, user_id, promotion_code_id, is_used, used_date, expiry_date, order_id, created_at
		FROM user_vouchers
		WHERE id = $1
	`
	var v model.UserVoucher
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.PromotionCodeID, &v.IsUsed, &v.UsedDate, &v.ExpiryDate, &v.OrderID, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user voucher: %w", err)
	}
	return &v, nil
}

// ListAvailableCodes - mã đang chạy và còn lượt
func (r *PostgresRepository) ListAvailableCodes(ctx context.Context, now time.Time) ([]model.AvailableCode, error) {
	query := `
		SELECT
			pc.code, p.id, p.name, p.description, p.type,
			pc.is_percent, pc.value, pc.max_discount, pc.min_order_value,
			COALESCE(LEAST(pc.expiry_date, p.end_date), p.end_date),
			CASE WHEN pc.usage_limit IS NULL THEN NULL ELSE pc.usage_limit - pc.used_count END
		FROM promotion_codes pc
		JOIN promotions p ON p.id = pc.promotion_id
		WHERE p.is_active AND pc.is_active
		  AND $1 BETWEEN p.start_date AND p.end_date
		  AND (pc.expiry_date IS NULL OR pc.expiry_date > $1)
		  AND (pc.usage_limit IS NULL OR pc.used_count < pc.usage_limit)
		ORDER BY p.end_date, pc.code
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list available codes: %w", err)
	}
	defer rows.Close()

	codes := []model.AvailableCode{}
	for rows.Next() {
		var c model.AvailableCode
		if err := rows.Scan(
			&c.Code, &c.PromotionID, &c.PromotionName, &c.Description, &c.Type,
			&c.IsPercent, &c.Value, &c.MaxDiscount, &c.MinOrderValue, &c.EndDate, &c.Remaining,
		); err != nil {
			return nil, fmt.Errorf("scan available code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *PostgresRepository) ListUserVouchers(ctx context.Context, userID uuid.UUID) ([]model.WalletVoucher, error) {
	query := `
		SELECT
			uv.id, uv.user_id, uv.promotion_code_id, uv.is_used, uv.used_date, uv.expiry_date, uv.order_id, uv.created_at,
			pc.code, p.name, p.type, pc.is_percent, pc.value, pc.max_discount, pc.min_order_value
		FROM user_vouchers uv
		JOIN promotion_codes pc ON pc.id = uv.promotion_code_id
		JOIN promotions p ON p.id = pc.promotion_id
		WHERE uv.user_id = $1
		ORDER BY uv.is_used, uv.expiry_date NULLS LAST, uv.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.WalletVoucher{}
	for rows.Next() {
		var v model.WalletVoucher
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.PromotionCodeID, &v.IsUsed, &v.UsedDate, &v.ExpiryDate, &v.OrderID, &v.CreatedAt,
			&v.Code, &v.PromotionName, &v.Type, &v.IsPercent, &v.Value, &v.MaxDiscount, &v.MinOrderValue,
		); err != nil {
			return nil, fmt.Errorf("scan user voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

// Create - promotion, codes và gifts trong cùng một transaction
func (r *PostgresRepository) Create(ctx context.Context, promo *model.Promotion, codes []model.PromotionCode) error {
	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO promotions (
				name, description, type, start_date, end_date, is_active,
				min_product_quantity, min_product_value, apply_districts,
				allow_combine_order, allow_combine_product, allow_combine_shipping,
				product_ids, category_ids
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at`,
			promo.Name, promo.Description, promo.Type, promo.StartDate, promo.EndDate, promo.IsActive,
			promo.MinProductQuantity, promo.MinProductValue, promo.ApplyDistricts,
			promo.AllowCombineOrder, promo.AllowCombineProduct, promo.AllowCombineShipping,
			promo.ProductIDs, promo.CategoryIDs,
		).Scan(&promo.ID, &promo.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert promotion: %w", err)
		}

		for i := range codes {
			c := &codes[i]
			c.PromotionID = promo.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO promotion_codes (
					promotion_id, code, is_percent, value, max_discount, min_order_value,
					usage_limit, expiry_date, is_active
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`,
				c.PromotionID, c.Code, c.IsPercent, c.Value, c.MaxDiscount, c.MinOrderValue,
				c.UsageLimit, c.ExpiryDate, c.IsActive,
			).Scan(&c.ID)
			if err != nil {
				if isUniqueViolation(err) {
					return model.ErrDuplicateCode
				}
				return fmt.Errorf("insert promotion code: %w", err)
			}
		}

		for i := range promo.Gifts {
			g := &promo.Gifts[i]
			g.PromotionID = promo.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO promotion_gifts (
					promotion_id, buy_condition_type, buy_condition_value_type, buy_quantity,
					buy_condition_value, buy_product_ids, buy_category_ids, gift_product_ids,
					gift_quantity, gift_discount_type, gift_discount_value, limit_per_order
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING id`,
				g.PromotionID, g.BuyConditionType, g.BuyConditionValueType, g.BuyQuantity,
				g.BuyConditionValue, g.BuyProductIDs, g.BuyCategoryIDs, g.GiftProductIDs,
				g.GiftQuantity, g.GiftDiscountType, g.GiftDiscountValue, g.LimitPerOrder,
			).Scan(&g.ID)
			if err != nil {
				return fmt.Errorf("insert promotion gift: %w", err)
			}
		}

		logger.Info("promotion created", map[string]interface{}{
			"promotion_id": promo.ID,
			"type":         promo.Type,
			"codes":        len(codes),
		})
		return nil
	})
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE promotions SET is_active = $1 WHERE id = $2`, isActive, id)
	if err != nil {
		return fmt.Errorf("update promotion status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateUserVoucher(ctx context.Context, v *model.UserVoucher) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_vouchers (user_id, promotion_code_id, expiry_date)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		v.UserID, v.PromotionCodeID, v.ExpiryDate,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrVoucherClaimed
		}
		return fmt.Errorf("create user voucher: %w", err)
	}
	return nil
}

// -------------------------------------------------------------------
// UTILITY
// -------------------------------------------------------------------

func (r *PostgresRepository) CheckCodeExists(ctx context.Context, codes []string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM promotion_codes WHERE UPPER(code) = ANY($1))`, codes,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
