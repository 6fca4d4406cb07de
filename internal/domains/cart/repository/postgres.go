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
	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const itemColumns = `
	id, user_id, product_id, quantity, discount, is_gift, gift_promotion_id,
	delivery_date, delivery_time, note, created_at, updated_at
`

func scanItem(row pgx.Row) (*model.CartItem, error) {
	var item model.CartItem
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Discount,
		&item.IsGift,
		&item.GiftPromotionID,
		&item.DeliveryDate,
		&item.DeliveryTime,
		&item.Note,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ---- ITEMS ----

func (r *postgresRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1
		ORDER BY is_gift, created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]model.CartItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) GetItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	query := `SELECT ` + itemColumns + ` FROM cart_items WHERE id = $1 AND user_id = $2`

	item, err := scanItem(r.pool.QueryRow(ctx, query, itemID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) FindRegularItem(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND NOT is_gift`

	item, err := scanItem(r.pool.QueryRow(ctx, query, userID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) InsertItem(ctx context.Context, item *model.CartItem) error {
	return insertItem(ctx, r.pool, item)
}

// execer được implement bởi *pgxpool.Pool và pgx.Tx
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertItem(ctx context.Context, db execer, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	query := `
		INSERT INTO cart_items (
			id, user_id, product_id, quantity, discount, is_gift, gift_promotion_id,
			delivery_date, delivery_time, note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.Discount,
		item.IsGift,
		item.GiftPromotionID,
		item.DeliveryDate,
		item.DeliveryTime,
		item.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int, discount decimal.Decimal) error {
	query := `
		UPDATE cart_items
		SET quantity = $2, discount = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, itemID, quantity, discount)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateDelivery(ctx context.Context, userID, itemID uuid.UUID, delivery model.DeliveryInfo) error {
	query := `
		UPDATE cart_items
		SET delivery_date = $3, delivery_time = $4, note = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, itemID, userID, delivery.Date, delivery.Time, delivery.Note)
	if err != nil {
		return fmt.Errorf("failed to update delivery info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ---- CART STATE ----

func (r *postgresRepository) GetState(ctx context.Context, userID uuid.UUID) (*model.CartState, error) {
	query := `
		SELECT
			user_id, promotion_code, promotion_id, COALESCE(promotion_type, ''),
			user_voucher_id, ward_code, discount_amount, shipping_discount,
			free_shipping, updated_at
		FROM cart_states
		WHERE user_id = $1
	`
	var s model.CartState
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.PromotionCode,
		&s.PromotionID,
		&s.PromotionType,
		&s.UserVoucherID,
		&s.WardCode,
		&s.DiscountAmount,
		&s.ShippingDiscount,
		&s.FreeShipping,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart state: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) ReplaceVoucher(ctx context.Context, state *model.CartState, gifts []model.CartItem) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Gift cũ luôn bị xóa trước khi chèn gift mới
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND is_gift`, state.UserID); err != nil {
			return fmt.Errorf("failed to delete gift items: %w", err)
		}

		query := `
			INSERT INTO cart_states (
				user_id, promotion_code, promotion_id, promotion_type, user_voucher_id,
				ward_code, discount_amount, shipping_discount, free_shipping, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				promotion_code = EXCLUDED.promotion_code,
				promotion_id = EXCLUDED.promotion_id,
				promotion_type = EXCLUDED.promotion_type,
				user_voucher_id = EXCLUDED.user_voucher_id,
				ward_code = EXCLUDED.ward_code,
				discount_amount = EXCLUDED.discount_amount,
				shipping_discount = EXCLUDED.shipping_discount,
				free_shipping = EXCLUDED.free_shipping,
				updated_at = NOW()
		`
		_, err := tx.Exec(ctx, query,
			state.UserID,
			state.PromotionCode,
			state.PromotionID,
			string(state.PromotionType),
			state.UserVoucherID,
			state.WardCode,
			state.DiscountAmount,
			state.ShippingDiscount,
			state.FreeShipping,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert cart state: %w", err)
		}

		for i := range gifts {
			if err := insertItem(ctx, tx, &gifts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postgresRepository) ClearVoucher(ctx context.Context, userIDs ...uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var cleared int64
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = ANY($1) AND is_gift`, userIDs); err != nil {
			return fmt.Errorf("failed to delete gift items: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM cart_states WHERE user_id = ANY($1)`, userIDs)
		if err != nil {
			return fmt.Errorf("failed to delete cart state: %w", err)
		}
		cleared = tag.RowsAffected()
		return nil
	})
	return cleared, err
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return ClearTx(ctx, tx, userID)
	})
}

// ClearTx xóa giỏ hàng trong transaction của caller (checkout)
func ClearTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_states WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart state: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindExpiredStates(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT cs.user_id
		FROM cart_states cs
		LEFT JOIN user_vouchers uv ON uv.id = cs.user_voucher_id
		LEFT JOIN promotion_codes pc ON pc.id = uv.promotion_code_id
			OR (cs.user_voucher_id IS NULL AND UPPER(pc.code) = UPPER(cs.promotion_code))
		LEFT JOIN promotions p ON p.id = pc.promotion_id
		WHERE pc.id IS NULL
			OR p.id IS NULL
			OR NOT pc.is_active
			OR NOT p.is_active
			OR (pc.expiry_date IS NOT NULL AND pc.expiry_date < $1)
			OR p.end_date < $1
			OR (uv.id IS NOT NULL AND (uv.is_used OR (uv.expiry_date IS NOT NULL AND uv.expiry_date < $1)))
		ORDER BY cs.updated_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired cart states: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}
