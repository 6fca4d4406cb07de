package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cartRepository "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/database"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

const orderColumns = `
	id, seq, COALESCE(order_code, ''), user_id, receiver_name, phone, address, ward_code, ward_name,
	note, delivery_date, delivery_time,
	payment_method, payment_status, status,
	shipper_id, shipper_status, shipper_lat, shipper_lng, location_updated_at,
	gross_subtotal, product_discount, subtotal, promotion_discount, voucher_discount,
	shipping_fee, shipping_discount, points_used, points_discount, total_amount,
	promotion_code_id, discount_voucher_id, shipping_voucher_id,
	cancel_job_id, cancel_reason, fail_reason,
	paid_at, delivered_at, completed_at, cancelled_at, created_at, updated_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.Seq, &o.OrderCode, &o.UserID, &o.ReceiverName, &o.Phone, &o.Address, &o.WardCode, &o.WardName,
		&o.Note, &o.DeliveryDate, &o.DeliveryTime,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.ShipperID, &o.ShipperStatus, &o.ShipperLat, &o.ShipperLng, &o.LocationUpdatedAt,
		&o.GrossSubtotal, &o.ProductDiscount, &o.Subtotal, &o.PromotionDiscount, &o.VoucherDiscount,
		&o.ShippingFee, &o.ShippingDiscount, &o.PointsUsed, &o.PointsDiscount, &o.TotalAmount,
		&o.PromotionCodeID, &o.DiscountVoucherID, &o.ShippingVoucherID,
		&o.CancelJobID, &o.CancelReason, &o.FailReason,
		&o.PaidAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateOrder(ctx context.Context, params CreateOrderParams) error {
	o := params.Order

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Step 1: trừ kho (dòng thường có guard, quà tặng trừ tối đa về 0)
		for _, d := range params.Details {
			if err := decrementStock(ctx, tx, d); err != nil {
				return err
			}
		}

		// Step 2: insert order (phase 1), lấy seq
		insert := `
			INSERT INTO orders (
				id, user_id, receiver_name, phone, address, ward_code, ward_name,
				note, delivery_date, delivery_time,
				payment_method, payment_status, status, shipper_status,
				gross_subtotal, product_discount, subtotal, promotion_discount, voucher_discount,
				shipping_fee, shipping_discount, points_used, points_discount, total_amount,
				promotion_code_id, discount_voucher_id, shipping_voucher_id, cancel_job_id
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7,
				$8, $9, $10,
				$11, $12, $13, $14,
				$15, $16, $17, $18, $19,
				$20, $21, $22, $23, $24,
				$25, $26, $27, $28
			)
			RETURNING seq, created_at, updated_at`

		err := tx.QueryRow(ctx, insert,
			o.ID, o.UserID, o.ReceiverName, o.Phone, o.Address, o.WardCode, o.WardName,
			o.Note, o.DeliveryDate, o.DeliveryTime,
			o.PaymentMethod, o.PaymentStatus, o.Status, o.ShipperStatus,
			o.GrossSubtotal, o.ProductDiscount, o.Subtotal, o.PromotionDiscount, o.VoucherDiscount,
			o.ShippingFee, o.ShippingDiscount, o.PointsUsed, o.PointsDiscount, o.TotalAmount,
			o.PromotionCodeID, o.DiscountVoucherID, o.ShippingVoucherID, o.CancelJobID,
		).Scan(&o.Seq, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		// Step 3: order code từ seq (phase 2)
		o.OrderCode = model.FormatOrderCode(o.CreatedAt, o.Seq, params.CodeSuffix)
		if _, err := tx.Exec(ctx, `UPDATE orders SET order_code = $2 WHERE id = $1`, o.ID, o.OrderCode); err != nil {
			return fmt.Errorf("failed to set order code: %w", err)
		}

		// Step 4: order details
		for i := range params.Details {
			d := &params.Details[i]
			if d.ID == uuid.Nil {
				d.ID = uuid.New()
			}
			d.OrderID = o.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO order_details (
					id, order_id, product_id, product_name, quantity, unit_price,
					discount, is_gift, line_total, delivery_date, delivery_time, note
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				d.ID, d.OrderID, d.ProductID, d.ProductName, d.Quantity, d.UnitPrice,
				d.Discount, d.IsGift, d.LineTotal, d.DeliveryDate, d.DeliveryTime, d.Note,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order detail: %w", err)
			}
		}

		// Step 5: voucher trong ví
		for _, id := range params.UsedVoucherIDs {
			tag, err := tx.Exec(ctx, `
				UPDATE user_vouchers
				SET is_used = TRUE, used_date = NOW(), order_id = $2
				WHERE id = $1 AND user_id = $3 AND NOT is_used`,
				id, o.ID, o.UserID,
			)
			if err != nil {
				return fmt.Errorf("failed to mark voucher used: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return model.ErrVoucherUnavailable
			}
		}

		// Step 6: used_count của promotion code
		for _, id := range params.UsedCodeIDs {
			tag, err := tx.Exec(ctx, `
				UPDATE promotion_codes
				SET used_count = used_count + 1
				WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
				id,
			)
			if err != nil {
				return fmt.Errorf("failed to increment code usage: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return model.ErrVoucherUnavailable
			}
		}

		// Step 7: trừ điểm
		if o.PointsUsed > 0 {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET points = points - $2 WHERE id = $1 AND points >= $2`,
				o.UserID, o.PointsUsed,
			)
			if err != nil {
				return fmt.Errorf("failed to deduct points: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return model.ErrInsufficientPoints
			}
		}

		// Step 8: lịch sử + xóa giỏ hàng
		if err := insertHistory(ctx, tx, o.ID, nil, o.Status, &o.UserID, nil); err != nil {
			return err
		}
		return cartRepository.ClearTx(ctx, tx, o.UserID)
	})
}

func decrementStock(ctx context.Context, tx pgx.Tx, d model.OrderDetail) error {
	if d.IsGift {
		_, err := tx.Exec(ctx,
			`UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = NOW() WHERE id = $1`,
			d.ProductID, d.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement gift stock: %w", err)
		}
		return nil
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, sold_count = sold_count + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`,
		d.ProductID, d.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var available int
	if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, d.ProductID).Scan(&available); err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}
	return model.NewInsufficientStockError(d.ProductName, d.Quantity, available)
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from *model.OrderStatus, to model.OrderStatus, changedBy *uuid.UUID, note *string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, from, to, changedBy, note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	return nil
}

func (r *postgresOrderRepository) GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	var points int
	err := r.pool.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get user points: %w", err)
	}
	return points, nil
}

func (r *postgresOrderRepository) GetUserRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return role, nil
}

// =====================================================
// READ
// =====================================================

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *postgresOrderRepository) GetOrderDetails(ctx context.Context, orderID uuid.UUID) ([]model.OrderDetail, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price,
			discount, is_gift, line_total, delivery_date, delivery_time, note
		FROM order_details
		WHERE order_id = $1
		ORDER BY is_gift, product_name`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order details: %w", err)
	}
	defer rows.Close()

	details := make([]model.OrderDetail, 0)
	for rows.Next() {
		var d model.OrderDetail
		if err := rows.Scan(
			&d.ID, &d.OrderID, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPrice,
			&d.Discount, &d.IsGift, &d.LineTotal, &d.DeliveryDate, &d.DeliveryTime, &d.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *postgresOrderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	query := `
		SELECT id, order_id, from_status, to_status, changed_by, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	history := make([]model.OrderStatusHistory, 0)
	for rows.Next() {
		var h model.OrderStatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *postgresOrderRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	// Build WHERE clause
	where := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *filter.UserID)
		argPos++
	}
	if filter.ShipperID != nil {
		where = append(where, fmt.Sprintf("shipper_id = $%d", argPos))
		args = append(args, *filter.ShipperID)
		argPos++
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(order_code ILIKE $%d OR receiver_name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	whereClause := strings.Join(where, " AND ")

	// Count total
	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, filter.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, total, nil
}

func (r *postgresOrderRepository) FindDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND delivered_at < $2
		ORDER BY delivered_at
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, model.StatusDelivered, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find delivered orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// =====================================================
// STATE CHANGES
// =====================================================

func (r *postgresOrderRepository) ApplyTransition(ctx context.Context, t model.Transition) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE orders
			SET status = $4,
				shipper_status = $5,
				shipper_id = CASE WHEN $6 THEN NULL WHEN $7::uuid IS NOT NULL THEN $7 ELSE shipper_id END,
				fail_reason = COALESCE($8, fail_reason),
				delivered_at = CASE WHEN $4 = $9 THEN NOW() ELSE delivered_at END,
				updated_at = NOW()
			WHERE id = $1 AND status = $2 AND shipper_status = $3`

		tag, err := tx.Exec(ctx, query,
			t.OrderID, t.FromStatus, t.FromShipper,
			t.ToStatus, t.ToShipper,
			t.ClearShipper, t.ShipperID,
			t.FailReason, model.StatusDelivered,
		)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrStatusConflict
		}

		if !t.StatusChanged() {
			return nil
		}
		from := t.FromStatus
		return insertHistory(ctx, tx, t.OrderID, &from, t.ToStatus, t.ChangedBy, t.Note)
	})
}

func (r *postgresOrderRepository) CancelOrder(ctx context.Context, params model.CancelParams) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			userID     uuid.UUID
			pointsUsed int
			codeID     *uuid.UUID
		)
		err := tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $3,
				shipper_status = '',
				cancel_reason = $4,
				cancelled_at = NOW(),
				payment_status = CASE WHEN $5 THEN 'failed' ELSE payment_status END,
				updated_at = NOW()
			WHERE id = $1 AND status = $2
				-- auto-cancel không được hủy đơn vừa thanh toán xong
				AND (NOT $5 OR payment_status <> 'paid')
			RETURNING user_id, points_used, promotion_code_id`,
			params.OrderID, params.FromStatus, model.StatusCancelled, params.Reason, params.PaymentFailed,
		).Scan(&userID, &pointsUsed, &codeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrStatusConflict
			}
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		// Hoàn kho
		_, err = tx.Exec(ctx, `
			UPDATE products p
			SET stock = p.stock + d.qty,
				sold_count = GREATEST(p.sold_count - d.sold, 0),
				updated_at = NOW()
			FROM (
				SELECT product_id,
					SUM(quantity) AS qty,
					SUM(CASE WHEN is_gift THEN 0 ELSE quantity END) AS sold
				FROM order_details
				WHERE order_id = $1
				GROUP BY product_id
			) d
			WHERE p.id = d.product_id`,
			params.OrderID,
		)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		// Hoàn điểm
		if pointsUsed > 0 {
			if _, err := tx.Exec(ctx, `UPDATE users SET points = points + $2 WHERE id = $1`, userID, pointsUsed); err != nil {
				return fmt.Errorf("failed to refund points: %w", err)
			}
		}

		// Giảm used_count: mã nhập tay + mã của voucher trong ví
		_, err = tx.Exec(ctx, `
			UPDATE promotion_codes
			SET used_count = GREATEST(used_count - 1, 0)
			WHERE id = $2
				OR id IN (SELECT promotion_code_id FROM user_vouchers WHERE order_id = $1)`,
			params.OrderID, codeID,
		)
		if err != nil {
			return fmt.Errorf("failed to release code usage: %w", err)
		}

		// Trả voucher về ví
		_, err = tx.Exec(ctx, `
			UPDATE user_vouchers
			SET is_used = FALSE, used_date = NULL, order_id = NULL
			WHERE order_id = $1`,
			params.OrderID,
		)
		if err != nil {
			return fmt.Errorf("failed to release vouchers: %w", err)
		}

		from := params.FromStatus
		reason := params.Reason
		return insertHistory(ctx, tx, params.OrderID, &from, model.StatusCancelled, params.ChangedBy, &reason)
	})
}

func (r *postgresOrderRepository) CompleteOrder(ctx context.Context, orderID uuid.UUID, changedBy *uuid.UUID, earnedPoints int) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var userID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $3, completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING user_id`,
			orderID, model.StatusDelivered, model.StatusCompleted,
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrStatusConflict
			}
			return fmt.Errorf("failed to complete order: %w", err)
		}

		if earnedPoints > 0 {
			if _, err := tx.Exec(ctx, `UPDATE users SET points = points + $2 WHERE id = $1`, userID, earnedPoints); err != nil {
				return fmt.Errorf("failed to award points: %w", err)
			}
		}

		from := model.StatusDelivered
		return insertHistory(ctx, tx, orderID, &from, model.StatusCompleted, changedBy, nil)
	})
}

func (r *postgresOrderRepository) UpdateLocation(ctx context.Context, orderID, shipperID uuid.UUID, lat, lng float64) error {
	query := `
		UPDATE orders
		SET shipper_lat = $3, shipper_lng = $4, location_updated_at = NOW()
		WHERE id = $1 AND shipper_id = $2`

	tag, err := r.pool.Exec(ctx, query, orderID, shipperID, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// =====================================================
// PAYMENT
// =====================================================

func (r *postgresOrderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = $2, paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND payment_status <> $2`

	tag, err := r.pool.Exec(ctx, query, orderID, model.PaymentStatusPaid)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Info("Order already paid or missing", map[string]interface{}{
			"order_id": orderID,
		})
		return false, nil
	}
	return true, nil
}

func (r *postgresOrderRepository) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status = $3`

	_, err := r.pool.Exec(ctx, query, orderID, model.PaymentStatusFailed, model.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}
