package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// WEBHOOK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type webhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepoInterface {
	return &webhookRepository{pool: pool}
}

// Create creates webhook log
func (r *webhookRepository) Create(ctx context.Context, log *model.WebhookLog) error {
	query := `
		INSERT INTO payment_webhook_logs (
			id, order_id, gateway, txn_ref, result_code, body, is_valid, is_processed, received_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	bodyJSON, err := json.Marshal(log.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		log.ID,
		log.OrderID,
		log.Gateway,
		log.TxnRef,
		log.ResultCode,
		bodyJSON,
		log.IsValid,
		log.IsProcessed,
		log.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}

	return nil
}

// MarkAsProcessed marks webhook as processed, kèm lỗi nếu có
func (r *webhookRepository) MarkAsProcessed(ctx context.Context, id uuid.UUID, errMsg *string) error {
	query := `
		UPDATE payment_webhook_logs
		SET is_processed = ($2::text IS NULL),
			error_message = $2,
			processed_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark webhook as processed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook log not found: %s", id)
	}

	return nil
}

func (r *webhookRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit int) ([]model.WebhookLog, error) {
	query := `
		SELECT
			id, order_id, gateway, txn_ref, result_code, body,
			is_valid, is_processed, error_message, received_at, processed_at
		FROM payment_webhook_logs
		WHERE order_id = $1
		ORDER BY received_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []model.WebhookLog
	for rows.Next() {
		var (
			log      model.WebhookLog
			bodyJSON []byte
		)
		if err := rows.Scan(
			&log.ID,
			&log.OrderID,
			&log.Gateway,
			&log.TxnRef,
			&log.ResultCode,
			&bodyJSON,
			&log.IsValid,
			&log.IsProcessed,
			&log.ErrorMessage,
			&log.ReceivedAt,
			&log.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		if err := json.Unmarshal(bodyJSON, &log.Body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal body: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
