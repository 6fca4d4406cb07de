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

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const conversationColumns = `
	c.id, c.customer_id, cu.full_name, c.staff_id, st.full_name, c.status, c.subject, c.tags,
	c.unread_customer, c.unread_staff, c.last_message, c.last_message_at, c.first_response_at,
	c.created_at, c.closed_at`

const conversationFrom = `
	FROM support_conversations c
	JOIN users cu ON cu.id = c.customer_id
	LEFT JOIN users st ON st.id = c.staff_id`

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.CustomerName, &c.StaffID, &c.StaffName, &c.Status, &c.Subject, &c.Tags,
		&c.UnreadCustomer, &c.UnreadStaff, &c.LastMessage, &c.LastMessageAt, &c.FirstResponseAt,
		&c.CreatedAt, &c.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

// =====================================================
// CONVERSATIONS
// =====================================================

func (r *postgresRepository) CreateConversation(ctx context.Context, conv *model.Conversation, first *model.Message) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO support_conversations (
				id, customer_id, status, subject, tags, unread_staff, last_message, last_message_at
			) VALUES ($1, $2, $3, $4, '{}', 1, $5, NOW())
			RETURNING created_at, last_message_at`,
			conv.ID, conv.CustomerID, model.StatusOpen, conv.Subject, model.Preview(first.Content, 200),
		).Scan(&conv.CreatedAt, &conv.LastMessageAt)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		if err := insertMessage(ctx, tx, first); err != nil {
			return err
		}

		conv.Status = model.StatusOpen
		conv.UnreadStaff = 1
		conv.LastMessage = model.Preview(first.Content, 200)
		conv.Tags = []string{}
		return nil
	})
}

func (r *postgresRepository) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	query := `SELECT ` + conversationColumns + conversationFrom + ` WHERE c.id = $1`

	conv, err := scanConversation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (r *postgresRepository) FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Conversation, error) {
	query := `SELECT ` + conversationColumns + conversationFrom + `
		WHERE c.customer_id = $1 AND c.status = $2
		ORDER BY c.created_at DESC
		LIMIT 1`

	conv, err := scanConversation(r.pool.QueryRow(ctx, query, customerID, model.StatusOpen))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open conversation: %w", err)
	}
	return conv, nil
}

func (r *postgresRepository) ListConversations(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, int, error) {
	var (
		conditions []string
		args       []interface{}
		argPos     = 1
	)

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(c.tags)", argPos))
		args = append(args, filter.Tag)
		argPos++
	}
	if filter.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("c.staff_id = $%d", argPos))
		args = append(args, *filter.StaffID)
		argPos++
	}
	if filter.Unassigned {
		conditions = append(conditions, "c.staff_id IS NULL")
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("c.customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.UnreadOnly {
		if filter.CustomerID != nil {
			conditions = append(conditions, "c.unread_customer > 0")
		} else {
			conditions = append(conditions, "c.unread_staff > 0")
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM support_conversations c` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	query := `SELECT ` + conversationColumns + conversationFrom + where +
		fmt.Sprintf(` ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]model.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	return convs, total, rows.Err()
}

// =====================================================
// MESSAGES
// =====================================================

func insertMessage(ctx context.Context, tx pgx.Tx, msg *model.Message) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO support_messages (id, conversation_id, sender_id, sender_role, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.SenderRole, msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *postgresRepository) AddMessage(ctx context.Context, msg *model.Message, effects MessageEffects) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Step 1: cập nhật hội thoại trước để khóa row, chỉ khi còn open
		tag, err := tx.Exec(ctx, `
			UPDATE support_conversations
			SET unread_customer = unread_customer + CASE WHEN $2 THEN 1 ELSE 0 END,
				unread_staff = unread_staff + CASE WHEN $3 THEN 1 ELSE 0 END,
				staff_id = COALESCE(staff_id, $4),
				first_response_at = CASE WHEN $5 THEN COALESCE(first_response_at, NOW()) ELSE first_response_at END,
				last_message = $6,
				last_message_at = NOW()
			WHERE id = $1 AND status = $7`,
			msg.ConversationID,
			effects.IncUnreadCustomer,
			effects.IncUnreadStaff,
			effects.ClaimStaff,
			effects.FirstResponse,
			model.Preview(msg.Content, 200),
			model.StatusOpen,
		)
		if err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrStateConflict
		}

		// Step 2: insert message
		return insertMessage(ctx, tx, msg)
	})
}

func (r *postgresRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]model.Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM support_messages WHERE conversation_id = $1`, conversationID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	// page 1 = tin mới nhất, trả về theo thứ tự thời gian tăng dần
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, created_at
		FROM (
			SELECT id, conversation_id, sender_id, sender_role, content, created_at
			FROM support_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		) m
		ORDER BY created_at ASC`,
		conversationID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderRole, &m.Content, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, total, rows.Err()
}

func (r *postgresRepository) MarkRead(ctx context.Context, conversationID uuid.UUID, reader model.SenderRole) error {
	column := "unread_staff"
	if reader == model.SenderCustomer {
		column = "unread_customer"
	}

	_, err := r.pool.Exec(ctx, `UPDATE support_conversations SET `+column+` = 0 WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// =====================================================
// STAFF ACTIONS
// =====================================================

func (r *postgresRepository) AssignStaff(ctx context.Context, conversationID uuid.UUID, expected *uuid.UUID, staffID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE support_conversations
		SET staff_id = $3
		WHERE id = $1 AND staff_id IS NOT DISTINCT FROM $2`,
		conversationID, expected, staffID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrStateConflict
	}
	return nil
}

func (r *postgresRepository) Transfer(ctx context.Context, transfer *model.Transfer, notice *model.Message) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE support_conversations
			SET staff_id = $3,
				last_message = $4,
				last_message_at = NOW()
			WHERE id = $1 AND staff_id IS NOT DISTINCT FROM $2 AND status = $5`,
			transfer.ConversationID, transfer.FromStaffID, transfer.ToStaffID,
			model.Preview(notice.Content, 200), model.StatusOpen,
		)
		if err != nil {
			return fmt.Errorf("failed to transfer conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrStateConflict
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO support_transfers (id, conversation_id, from_staff_id, to_staff_id, note)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			transfer.ID, transfer.ConversationID, transfer.FromStaffID, transfer.ToStaffID, transfer.Note,
		).Scan(&transfer.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transfer: %w", err)
		}

		return insertMessage(ctx, tx, notice)
	})
}

func (r *postgresRepository) ListTransfers(ctx context.Context, conversationID uuid.UUID) ([]model.Transfer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, from_staff_id, to_staff_id, note, created_at
		FROM support_transfers
		WHERE conversation_id = $1
		ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	transfers := make([]model.Transfer, 0)
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.FromStaffID, &t.ToStaffID, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func (r *postgresRepository) AddTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	var tags []string
	err := r.pool.QueryRow(ctx, `
		UPDATE support_conversations
		SET tags = CASE WHEN $2 = ANY(tags) THEN tags ELSE array_append(tags, $2) END
		WHERE id = $1
		RETURNING tags`, conversationID, tag,
	).Scan(&tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to add tag: %w", err)
	}
	return tags, nil
}

func (r *postgresRepository) RemoveTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	var tags []string
	err := r.pool.QueryRow(ctx, `
		UPDATE support_conversations
		SET tags = array_remove(tags, $2)
		WHERE id = $1
		RETURNING tags`, conversationID, tag,
	).Scan(&tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to remove tag: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (r *postgresRepository) SetStatus(ctx context.Context, conversationID uuid.UUID, from, to model.ConversationStatus, notice *model.Message) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE support_conversations
			SET status = $3,
				closed_at = CASE WHEN $3 = 'closed' THEN NOW() ELSE NULL END,
				last_message = $4,
				last_message_at = NOW()
			WHERE id = $1 AND status = $2`,
			conversationID, from, to, model.Preview(notice.Content, 200),
		)
		if err != nil {
			return fmt.Errorf("failed to update conversation status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrStateConflict
		}
		return insertMessage(ctx, tx, notice)
	})
}

// =====================================================
// COUNTERS
// =====================================================

func (r *postgresRepository) UnreadForCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(unread_customer), 0)
		FROM support_conversations
		WHERE customer_id = $1`, customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) UnreadForStaff(ctx context.Context, staffID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(unread_staff), 0)
		FROM support_conversations
		WHERE status = 'open' AND (staff_id = $1 OR staff_id IS NULL)`, staffID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) GetUserRole(ctx context.Context, userID uuid.UUID) (string, error) {
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
// ANALYTICS
// =====================================================

func (r *postgresRepository) CountByStatus(ctx context.Context, from, to time.Time) (model.StatusCounts, error) {
	var c model.StatusCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'closed')
		FROM support_conversations
		WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&c.Total, &c.Open, &c.Closed)
	if err != nil {
		return c, fmt.Errorf("failed to count conversations by status: %w", err)
	}
	return c, nil
}

func (r *postgresRepository) CountMessages(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM support_messages
		WHERE created_at >= $1 AND created_at < $2 AND sender_role <> 'system'`, from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) AvgFirstResponseSeconds(ctx context.Context, from, to time.Time) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (first_response_at - created_at))), 0)::float8
		FROM support_conversations
		WHERE created_at >= $1 AND created_at < $2 AND first_response_at IS NOT NULL`, from, to,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to compute first response time: %w", err)
	}
	return avg, nil
}

func (r *postgresRepository) StaffHandled(ctx context.Context, from, to time.Time) ([]model.StaffStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name,
			COUNT(DISTINCT m.conversation_id) AS conversations,
			COUNT(*) AS messages
		FROM support_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.sender_role = 'staff' AND m.created_at >= $1 AND m.created_at < $2
		GROUP BY u.id, u.full_name
		ORDER BY conversations DESC, messages DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.StaffStat, 0)
	for rows.Next() {
		var s model.StaffStat
		if err := rows.Scan(&s.StaffID, &s.StaffName, &s.Conversations, &s.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan staff stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *postgresRepository) TagDistribution(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.tag, COUNT(*)
		FROM support_conversations c, unnest(c.tags) AS t(tag)
		WHERE c.created_at >= $1 AND c.created_at < $2
		GROUP BY t.tag`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var (
			tag string
			n   int
		)
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		dist[tag] = n
	}
	return dist, rows.Err()
}
