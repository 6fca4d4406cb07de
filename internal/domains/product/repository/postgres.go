package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.category_id, COALESCE(c.name, '') AS category_name,
	p.price, p.stock, p.color, p.image_url, p.rating, p.sold_count, p.is_active,
	p.created_at, p.updated_at`

// discountExpr: mức giảm tốt nhất đang chạy trên 1 đơn vị (product-level hoặc category-level)
const discountExpr = `
	COALESCE((
		SELECT MAX(LEAST(
			CASE WHEN d.is_percent THEN ROUND(p.price * d.value / 100) ELSE d.value END,
			COALESCE(d.max_discount, p.price),
			p.price))
		FROM product_discounts d
		WHERE d.is_active AND NOW() BETWEEN d.start_date AND d.end_date
		  AND (d.product_id = p.id OR d.category_id = p.category_id)
	), 0)`

// ============================================
// LIST PRODUCTS
// ============================================

func (r *postgresRepository) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	whereClause, args := buildWhereClause(filter)
	argIndex := len(args) + 1

	query := fmt.Sprintf(`
		WITH priced AS (
			SELECT %s, %s AS discount_amount
			FROM products p
			LEFT JOIN categories c ON c.id = p.category_id
			WHERE p.is_active = true
		)
		SELECT *, price - discount_amount AS effective_price, COUNT(*) OVER() AS total
		FROM priced
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, discountExpr, whereClause, orderBy(filter.Sort), argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, filter.Limit)
	total := 0
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID, &p.CategoryName,
			&p.Price, &p.Stock, &p.Color, &p.ImageURL, &p.Rating, &p.SoldCount, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt,
			&p.DiscountAmount, &p.EffectivePrice, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return products, total, nil
}

// buildWhereClause - filter áp dụng trên CTE priced (cột không prefix)
func buildWhereClause(filter model.ProductFilter) (string, []interface{}) {
	conditions := []string{"true"}
	args := []interface{}{}
	argIndex := 1

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price - discount_amount >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price - discount_amount <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if filter.Color != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(color) = LOWER($%d)", argIndex))
		args = append(args, filter.Color)
		argIndex++
	}
	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
	}

	return strings.Join(conditions, " AND "), args
}

func orderBy(sort string) string {
	switch sort {
	case model.SortPriceAsc:
		return "price - discount_amount ASC, id"
	case model.SortPriceDesc:
		return "price - discount_amount DESC, id"
	case model.SortRating:
		return "rating DESC, sold_count DESC, id"
	case model.SortBestSelling:
		return "sold_count DESC, id"
	default:
		return "created_at DESC, id"
	}
}

// ============================================
// GET
// ============================================

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1)`, productColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID, &p.CategoryName,
		&p.Price, &p.Stock, &p.Color, &p.ImageURL, &p.Rating, &p.SoldCount, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveDiscounts - discount đang chạy cho các product hoặc category của chúng
func (r *postgresRepository) ListActiveDiscounts(ctx context.Context, productIDs []uuid.UUID) ([]model.ProductDiscount, error) {
	query := `
		SELECT d.id, d.product_id, d.category_id, d.is_percent, d.value, d.max_discount,
		       d.start_date, d.end_date, d.is_active
		FROM product_discounts d
		WHERE d.is_active AND NOW() BETWEEN d.start_date AND d.end_date
		  AND (d.product_id = ANY($1)
		       OR d.category_id IN (SELECT category_id FROM products WHERE id = ANY($1)))`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list product discounts: %w", err)
	}
	defer rows.Close()

	var discounts []model.ProductDiscount
	for rows.Next() {
		var d model.ProductDiscount
		if err := rows.Scan(&d.ID, &d.ProductID, &d.CategoryID, &d.IsPercent, &d.Value, &d.MaxDiscount,
			&d.StartDate, &d.EndDate, &d.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}

// ============================================
// CATEGORIES
// ============================================

func (r *postgresRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.Category])
}

func (r *postgresRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

// ============================================
// ADMIN
// ============================================

func (r *postgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, slug, description, category_id, price, stock, color, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.CategoryID, p.Price, p.Stock, p.Color, p.ImageURL, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	logger.Info("product created", map[string]interface{}{"product_id": p.ID, "slug": p.Slug})
	return nil
}

func (r *postgresRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, id)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}
