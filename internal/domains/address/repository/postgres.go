package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	a "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
)

// likeEscaper: tên phường chứa % hoặc _ phải khớp đúng ký tự, không thành wildcard
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) a.Repository {
	return &postgresRepository{
		pool: pool,
	}
}

// List - tìm theo tên phường hoặc quận
func (r *postgresRepository) List(ctx context.Context, search string, limit int) ([]a.Ward, error) {
	query := `
    SELECT code, name, district_name
    FROM wards
    WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR district_name ILIKE '%' || $1 || '%'
    ORDER BY district_name, name
    LIMIT $2
  `

	rows, err := r.pool.Query(ctx, query, escapeLike(search), limit)
	if err != nil {
		return nil, a.NewQueryError(err)
	}

	wards, err := pgx.CollectRows(rows, pgx.RowToStructByPos[a.Ward])
	if err != nil {
		return nil, a.NewQueryError(err)
	}
	return wards, nil
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*a.Ward, error) {
	var w a.Ward
	err := r.pool.QueryRow(ctx,
		`SELECT code, name, district_name FROM wards WHERE code = $1`, code,
	).Scan(&w.Code, &w.Name, &w.DistrictName)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, a.NewQueryError(err)
	}
	return &w, nil
}

func (r *postgresRepository) FindCodesByName(ctx context.Context, name string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code FROM wards WHERE name ILIKE '%' || $1 || '%'`, escapeLike(name))
	if err != nil {
		return nil, a.NewQueryError(err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, a.NewQueryError(err)
	}
	return codes, nil
}
