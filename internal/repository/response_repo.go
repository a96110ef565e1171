package repository

import (
	"context"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const responseColumns = `id, tender_id, seller_id, version, created_at, updated_at`

// PostgresResponseRepository - реализация ResponseRepository для базы данных.
type PostgresResponseRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresResponseRepository создаёт новый экземпляр PostgresResponseRepository.
func NewPostgresResponseRepository(db *pgxpool.Pool) *PostgresResponseRepository {
	return &PostgresResponseRepository{DB: db}
}

// GetResponse возвращает отклик по ID вместе со строками.
func (r *PostgresResponseRepository) GetResponse(ctx context.Context, responseID string) (*models.TenderResponse, error) {
	return r.one(ctx, `SELECT `+responseColumns+` FROM tender_response WHERE id = $1`, responseID)
}

// GetSellerResponse возвращает отклик оптовика на тендер.
func (r *PostgresResponseRepository) GetSellerResponse(ctx context.Context, tenderID, sellerID string) (*models.TenderResponse, error) {
	return r.one(ctx, `SELECT `+responseColumns+` FROM tender_response WHERE tender_id = $1 AND seller_id = $2`, tenderID, sellerID)
}

func (r *PostgresResponseRepository) one(ctx context.Context, query string, args ...interface{}) (*models.TenderResponse, error) {
	q := conn(ctx, r.DB)
	resp, err := scanResponse(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapErr("get tender response", err)
	}
	items, err := r.items(ctx, q, []string{resp.ID})
	if err != nil {
		return nil, err
	}
	resp.Items = items[resp.ID]
	return &resp, nil
}

// GetTenderResponses возвращает все отклики на тендер.
func (r *PostgresResponseRepository) GetTenderResponses(ctx context.Context, tenderID string) ([]models.TenderResponse, error) {
	q := conn(ctx, r.DB)
	rows, err := q.Query(ctx, `SELECT `+responseColumns+` FROM tender_response WHERE tender_id = $1 ORDER BY created_at, id`, tenderID)
	if err != nil {
		return nil, wrapErr("list tender responses", err)
	}
	defer rows.Close()

	var responses []models.TenderResponse
	var ids []string
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, wrapErr("scan tender response", err)
		}
		responses = append(responses, resp)
		ids = append(ids, resp.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list tender responses", err)
	}
	if len(ids) == 0 {
		return responses, nil
	}

	items, err := r.items(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range responses {
		responses[i].Items = items[responses[i].ID]
	}
	return responses, nil
}

// InsertResponse создаёт отклик. Уникальность (tender_id, seller_id) обеспечивает база.
func (r *PostgresResponseRepository) InsertResponse(ctx context.Context, resp models.TenderResponse) (bool, error) {
	tag, err := conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO tender_response (id, tender_id, seller_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tender_id, seller_id) DO NOTHING`,
		resp.ID,
		resp.TenderID,
		resp.SellerID,
		resp.Version,
		resp.CreatedAt,
		resp.UpdatedAt)
	if err != nil {
		return false, wrapErr("insert tender response", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BumpResponseVersion увеличивает версию отклика при совпадении ожидаемой версии.
func (r *PostgresResponseRepository) BumpResponseVersion(ctx context.Context, responseID string, expected int, updatedAt time.Time) (bool, error) {
	tag, err := conn(ctx, r.DB).Exec(ctx,
		`UPDATE tender_response SET version = version + 1, updated_at = $1 WHERE id = $2 AND version = $3`,
		updatedAt, responseID, expected)
	if err != nil {
		return false, wrapErr("update tender response version", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReplaceResponseItems удаляет строки отклика и вставляет новые.
func (r *PostgresResponseRepository) ReplaceResponseItems(ctx context.Context, responseID string, items []models.TenderResponseItem) error {
	q := conn(ctx, r.DB)
	if _, err := q.Exec(ctx, `DELETE FROM tender_response_item WHERE tender_response_id = $1`, responseID); err != nil {
		return wrapErr("delete tender response items", err)
	}
	for i, item := range items {
		_, err := q.Exec(ctx, `
			INSERT INTO tender_response_item (id, tender_response_id, tender_item_id, position, price, free_units_percentage, delivery_date, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID,
			responseID,
			item.TenderItemID,
			i,
			item.Price,
			nullDecimal(item.FreeUnitsPercentage),
			item.DeliveryDate,
			item.ExpiryDate)
		if err != nil {
			return wrapErr("insert tender response item", err)
		}
	}
	return nil
}

func (r *PostgresResponseRepository) items(ctx context.Context, q querier, responseIDs []string) (map[string][]models.TenderResponseItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, tender_response_id, tender_item_id, price, free_units_percentage, delivery_date, expiry_date
		FROM tender_response_item WHERE tender_response_id = ANY($1)
		ORDER BY tender_response_id, position`, pq.Array(responseIDs))
	if err != nil {
		return nil, wrapErr("list tender response items", err)
	}
	defer rows.Close()

	items := make(map[string][]models.TenderResponseItem, len(responseIDs))
	for rows.Next() {
		var (
			item models.TenderResponseItem
			free decimal.NullDecimal
		)
		if err := rows.Scan(
			&item.ID,
			&item.TenderResponseID,
			&item.TenderItemID,
			&item.Price,
			&free,
			&item.DeliveryDate,
			&item.ExpiryDate); err != nil {
			return nil, wrapErr("scan tender response item", err)
		}
		item.FreeUnitsPercentage = decimalPtr(free)
		items[item.TenderResponseID] = append(items[item.TenderResponseID], item)
	}
	return items, wrapErr("list tender response items", rows.Err())
}

func scanResponse(row rowScanner) (models.TenderResponse, error) {
	var resp models.TenderResponse
	err := row.Scan(
		&resp.ID,
		&resp.TenderID,
		&resp.SellerID,
		&resp.Version,
		&resp.CreatedAt,
		&resp.UpdatedAt)
	return resp, err
}

var _ ResponseRepository = (*PostgresResponseRepository)(nil)
