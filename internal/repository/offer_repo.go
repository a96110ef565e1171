package repository

import (
	"context"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const offerColumns = `id, seller_id, type, start_date, end_date, min_purchase_amount, custom_total_price, max_quota_selections, comment, created_at`

// PostgresOfferRepository - реализация OfferRepository для базы данных.
type PostgresOfferRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresOfferRepository создаёт новый экземпляр PostgresOfferRepository.
func NewPostgresOfferRepository(db *pgxpool.Pool) *PostgresOfferRepository {
	return &PostgresOfferRepository{DB: db}
}

// CreateOffer сохраняет предложение вместе со строками.
func (r *PostgresOfferRepository) CreateOffer(ctx context.Context, offer models.Offer) error {
	q := conn(ctx, r.DB)
	_, err := q.Exec(ctx, `
		INSERT INTO offer (id, seller_id, type, start_date, end_date, min_purchase_amount, custom_total_price, max_quota_selections, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		offer.ID,
		offer.SellerID,
		offer.Type,
		offer.StartDate,
		offer.EndDate,
		nullDecimal(offer.MinPurchaseAmount),
		nullDecimal(offer.CustomTotalPrice),
		offer.MaxQuotaSelections,
		offer.Comment,
		offer.CreatedAt)
	if err != nil {
		return wrapErr("insert offer", err)
	}
	return r.insertLineItems(ctx, q, offer)
}

// ReplaceOffer полностью заменяет предложение и его строки.
func (r *PostgresOfferRepository) ReplaceOffer(ctx context.Context, offer models.Offer) error {
	q := conn(ctx, r.DB)
	tag, err := q.Exec(ctx, `
		UPDATE offer SET type = $1, start_date = $2, end_date = $3, min_purchase_amount = $4,
		       custom_total_price = $5, max_quota_selections = $6, comment = $7
		WHERE id = $8`,
		offer.Type,
		offer.StartDate,
		offer.EndDate,
		nullDecimal(offer.MinPurchaseAmount),
		nullDecimal(offer.CustomTotalPrice),
		offer.MaxQuotaSelections,
		offer.Comment,
		offer.ID)
	if err != nil {
		return wrapErr("update offer", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("update offer", pgx.ErrNoRows)
	}
	if _, err = q.Exec(ctx, `DELETE FROM offer_line_item WHERE offer_id = $1`, offer.ID); err != nil {
		return wrapErr("delete offer line items", err)
	}
	return r.insertLineItems(ctx, q, offer)
}

func (r *PostgresOfferRepository) insertLineItems(ctx context.Context, q querier, offer models.Offer) error {
	for i, item := range offer.LineItems {
		_, err := q.Exec(ctx, `
			INSERT INTO offer_line_item (id, offer_id, position, product_id, quantity, unit_price, is_priority, free_units_percentage, priority_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID,
			offer.ID,
			i,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.IsPriority,
			nullDecimal(item.FreeUnitsPercentage),
			item.PriorityMessage)
		if err != nil {
			return wrapErr("insert offer line item", err)
		}
	}
	return nil
}

// GetOffer возвращает предложение по ID.
func (r *PostgresOfferRepository) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	q := conn(ctx, r.DB)
	offer, err := scanOffer(q.QueryRow(ctx, `SELECT `+offerColumns+` FROM offer WHERE id = $1`, offerID))
	if err != nil {
		return nil, wrapErr("get offer", err)
	}
	items, err := r.lineItems(ctx, q, []string{offer.ID})
	if err != nil {
		return nil, err
	}
	offer.LineItems = items[offer.ID]
	return &offer, nil
}

// GetActiveOffers возвращает предложения, действующие в момент now.
func (r *PostgresOfferRepository) GetActiveOffers(ctx context.Context, now time.Time, limit, offset int) ([]models.Offer, error) {
	q := conn(ctx, r.DB)
	rows, err := q.Query(ctx, `SELECT `+offerColumns+` FROM offer
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY end_date, id LIMIT $2 OFFSET $3`, now, limit, offset)
	if err != nil {
		return nil, wrapErr("list offers", err)
	}
	defer rows.Close()

	var offers []models.Offer
	var ids []string
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, wrapErr("scan offer", err)
		}
		offers = append(offers, offer)
		ids = append(ids, offer.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list offers", err)
	}
	if len(ids) == 0 {
		return offers, nil
	}

	items, err := r.lineItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range offers {
		offers[i].LineItems = items[offers[i].ID]
	}
	return offers, nil
}

func (r *PostgresOfferRepository) lineItems(ctx context.Context, q querier, offerIDs []string) (map[string][]models.OfferLineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT offer_id, id, product_id, quantity, unit_price, is_priority, free_units_percentage, priority_message
		FROM offer_line_item WHERE offer_id = ANY($1) ORDER BY offer_id, position`, pq.Array(offerIDs))
	if err != nil {
		return nil, wrapErr("list offer line items", err)
	}
	defer rows.Close()

	items := make(map[string][]models.OfferLineItem, len(offerIDs))
	for rows.Next() {
		var (
			offerID string
			item    models.OfferLineItem
			free    decimal.NullDecimal
		)
		if err := rows.Scan(
			&offerID,
			&item.ID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.IsPriority,
			&free,
			&item.PriorityMessage); err != nil {
			return nil, wrapErr("scan offer line item", err)
		}
		item.FreeUnitsPercentage = decimalPtr(free)
		items[offerID] = append(items[offerID], item)
	}
	return items, wrapErr("list offer line items", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (models.Offer, error) {
	var (
		offer         models.Offer
		minPurchase   decimal.NullDecimal
		customTotal   decimal.NullDecimal
		maxSelections *int
	)
	err := row.Scan(
		&offer.ID,
		&offer.SellerID,
		&offer.Type,
		&offer.StartDate,
		&offer.EndDate,
		&minPurchase,
		&customTotal,
		&maxSelections,
		&offer.Comment,
		&offer.CreatedAt)
	offer.MinPurchaseAmount = decimalPtr(minPurchase)
	offer.CustomTotalPrice = decimalPtr(customTotal)
	offer.MaxQuotaSelections = maxSelections
	return offer, err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

var _ OfferRepository = (*PostgresOfferRepository)(nil)
