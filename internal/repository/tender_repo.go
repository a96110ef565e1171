package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const tenderColumns = `id, buyer_id, title, wilaya, deadline, is_public, status, public_link, created_at, updated_at`

// PostgresTenderRepository - реализация TenderRepository для базы данных.
type PostgresTenderRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresTenderRepository создаёт новый экземпляр PostgresTenderRepository.
func NewPostgresTenderRepository(db *pgxpool.Pool) *PostgresTenderRepository {
	return &PostgresTenderRepository{DB: db}
}

// CreateTender сохраняет тендер вместе со списком товаров.
func (r *PostgresTenderRepository) CreateTender(ctx context.Context, tender models.Tender) error {
	q := conn(ctx, r.DB)
	_, err := q.Exec(ctx, `
		INSERT INTO tender (id, buyer_id, title, wilaya, deadline, is_public, status, public_link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tender.ID,
		tender.BuyerID,
		tender.Title,
		tender.Wilaya,
		tender.Deadline,
		tender.IsPublic,
		tender.Status,
		tender.PublicLink,
		tender.CreatedAt,
		tender.UpdatedAt)
	if err != nil {
		return wrapErr("insert tender", err)
	}

	for i, item := range tender.Items {
		_, err = q.Exec(ctx, `
			INSERT INTO tender_item (id, tender_id, position, product_id, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID,
			tender.ID,
			i,
			item.ProductID,
			item.Quantity)
		if err != nil {
			return wrapErr("insert tender item", err)
		}
	}
	return nil
}

// GetTender возвращает тендер со списком товаров.
func (r *PostgresTenderRepository) GetTender(ctx context.Context, tenderID string) (*models.Tender, error) {
	q := conn(ctx, r.DB)
	tender, err := scanTender(q.QueryRow(ctx, `SELECT `+tenderColumns+` FROM tender WHERE id = $1`, tenderID))
	if err != nil {
		return nil, wrapErr("get tender", err)
	}
	items, err := r.items(ctx, q, []string{tender.ID})
	if err != nil {
		return nil, err
	}
	tender.Items = items[tender.ID]
	return &tender, nil
}

// GetPublicTenders возвращает открытые публичные тендеры, при необходимости по вилаятам.
func (r *PostgresTenderRepository) GetPublicTenders(ctx context.Context, wilayas []string, limit, offset int) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender`
	filters := []string{"is_public", fmt.Sprintf("status = '%s'", models.OpenTender)}
	var args []interface{}
	argIndex := 1

	if len(wilayas) > 0 {
		filters = append(filters, fmt.Sprintf("wilaya = ANY($%d)", argIndex))
		args = append(args, pq.Array(wilayas))
		argIndex++
	}

	query += " WHERE " + strings.Join(filters, " AND ")
	query += fmt.Sprintf(" ORDER BY deadline, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	return r.list(ctx, query, args...)
}

// GetBuyerTenders возвращает тендеры покупателя.
func (r *PostgresTenderRepository) GetBuyerTenders(ctx context.Context, buyerID string, limit, offset int) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE buyer_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, buyerID, limit, offset)
}

func (r *PostgresTenderRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Tender, error) {
	q := conn(ctx, r.DB)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list tenders", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	var ids []string
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, wrapErr("scan tender", err)
		}
		tenders = append(tenders, tender)
		ids = append(ids, tender.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list tenders", err)
	}
	if len(ids) == 0 {
		return tenders, nil
	}

	items, err := r.items(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range tenders {
		tenders[i].Items = items[tenders[i].ID]
	}
	return tenders, nil
}

// TransitionTender меняет статус тендера через compare-and-set по текущему статусу.
func (r *PostgresTenderRepository) TransitionTender(ctx context.Context, tenderID string, from, to models.TenderStatus, deadline, updatedAt time.Time) (bool, error) {
	tag, err := conn(ctx, r.DB).Exec(ctx,
		`UPDATE tender SET status = $1, deadline = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		to, deadline, updatedAt, tenderID, from)
	if err != nil {
		return false, wrapErr("update tender status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateMessage сохраняет сообщение по тендеру.
func (r *PostgresTenderRepository) CreateMessage(ctx context.Context, message models.TenderMessage) error {
	_, err := conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO tender_message (id, tender_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		message.ID,
		message.TenderID,
		message.AuthorID,
		message.Body,
		message.CreatedAt)
	return wrapErr("insert tender message", err)
}

// GetMessages возвращает сообщения по тендеру в порядке создания.
func (r *PostgresTenderRepository) GetMessages(ctx context.Context, tenderID string) ([]models.TenderMessage, error) {
	rows, err := conn(ctx, r.DB).Query(ctx, `
		SELECT id, tender_id, author_id, body, created_at
		FROM tender_message WHERE tender_id = $1 ORDER BY created_at, id`, tenderID)
	if err != nil {
		return nil, wrapErr("list tender messages", err)
	}
	defer rows.Close()

	var messages []models.TenderMessage
	for rows.Next() {
		var m models.TenderMessage
		if err := rows.Scan(&m.ID, &m.TenderID, &m.AuthorID, &m.Body, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan tender message", err)
		}
		messages = append(messages, m)
	}
	return messages, wrapErr("list tender messages", rows.Err())
}

func (r *PostgresTenderRepository) items(ctx context.Context, q querier, tenderIDs []string) (map[string][]models.TenderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, tender_id, product_id, quantity
		FROM tender_item WHERE tender_id = ANY($1) ORDER BY tender_id, position`, pq.Array(tenderIDs))
	if err != nil {
		return nil, wrapErr("list tender items", err)
	}
	defer rows.Close()

	items := make(map[string][]models.TenderItem, len(tenderIDs))
	for rows.Next() {
		var item models.TenderItem
		if err := rows.Scan(&item.ID, &item.TenderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, wrapErr("scan tender item", err)
		}
		items[item.TenderID] = append(items[item.TenderID], item)
	}
	return items, wrapErr("list tender items", rows.Err())
}

func scanTender(row rowScanner) (models.Tender, error) {
	var t models.Tender
	err := row.Scan(
		&t.ID,
		&t.BuyerID,
		&t.Title,
		&t.Wilaya,
		&t.Deadline,
		&t.IsPublic,
		&t.Status,
		&t.PublicLink,
		&t.CreatedAt,
		&t.UpdatedAt)
	return t, err
}

var _ TenderRepository = (*PostgresTenderRepository)(nil)
