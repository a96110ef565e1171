package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPostgres подключается к базе из POSTGRES_CONN и накатывает миграции.
func newPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_CONN")
	if dsn == "" {
		t.Skip("POSTGRES_CONN is not set")
	}

	m, err := migrate.New("file://../../migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func pgTender(buyer string) models.Tender {
	id := uuid.New().String()
	t := openTender(id, buyer, "Oran", true)
	t.PublicLink = "/tenders/public/" + uuid.New().String()
	t.Items[0].ID = uuid.New().String()
	return t
}

func TestPostgres_TransactionRollback(t *testing.T) {
	pool := newPostgres(t)
	ctx := context.Background()
	tx := NewPostgresTransactor(pool)
	tenders := NewPostgresTenderRepository(pool)
	tender := pgTender("pharmacy-rollback")

	boom := errors.New("boom")
	err := tx.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, tenders.CreateTender(ctx, tender))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = tenders.GetTender(ctx, tender.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgres_SingleAcceptanceWins(t *testing.T) {
	pool := newPostgres(t)
	ctx := context.Background()
	tx := NewPostgresTransactor(pool)
	tenders := NewPostgresTenderRepository(pool)
	orders := NewPostgresOrderRepository(pool)
	tender := pgTender("pharmacy-race")
	require.NoError(t, tenders.CreateTender(ctx, tender))

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.RunInTransaction(ctx, func(ctx context.Context) error {
				closed, err := tenders.TransitionTender(ctx, tender.ID, models.OpenTender, models.ClosedTender, tender.Deadline, now)
				if err != nil || !closed {
					return err
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return orders.CreateOrder(ctx, models.Order{
					ID:               uuid.New().String(),
					BuyerID:          tender.BuyerID,
					SellerID:         "wholesaler-race",
					Source:           models.TenderOrder,
					TenderID:         tender.ID,
					TenderResponseID: uuid.New().String(),
					TotalAmount:      decimal.NewFromInt(100),
					CreatedAt:        now,
				})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	got, err := tenders.GetTender(ctx, tender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClosedTender, got.Status)

	list, err := orders.GetUserOrders(ctx, tender.BuyerID, 50, 0)
	require.NoError(t, err)
	count := 0
	for _, o := range list {
		if o.TenderID == tender.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPostgres_ResponseUpsertAndVersion(t *testing.T) {
	pool := newPostgres(t)
	ctx := context.Background()
	tenders := NewPostgresTenderRepository(pool)
	responses := NewPostgresResponseRepository(pool)
	orders := NewPostgresOrderRepository(pool)
	tender := pgTender("pharmacy-upsert")
	require.NoError(t, tenders.CreateTender(ctx, tender))

	resp := models.TenderResponse{
		ID:        uuid.New().String(),
		TenderID:  tender.ID,
		SellerID:  "wholesaler-upsert",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := responses.InsertResponse(ctx, resp)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := resp
	dup.ID = uuid.New().String()
	inserted, err = responses.InsertResponse(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	bumped, err := responses.BumpResponseVersion(ctx, resp.ID, 1, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, bumped)
	bumped, err = responses.BumpResponseVersion(ctx, resp.ID, 1, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, bumped)

	ordered, err := orders.ResponseOrderExists(ctx, resp.ID)
	require.NoError(t, err)
	assert.False(t, ordered)

	order := models.Order{
		ID:               uuid.New().String(),
		BuyerID:          tender.BuyerID,
		SellerID:         resp.SellerID,
		Source:           models.TenderOrder,
		TenderID:         tender.ID,
		TenderResponseID: resp.ID,
		TotalAmount:      decimal.NewFromInt(50),
		CreatedAt:        now,
	}
	require.NoError(t, orders.CreateOrder(ctx, order))
	ordered, err = orders.ResponseOrderExists(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, ordered)

	order.ID = uuid.New().String()
	assert.ErrorIs(t, orders.CreateOrder(ctx, order), models.ErrPersistence)
}
