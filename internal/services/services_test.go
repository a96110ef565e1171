package services

import (
	"context"
	"testing"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/events"
	"github.com/senyabanana/pharma-marketplace/internal/metrics"
	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/notify"
	"github.com/senyabanana/pharma-marketplace/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	buyer   = models.ActingUser{ID: "pharmacy-1", Role: models.BuyerRole, CompanyName: "Pharmacie El Amel"}
	rival   = models.ActingUser{ID: "pharmacy-2", Role: models.BuyerRole, CompanyName: "Pharmacie Ibn Sina"}
	seller  = models.ActingUser{ID: "wholesaler-1", Role: models.SellerRole, CompanyName: "Biopharm"}
	seller2 = models.ActingUser{ID: "wholesaler-2", Role: models.SellerRole, CompanyName: "Hydrapharm"}
	admin   = models.ActingUser{ID: "admin-1", Role: models.AdminRole}
)

type fixture struct {
	now        time.Time
	store      *repository.MemoryStore
	sent       *notify.Recorder
	events     *events.Recorder
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics

	offers    *OfferService
	orders    *OrderService
	tenders   *TenderService
	responses *ResponseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:    time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		store:  repository.NewMemoryStore(),
		sent:   &notify.Recorder{},
		events: &events.Recorder{},
	}
	f.metrics = metrics.New(prometheus.NewRegistry())
	f.dispatcher = notify.NewDispatcher(f.sent, time.Second, zerolog.Nop(), f.metrics.NotificationFailed)

	deps := Deps{
		Tx:        f.store,
		Offers:    f.store,
		Tenders:   f.store,
		Responses: f.store,
		Orders:    f.store,
		Notifier:  f.dispatcher,
		Publisher: f.events,
		Metrics:   f.metrics,
		Now:       func() time.Time { return f.now },
		Logger:    zerolog.Nop(),
	}
	f.offers = NewOfferService(deps)
	f.orders = NewOrderService(deps)
	f.tenders = NewTenderService(deps)
	f.responses = NewResponseService(deps)
	return f
}

// notifications ждёт фоновые отправки и возвращает отправленное.
func (f *fixture) notifications() []notify.Notification {
	f.dispatcher.Wait()
	return f.sent.Sent()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(i int) *int { return &i }

func recipients(ns []notify.Notification, event string) []string {
	var out []string
	for _, n := range ns {
		if n.Event == event {
			out = append(out, n.Recipient)
		}
	}
	return out
}

func (f *fixture) createTender(t *testing.T) *models.Tender {
	t.Helper()
	tender, err := f.tenders.CreateTender(context.Background(), buyer, models.TenderRequest{
		Title:    "Q3 antibiotics",
		Wilaya:   "Oran",
		Deadline: f.now.Add(5 * 24 * time.Hour),
		IsPublic: true,
		Items: []models.TenderItemRequest{
			{ProductID: "amoxicillin-500", Quantity: 100},
			{ProductID: "paracetamol-1g", Quantity: 50},
			{ProductID: "ibuprofen-400", Quantity: 20},
		},
	})
	require.NoError(t, err)
	return tender
}

// bid строит черновики: цены по строкам тендера, пустая строка означает отказ.
func (f *fixture) bid(tender *models.Tender, prices ...string) []models.ResponseItemDraft {
	delivery := f.now.Add(72 * time.Hour)
	drafts := make([]models.ResponseItemDraft, 0, len(prices))
	for i, p := range prices {
		d := models.ResponseItemDraft{TenderItemID: tender.Items[i].ID}
		if p != "" {
			d.Price = decPtr(p)
			d.DeliveryDate = timePtr(delivery)
		}
		drafts = append(drafts, d)
	}
	return drafts
}
