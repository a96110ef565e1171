package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
)

type memTxKey struct{}

// MemoryStore - хранилище в памяти, реализующее все репозитории и Transactor.
//
// Транзакции выполняются последовательно; при ошибке состояние восстанавливается из снимка.
// Чтение вне транзакции не блокируется транзакцией и может видеть незафиксированные данные.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	offers    map[string]models.Offer
	tenders   map[string]models.Tender
	messages  map[string][]models.TenderMessage
	responses map[string]models.TenderResponse
	orders    map[string]models.Order
}

type memorySnapshot struct {
	offers    map[string]models.Offer
	tenders   map[string]models.Tender
	messages  map[string][]models.TenderMessage
	responses map[string]models.TenderResponse
	orders    map[string]models.Order
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers:    make(map[string]models.Offer),
		tenders:   make(map[string]models.Tender),
		messages:  make(map[string][]models.TenderMessage),
		responses: make(map[string]models.TenderResponse),
		orders:    make(map[string]models.Order),
	}
}

// RunInTransaction реализует Transactor.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) inTx(ctx context.Context) bool {
	store, ok := ctx.Value(memTxKey{}).(*MemoryStore)
	return ok && store == s
}

// write выполняет изменение; вне транзакции оно ждёт завершения текущей транзакции.
func (s *MemoryStore) write(ctx context.Context, fn func() error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memorySnapshot{
		offers:    maps.Clone(s.offers),
		tenders:   maps.Clone(s.tenders),
		messages:  maps.Clone(s.messages),
		responses: maps.Clone(s.responses),
		orders:    maps.Clone(s.orders),
	}
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = snap.offers
	s.tenders = snap.tenders
	s.messages = snap.messages
	s.responses = snap.responses
	s.orders = snap.orders
}

func notFound(what, id string) error {
	return fmt.Errorf("get %s %s: %w", what, id, models.ErrNotFound)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func copyOffer(o models.Offer) models.Offer {
	o.LineItems = slices.Clone(o.LineItems)
	return o
}

func copyTender(t models.Tender) models.Tender {
	t.Items = slices.Clone(t.Items)
	return t
}

func copyResponse(r models.TenderResponse) models.TenderResponse {
	r.Items = slices.Clone(r.Items)
	return r
}

func copyOrder(o models.Order) models.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}

// CreateOffer реализует OfferRepository.
func (s *MemoryStore) CreateOffer(ctx context.Context, offer models.Offer) error {
	return s.write(ctx, func() error {
		if _, exists := s.offers[offer.ID]; exists {
			return models.NewPersistenceError("insert offer", fmt.Errorf("duplicate id %s", offer.ID))
		}
		s.offers[offer.ID] = copyOffer(offer)
		return nil
	})
}

// ReplaceOffer реализует OfferRepository.
func (s *MemoryStore) ReplaceOffer(ctx context.Context, offer models.Offer) error {
	return s.write(ctx, func() error {
		if _, exists := s.offers[offer.ID]; !exists {
			return notFound("offer", offer.ID)
		}
		s.offers[offer.ID] = copyOffer(offer)
		return nil
	})
}

// GetOffer реализует OfferRepository.
func (s *MemoryStore) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[offerID]
	if !ok {
		return nil, notFound("offer", offerID)
	}
	offer = copyOffer(offer)
	return &offer, nil
}

// GetActiveOffers реализует OfferRepository.
func (s *MemoryStore) GetActiveOffers(ctx context.Context, now time.Time, limit, offset int) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var offers []models.Offer
	for _, o := range s.offers {
		if o.IsActive(now) {
			offers = append(offers, copyOffer(o))
		}
	}
	sort.Slice(offers, func(i, j int) bool {
		if !offers[i].EndDate.Equal(offers[j].EndDate) {
			return offers[i].EndDate.Before(offers[j].EndDate)
		}
		return offers[i].ID < offers[j].ID
	})
	return page(offers, limit, offset), nil
}

// CreateTender реализует TenderRepository.
func (s *MemoryStore) CreateTender(ctx context.Context, tender models.Tender) error {
	return s.write(ctx, func() error {
		if _, exists := s.tenders[tender.ID]; exists {
			return models.NewPersistenceError("insert tender", fmt.Errorf("duplicate id %s", tender.ID))
		}
		s.tenders[tender.ID] = copyTender(tender)
		return nil
	})
}

// GetTender реализует TenderRepository.
func (s *MemoryStore) GetTender(ctx context.Context, tenderID string) (*models.Tender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tender, ok := s.tenders[tenderID]
	if !ok {
		return nil, notFound("tender", tenderID)
	}
	tender = copyTender(tender)
	return &tender, nil
}

// GetPublicTenders реализует TenderRepository.
func (s *MemoryStore) GetPublicTenders(ctx context.Context, wilayas []string, limit, offset int) ([]models.Tender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tenders []models.Tender
	for _, t := range s.tenders {
		if !t.IsPublic || t.Status != models.OpenTender {
			continue
		}
		if len(wilayas) > 0 && !slices.Contains(wilayas, t.Wilaya) {
			continue
		}
		tenders = append(tenders, copyTender(t))
	}
	sort.Slice(tenders, func(i, j int) bool {
		if !tenders[i].Deadline.Equal(tenders[j].Deadline) {
			return tenders[i].Deadline.Before(tenders[j].Deadline)
		}
		return tenders[i].ID < tenders[j].ID
	})
	return page(tenders, limit, offset), nil
}

// GetBuyerTenders реализует TenderRepository.
func (s *MemoryStore) GetBuyerTenders(ctx context.Context, buyerID string, limit, offset int) ([]models.Tender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tenders []models.Tender
	for _, t := range s.tenders {
		if t.BuyerID == buyerID {
			tenders = append(tenders, copyTender(t))
		}
	}
	sort.Slice(tenders, func(i, j int) bool {
		if !tenders[i].CreatedAt.Equal(tenders[j].CreatedAt) {
			return tenders[i].CreatedAt.After(tenders[j].CreatedAt)
		}
		return tenders[i].ID < tenders[j].ID
	})
	return page(tenders, limit, offset), nil
}

// TransitionTender реализует TenderRepository.
func (s *MemoryStore) TransitionTender(ctx context.Context, tenderID string, from, to models.TenderStatus, deadline, updatedAt time.Time) (bool, error) {
	var changed bool
	err := s.write(ctx, func() error {
		t, ok := s.tenders[tenderID]
		if !ok || t.Status != from {
			return nil
		}
		t.Status = to
		t.Deadline = deadline
		t.UpdatedAt = updatedAt
		s.tenders[tenderID] = t
		changed = true
		return nil
	})
	return changed, err
}

// CreateMessage реализует TenderRepository.
func (s *MemoryStore) CreateMessage(ctx context.Context, message models.TenderMessage) error {
	return s.write(ctx, func() error {
		s.messages[message.TenderID] = append(slices.Clone(s.messages[message.TenderID]), message)
		return nil
	})
}

// GetMessages реализует TenderRepository.
func (s *MemoryStore) GetMessages(ctx context.Context, tenderID string) ([]models.TenderMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages[tenderID]), nil
}

// GetResponse реализует ResponseRepository.
func (s *MemoryStore) GetResponse(ctx context.Context, responseID string) (*models.TenderResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[responseID]
	if !ok {
		return nil, notFound("tender response", responseID)
	}
	resp = copyResponse(resp)
	return &resp, nil
}

// GetSellerResponse реализует ResponseRepository.
func (s *MemoryStore) GetSellerResponse(ctx context.Context, tenderID, sellerID string) (*models.TenderResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, resp := range s.responses {
		if resp.TenderID == tenderID && resp.SellerID == sellerID {
			resp = copyResponse(resp)
			return &resp, nil
		}
	}
	return nil, notFound("tender response", tenderID+"/"+sellerID)
}

// GetTenderResponses реализует ResponseRepository.
func (s *MemoryStore) GetTenderResponses(ctx context.Context, tenderID string) ([]models.TenderResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var responses []models.TenderResponse
	for _, resp := range s.responses {
		if resp.TenderID == tenderID {
			responses = append(responses, copyResponse(resp))
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		if !responses[i].CreatedAt.Equal(responses[j].CreatedAt) {
			return responses[i].CreatedAt.Before(responses[j].CreatedAt)
		}
		return responses[i].ID < responses[j].ID
	})
	return responses, nil
}

// InsertResponse реализует ResponseRepository.
func (s *MemoryStore) InsertResponse(ctx context.Context, resp models.TenderResponse) (bool, error) {
	var inserted bool
	err := s.write(ctx, func() error {
		for _, existing := range s.responses {
			if existing.TenderID == resp.TenderID && existing.SellerID == resp.SellerID {
				return nil
			}
		}
		resp.Items = nil
		s.responses[resp.ID] = resp
		inserted = true
		return nil
	})
	return inserted, err
}

// BumpResponseVersion реализует ResponseRepository.
func (s *MemoryStore) BumpResponseVersion(ctx context.Context, responseID string, expected int, updatedAt time.Time) (bool, error) {
	var bumped bool
	err := s.write(ctx, func() error {
		resp, ok := s.responses[responseID]
		if !ok || resp.Version != expected {
			return nil
		}
		resp.Version++
		resp.UpdatedAt = updatedAt
		s.responses[responseID] = resp
		bumped = true
		return nil
	})
	return bumped, err
}

// ReplaceResponseItems реализует ResponseRepository.
func (s *MemoryStore) ReplaceResponseItems(ctx context.Context, responseID string, items []models.TenderResponseItem) error {
	return s.write(ctx, func() error {
		resp, ok := s.responses[responseID]
		if !ok {
			return notFound("tender response", responseID)
		}
		resp.Items = slices.Clone(items)
		s.responses[responseID] = resp
		return nil
	})
}

// CreateOrder реализует OrderRepository.
func (s *MemoryStore) CreateOrder(ctx context.Context, order models.Order) error {
	return s.write(ctx, func() error {
		if _, exists := s.orders[order.ID]; exists {
			return models.NewPersistenceError("insert order", fmt.Errorf("duplicate id %s", order.ID))
		}
		if order.TenderResponseID != "" && s.responseOrdered(order.TenderResponseID) {
			return models.NewPersistenceError("insert order", fmt.Errorf("response %s already has an order", order.TenderResponseID))
		}
		s.orders[order.ID] = copyOrder(order)
		return nil
	})
}

// ResponseOrderExists реализует OrderRepository.
func (s *MemoryStore) ResponseOrderExists(_ context.Context, responseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responseOrdered(responseID), nil
}

func (s *MemoryStore) responseOrdered(responseID string) bool {
	for _, o := range s.orders {
		if o.TenderResponseID == responseID {
			return true
		}
	}
	return false
}

// GetOrder реализует OrderRepository.
func (s *MemoryStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, notFound("order", orderID)
	}
	order = copyOrder(order)
	return &order, nil
}

// GetUserOrders реализует OrderRepository.
func (s *MemoryStore) GetUserOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []models.Order
	for _, o := range s.orders {
		if o.BuyerID == userID || o.SellerID == userID {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return page(orders, limit, offset), nil
}

var (
	_ Transactor         = (*MemoryStore)(nil)
	_ OfferRepository    = (*MemoryStore)(nil)
	_ TenderRepository   = (*MemoryStore)(nil)
	_ ResponseRepository = (*MemoryStore)(nil)
	_ OrderRepository    = (*MemoryStore)(nil)
)
