package orders

import (
	"testing"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func packOffer() models.Offer {
	return models.Offer{
		ID:        "offer-1",
		SellerID:  "seller-1",
		Type:      models.PackOffer,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		LineItems: []models.OfferLineItem{
			{ID: "l1", ProductID: "p1", Quantity: 2, UnitPrice: dec("500")},
			{ID: "l2", ProductID: "p2", Quantity: 1, UnitPrice: dec("300")},
			{ID: "l3", ProductID: "p3", Quantity: 1, UnitPrice: dec("200"), IsPriority: true},
			{ID: "l4", ProductID: "p4", Quantity: 4, UnitPrice: dec("25"), IsPriority: true},
		},
	}
}

func linesByKind(order models.Order, kind models.LineKind) []models.OrderLine {
	var out []models.OrderLine
	for _, l := range order.Lines {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

func TestFromOffer_PackWithPriority(t *testing.T) {
	order, err := FromOffer(packOffer(), "buyer-1", []string{"p3"}, now)
	require.NoError(t, err)

	assert.True(t, dec("1500").Equal(order.TotalAmount))
	assert.Equal(t, models.OfferOrder, order.Source)
	assert.Equal(t, "seller-1", order.SellerID)
	assert.Equal(t, "buyer-1", order.BuyerID)

	products := linesByKind(order, models.ProductLine)
	require.Len(t, products, 3)
	assert.Equal(t, "p3", products[2].ProductID)
	assert.True(t, products[2].IsPriority)
	assert.True(t, dec("200").Equal(products[2].UnitPrice))
	assert.Empty(t, linesByKind(order, models.AdjustmentLine))
	for _, l := range order.Lines {
		assert.Equal(t, order.ID, l.OrderID)
	}
}

func TestFromOffer_CustomTotalAddsAdjustment(t *testing.T) {
	offer := packOffer()
	offer.CustomTotalPrice = decPtr("1100")

	order, err := FromOffer(offer, "buyer-1", []string{"p4"}, now)
	require.NoError(t, err)

	assert.True(t, dec("1200").Equal(order.TotalAmount))
	adj := linesByKind(order, models.AdjustmentLine)
	require.Len(t, adj, 1)
	assert.True(t, dec("-200").Equal(adj[0].UnitPrice))
	assert.NoError(t, Reconcile(order))
}

func TestFromOffer_ThresholdTopUp(t *testing.T) {
	offer := models.Offer{
		ID:                "offer-2",
		SellerID:          "seller-1",
		Type:              models.ThresholdOffer,
		MinPurchaseAmount: decPtr("5000"),
		LineItems:         []models.OfferLineItem{{ID: "l1", ProductID: "p1", Quantity: 2, UnitPrice: dec("1000")}},
	}

	order, err := FromOffer(offer, "buyer-1", nil, now)
	require.NoError(t, err)

	assert.True(t, dec("5000").Equal(order.TotalAmount))
	adj := linesByKind(order, models.AdjustmentLine)
	require.Len(t, adj, 1)
	assert.True(t, dec("3000").Equal(adj[0].UnitPrice))
}

func TestFromOffer_FreeUnitsLine(t *testing.T) {
	offer := packOffer()
	offer.LineItems[0].FreeUnitsPercentage = decPtr("50")
	offer.LineItems[1].FreeUnitsPercentage = decPtr("10")

	order, err := FromOffer(offer, "buyer-1", []string{"p3"}, now)
	require.NoError(t, err)

	free := linesByKind(order, models.FreeUnitsLine)
	require.Len(t, free, 1)
	assert.Equal(t, "p1", free[0].ProductID)
	assert.Equal(t, 1, free[0].Quantity)
	assert.True(t, free[0].UnitPrice.IsZero())
	assert.True(t, dec("1500").Equal(order.TotalAmount))
}

func tenderWithResponse() (models.Tender, models.TenderResponse) {
	tender := models.Tender{
		ID:      "t1",
		BuyerID: "buyer-1",
		Status:  models.OpenTender,
		Items: []models.TenderItem{
			{ID: "i1", TenderID: "t1", ProductID: "p1", Quantity: 10},
			{ID: "i2", TenderID: "t1", ProductID: "p2", Quantity: 3},
			{ID: "i3", TenderID: "t1", ProductID: "p3", Quantity: 7},
		},
	}
	first := now.Add(48 * time.Hour)
	second := now.Add(96 * time.Hour)
	resp := models.TenderResponse{
		ID:       "r1",
		TenderID: "t1",
		SellerID: "seller-9",
		Items: []models.TenderResponseItem{
			{ID: "ri1", TenderItemID: "i1", Price: dec("12.35"), DeliveryDate: first, FreeUnitsPercentage: decPtr("20")},
			{ID: "ri3", TenderItemID: "i3", Price: dec("4.10"), DeliveryDate: second},
		},
	}
	return tender, resp
}

func TestFromTenderResponse(t *testing.T) {
	tender, resp := tenderWithResponse()

	order, err := FromTenderResponse(tender, resp, now)
	require.NoError(t, err)

	assert.True(t, dec("152.2").Equal(order.TotalAmount), "got %s", order.TotalAmount)
	assert.Equal(t, models.TenderOrder, order.Source)
	assert.Equal(t, "buyer-1", order.BuyerID)
	assert.Equal(t, "seller-9", order.SellerID)
	assert.Equal(t, "r1", order.TenderResponseID)
	require.NotNil(t, order.DeliveryDate)
	assert.True(t, resp.Items[0].DeliveryDate.Equal(*order.DeliveryDate))

	products := linesByKind(order, models.ProductLine)
	require.Len(t, products, 2)
	assert.Equal(t, 10, products[0].Quantity)
	assert.Equal(t, 7, products[1].Quantity)
	free := linesByKind(order, models.FreeUnitsLine)
	require.Len(t, free, 1)
	assert.Equal(t, 2, free[0].Quantity)
}

func TestFromTenderResponse_UnknownItem(t *testing.T) {
	tender, resp := tenderWithResponse()
	resp.Items[1].TenderItemID = "missing"

	_, err := FromTenderResponse(tender, resp, now)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReconcile_Mismatch(t *testing.T) {
	order := models.Order{
		ID:          "o1",
		TotalAmount: dec("10.00"),
		Lines:       []models.OrderLine{{Quantity: 3, UnitPrice: dec("3.33")}},
	}

	err := Reconcile(order)
	assert.ErrorIs(t, err, models.ErrReconciliationMismatch)

	order.TotalAmount = dec("9.99")
	assert.NoError(t, Reconcile(order))
}
