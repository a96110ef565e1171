package pricing

import (
	"testing"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func line(productID string, price string, qty int, priority bool) models.OfferLineItem {
	return models.OfferLineItem{
		ID:         "li-" + productID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  dec(price),
		IsPriority: priority,
	}
}

func offer(typ models.OfferType, items ...models.OfferLineItem) models.Offer {
	now := time.Now()
	return models.Offer{
		ID:        "offer-1",
		SellerID:  "seller-1",
		Type:      typ,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		LineItems: items,
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func TestCalculate_ThresholdRaisesBaseToMinimum(t *testing.T) {
	o := offer(models.ThresholdOffer, line("p1", "1000", 2, false))
	o.MinPurchaseAmount = decPtr("5000")

	assertAmount(t, "5000", Total(o, nil))
}

func TestCalculate_PackWithPrioritySelection(t *testing.T) {
	o := offer(models.PackOffer,
		line("p1", "500", 2, false),
		line("p2", "300", 1, false),
		line("p3", "200", 1, true),
	)

	b := Calculate(o, []string{"p3"})
	assertAmount(t, "1300", b.Base)
	assertAmount(t, "200", b.PriorityContribution)
	assertAmount(t, "1500", b.Total)
}

func TestCalculate_PackOverrideIsAdditiveWithPriority(t *testing.T) {
	o := offer(models.PackOffer,
		line("p1", "500", 2, false),
		line("p2", "300", 1, false),
		line("p3", "200", 2, true),
		line("p4", "50", 3, true),
	)
	o.CustomTotalPrice = decPtr("999.99")

	tests := []struct {
		name     string
		selected []string
		want     string
	}{
		{"no selection", nil, "999.99"},
		{"one priority", []string{"p3"}, "1399.99"},
		{"two priorities", []string{"p3", "p4"}, "1549.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAmount(t, tt.want, Total(o, tt.selected))
		})
	}
}

func TestCalculate_PackWithoutOverrideSumsRegularAndSelected(t *testing.T) {
	o := offer(models.PackOffer,
		line("p1", "12.35", 3, false),
		line("p2", "0.10", 7, false),
		line("p3", "4.99", 2, true),
		line("p4", "100", 1, true),
	)

	tests := []struct {
		name     string
		selected []string
		want     string
	}{
		{"none", nil, "37.75"},
		{"p3", []string{"p3"}, "47.73"},
		{"p4", []string{"p4"}, "137.75"},
		{"both", []string{"p4", "p3"}, "147.73"},
		{"unknown ids ignored", []string{"nope"}, "37.75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAmount(t, tt.want, Total(o, tt.selected))
		})
	}
}

func TestCalculate_ThresholdAlwaysAtLeastMinimum(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.OfferLineItem
		selected []string
		want     string
	}{
		{"no items at all", nil, nil, "750"},
		{"only priority, none selected", []models.OfferLineItem{line("p1", "10", 1, true)}, nil, "750"},
		{"regular above minimum", []models.OfferLineItem{line("p1", "400", 2, false)}, nil, "800"},
		{"minimum plus priority", []models.OfferLineItem{line("p1", "100", 1, false), line("p2", "20", 5, true)}, []string{"p2"}, "850"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := offer(models.ThresholdOffer, tt.items...)
			o.MinPurchaseAmount = decPtr("750")

			got := Total(o, tt.selected)
			assertAmount(t, tt.want, got)
			assert.False(t, got.LessThan(*o.MinPurchaseAmount))
		})
	}
}

func TestCalculate_ThresholdIgnoresCustomTotal(t *testing.T) {
	o := offer(models.ThresholdOffer, line("p1", "100", 1, false))
	o.MinPurchaseAmount = decPtr("50")
	o.CustomTotalPrice = decPtr("1")

	assertAmount(t, "100", Total(o, nil))
}

func TestCalculate_EmptyPackIsZero(t *testing.T) {
	o := offer(models.PackOffer, line("p1", "10", 1, true))

	assertAmount(t, "0", Total(o, nil))
}
