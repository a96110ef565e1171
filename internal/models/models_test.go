package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{NewValidationError("title", "is required"), KindValidation},
		{fmt.Errorf("place order: %w", ErrQuotaExceeded), KindQuotaExceeded},
		{fmt.Errorf("get tender t-1: %w", ErrNotFound), KindNotFound},
		{NewPersistenceError("create order", errors.New("connection reset")), KindPersistence},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError("insert tender", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert tender: connection reset", err.Error())
	assert.NoError(t, NewPersistenceError("noop", nil))
}

func TestFreeUnits(t *testing.T) {
	ten := decimal.NewFromInt(10)
	half := decimal.RequireFromString("12.5")

	assert.Equal(t, 0, FreeUnits(100, nil))
	assert.Equal(t, 10, FreeUnits(100, &ten))
	assert.Equal(t, 0, FreeUnits(9, &ten))
	assert.Equal(t, 2, FreeUnits(20, &half))
}

func TestOffer_IsActive(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	offer := Offer{StartDate: start, EndDate: start.Add(48 * time.Hour)}

	assert.False(t, offer.IsActive(start.Add(-time.Second)))
	assert.True(t, offer.IsActive(start))
	assert.True(t, offer.IsActive(offer.EndDate))
	assert.False(t, offer.IsActive(offer.EndDate.Add(time.Second)))
	assert.True(t, offer.IsExpired(offer.EndDate.Add(time.Second)))
}

func TestOffer_ValidateMoneyScale(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := func() Offer {
		return Offer{
			SellerID:  "wholesaler-1",
			Type:      PackOffer,
			StartDate: start,
			EndDate:   start.Add(24 * time.Hour),
			LineItems: []OfferLineItem{{ProductID: "smecta", Quantity: 3, UnitPrice: decimal.RequireFromString("0.30")}},
		}
	}
	assert.NoError(t, valid().Validate())

	subCent := decimal.RequireFromString("0.335")

	unitPrice := valid()
	unitPrice.LineItems[0].UnitPrice = subCent
	assert.ErrorIs(t, unitPrice.Validate(), ErrValidation)

	custom := valid()
	custom.CustomTotalPrice = &subCent
	assert.ErrorIs(t, custom.Validate(), ErrValidation)

	threshold := valid()
	threshold.Type = ThresholdOffer
	threshold.MinPurchaseAmount = &subCent
	assert.ErrorIs(t, threshold.Validate(), ErrValidation)

	percent := valid()
	percent.LineItems[0].FreeUnitsPercentage = &subCent
	assert.ErrorIs(t, percent.Validate(), ErrValidation)
}
