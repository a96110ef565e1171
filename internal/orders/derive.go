// Package orders строит заказ и его строки из предложения или принятого отклика на тендер.
package orders

import (
	"fmt"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/models"
	"github.com/senyabanana/pharma-marketplace/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FromOffer строит заказ по предложению с окончательным выбором приоритетных товаров.
//
// Строки несут цену из строки предложения. Если итог по pricing.Total отличается от суммы
// строк (порог Threshold или цена набора Pack), добавляется корректирующая строка.
func FromOffer(offer models.Offer, buyerID string, selected []string, now time.Time) (models.Order, error) {
	order := models.Order{
		ID:          uuid.New().String(),
		BuyerID:     buyerID,
		SellerID:    offer.SellerID,
		Source:      models.OfferOrder,
		OfferID:     offer.ID,
		TotalAmount: pricing.Total(offer, selected),
		CreatedAt:   now,
	}

	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}
	for _, item := range offer.LineItems {
		if item.IsPriority && !chosen[item.ProductID] {
			continue
		}
		order.Lines = appendProductLines(order.Lines, order.ID, item.ProductID, item.Quantity, item.UnitPrice, item.FreeUnits(), item.IsPriority)
	}

	if diff := order.TotalAmount.Sub(order.LinesTotal()); !diff.IsZero() {
		order.Lines = append(order.Lines, models.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Kind:      models.AdjustmentLine,
			Quantity:  1,
			UnitPrice: diff,
		})
	}

	return order, Reconcile(order)
}

// FromTenderResponse строит заказ по принятому отклику: сумма = Σ price * quantity строки тендера.
// Дата поставки заказа - дата первой строки отклика.
func FromTenderResponse(t models.Tender, resp models.TenderResponse, now time.Time) (models.Order, error) {
	if len(resp.Items) == 0 {
		return models.Order{}, models.ErrEmptyResponse
	}

	order := models.Order{
		ID:               uuid.New().String(),
		BuyerID:          t.BuyerID,
		SellerID:         resp.SellerID,
		Source:           models.TenderOrder,
		TenderID:         t.ID,
		TenderResponseID: resp.ID,
		CreatedAt:        now,
	}
	delivery := resp.Items[0].DeliveryDate
	order.DeliveryDate = &delivery

	total := decimal.Zero
	for _, ri := range resp.Items {
		item, ok := t.Item(ri.TenderItemID)
		if !ok {
			return models.Order{}, models.NewValidationError("tenderItemId", "response item refers to unknown tender item "+ri.TenderItemID)
		}
		total = total.Add(ri.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		free := models.FreeUnits(item.Quantity, ri.FreeUnitsPercentage)
		order.Lines = appendProductLines(order.Lines, order.ID, item.ProductID, item.Quantity, ri.Price, free, false)
	}
	order.TotalAmount = total.Round(2)

	return order, Reconcile(order)
}

// Reconcile проверяет, что сумма заказа совпадает с суммой строк с точностью до копейки.
func Reconcile(order models.Order) error {
	lines := order.LinesTotal().Round(2)
	if !lines.Equal(order.TotalAmount.Round(2)) {
		return fmt.Errorf("%w: order %s total %s, lines %s", models.ErrReconciliationMismatch, order.ID, order.TotalAmount.StringFixed(2), lines.StringFixed(2))
	}
	return nil
}

func appendProductLines(lines []models.OrderLine, orderID, productID string, qty int, unitPrice decimal.Decimal, free int, priority bool) []models.OrderLine {
	lines = append(lines, models.OrderLine{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ProductID:  productID,
		Kind:       models.ProductLine,
		Quantity:   qty,
		UnitPrice:  unitPrice,
		IsPriority: priority,
	})
	if free > 0 {
		lines = append(lines, models.OrderLine{
			ID:         uuid.New().String(),
			OrderID:    orderID,
			ProductID:  productID,
			Kind:       models.FreeUnitsLine,
			Quantity:   free,
			UnitPrice:  decimal.Zero,
			IsPriority: priority,
		})
	}
	return lines
}
