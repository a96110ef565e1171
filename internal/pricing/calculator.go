// Package pricing рассчитывает суммы промо-предложений и проверяет выбор приоритетных товаров.
package pricing

import (
	"github.com/senyabanana/pharma-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// Breakdown - составляющие итоговой суммы предложения.
type Breakdown struct {
	Base                 decimal.Decimal
	PriorityContribution decimal.Decimal
	Total                decimal.Decimal
}

// Calculate считает сумму предложения для выбранных приоритетных товаров.
//
// Базовая сумма - обычные строки; для Threshold она поднимается до minPurchaseAmount,
// для Pack заменяется customTotalPrice. Выбранные приоритетные строки добавляются сверху.
func Calculate(offer models.Offer, selectedPriorityProductIDs []string) Breakdown {
	base := decimal.Zero
	for _, item := range offer.LineItems {
		if !item.IsPriority {
			base = base.Add(item.LineTotal())
		}
	}

	switch offer.Type {
	case models.ThresholdOffer:
		if offer.MinPurchaseAmount != nil && base.LessThan(*offer.MinPurchaseAmount) {
			base = *offer.MinPurchaseAmount
		}
	case models.PackOffer:
		if offer.CustomTotalPrice != nil {
			base = *offer.CustomTotalPrice
		}
	}

	selected := make(map[string]bool, len(selectedPriorityProductIDs))
	for _, id := range selectedPriorityProductIDs {
		selected[id] = true
	}
	priority := decimal.Zero
	for _, item := range offer.LineItems {
		if item.IsPriority && selected[item.ProductID] {
			priority = priority.Add(item.LineTotal())
		}
	}

	return Breakdown{
		Base:                 base.Round(2),
		PriorityContribution: priority.Round(2),
		Total:                base.Add(priority).Round(2),
	}
}

// Total возвращает итоговую сумму предложения.
func Total(offer models.Offer, selectedPriorityProductIDs []string) decimal.Decimal {
	return Calculate(offer, selectedPriorityProductIDs).Total
}
