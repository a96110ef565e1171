package pricing

import (
	"fmt"

	"github.com/senyabanana/pharma-marketplace/internal/models"
)

// DefaultQuota - сколько приоритетных товаров можно выбрать, если квота не задана (выбор одного из нескольких).
const DefaultQuota = 1

// ValidateSelection проверяет выбор приоритетных товаров покупателем.
//
// withoutPriority - явный отказ покупателя от приоритетных товаров; только в этом случае
// пустой выбор допустим для предложения с приоритетными строками.
func ValidateSelection(offer models.Offer, selected []string, withoutPriority bool) error {
	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if seen[id] {
			return models.NewValidationError("selectedPriorityProductIds", "duplicate product "+id)
		}
		seen[id] = true
		if _, ok := offer.PriorityItem(id); !ok {
			return models.NewValidationError("selectedPriorityProductIds", "product "+id+" is not a priority item of this offer")
		}
	}

	if withoutPriority {
		if len(selected) > 0 {
			return models.NewValidationError("selectedPriorityProductIds", "must be empty when ordering without priority products")
		}
		return nil
	}

	if !offer.HasPriorityItems() {
		return nil
	}

	quota := DefaultQuota
	if offer.MaxQuotaSelections != nil {
		quota = *offer.MaxQuotaSelections
	}
	if len(selected) > quota {
		return fmt.Errorf("%w: selected %d, allowed %d", models.ErrQuotaExceeded, len(selected), quota)
	}
	if len(selected) == 0 {
		return models.ErrSelectionRequired
	}
	return nil
}
