package marketdata

import "NepsePulse/internal/domain/models"

// Key identifies one cacheable unit of market data. Symbol is empty for
// market-wide categories.
type Key struct {
	Category models.Category
	Symbol   string
}

func (k Key) String() string {
	if k.Symbol == "" {
		return string(k.Category)
	}
	return string(k.Category) + ":" + k.Symbol
}

func liveKey() Key {
	return Key{Category: models.CategoryLive}
}

func summaryKey() Key {
	return Key{Category: models.CategorySummary}
}

func detailKey(symbol string) Key {
	return Key{Category: models.CategoryStockDetail, Symbol: symbol}
}
