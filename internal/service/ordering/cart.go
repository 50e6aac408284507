package ordering

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// CartLine — строка корзины в том виде, в каком её прислал клиент.
type CartLine struct {
	ProductID          string
	Quantity           int
	AddonIDs           []string
	Observation        string
	MeatPoint          string
	RemovedIngredients []string
}

// CartResolution — результат сопоставления корзины с каталогом.
type CartResolution struct {
	// Items — позиции в порядке строк корзины, без ID.
	Items []domain.OrderItem
	// DroppedLines — строки, чей продукт не найден среди активных.
	DroppedLines int
	// DroppedAddons — ссылки на добавки, не найденные среди активных.
	DroppedAddons int
}

// ResolveCartLines сопоставляет строки корзины с найденными продуктами и добавками.
//
// Политика отбрасывания: строка с неизвестным продуктом пропускается целиком,
// неизвестная добавка пропускается только в своей строке; ни то ни другое не ошибка.
// Повторы одной добавки в строке схлопываются. Цена строки = цена продукта
// плюс цены добавок, подытог = цена × количество. Флаг available на цену не влияет.
func ResolveCartLines(lines []CartLine, products []domain.Product, addons []domain.Addon) CartResolution {
	productByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	addonByID := make(map[string]domain.Addon, len(addons))
	for _, a := range addons {
		addonByID[a.ID] = a
	}

	result := CartResolution{Items: make([]domain.OrderItem, 0, len(lines))}
	for _, line := range lines {
		product, ok := productByID[strings.TrimSpace(line.ProductID)]
		if !ok {
			result.DroppedLines++
			result.DroppedAddons += len(uniqueIDs(line.AddonIDs))
			continue
		}

		unit := product.Price
		var itemAddons []domain.ItemAddon
		for _, id := range uniqueIDs(line.AddonIDs) {
			addon, ok := addonByID[id]
			if !ok {
				result.DroppedAddons++
				continue
			}
			unit = unit.Add(addon.Price)
			itemAddons = append(itemAddons, domain.ItemAddon{AddonID: addon.ID, Name: addon.Name, Price: addon.Price})
		}

		result.Items = append(result.Items, domain.OrderItem{
			ProductID:          product.ID,
			ProductName:        product.Name,
			Quantity:           line.Quantity,
			UnitPrice:          unit,
			Subtotal:           unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Observation:        strings.TrimSpace(line.Observation),
			MeatPoint:          strings.TrimSpace(line.MeatPoint),
			RemovedIngredients: cleanIngredients(line.RemovedIngredients),
			Addons:             itemAddons,
		})
	}
	return result
}

// cartRefs собирает уникальные id продуктов и добавок для пакетных запросов.
func cartRefs(lines []CartLine) (productIDs, addonIDs []string) {
	var products, addons []string
	for _, line := range lines {
		products = append(products, line.ProductID)
		addons = append(addons, line.AddonIDs...)
	}
	return uniqueIDs(products), uniqueIDs(addons)
}

func uniqueIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func cleanIngredients(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, ingredient := range raw {
		if ingredient = strings.TrimSpace(ingredient); ingredient != "" {
			result = append(result, ingredient)
		}
	}
	return result
}
