// Package shopping builds a shopping list out of cart line items and renders it
// as a printable document.
package shopping

// LineItem is one ingredient entry of a recipe in the cart.
type LineItem struct {
	Name   string
	Unit   string
	Amount int
}

// Item is an aggregated shopping list entry.
type Item struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int    `json:"amount"`
}

type itemKey struct {
	name string
	unit string
}

// Aggregate groups line items by ingredient name and unit and sums their
// amounts. Items are returned in order of first occurrence.
func Aggregate(lines []LineItem) []Item {
	items := make([]Item, 0, len(lines))
	index := make(map[itemKey]int, len(lines))

	for _, line := range lines {
		key := itemKey{name: line.Name, unit: line.Unit}

		if i, ok := index[key]; ok {
			items[i].Amount += line.Amount
			continue
		}

		index[key] = len(items)
		items = append(items, Item{
			Name:   line.Name,
			Unit:   line.Unit,
			Amount: line.Amount,
		})
	}

	return items
}
