package services

import "wedmarket/internal/domain"

// MaxSlots is the size of a category section grid.
const MaxSlots = 9

// FillSlots lays out a display grid: the first min(len(ads), maxSlots) ads in
// positions 1..k, then products in order until maxSlots is reached. ads must
// already be active and ordered by priority (oldest first among equals);
// products newest first. Nothing is padded or repeated, so the result may be
// shorter than maxSlots.
func FillSlots(ads []domain.AdItem, products []domain.Product, maxSlots int) []domain.Slot {
	if maxSlots <= 0 {
		return nil
	}
	k := min(len(ads), maxSlots)
	n := min(len(products), maxSlots-k)
	out := make([]domain.Slot, 0, k+n)
	for i := range k {
		out = append(out, domain.Slot{Position: i + 1, Item: ads[i]})
	}
	for i := range n {
		out = append(out, domain.Slot{Position: k + i + 1, Item: domain.ProductItem{Product: products[i]}})
	}
	return out
}

// adIDs lists the advertisements occupying slots, in slot order.
func adIDs(slots []domain.Slot) []string {
	var ids []string
	for _, s := range slots {
		if ad, ok := s.Item.(domain.AdItem); ok {
			ids = append(ids, ad.Ad.ID)
		}
	}
	return ids
}
