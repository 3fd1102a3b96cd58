// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

// Pages returns how many pages of size items are needed for total items.
// An empty list still has one (empty) page.
//
// Example:
//
//	utils.Pages(0, 10)  // 1
//	utils.Pages(10, 10) // 1
//	utils.Pages(11, 10) // 2
func Pages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage keeps a zero-based page index inside [0, pages).
func ClampPage(page, pages int) int {
	if page < 0 || pages <= 0 {
		return 0
	}
	if page >= pages {
		return pages - 1
	}
	return page
}

// Bounds returns the half-open slice bounds [lo, hi) of a zero-based page.
func Bounds(page, size, total int) (lo, hi int) {
	page = ClampPage(page, Pages(total, size))
	if size <= 0 {
		return 0, total
	}
	lo = page * size
	if lo > total {
		lo = total
	}
	hi = lo + size
	if hi > total {
		hi = total
	}
	return lo, hi
}
