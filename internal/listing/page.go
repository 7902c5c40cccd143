package listing

import "strconv"

// PageSize is fixed across every listing surface.
const PageSize = 10

// Page is one bounded slice of an ordered result set plus the metadata the
// templates need to draw pagination controls.
type Page struct {
	Items      []PostSummary `json:"items"`
	Number     int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalItems int64         `json:"total"`
	PageSize   int           `json:"page_size"`
}

func (p Page) HasNext() bool { return p.Number < p.TotalPages }
func (p Page) HasPrev() bool { return p.Number > 1 }

// ParsePage reads a raw page query parameter. Missing, malformed and
// sub-1 values all mean page 1; clamping against the last page happens
// later, once the total is known.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// clampPage resolves a requested page number against the total: out of
// range never errors, it lands on the nearest valid page. An empty result
// set still has one (empty) page.
func clampPage(requested int, total int64) (page, totalPages int) {
	totalPages = int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	page = requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages
}
