package whatsapp

import (
	"fmt"
	"strconv"
	"strings"
)

// Pagination splits an oversized collection across several list messages.
// One row slot per page is reserved for a continuation row whose id
// encodes the next page number; the session engine feeds that id back in
// when the user taps it. The engine keeps no server-side memory of pages:
// the caller supplies the full collection again on every request.

const (
	// PageIDPrefix marks a row id as a pagination continuation.
	PageIDPrefix = "page_"

	// PageSize reserves one slot of the row cap for the continuation row.
	PageSize = MaxRows - 1
)

// PageResult is one screen of a paginated collection.
type PageResult struct {
	Section    Section
	Footer     string
	Page       int
	TotalPages int
	HasMore    bool
	Remaining  int
}

// Paginate returns the requested 1-based page of items as a ready list
// section. moreLabelFmt receives the remaining item count; footerFmt
// receives page and total. The footer is empty for single-page
// collections, and the continuation row is omitted on the last page.
func Paginate(items []Row, page int, sectionTitle, moreLabelFmt, footerFmt string) PageResult {
	totalPages := (len(items) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}

	rows := make([]Row, 0, end-start+1)
	rows = append(rows, items[start:end]...)

	remaining := len(items) - end
	hasMore := page < totalPages
	if hasMore {
		rows = append(rows, Row{
			ID:    EncodePaginationID(page + 1),
			Title: clampHard("list.row.title", fmt.Sprintf(moreLabelFmt, remaining), RowTitleLimit, true),
		})
	}

	result := PageResult{
		Section:    Section{Title: sectionTitle, Rows: rows},
		Page:       page,
		TotalPages: totalPages,
		HasMore:    hasMore,
		Remaining:  remaining,
	}
	if totalPages > 1 {
		result.Footer = fmt.Sprintf(footerFmt, page, totalPages)
	}
	return result
}

// EncodePaginationID builds the continuation row id for a page number.
func EncodePaginationID(page int) string {
	return PageIDPrefix + strconv.Itoa(page)
}

// ParsePaginationID is the exact inverse of EncodePaginationID. The second
// return value distinguishes "not a pagination id" from a real page
// number; non-matching strings and non-positive values report false.
func ParsePaginationID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, PageIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	page, err := strconv.Atoi(rest)
	if err != nil || page <= 0 {
		return 0, false
	}
	return page, true
}
