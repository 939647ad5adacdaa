package table

import "github.com/adfharrison1/go-campus/pkg/domain"

// MaxPage returns the number of pages needed to show total items, never less than 1.
func MaxPage(total, pageSize int) int {
	mustPageSize(pageSize)
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the window of view shown on page. A page outside
// [1, MaxPage] is clamped for this read only; nothing is written back.
func Paginate[R any](view []R, page, pageSize int) domain.PageWindow[R] {
	total := len(view)
	maxPage := MaxPage(total, pageSize)

	if page > maxPage {
		page = maxPage
	}
	if page < 1 {
		page = 1
	}

	startIdx := (page - 1) * pageSize
	endIdx := startIdx + pageSize
	if endIdx > total {
		endIdx = total
	}

	window := domain.PageWindow[R]{
		Items:   make([]R, 0, endIdx-startIdx),
		Page:    page,
		Total:   total,
		MaxPage: maxPage,
		HasPrev: page > 1,
		HasNext: page < maxPage,
	}
	if total == 0 {
		return window
	}

	window.Items = append(window.Items, view[startIdx:endIdx]...)
	window.Start = startIdx + 1
	window.End = endIdx
	return window
}

func mustPageSize(pageSize int) {
	if pageSize <= 0 {
		panic("table: page size must be positive")
	}
}
