package domain

import "fmt"

// PageWindow is the slice of a filtered view shown for one page number.
type PageWindow[R any] struct {
	Items   []R  `json:"items"`
	Page    int  `json:"page"`  // page actually read, after clamping
	Start   int  `json:"start"` // 1-based, 0 when the view is empty
	End     int  `json:"end"`   // 1-based inclusive, 0 when the view is empty
	Total   int  `json:"total"`
	MaxPage int  `json:"max_page"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Caption renders the "Showing X to Y of Z" line shown under tables.
func (w PageWindow[R]) Caption() string {
	return fmt.Sprintf("Showing %d to %d of %d", w.Start, w.End, w.Total)
}

// PaginationOptions defines pagination parameters accepted from a caller.
type PaginationOptions struct {
	Page     int `json:"page" validate:"gte=1"`
	PageSize int `json:"page_size" validate:"gte=1,lte=100"`
}

// DefaultPaginationOptions returns default pagination settings
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		Page:     1,
		PageSize: 5,
	}
}
