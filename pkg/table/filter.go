package table

import "github.com/adfharrison1/go-campus/pkg/domain"

// Filter returns the rows that satisfy q, in source order.
// The input slice is never modified and the result never aliases it.
func Filter[R domain.Row](rows []R, q domain.QueryState) []R {
	text := newTextMatcher(q.FreeText)

	view := make([]R, 0, len(rows))
	for _, row := range rows {
		if len(q.Filters) > 0 && !MatchesFilter(row, q.Filters) {
			continue
		}
		if text != nil && !text.matches(row) {
			continue
		}
		view = append(view, row)
	}
	return view
}
