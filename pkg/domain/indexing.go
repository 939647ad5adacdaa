package domain

// FacetValue is one distinct value of a field together with how many records carry it.
type FacetValue struct {
	Value interface{} `json:"value"`
	Count int         `json:"count"`
}

// Facet lists the distinct values of one field, in order of first appearance.
// It feeds the category selectors that produce structured filters.
type Facet struct {
	Field  string       `json:"field"`
	Values []FacetValue `json:"values"`
}
