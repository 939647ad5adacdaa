package domain

// DatasetSource hands out named record collections.
// Implementations return copies; mutating a returned collection never
// changes what the next caller sees.
type DatasetSource interface {
	Dataset(name string) (*Collection, error)
	Names() []string
}
