package models

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items      []T
	Pagination *Pagination
}
