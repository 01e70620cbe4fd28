package models

// Page is one slice of a cursor-paginated listing. NextCursor is nil when the
// listing is exhausted.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}
