package models

// List is the envelope the backend wraps collection responses in.
type List[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count,omitempty"`
}
