package models

import "time"

// Model is a history entity stored in its own table with a generated ID and a sequence number.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract for a [Model].
//
// List takes criteria each implementation documents. Recent returns the newest limit rows, highest sequence first.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
	Recent(limit int) ([]T, error)
}

var _ Model = (*SyncRun)(nil)
