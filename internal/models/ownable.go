package models

// Ownable is implemented by records scoped to an owning user. A zero owner
// id means the record was created in single-tenant mode and is unscoped.
type Ownable interface {
	GetUserID() uint
}
