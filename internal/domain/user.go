package domain

import "errors"

// User is the persisted customer record behind the user directory.
type User struct {
	ID          int
	IdentityKey int64 // stable chat identity of the customer
	Phone       string
	DisplayName string
}

// Category and Product back the legacy inline-browsing path; read-only.
type Category struct {
	ID   int
	Name string
}

type Product struct {
	ID         int
	CategoryID int
	Name       string
	Price      int64
}

var ErrNotFound = errors.New("not found")
