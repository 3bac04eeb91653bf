// Package store persists user-to-PKP bindings. A Store must be able to
// store and retrieve bindings by user id only; lookups are exact and
// case-sensitive, and at most one binding may exist per user id.
package store

import (
	"errors"

	"github.com/openweb3-io/pkpkit/types"
)

var (
	ErrNotFound = errors.New("binding not found")
	ErrExists   = errors.New("binding already exists")
)

type Store interface {
	// Get returns the binding for a user id, or ErrNotFound.
	Get(id string) (*types.Binding, error)

	// Put inserts a new binding. A binding already present for the same
	// user id fails with ErrExists; the stored record is never overwritten.
	Put(binding *types.Binding) error

	// All returns every stored binding in insertion order.
	All() ([]*types.Binding, error)

	Close() error
}
