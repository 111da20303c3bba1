// Package product models the catalog entries referenced from order and cart
// items. Mutation here is limited to the atomic stock primitive the payment
// core needs; catalog CRUD/search/images are out of scope.
package product

import "errors"

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInsufficientStock = errors.New("product: insufficient stock")
)

// Product is a read-mostly catalog entry. IKPU and PackageCode are carried
// through to the Payme receipt / Click fiscal dispatch.
type Product struct {
	ID          int64
	Name        string
	Price       int64 // sum, > 0
	Stock       int
	IsActive    bool
	IKPU        string
	PackageCode string
}

const (
	DefaultIKPU = "00702001001000001"
)
