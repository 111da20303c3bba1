package cart_test

import (
	"testing"

	"github.com/shopmini/paycore/internal/domain/cart"
	"github.com/stretchr/testify/assert"
)

func TestDrain_FullyConsumesOldestRowFirst(t *testing.T) {
	rows := []cart.Item{
		{ID: 1, ProductID: 10, Quantity: 2},
		{ID: 2, ProductID: 10, Quantity: 3},
	}
	toDelete, toUpdate := cart.Drain(map[int64]int{10: 2}, rows)

	assert.ElementsMatch(t, []int64{1}, toDelete)
	assert.Empty(t, toUpdate)
}

func TestDrain_PartiallyConsumesSecondRow(t *testing.T) {
	rows := []cart.Item{
		{ID: 1, ProductID: 10, Quantity: 2},
		{ID: 2, ProductID: 10, Quantity: 3},
	}
	toDelete, toUpdate := cart.Drain(map[int64]int{10: 4}, rows)

	assert.ElementsMatch(t, []int64{1}, toDelete)
	assert.Equal(t, map[int64]int{2: 1}, toUpdate)
}

func TestDrain_LeavesUnrelatedProductsUntouched(t *testing.T) {
	rows := []cart.Item{
		{ID: 1, ProductID: 10, Quantity: 2},
		{ID: 2, ProductID: 99, Quantity: 5},
	}
	toDelete, toUpdate := cart.Drain(map[int64]int{10: 2}, rows)

	assert.ElementsMatch(t, []int64{1}, toDelete)
	assert.Empty(t, toUpdate)
}

func TestDrain_StopsWhenMultisetExhausted(t *testing.T) {
	rows := []cart.Item{
		{ID: 1, ProductID: 10, Quantity: 5},
		{ID: 2, ProductID: 10, Quantity: 5},
	}
	toDelete, toUpdate := cart.Drain(map[int64]int{10: 5}, rows)

	assert.ElementsMatch(t, []int64{1}, toDelete)
	assert.Empty(t, toUpdate)
}
