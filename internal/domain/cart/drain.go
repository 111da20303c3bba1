package cart

// Drain implements the cart-drain algorithm: given the multiset of ordered
// quantities per product and the user's cart rows already locked and sorted
// by id, it subtracts exactly the ordered quantities, oldest row first,
// until each product's ordered quantity is exhausted. Rows fully consumed
// are returned for deletion; partially consumed rows are returned with
// their new quantity. Rows whose product is not in the multiset, or any
// quantity left over after the multiset is exhausted, are left untouched.
//
// Neither argument is modified: the multiset is copied before it is consumed,
// and the caller's slice of rows is only read.
func Drain(orderedByProduct map[int64]int, rowsOrderedByID []Item) (toDelete []int64, toUpdate map[int64]int) {
	toUpdate = make(map[int64]int)
	remaining := make(map[int64]int, len(orderedByProduct))
	for productID, qty := range orderedByProduct {
		remaining[productID] = qty
	}

	for _, row := range rowsOrderedByID {
		left, wanted := remaining[row.ProductID]
		if !wanted || left <= 0 {
			continue
		}
		switch {
		case row.Quantity <= left:
			toDelete = append(toDelete, row.ID)
			remaining[row.ProductID] = left - row.Quantity
		default:
			toUpdate[row.ID] = row.Quantity - left
			remaining[row.ProductID] = 0
		}
	}
	return toDelete, toUpdate
}
