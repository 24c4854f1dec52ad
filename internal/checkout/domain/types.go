package domain

import (
	"fmt"
	"strings"
)

// Snapshot is authoritative product state fetched for one checkout
// attempt; it is never retained past the attempt.
type Snapshot struct {
	ProductID int64
	Name      string
	Price     float64
	Stock     int
}

type ReceiptLine struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// Receipt describes a successfully committed order.
type Receipt struct {
	OrderID int64         `json:"orderId"`
	Status  string        `json:"status"`
	Lines   []ReceiptLine `json:"lines"`
	Total   float64       `json:"total"`
}

// Conflict records one cart line that exceeds current stock.
type Conflict struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

// StockConflictError aborts the whole submission; no partial order is
// placed and the cart is left untouched.
type StockConflictError struct {
	Conflicts []Conflict
}

func (e *StockConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("product %d: requested %d, %d in stock", c.ProductID, c.Requested, c.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
