package domain

import "encoding/json"

type Line struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Cart holds at most one line per product. The zero value is an empty cart.
type Cart struct {
	Items []Line `json:"items"`
}

func Empty() Cart {
	return Cart{Items: []Line{}}
}

// Decode parses a persisted cart record. Absent or corrupt records read
// as an empty cart rather than failing.
func Decode(b []byte) Cart {
	var c Cart
	if len(b) == 0 || json.Unmarshal(b, &c) != nil {
		return Empty()
	}
	if c.Items == nil {
		c.Items = []Line{}
	}
	return c
}

func (c Cart) Encode() []byte {
	b, err := json.Marshal(c)
	if err != nil {
		return []byte(`{"items":[]}`)
	}
	return b
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c Cart) ItemCount() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

func (c Cart) Quantity(productID int64) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (c Cart) Clone() Cart {
	out := Cart{Items: make([]Line, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

// Add merges quantity into an existing line or appends a new one.
func (c *Cart) Add(productID int64, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, Line{ProductID: productID, Quantity: quantity})
}

// Set overwrites a line's quantity; a quantity of zero or less removes it.
func (c *Cart) Set(productID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
	c.Items = append(c.Items, Line{ProductID: productID, Quantity: quantity})
}

func (c *Cart) Remove(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}
