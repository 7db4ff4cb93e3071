package model

import (
	"strconv"
	"time"
)

// CartLine is one (product, size) position in a cart. Prices are in minor currency units.
type CartLine struct {
	ProductID string    `json:"productId"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// CartKey is the natural key of a cart line within one owner. The product id
// is length-prefixed so distinct pairs never share a key.
func CartKey(productID, size string) string {
	return strconv.Itoa(len(productID)) + ":" + productID + size
}

// Key returns the line's natural key.
func (l CartLine) Key() string { return CartKey(l.ProductID, l.Size) }

// WishlistEntry is a saved product. At most one entry per product per owner.
type WishlistEntry struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// Key returns the entry's natural key.
func (w WishlistEntry) Key() string { return w.ProductID }

// ItemCount sums quantities over the cart.
func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Total returns the cart value in minor currency units.
func Total(lines []CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Price * int64(l.Quantity)
	}
	return sum
}
