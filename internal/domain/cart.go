package domain

import "time"

// Cart is a customer's transient selection. It carries no prices: pricing
// happens at checkout time against the live catalog.
type Cart struct {
	CustomerID string     `json:"customer_id"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is one product selection with quantity >= 1.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// NewCart creates an empty cart for the customer.
func NewCart(customerID string) *Cart {
	return &Cart{
		CustomerID: customerID,
		Items:      []CartItem{},
		UpdatedAt:  time.Now().UTC(),
	}
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the index of the item for productID, or -1.
func (c *Cart) FindItemIndex(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges quantity into an existing item for the product, or appends
// a new item. Returns the resulting quantity for the product.
func (c *Cart) AddItem(productID string, quantity int) int {
	if i := c.FindItemIndex(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return c.Items[i].Quantity
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	return quantity
}

// SetItemQuantity replaces the quantity for the product. A quantity <= 0
// removes the item. Returns false if the product is not in the cart.
func (c *Cart) SetItemQuantity(productID string, quantity int) bool {
	i := c.FindItemIndex(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// RemoveItem deletes the item for the product. Returns false if absent.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.FindItemIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}
