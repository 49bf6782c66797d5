package domain

import (
	"errors"
	"strings"
)

// ErrInvalidStatus is returned for a status outside the accepted set.
var ErrInvalidStatus = errors.New("invalid order status")

// OrderStatus represents the current state of an order.
type OrderStatus string

const (
	// OrderStatusTaken is the status of a freshly placed order.
	OrderStatusTaken OrderStatus = "Order Taken"
	// OrderStatusPending marks an order awaiting confirmation.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusOutForDelivery indicates the rider has picked the order up.
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusCancelled indicates the order will not be fulfilled.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Statuses lists every accepted status in lifecycle order.
var Statuses = []OrderStatus{
	OrderStatusTaken,
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseStatus matches s against the accepted statuses ignoring case and spacing.
func ParseStatus(s string) (OrderStatus, bool) {
	key := statusKey(s)
	for _, st := range Statuses {
		if statusKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

func statusKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Default values filled in by the normalizer.
const (
	DefaultUserID         = "guest"
	DefaultCustomerName   = "Guest"
	DefaultContact        = "Not provided"
	DefaultItemName       = "Unknown item"
	PaymentCashOnDelivery = "Cash on Delivery"
)

// Order is the canonical order record. Every Order produced by Normalize has
// non-negative prices, quantities of at least one and display-safe strings.
type Order struct {
	// ID is the key assigned by the hosted store.
	ID string `json:"id"`
	// UserID identifies the customer, "guest" for anonymous checkouts.
	UserID string `json:"userId"`
	// CustomerName is the name entered at checkout.
	CustomerName string `json:"customerName"`
	// PhoneNumber is the contact number entered at checkout.
	PhoneNumber string `json:"phoneNumber"`
	// Address is the delivery address.
	Address string `json:"address"`
	// Email is the contact email.
	Email string `json:"email"`
	// Items are the ordered lines.
	Items []OrderLine `json:"items"`
	// TotalAmount is the canonical order total.
	TotalAmount float64 `json:"totalAmount"`
	// Status is the current lifecycle state.
	Status OrderStatus `json:"status"`
	// PaymentMethod is always Cash on Delivery.
	PaymentMethod string `json:"paymentMethod"`
	// CreatedAt is the ISO-8601 creation timestamp.
	CreatedAt string `json:"createdAt"`
	// UpdatedAt is the ISO-8601 timestamp of the last change.
	UpdatedAt string `json:"updatedAt"`
}

// OrderLine is a single product within an order.
type OrderLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

// Subtotal returns price times quantity.
func (l OrderLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// OrderList is a list read, flagged when it was served from the local cache.
type OrderList struct {
	Orders  []Order `json:"orders"`
	Offline bool    `json:"offline"`
}

// OrderResult is a single order read or write. Offline is set when the order was
// read from the local cache or the write was queued for replay.
type OrderResult struct {
	Order   Order `json:"order"`
	Offline bool  `json:"offline"`
}
