package domain

// Where orders live in the hosted store and the local cache.
const (
	OrdersPath       = "orders"
	AllOrdersKey     = "orders"
	userOrdersPrefix = "orders:user:"
)

// OrderPath returns the store path of an order.
func OrderPath(id string) string {
	return OrdersPath + "/" + id
}

// UserOrdersKey returns the cache key of a customer's order list.
func UserOrdersKey(userID string) string {
	return userOrdersPrefix + userID
}

// StatusPatch is the partial update applied by a status change.
func StatusPatch(status OrderStatus, updatedAt string) map[string]any {
	return map[string]any{
		"status":    string(status),
		"updatedAt": updatedAt,
	}
}
