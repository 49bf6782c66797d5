package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawOrder is an order record as it arrives from the store, the cache or a client:
// decoded JSON with no guarantee on field types.
type RawOrder map[string]any

// ParseRawOrder decodes a JSON object into a RawOrder.
func ParseRawOrder(data []byte) (RawOrder, error) {
	var raw RawOrder
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = RawOrder{}
	}
	return raw, nil
}

// ToRaw converts a canonical order back into its raw form.
func ToRaw(o Order) (RawOrder, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order %s: %w", o.ID, err)
	}
	return ParseRawOrder(data)
}

// Normalizer turns raw orders into canonical ones. The zero value is not usable; use NewNormalizer.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer returns a Normalizer that stamps missing timestamps with now().
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

var defaultNormalizer = NewNormalizer(time.Now)

// Normalize converts raw into a canonical Order using the wall clock for missing timestamps.
func Normalize(raw RawOrder) Order {
	return defaultNormalizer.Normalize(raw)
}

// Normalize converts raw into a canonical Order. Malformed input is coerced, never rejected.
func (n *Normalizer) Normalize(raw RawOrder) Order {
	if raw == nil {
		raw = RawOrder{}
	}

	items := normalizeItems(raw["items"])

	createdAt := timestampField(raw, "createdAt")
	if createdAt == "" {
		createdAt = n.now().UTC().Format(time.RFC3339)
	}
	updatedAt := timestampField(raw, "updatedAt")
	if updatedAt == "" {
		updatedAt = createdAt
	}

	status := OrderStatusTaken
	if st, ok := ParseStatus(stringField(raw, "status")); ok {
		status = st
	}

	return Order{
		ID:            stringField(raw, "id"),
		UserID:        stringOr(DefaultUserID, raw, "userId"),
		CustomerName:  stringOr(DefaultCustomerName, raw, "customerName"),
		PhoneNumber:   stringOr(DefaultContact, raw, "phoneNumber", "customerPhone", "phone"),
		Address:       stringOr(DefaultContact, raw, "address"),
		Email:         stringOr(DefaultContact, raw, "email"),
		Items:         items,
		TotalAmount:   resolveTotal(raw, items),
		Status:        status,
		PaymentMethod: stringOr(PaymentCashOnDelivery, raw, "paymentMethod"),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// SumLines returns the exact sum of line subtotals, capped at math.MaxFloat64.
func SumLines(items []OrderLine) float64 {
	sum := decimal.Zero
	for _, l := range items {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return finite(sum.InexactFloat64())
}

// finite caps f to the largest float64 so totals always encode as JSON.
func finite(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(-math.MaxFloat64, math.Min(f, math.MaxFloat64))
}

// resolveTotal applies the total precedence: numeric totalAmount, numeric totalPrice,
// formatted totalAmount or totalPrice strings, then the sum of the lines.
func resolveTotal(raw RawOrder, items []OrderLine) float64 {
	sum := SumLines(items)

	var total float64
	switch {
	case positiveNumber(raw["totalAmount"]) > 0:
		total = positiveNumber(raw["totalAmount"])
	case positiveNumber(raw["totalPrice"]) > 0:
		total = positiveNumber(raw["totalPrice"])
	case formattedAmount(raw["totalAmount"]) > 0:
		total = formattedAmount(raw["totalAmount"])
	case formattedAmount(raw["totalPrice"]) > 0:
		total = formattedAmount(raw["totalPrice"])
	default:
		total = sum
	}

	if total == 0 && sum > 0 {
		total = sum
	}
	return total
}

func normalizeItems(v any) []OrderLine {
	var entries []any
	switch items := v.(type) {
	case []any:
		entries = items
	case map[string]any:
		// Sparse arrays come back from the store as objects keyed by index.
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return indexLess(keys[i], keys[j]) })
		for _, k := range keys {
			entries = append(entries, items[k])
		}
	}

	lines := make([]OrderLine, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, OrderLine{
			Name:     stringOr(DefaultItemName, m, "name"),
			Price:    CoercePrice(m["price"]),
			Quantity: CoerceQuantity(m["quantity"]),
			Image:    stringField(m, "image"),
		})
	}
	return lines
}

func indexLess(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// CoercePrice converts a raw price into a finite number >= 0. Unparseable input yields 0.
func CoercePrice(v any) float64 {
	if f, ok := number(v); ok {
		return clampPrice(f)
	}
	if s, ok := v.(string); ok {
		if f, ok := parseAmount(s); ok {
			return clampPrice(f)
		}
	}
	return 0
}

// CoerceQuantity converts a raw quantity into an integer >= 1.
func CoerceQuantity(v any) int {
	if f, ok := number(v); ok {
		if math.IsNaN(f) || f < 1 {
			return 1
		}
		if f > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(f)
	}
	if s, ok := v.(string); ok {
		if strings.HasPrefix(strings.TrimSpace(s), "-") {
			return 1
		}
		digits := nonDigits.ReplaceAllString(s, "")
		q, err := strconv.Atoi(digits)
		if err != nil || q < 1 {
			return 1
		}
		return min(q, math.MaxInt32)
	}
	return 1
}

var (
	nonDigits = regexp.MustCompile(`\D`)
	// A dot only survives between two digits, so "Rs. 300" reads as 300.
	strayDots     = regexp.MustCompile(`(^|[^0-9])\.|\.([^0-9]|$)`)
	amountChars   = regexp.MustCompile(`[^0-9.\-]`)
	leadingAmount = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)`)
)

// parseAmount extracts the numeric value from a currency formatted string such as
// "Rs 1,250" or "PKR 99.50". It reads the longest numeric prefix left after
// stripping everything but digits, minus signs and decimal points.
func parseAmount(s string) (float64, bool) {
	cleaned := strayDots.ReplaceAllString(s, "$1 $2")
	cleaned = amountChars.ReplaceAllString(cleaned, "")
	match := leadingAmount.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func clampPrice(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func positiveNumber(v any) float64 {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return f
}

func formattedAmount(v any) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, ok := parseAmount(s)
	if !ok {
		return 0
	}
	return clampPrice(f)
}

// stringField returns the trimmed string form of m[key], or "" when absent.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// stringOr returns the first non-empty field among keys, or def.
func stringOr(def string, m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return def
}

// timestampField reads an ISO-8601 string or an epoch milliseconds number.
func timestampField(m map[string]any, key string) string {
	if f, ok := number(m[key]); ok && f > 0 {
		return time.UnixMilli(int64(f)).UTC().Format(time.RFC3339)
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
