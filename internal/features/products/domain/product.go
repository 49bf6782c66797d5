package domain

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	orderdomain "fruit-fusion/internal/features/orders/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNameRequired    = errors.New("name is required")
)

// Where catalog records live in the hosted store and the local cache.
const (
	ProductsPath   = "products"
	CategoriesPath = "categories"
	ProductsKey    = "products"
	CategoriesKey  = "categories"
)

// ProductPath returns the store path of a product.
func ProductPath(id string) string {
	return ProductsPath + "/" + id
}

// CategoryPath returns the store path of a category.
func CategoryPath(id string) string {
	return CategoriesPath + "/" + id
}

// Product is a catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
	IsVisible   bool    `json:"isVisible"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Category groups products.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ProductList is a catalog read, flagged when it was served from the local cache.
type ProductList struct {
	Products []Product `json:"products"`
	Offline  bool      `json:"offline"`
}

// ProductResult is a single product read or write.
type ProductResult struct {
	Product Product `json:"product"`
	Offline bool    `json:"offline"`
}

// CategoryList is a category read.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Offline    bool       `json:"offline"`
}

// CategoryResult is a category write.
type CategoryResult struct {
	Category Category `json:"category"`
	Offline  bool     `json:"offline"`
}

// SortByName orders products by name, then id.
func SortByName(products []Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})
}

// ParseProduct decodes a stored product record, coercing loosely typed fields.
// Records without isVisible are visible.
func ParseProduct(id string, data []byte) (Product, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Product{}, err
	}
	return productFromMap(id, raw), nil
}

func productFromMap(id string, raw map[string]any) Product {
	p := Product{
		ID:          id,
		Name:        str(raw["name"]),
		Price:       orderdomain.CoercePrice(raw["price"]),
		Stock:       CoerceStock(raw["stock"]),
		Category:    str(raw["category"]),
		Image:       str(raw["image"]),
		IsVisible:   true,
		Description: str(raw["description"]),
		CreatedAt:   str(raw["createdAt"]),
		UpdatedAt:   str(raw["updatedAt"]),
	}
	if v, ok := raw["isVisible"].(bool); ok {
		p.IsVisible = v
	}
	if p.UpdatedAt == "" {
		p.UpdatedAt = p.CreatedAt
	}
	return p
}

// ParseCategory decodes a stored category record.
func ParseCategory(id string, data []byte) (Category, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Category{}, err
	}
	return Category{
		ID:        id,
		Name:      str(raw["name"]),
		Image:     str(raw["image"]),
		CreatedAt: str(raw["createdAt"]),
	}, nil
}

// CoerceStock turns a number or numeric string into a stock count of at least 0.
func CoerceStock(v any) int {
	switch t := v.(type) {
	case int:
		return max(t, 0)
	case float64:
		if math.IsNaN(t) || t < 0 {
			return 0
		}
		if t > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ProductInput carries the editable product fields. Nil fields are left unchanged
// on update. Price and Stock accept numbers or formatted strings.
type ProductInput struct {
	Name        *string `json:"name"`
	Price       any     `json:"price"`
	Stock       any     `json:"stock"`
	Category    *string `json:"category"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	IsVisible   *bool   `json:"isVisible"`
}

// NewProduct builds a product from input, stamped with now.
func NewProduct(in ProductInput, now time.Time) (Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return Product{}, ErrNameRequired
	}
	stamp := now.UTC().Format(time.RFC3339)
	p := Product{IsVisible: true, CreatedAt: stamp, UpdatedAt: stamp}
	in.apply(&p)
	return p, nil
}

// Patch returns the store fields an update writes, stamped with now.
func (in ProductInput) Patch(now time.Time) (map[string]any, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrNameRequired
	}
	patch := map[string]any{"updatedAt": now.UTC().Format(time.RFC3339)}
	if in.Name != nil {
		patch["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		patch["price"] = orderdomain.CoercePrice(in.Price)
	}
	if in.Stock != nil {
		patch["stock"] = CoerceStock(in.Stock)
	}
	if in.Category != nil {
		patch["category"] = *in.Category
	}
	if in.Image != nil {
		patch["image"] = *in.Image
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	if in.IsVisible != nil {
		patch["isVisible"] = *in.IsVisible
	}
	return patch, nil
}

func (in ProductInput) apply(p *Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		p.Price = orderdomain.CoercePrice(in.Price)
	}
	if in.Stock != nil {
		p.Stock = CoerceStock(in.Stock)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IsVisible != nil {
		p.IsVisible = *in.IsVisible
	}
}

// ApplyPatch returns p with the stored patch fields applied.
func ApplyPatch(p Product, patch map[string]any) Product {
	data, _ := json.Marshal(p)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	for k, v := range patch {
		raw[k] = v
	}
	return productFromMap(p.ID, raw)
}

// Record is the representation written to the store. The id is the record key.
func (p Product) Record() map[string]any {
	data, _ := json.Marshal(p)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	delete(raw, "id")
	return raw
}

// NewCategory builds a category stamped with now.
func NewCategory(name, image string, now time.Time) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrNameRequired
	}
	return Category{Name: name, Image: image, CreatedAt: now.UTC().Format(time.RFC3339)}, nil
}

// Record is the representation written to the store.
func (c Category) Record() map[string]any {
	record := map[string]any{"name": c.Name, "createdAt": c.CreatedAt}
	if c.Image != "" {
		record["image"] = c.Image
	}
	return record
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
