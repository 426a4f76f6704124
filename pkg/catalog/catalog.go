// Package catalog loads the category -> product-name mapping that constrains every
// generated product field.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/dirtyfeed/pkg/errors"
)

var validate = validator.New()

// document mirrors the on-disk shape for validation.
type document struct {
	Categories map[string][]string `validate:"min=1,dive,keys,required,endkeys,min=1,dive,required"`
}

// Catalog is read-only once built.
type Catalog struct {
	categories []string
	products   map[string][]string
}

// Load reads and validates the catalog file at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "reading catalog "+path)
	}
	return Parse(raw)
}

// Parse decodes a JSON object of category -> product names.
func Parse(raw []byte) (*Catalog, error) {
	var products map[string][]string
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "decoding catalog")
	}
	return New(products)
}

// New validates and copies the mapping.
func New(products map[string][]string) (*Catalog, error) {
	trimmed := make(map[string][]string, len(products))
	for category, names := range products {
		clean := make([]string, 0, len(names))
		for _, name := range names {
			clean = append(clean, strings.TrimSpace(name))
		}
		trimmed[strings.TrimSpace(category)] = clean
	}

	if err := validate.Struct(document{Categories: trimmed}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "catalog must list at least one category and every category at least one product")
	}

	c := &Catalog{products: trimmed}
	for category := range trimmed {
		c.categories = append(c.categories, category)
	}
	sort.Strings(c.categories)
	return c, nil
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Products returns the product names of category. An unknown category is a
// programming error.
func (c *Catalog) Products(category string) []string {
	names, ok := c.products[category]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown category %q", category))
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Contains reports whether product is listed under category.
func (c *Catalog) Contains(category, product string) bool {
	for _, name := range c.products[category] {
		if name == product {
			return true
		}
	}
	return false
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// Size returns the total number of products across categories.
func (c *Catalog) Size() int {
	total := 0
	for _, names := range c.products {
		total += len(names)
	}
	return total
}
