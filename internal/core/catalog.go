package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Catalog is the static reference list of sellable items, keyed by exact
// item name. It is immutable after construction.
type Catalog struct {
	items []CatalogItem
	byKey map[string]CatalogItem // lowercased name -> item
}

// NewCatalog builds a catalog from item definitions. Later duplicates of the
// same name (case-insensitive) are ignored.
func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{byKey: make(map[string]CatalogItem, len(items))}
	for _, it := range items {
		key := strings.ToLower(it.Name)
		if _, exists := c.byKey[key]; exists {
			continue
		}
		c.byKey[key] = it
		c.items = append(c.items, it)
	}
	return c
}

// Lookup returns the catalog entry for an exact item name (case-insensitive).
func (c *Catalog) Lookup(name string) (CatalogItem, bool) {
	it, ok := c.byKey[strings.ToLower(name)]
	return it, ok
}

// Items returns all catalog entries in load order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of distinct catalog entries.
func (c *Catalog) Len() int { return len(c.items) }

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultCatalog returns the full paper supplies catalog.
// Paper types are priced per sheet, products per unit.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogItem{
		{Name: "A4 paper", Category: CategoryPaper, UnitPrice: price("0.05")},
		{Name: "Letter-sized paper", Category: CategoryPaper, UnitPrice: price("0.06")},
		{Name: "Cardstock", Category: CategoryPaper, UnitPrice: price("0.15")},
		{Name: "Colored paper", Category: CategoryPaper, UnitPrice: price("0.10")},
		{Name: "Glossy paper", Category: CategoryPaper, UnitPrice: price("0.20")},
		{Name: "Matte paper", Category: CategoryPaper, UnitPrice: price("0.18")},
		{Name: "Recycled paper", Category: CategoryPaper, UnitPrice: price("0.08")},
		{Name: "Eco-friendly paper", Category: CategoryPaper, UnitPrice: price("0.12")},
		{Name: "Poster paper", Category: CategoryPaper, UnitPrice: price("0.25")},
		{Name: "Banner paper", Category: CategoryPaper, UnitPrice: price("0.30")},
		{Name: "Kraft paper", Category: CategoryPaper, UnitPrice: price("0.10")},
		{Name: "Construction paper", Category: CategoryPaper, UnitPrice: price("0.07")},
		{Name: "Wrapping paper", Category: CategoryPaper, UnitPrice: price("0.15")},
		{Name: "Glitter paper", Category: CategoryPaper, UnitPrice: price("0.22")},
		{Name: "Decorative paper", Category: CategoryPaper, UnitPrice: price("0.18")},
		{Name: "Letterhead paper", Category: CategoryPaper, UnitPrice: price("0.12")},
		{Name: "Legal-size paper", Category: CategoryPaper, UnitPrice: price("0.08")},
		{Name: "Crepe paper", Category: CategoryPaper, UnitPrice: price("0.05")},
		{Name: "Photo paper", Category: CategoryPaper, UnitPrice: price("0.25")},
		{Name: "Uncoated paper", Category: CategoryPaper, UnitPrice: price("0.06")},
		{Name: "Butcher paper", Category: CategoryPaper, UnitPrice: price("0.10")},
		{Name: "Heavyweight paper", Category: CategoryPaper, UnitPrice: price("0.20")},
		{Name: "Standard copy paper", Category: CategoryPaper, UnitPrice: price("0.04")},
		{Name: "Bright-colored paper", Category: CategoryPaper, UnitPrice: price("0.12")},
		{Name: "Patterned paper", Category: CategoryPaper, UnitPrice: price("0.15")},

		{Name: "Paper plates", Category: CategoryProduct, UnitPrice: price("0.10")},
		{Name: "Paper cups", Category: CategoryProduct, UnitPrice: price("0.08")},
		{Name: "Paper napkins", Category: CategoryProduct, UnitPrice: price("0.02")},
		{Name: "Disposable cups", Category: CategoryProduct, UnitPrice: price("0.10")},
		{Name: "Table covers", Category: CategoryProduct, UnitPrice: price("1.50")},
		{Name: "Envelopes", Category: CategoryProduct, UnitPrice: price("0.05")},
		{Name: "Sticky notes", Category: CategoryProduct, UnitPrice: price("0.03")},
		{Name: "Notepads", Category: CategoryProduct, UnitPrice: price("2.00")},
		{Name: "Invitation cards", Category: CategoryProduct, UnitPrice: price("0.50")},
		{Name: "Flyers", Category: CategoryProduct, UnitPrice: price("0.15")},
		{Name: "Party streamers", Category: CategoryProduct, UnitPrice: price("0.05")},
		{Name: "Decorative adhesive tape (washi tape)", Category: CategoryProduct, UnitPrice: price("0.20")},
		{Name: "Paper party bags", Category: CategoryProduct, UnitPrice: price("0.25")},
		{Name: "Name tags with lanyards", Category: CategoryProduct, UnitPrice: price("0.75")},
		{Name: "Presentation folders", Category: CategoryProduct, UnitPrice: price("0.50")},

		{Name: "Large poster paper (24x36 inches)", Category: CategoryLargeFormat, UnitPrice: price("1.00")},
		{Name: "Rolls of banner paper (36-inch width)", Category: CategoryLargeFormat, UnitPrice: price("2.50")},

		{Name: "100 lb cover stock", Category: CategorySpecialty, UnitPrice: price("0.50")},
		{Name: "80 lb text paper", Category: CategorySpecialty, UnitPrice: price("0.40")},
		{Name: "250 gsm cardstock", Category: CategorySpecialty, UnitPrice: price("0.30")},
		{Name: "220 gsm poster paper", Category: CategorySpecialty, UnitPrice: price("0.35")},
	})
}
