package core

import "strings"

// Normalizer maps the many phrasings customers use for an item to the one
// canonical catalog name. Item name is the join key across every table, so
// every downstream component must operate on canonical names only — this is
// the single place raw text is resolved.
type Normalizer struct {
	catalog *Catalog
	aliases map[string]string // lowercased phrasing -> canonical name
}

// NewNormalizer builds a normalizer over the given catalog with the default
// alias table.
func NewNormalizer(catalog *Catalog) *Normalizer {
	return &Normalizer{catalog: catalog, aliases: defaultAliases()}
}

// Normalize resolves a raw item phrase to its canonical catalog name.
// Resolution order: exact catalog name, then alias table. Unresolved names
// return ok=false; they are never guessed or silently dropped.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if it, ok := n.catalog.Lookup(key); ok {
		return it.Name, true
	}
	if canonical, ok := n.aliases[key]; ok {
		return canonical, true
	}
	return "", false
}

// defaultAliases is the customer-phrasing table. Aliases intentionally remap
// some niche papers to close substitutes we actually stock.
func defaultAliases() map[string]string {
	return map[string]string{
		"printer paper":            "A4 paper",
		"printing paper":           "A4 paper",
		"standard paper":           "A4 paper",
		"white paper":              "A4 paper",
		"copy paper":               "A4 paper",
		"a4 white paper":           "A4 paper",
		"a4 printer paper":         "A4 paper",
		"a4 size printer paper":    "A4 paper",
		"a4 printing paper":        "A4 paper",
		"a3 paper":                 "A4 paper",
		"a5 paper":                 "A4 paper",
		"a3 matte paper":           "A4 paper",
		"heavy cardstock":          "Cardstock",
		"white cardstock":          "Cardstock",
		"colored cardstock":        "Cardstock",
		"card stock":               "Cardstock",
		"colorful paper":           "Colored paper",
		"assorted colored paper":   "Colored paper",
		"a4 glossy paper":          "Glossy paper",
		"glossy photo paper":       "Glossy paper",
		"a3 glossy paper":          "Glossy paper",
		"kraft envelopes":          "Kraft paper",
		"streamers":                "Party streamers",
		"plates":                   "Paper plates",
		"table cover":              "Table covers",
		"invitations":              "Invitation cards",
		"folders":                  "Presentation folders",
		"poster board":             "Large poster paper (24x36 inches)",
		"large poster paper":       "Large poster paper (24x36 inches)",
		"poster":                   "Large poster paper (24x36 inches)",
		"posters":                  "Large poster paper (24x36 inches)",
		"banner roll":              "Rolls of banner paper (36-inch width)",
		"cover stock":              "100 lb cover stock",
		"text paper":               "80 lb text paper",
		"bond paper":               "80 lb text paper",
		"decorative wrapping paper": "Wrapping paper",
	}
}
