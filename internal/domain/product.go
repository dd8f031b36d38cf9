package domain

// AttributeKey names one of the structured product attributes compared during matching
type AttributeKey string

const (
	AttributeFlavor   AttributeKey = "flavor"
	AttributeNicotine AttributeKey = "nicotine"
	AttributeVariant  AttributeKey = "variant"
	AttributeColor    AttributeKey = "color"
	AttributeSize     AttributeKey = "size"
	AttributeCapacity AttributeKey = "capacity"
)

// AttributeKeys is the fixed, ordered set of attributes that participate in matching
var AttributeKeys = []AttributeKey{
	AttributeFlavor,
	AttributeNicotine,
	AttributeVariant,
	AttributeColor,
	AttributeSize,
	AttributeCapacity,
}

// Attributes holds the optional structured attributes of a product.
// An empty string means the attribute is absent.
type Attributes struct {
	Flavor   string `json:"flavor,omitempty" db:"flavor"`
	Nicotine string `json:"nicotine,omitempty" db:"nicotine"`
	Variant  string `json:"variant,omitempty" db:"variant"`
	Color    string `json:"color,omitempty" db:"color"`
	Size     string `json:"size,omitempty" db:"size"`
	Capacity string `json:"capacity,omitempty" db:"capacity"`
}

// Get returns the value stored under key, or "" for an unknown key
func (a Attributes) Get(key AttributeKey) string {
	switch key {
	case AttributeFlavor:
		return a.Flavor
	case AttributeNicotine:
		return a.Nicotine
	case AttributeVariant:
		return a.Variant
	case AttributeColor:
		return a.Color
	case AttributeSize:
		return a.Size
	case AttributeCapacity:
		return a.Capacity
	}
	return ""
}

// Set stores value under key. Unknown keys are ignored.
func (a *Attributes) Set(key AttributeKey, value string) {
	switch key {
	case AttributeFlavor:
		a.Flavor = value
	case AttributeNicotine:
		a.Nicotine = value
	case AttributeVariant:
		a.Variant = value
	case AttributeColor:
		a.Color = value
	case AttributeSize:
		a.Size = value
	case AttributeCapacity:
		a.Capacity = value
	}
}

// ObservedProduct is a product description scraped or ingested without a stable identifier
type ObservedProduct struct {
	Name       string     `json:"name"`
	Brand      string     `json:"brand,omitempty"`
	SKUOrModel string     `json:"sku_or_model,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// CatalogEntry is one active row of the canonical product catalog
type CatalogEntry struct {
	ID         string     `json:"id"`
	SKU        string     `json:"sku"`
	Name       string     `json:"name"`
	Brand      string     `json:"brand,omitempty"`
	Model      string     `json:"model,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	Attributes Attributes `json:"attributes"`
}
