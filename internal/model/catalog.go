package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go out as JSON numbers, the storefront does arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxPrice is the largest value a decimal(10,2) price column holds
var MaxPrice = decimal.RequireFromString("99999999.99")

// PriceFits reports whether d can be stored in a price column after rounding to cents
func PriceFits(d decimal.Decimal) bool {
	return !d.Round(2).GreaterThan(MaxPrice)
}

// Category groups products and subcategories
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(120);not null"`
}

// Subcategory belongs to a single category
type Subcategory struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	Name       string   `json:"name" gorm:"type:varchar(120);not null"`
	CategoryID uint     `json:"category_id" gorm:"not null;index"`
	Category   Category `json:"-"`
}

// Product is a catalog entry. Photo and PublicID point at the hosted image.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"type:varchar(120);not null"`
	PublicID      string          `gorm:"type:varchar(200);not null"`
	Photo         string          `gorm:"type:varchar(200);not null"`
	Amount        float64         `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID    uint            `gorm:"not null;index"`
	SubcategoryID uint            `gorm:"not null;index"`

	Category    Category
	Subcategory Subcategory
	Stock       []Stock `gorm:"foreignKey:ProductsID"`
}

// productJSON is the wire shape of a product, with the category names inlined.
type productJSON struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Photo         string          `json:"photo"`
	Amount        float64         `json:"amount"`
	CategoryID    uint            `json:"category_id"`
	SubcategoryID uint            `json:"subcategory_id"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
}

// MarshalJSON flattens the preloaded category and subcategory into their names.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:            p.ID,
		Name:          p.Name,
		Photo:         p.Photo,
		Amount:        p.Amount,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Price:         p.Price,
		Category:      p.Category.Name,
		Subcategory:   p.Subcategory.Name,
	})
}
