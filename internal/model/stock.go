package model

import (
	"time"

	"gorm.io/gorm"
)

// Stock records a quantity of a product received into inventory
type Stock struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProductsID uint      `json:"products_id" gorm:"column:products_id;not null;index"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	DateIn     time.Time `json:"date_in" gorm:"not null"`
}

// TableName overrides the pluralized default
func (Stock) TableName() string {
	return "stock"
}

// BeforeCreate stamps the intake date
func (s *Stock) BeforeCreate(tx *gorm.DB) error {
	if s.DateIn.IsZero() {
		s.DateIn = time.Now()
	}
	return nil
}
