package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatusOK is the status of every order accepted by the shop
const OrderStatusOK = "OK"

// Order is a placed purchase; Price is the sum of its detail lines
type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Date           time.Time       `json:"date" gorm:"not null"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Address        string          `json:"address" gorm:"type:varchar(180);not null"`
	DeliverAddress string          `json:"deliver_address" gorm:"type:varchar(180);not null"`
	Status         string          `json:"status" gorm:"type:varchar(180);not null"`
	UserID         uint            `json:"user_id" gorm:"index"`

	Details []OrderDetail `json:"items" gorm:"foreignKey:OrderID"`
}

// BeforeCreate stamps the order date
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
	return nil
}

// OrderDetail is one line of an order
type OrderDetail struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"type:varchar(120);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`

	Product Product `json:"-"`
}

// TableName overrides the pluralized default
func (OrderDetail) TableName() string {
	return "order_detail"
}

// LineTotal is price times quantity
func (d OrderDetail) LineTotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}
