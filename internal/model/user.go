package model

import (
	"time"
)

// User represents a shop customer or administrator
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	Lastname  string    `json:"lastname" gorm:"type:varchar(120);not null"`
	Email     string    `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(250);not null"`
	Salt      string    `json:"-" gorm:"type:varchar(180);not null"`
	Admin     bool      `json:"-" gorm:"default:false"`
	CreatedAt time.Time `json:"-" gorm:"not null"`

	Orders []Order `json:"-" gorm:"foreignKey:UserID"`
}
