package model

import "time"

// OTP is a one-time password reset code bound to an email
type OTP struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(120);not null;index"`
	Code      string    `json:"otp" gorm:"column:otp;type:varchar(6);not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
}

// TableName keeps the singular table name
func (OTP) TableName() string {
	return "otp"
}

// Expired reports whether the code is past its expiry at now
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
