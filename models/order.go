package models

import "time"

type Order struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index"`
	ProjectID   uint      `json:"project_id" gorm:"index"`
	CouponCode  string    `json:"coupon_code"`
	AmountCents int       `json:"amount_cents"`
	Status      string    `json:"status" gorm:"default:'pending'"` // pending, paid, fulfilled
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User    User    `json:"user" gorm:"foreignKey:UserID"`
	Project Project `json:"project" gorm:"foreignKey:ProjectID"`
}

type Coupon struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Code       string    `json:"code" gorm:"uniqueIndex"`
	PercentOff int       `json:"percent_off"`
	Active     bool      `json:"active" gorm:"default:true"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
