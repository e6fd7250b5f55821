package models

import "time"

// Project is one downloadable code project in the catalog.
type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug" gorm:"uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"index"`
	PriceCents  int       `json:"price_cents"`
	ArchiveURL  string    `json:"archive_url"` // download delivered after purchase
	Published   bool      `json:"published" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
