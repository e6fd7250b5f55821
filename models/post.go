package models

import "time"

type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	Body      string    `json:"body" gorm:"type:text"`
	AuthorID  uint      `json:"author_id"`
	Published bool      `json:"published" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
