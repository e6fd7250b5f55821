package models

import "time"

// ChatSession is the persisted record of a support conversation. It lives on
// the REST chat log surface, a separate write path from the live socket
// coordinator.
type ChatSession struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionKey   string    `json:"session_key" gorm:"uniqueIndex"`
	VisitorName  string    `json:"visitor_name"`
	VisitorEmail string    `json:"visitor_email"`
	Status       string    `json:"status" gorm:"default:'active'"` // active, closed
	LastMessage  string    `json:"last_message"`
	UnreadCount  int       `json:"unread_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SessionKey string    `json:"session_key" gorm:"index"`
	AuthorID   string    `json:"author_id"`
	SenderKind string    `json:"sender_kind"` // visitor, admin, bot
	Content    string    `json:"content" gorm:"type:text"`
	FileURL    string    `json:"file_url"`
	FileType   string    `json:"file_type"`
	Read       bool      `json:"read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

// AutoResponse is the DB-backed keyword rule the REST surface evaluates
// independently of the live path's configured rules.
type AutoResponse struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Keyword   string    `json:"keyword" gorm:"uniqueIndex"`
	Reply     string    `json:"reply" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
