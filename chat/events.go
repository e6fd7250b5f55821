package chat

import "time"

// SenderKind says who authored a message. Routing and the "never auto-reply
// to bot or admin text" rule both branch on it, so it is a closed set.
type SenderKind string

const (
	SenderVisitor SenderKind = "visitor"
	SenderAdmin   SenderKind = "admin"
	SenderBot     SenderKind = "bot"
)

// BotAuthorID marks system-generated messages (welcome, canned replies).
const BotAuthorID = "bot"

// Outbound event names.
const (
	EvMessageNew     = "message:new"
	EvSessionNew     = "session:new"
	EvSessionList    = "session:list"
	EvSessionHistory = "session:history"
	EvSessionUpdate  = "session:update"
	EvSessionClosed  = "session:closed"
	EvFileUploaded   = "file:uploaded"
	EvError          = "error"
)

// Event is one JSON frame pushed to a client.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Conn is the coordinator's view of a live socket. Send must never block;
// the websocket layer backs it with a buffered channel and drops on overflow
// (best-effort delivery, never surfaced as a hard failure).
type Conn interface {
	Send(ev Event)
}

// Message is immutable once created and appended to exactly one session's
// history in arrival order.
type Message struct {
	ID             string     `json:"id"`
	AuthorID       string     `json:"author_id"`
	Text           string     `json:"text"`
	SenderKind     SenderKind `json:"sender_kind"`
	AttachmentURL  string     `json:"attachment_url,omitempty"`
	AttachmentType string     `json:"attachment_type,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type VisitorInfo struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// SessionSummary is the per-session line item in session:new and session:list.
type SessionSummary struct {
	ID          string      `json:"id"`
	VisitorInfo VisitorInfo `json:"visitor_info"`
	CreatedAt   time.Time   `json:"created_at"`
	Unread      int         `json:"unread"`
	Active      bool        `json:"active"`
}

// SessionUpdate carries partial session state to the operator room.
type SessionUpdate struct {
	ID     string `json:"id"`
	Unread *int   `json:"unread,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

type SessionClosed struct {
	ID string `json:"id"`
}

type FileUploaded struct {
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
