package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"CodeMart/config"
)

var ErrUnboundSender = errors.New("sender has no resolved identity")

// Uploader stores an opaque attachment blob and returns a public URL. The
// coordinator performs no validation on the payload.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Options groups the coordinator's tunables. They come straight from the
// chat section of the config file.
type Options struct {
	WelcomeText string
	BotDelay    time.Duration
	GracePeriod time.Duration
	Rules       []config.AutoResponseRule
}

// Coordinator owns the identity registries, the session store, the operator
// room and every chat timer. Each inbound event is handled to completion
// under one mutex, so mutations are atomic with respect to each other.
//
// Failure semantics are fire-and-forget: every precondition failure becomes
// a single error event to the offending connection, mutates nothing, and is
// never fatal. Delivery to an offline peer is silently dropped.
type Coordinator struct {
	mu sync.Mutex

	opts      Options
	visitors  *Registry
	admins    *Registry
	store     *SessionStore
	room      *Room
	responder *Responder
	uploader  Uploader

	// visitor identity -> owning session. A brand-new visitor id is minted
	// on every connect, page reloads included; the client never resends a
	// prior id, so the grace timer's same-id reconnect check can only ever
	// rescue a transport-level reconnect that reuses the binding. That
	// mirrors the original behavior and is deliberately left as is.
	visitorSessions map[string]string

	graceTimers map[string]*time.Timer // keyed by visitor id
	botTimers   map[string]*time.Timer // keyed by session id
}

func NewCoordinator(opts Options, uploader Uploader) (*Coordinator, error) {
	responder, err := NewResponder(opts.Rules)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		opts:            opts,
		visitors:        NewRegistry(),
		admins:          NewRegistry(),
		store:           NewSessionStore(opts.WelcomeText),
		room:            NewRoom(),
		responder:       responder,
		uploader:        uploader,
		visitorSessions: make(map[string]string),
		graceTimers:     make(map[string]*time.Timer),
		botTimers:       make(map[string]*time.Timer),
	}, nil
}

// VisitorConnect allocates a fresh visitor identity, creates its session and
// binds the socket. The welcome message goes back on the new connection and
// the operator room is told about the new session.
func (c *Coordinator) VisitorConnect(conn Conn, info VisitorInfo) (visitorID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visitorID = uuid.New().String()
	c.cancelGraceLocked(visitorID)

	sess := c.store.CreateSession(visitorID, info)
	c.visitors.Bind(visitorID, conn)
	c.visitorSessions[visitorID] = sess.ID

	conn.Send(Event{Name: EvMessageNew, Data: sess.Messages[0]})
	c.room.Broadcast(Event{Name: EvSessionNew, Data: summarize(sess)})
	return visitorID, sess.ID
}

// AdminConnect binds the operator socket, joins the broadcast room and sends
// that operator a snapshot of every session.
func (c *Coordinator) AdminConnect(adminID string, conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.admins.Bind(adminID, conn)
	c.room.Join(adminID, conn)
	conn.Send(Event{Name: EvSessionList, Data: c.summariesLocked()})
}

// SelectSession puts the operator into the session's viewer set, clears its
// unread counter and replays the full history to that operator only.
func (c *Coordinator) SelectSession(conn Conn, adminID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.store.Get(sessionID)
	if !ok {
		sendError(conn, ErrSessionNotFound)
		return
	}
	c.room.View(adminID, sessionID)
	if err := c.store.MarkViewed(sessionID); err != nil {
		sendError(conn, err)
		return
	}
	history := make([]Message, len(sess.Messages))
	copy(history, sess.Messages)
	conn.Send(Event{Name: EvSessionHistory, Data: history})

	zero := 0
	c.room.Broadcast(Event{Name: EvSessionUpdate, Data: SessionUpdate{ID: sessionID, Unread: &zero}})
}

// VisitorMessage appends a visitor-authored message to the visitor's own
// session, echoes it back, fans it out to operators while the session is
// still active, and schedules a canned reply when a rule matches.
func (c *Coordinator) VisitorMessage(conn Conn, visitorID, text, fileURL, fileType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionID, ok := c.visitorSessions[visitorID]
	if !ok {
		sendError(conn, ErrUnboundSender)
		return
	}
	msg := Message{
		ID:             uuid.New().String(),
		AuthorID:       visitorID,
		Text:           text,
		SenderKind:     SenderVisitor,
		AttachmentURL:  fileURL,
		AttachmentType: fileType,
		CreatedAt:      time.Now(),
	}
	sess, err := c.store.AppendMessage(sessionID, msg)
	if err != nil {
		sendError(conn, err)
		return
	}

	ev := Event{Name: EvMessageNew, Data: msg}
	conn.Send(ev)
	if !sess.Active {
		return
	}
	c.room.Broadcast(ev)
	c.room.EmitViewers(sessionID, ev)

	// Canned replies run against visitor text only, never admin or bot
	// text, so a reply can never trigger another reply. A closed session
	// gets none at all.
	if reply, matched := c.responder.Match(text); matched {
		c.scheduleBotReplyLocked(sessionID, reply)
	}
}

// AdminMessage appends an admin-authored message to the session the operator
// currently has selected and delivers it to the bound visitor, if any.
// Delivery to an offline visitor is a silent no-op.
func (c *Coordinator) AdminMessage(conn Conn, adminID, text, fileURL, fileType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionID, ok := c.room.Viewing(adminID)
	if !ok {
		sendError(conn, ErrUnboundSender)
		return
	}
	msg := Message{
		ID:             uuid.New().String(),
		AuthorID:       adminID,
		Text:           text,
		SenderKind:     SenderAdmin,
		AttachmentURL:  fileURL,
		AttachmentType: fileType,
		CreatedAt:      time.Now(),
	}
	sess, err := c.store.AppendMessage(sessionID, msg)
	if err != nil {
		sendError(conn, err)
		return
	}

	ev := Event{Name: EvMessageNew, Data: msg}
	conn.Send(ev)
	if vconn, online := c.visitors.Lookup(sess.VisitorID); online {
		vconn.Send(ev)
	}
}

// UploadFile stores the blob unchanged and hands the resulting URL back to
// the sender, who then re-submits it as a message with attachment fields.
func (c *Coordinator) UploadFile(conn Conn, senderID, fileName string, data []byte, fileType string) {
	c.mu.Lock()
	bound := false
	if _, ok := c.visitors.Lookup(senderID); ok {
		bound = true
	} else if _, ok := c.admins.Lookup(senderID); ok {
		bound = true
	}
	uploader := c.uploader
	c.mu.Unlock()

	if !bound {
		sendError(conn, ErrUnboundSender)
		return
	}
	if uploader == nil {
		sendError(conn, errors.New("file uploads are not configured"))
		return
	}

	// The upload itself happens outside the lock; it may block on storage.
	key := uuid.New().String() + "-" + fileName
	url, err := uploader.Upload(context.Background(), key, data, fileType)
	if err != nil {
		log.Printf("chat: upload failed: %v", err)
		sendError(conn, errors.New("file upload failed"))
		return
	}
	conn.Send(Event{Name: EvFileUploaded, Data: FileUploaded{FileURL: url, FileType: fileType}})
}

// CloseSession is the operator-initiated terminal transition. Both chat
// timers for the session are cancelled so a stale firing cannot touch it
// afterwards.
func (c *Coordinator) CloseSession(conn Conn, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.store.Get(sessionID)
	if !ok {
		sendError(conn, ErrSessionNotFound)
		return
	}
	c.store.SetActive(sessionID, false)
	c.cancelGraceLocked(sess.VisitorID)
	c.cancelBotReplyLocked(sessionID)

	if vconn, online := c.visitors.Lookup(sess.VisitorID); online {
		vconn.Send(Event{Name: EvSessionClosed, Data: SessionClosed{ID: sessionID}})
	}
	inactive := false
	c.room.Broadcast(Event{Name: EvSessionUpdate, Data: SessionUpdate{ID: sessionID, Active: &inactive}})
}

// DisconnectVisitor unbinds the socket immediately and starts the one-shot
// grace timer. If the same visitor identity is still absent when it fires,
// the session is deactivated.
func (c *Coordinator) DisconnectVisitor(visitorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visitors.Unbind(visitorID)
	c.cancelGraceLocked(visitorID)
	c.graceTimers[visitorID] = time.AfterFunc(c.opts.GracePeriod, func() {
		c.graceExpired(visitorID)
	})
}

// DisconnectAdmin unbinds the operator and removes them from the room and
// any viewer set.
func (c *Coordinator) DisconnectAdmin(adminID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.admins.Unbind(adminID)
	c.room.Leave(adminID)
}

// Shutdown stops every pending timer. Sessions are in-memory only and die
// with the process.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.graceTimers {
		t.Stop()
		delete(c.graceTimers, id)
	}
	for id, t := range c.botTimers {
		t.Stop()
		delete(c.botTimers, id)
	}
}

func (c *Coordinator) graceExpired(visitorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A cancelled timer may still fire if Stop raced the clock; the map
	// entry is the source of truth.
	if _, armed := c.graceTimers[visitorID]; !armed {
		return
	}
	delete(c.graceTimers, visitorID)

	if _, online := c.visitors.Lookup(visitorID); online {
		return // same identity came back before the grace elapsed
	}
	sessionID, ok := c.visitorSessions[visitorID]
	if !ok {
		return
	}
	sess, ok := c.store.Get(sessionID)
	if !ok || !sess.Active {
		return
	}
	c.store.SetActive(sessionID, false)
	inactive := false
	c.room.Broadcast(Event{Name: EvSessionUpdate, Data: SessionUpdate{ID: sessionID, Active: &inactive}})
}

func (c *Coordinator) scheduleBotReplyLocked(sessionID, reply string) {
	c.cancelBotReplyLocked(sessionID)
	c.botTimers[sessionID] = time.AfterFunc(c.opts.BotDelay, func() {
		c.botReply(sessionID, reply)
	})
}

func (c *Coordinator) botReply(sessionID, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, armed := c.botTimers[sessionID]; !armed {
		return
	}
	delete(c.botTimers, sessionID)

	msg := Message{
		ID:         uuid.New().String(),
		AuthorID:   BotAuthorID,
		Text:       reply,
		SenderKind: SenderBot,
		CreatedAt:  time.Now(),
	}
	sess, err := c.store.AppendMessage(sessionID, msg)
	if err != nil {
		return
	}

	ev := Event{Name: EvMessageNew, Data: msg}
	if vconn, online := c.visitors.Lookup(sess.VisitorID); online {
		vconn.Send(ev)
	}
	if sess.Active {
		c.room.Broadcast(ev)
		c.room.EmitViewers(sessionID, ev)
	}
}

func (c *Coordinator) cancelGraceLocked(visitorID string) {
	if t, ok := c.graceTimers[visitorID]; ok {
		t.Stop()
		delete(c.graceTimers, visitorID)
	}
}

func (c *Coordinator) cancelBotReplyLocked(sessionID string) {
	if t, ok := c.botTimers[sessionID]; ok {
		t.Stop()
		delete(c.botTimers, sessionID)
	}
}

func (c *Coordinator) summariesLocked() []SessionSummary {
	sessions := c.store.List()
	out := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, summarize(sess))
	}
	return out
}

func summarize(sess *Session) SessionSummary {
	return SessionSummary{
		ID:          sess.ID,
		VisitorInfo: sess.VisitorInfo,
		CreatedAt:   sess.CreatedAt,
		Unread:      sess.UnreadCount,
		Active:      sess.Active,
	}
}

func sendError(conn Conn, err error) {
	if conn == nil {
		return
	}
	conn.Send(Event{Name: EvError, Data: ErrorPayload{Message: err.Error()}})
}
