package chat

// Room is the broadcast group every connected operator belongs to, plus the
// per-session viewer sets operators join when they select a conversation.
// Membership is mutated only under the Coordinator's lock.
type Room struct {
	admins  map[string]Conn
	viewing map[string]string // adminID -> selected sessionID
}

func NewRoom() *Room {
	return &Room{
		admins:  make(map[string]Conn),
		viewing: make(map[string]string),
	}
}

func (r *Room) Join(adminID string, c Conn) {
	r.admins[adminID] = c
}

// Leave drops the operator from the room and from whatever session they were
// viewing.
func (r *Room) Leave(adminID string) {
	delete(r.admins, adminID)
	delete(r.viewing, adminID)
}

// View moves the operator's viewer membership to sessionID, leaving any
// previously selected session.
func (r *Room) View(adminID, sessionID string) {
	r.viewing[adminID] = sessionID
}

// Broadcast fans the event out to every connected operator. Each Send is
// best-effort; there is no atomicity across receivers.
func (r *Room) Broadcast(ev Event) {
	for _, c := range r.admins {
		c.Send(ev)
	}
}

// EmitViewers sends the event to each operator currently viewing sessionID.
func (r *Room) EmitViewers(sessionID string, ev Event) {
	for adminID, viewed := range r.viewing {
		if viewed != sessionID {
			continue
		}
		if c, ok := r.admins[adminID]; ok {
			c.Send(ev)
		}
	}
}

// Viewing reports which session the operator has selected, if any.
func (r *Room) Viewing(adminID string) (string, bool) {
	sessionID, ok := r.viewing[adminID]
	return sessionID, ok
}
