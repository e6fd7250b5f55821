package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (f *fakeConn) Send(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeConn) named(name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, ev := range f.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// waitFor polls until at least count events with the given name arrived.
func (f *fakeConn) waitFor(t *testing.T, name string, count int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := f.named(name); len(evs) >= count {
			return evs
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q events, have %d", count, name, len(f.named(name)))
	return nil
}

func newTestCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	if opts.WelcomeText == "" {
		opts.WelcomeText = testWelcome
	}
	if opts.BotDelay == 0 {
		opts.BotDelay = 5 * time.Millisecond
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = 20 * time.Millisecond
	}
	c, err := NewCoordinator(opts, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	t.Cleanup(c.Shutdown)
	return c
}

func TestVisitorConnectWelcomeAndAnnouncement(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)

	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})
	if visitorID == "" || sessionID == "" {
		t.Fatal("connect must yield a visitor id and a session id")
	}

	welcome := visitor.named(EvMessageNew)
	if len(welcome) != 1 {
		t.Fatalf("visitor got %d message:new events, want the single welcome", len(welcome))
	}
	msg := welcome[0].Data.(Message)
	if msg.SenderKind != SenderBot || msg.Text != testWelcome {
		t.Fatalf("welcome = %+v", msg)
	}

	announce := admin.named(EvSessionNew)
	if len(announce) != 1 {
		t.Fatalf("operator room got %d session:new events, want 1", len(announce))
	}
	summary := announce[0].Data.(SessionSummary)
	if summary.ID != sessionID || summary.Unread != 1 {
		t.Fatalf("session:new = %+v, want id=%s unread=1", summary, sessionID)
	}

	// A freshly connecting operator receives the same session in the
	// snapshot, still carrying the announcement unread count.
	late := newFakeConn()
	c.AdminConnect("op-2", late)
	list := late.named(EvSessionList)
	if len(list) != 1 {
		t.Fatalf("late operator got %d session:list events, want 1", len(list))
	}
	summaries := list[0].Data.([]SessionSummary)
	if len(summaries) != 1 || summaries[0].Unread != 1 || summaries[0].VisitorInfo.DisplayName != "Ali" {
		t.Fatalf("session:list = %+v", summaries)
	}
}

func TestSelectSessionResetsUnread(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	_, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.SelectSession(admin, "op-1", sessionID)

	history := admin.named(EvSessionHistory)
	if len(history) != 1 {
		t.Fatalf("got %d session:history events, want 1", len(history))
	}
	msgs := history[0].Data.([]Message)
	if len(msgs) != 1 || msgs[0].SenderKind != SenderBot {
		t.Fatalf("history = %+v, want just the welcome", msgs)
	}

	updates := admin.named(EvSessionUpdate)
	if len(updates) != 1 {
		t.Fatalf("got %d session:update events, want 1", len(updates))
	}
	up := updates[0].Data.(SessionUpdate)
	if up.ID != sessionID || up.Unread == nil || *up.Unread != 0 {
		t.Fatalf("session:update = %+v, want unread=0", up)
	}

	sess, _ := c.store.Get(sessionID)
	if sess.UnreadCount != 0 {
		t.Fatalf("stored unread = %d, want 0", sess.UnreadCount)
	}
}

func TestConsecutiveVisitorSendsCountUnread(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.SelectSession(admin, "op-1", sessionID)

	const n = 4
	for i := 0; i < n; i++ {
		c.VisitorMessage(visitor, visitorID, "still there?", "", "")
	}
	sess, _ := c.store.Get(sessionID)
	if sess.UnreadCount != n {
		t.Fatalf("unread = %d after %d visitor sends with no select, want %d", sess.UnreadCount, n, n)
	}
	// Echo per send plus the initial welcome.
	if got := len(visitor.named(EvMessageNew)); got != n+1 {
		t.Fatalf("visitor saw %d message:new events, want %d", got, n+1)
	}
}

func TestUnknownSenderYieldsSingleError(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	conn := newFakeConn()

	c.VisitorMessage(conn, "ghost", "hello?", "", "")

	errs := conn.named(EvError)
	if len(errs) != 1 {
		t.Fatalf("got %d error events, want exactly 1", len(errs))
	}
	if len(c.store.List()) != 0 {
		t.Fatal("a failed precondition must not mutate the store")
	}
	if len(conn.named(EvMessageNew)) != 0 {
		t.Fatal("no echo may be produced for an unbound sender")
	}
}

func TestSelectUnknownSession(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)

	c.SelectSession(admin, "op-1", "missing")
	if len(admin.named(EvError)) != 1 {
		t.Fatal("selecting an unknown session must emit one error event")
	}
	if len(admin.named(EvSessionHistory)) != 0 {
		t.Fatal("no history may be sent for an unknown session")
	}
}

func TestAdminMessageRouting(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	_, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	// Without a selected session the operator has no resolvable target.
	c.AdminMessage(admin, "op-1", "hello", "", "")
	if len(admin.named(EvError)) != 1 {
		t.Fatal("admin send without a selected session must error")
	}

	c.SelectSession(admin, "op-1", sessionID)
	c.AdminMessage(admin, "op-1", "how can I help?", "", "")

	got := visitor.waitFor(t, EvMessageNew, 2) // welcome + admin reply
	last := got[len(got)-1].Data.(Message)
	if last.SenderKind != SenderAdmin || last.Text != "how can I help?" {
		t.Fatalf("visitor received %+v", last)
	}
	sess, _ := c.store.Get(sessionID)
	if sess.UnreadCount != 0 {
		t.Fatalf("admin messages must not bump unread, got %d", sess.UnreadCount)
	}

	// Offline visitor: delivery is silently dropped, history still grows.
	c.DisconnectVisitor(sess.VisitorID)
	before := len(sess.Messages)
	c.AdminMessage(admin, "op-1", "are you there?", "", "")
	if len(sess.Messages) != before+1 {
		t.Fatal("admin message must append even when the visitor is offline")
	}
}

func TestAutoResponseScenario(t *testing.T) {
	c := newTestCoordinator(t, Options{Rules: testRules()})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})
	c.SelectSession(admin, "op-1", sessionID)

	c.VisitorMessage(visitor, visitorID, "what is the price?", "", "")

	// The operator sees the visitor message live.
	admin.waitFor(t, EvMessageNew, 1)

	// After the configured delay both parties get the canned reply.
	wantReply := testRules()[0].Reply
	evs := visitor.waitFor(t, EvMessageNew, 3) // welcome + echo + bot reply
	bot := evs[len(evs)-1].Data.(Message)
	if bot.SenderKind != SenderBot || bot.Text != wantReply {
		t.Fatalf("visitor bot reply = %+v", bot)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var found bool
		for _, ev := range admin.named(EvMessageNew) {
			if m := ev.Data.(Message); m.SenderKind == SenderBot && m.Text == wantReply {
				found = true
			}
		}
		if found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("operator never received the bot reply")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Canned replies are bot traffic and must not count as unread.
	sess, _ := c.store.Get(sessionID)
	if sess.UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1 (the visitor message only)", sess.UnreadCount)
	}
}

func TestCloseSessionSemantics(t *testing.T) {
	c := newTestCoordinator(t, Options{})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})
	c.SelectSession(admin, "op-1", sessionID)

	c.CloseSession(admin, sessionID)

	closed := visitor.named(EvSessionClosed)
	if len(closed) != 1 || closed[0].Data.(SessionClosed).ID != sessionID {
		t.Fatalf("visitor session:closed = %+v", closed)
	}
	var sawInactive bool
	for _, ev := range admin.named(EvSessionUpdate) {
		up := ev.Data.(SessionUpdate)
		if up.ID == sessionID && up.Active != nil && !*up.Active {
			sawInactive = true
		}
	}
	if !sawInactive {
		t.Fatal("operator room must see session:update{active:false}")
	}

	// A visitor send on a closed session still appends to history and still
	// echoes, but no longer reaches any operator view.
	adminEventsBefore := len(admin.named(EvMessageNew))
	sess, _ := c.store.Get(sessionID)
	before := len(sess.Messages)

	c.VisitorMessage(visitor, visitorID, "anyone?", "", "")

	if len(sess.Messages) != before+1 {
		t.Fatal("visitor send after close must still append to history")
	}
	if got := len(visitor.named(EvMessageNew)); got != 2 { // welcome + echo
		t.Fatalf("visitor saw %d message:new events, want 2", got)
	}
	if len(admin.named(EvMessageNew)) != adminEventsBefore {
		t.Fatal("no live delivery to operators after close")
	}
}

func TestClosedSessionGetsNoBotReply(t *testing.T) {
	c := newTestCoordinator(t, Options{Rules: testRules(), BotDelay: 5 * time.Millisecond})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.CloseSession(admin, sessionID)
	c.VisitorMessage(visitor, visitorID, "what is the price?", "", "")

	visitor.waitFor(t, EvMessageNew, 2) // welcome + echo
	time.Sleep(40 * time.Millisecond)   // well past the bot delay

	c.mu.Lock()
	sess, _ := c.store.Get(sessionID)
	var botMessages int
	for _, m := range sess.Messages {
		if m.SenderKind == SenderBot {
			botMessages++
		}
	}
	c.mu.Unlock()
	if botMessages != 1 {
		t.Fatalf("closed session has %d bot messages, want 1 (the welcome only)", botMessages)
	}
	if got := len(visitor.named(EvMessageNew)); got != 2 {
		t.Fatalf("visitor saw %d message:new events, want 2 (welcome + echo, no canned reply)", got)
	}
}

func TestGraceTimerDeactivatesSession(t *testing.T) {
	c := newTestCoordinator(t, Options{GracePeriod: 15 * time.Millisecond})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.DisconnectVisitor(visitorID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		sess, _ := c.store.Get(sessionID)
		active := sess.Active
		c.mu.Unlock()
		if !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("grace timer never deactivated the session")
		}
		time.Sleep(2 * time.Millisecond)
	}

	var sawInactive bool
	for _, ev := range admin.named(EvSessionUpdate) {
		up := ev.Data.(SessionUpdate)
		if up.ID == sessionID && up.Active != nil && !*up.Active {
			sawInactive = true
		}
	}
	if !sawInactive {
		t.Fatal("operator room must be told the session went inactive")
	}
}

func TestCloseCancelsGraceTimer(t *testing.T) {
	c := newTestCoordinator(t, Options{GracePeriod: 15 * time.Millisecond})
	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, sessionID := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.DisconnectVisitor(visitorID)
	c.CloseSession(admin, sessionID)

	time.Sleep(60 * time.Millisecond) // well past the grace period

	var inactiveUpdates int
	for _, ev := range admin.named(EvSessionUpdate) {
		up := ev.Data.(SessionUpdate)
		if up.ID == sessionID && up.Active != nil && !*up.Active {
			inactiveUpdates++
		}
	}
	if inactiveUpdates != 1 {
		t.Fatalf("got %d inactive updates, want exactly 1 (the explicit close; the timer was cancelled)", inactiveUpdates)
	}
}

// A page reload mints a brand-new visitor identity, so the old session is
// orphaned and goes inactive after the grace period while the reload chats
// on in a fresh session. This mirrors the original client behavior.
func TestReloadOrphansOldSession(t *testing.T) {
	c := newTestCoordinator(t, Options{GracePeriod: 15 * time.Millisecond})
	visitor := newFakeConn()
	firstID, firstSession := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})
	c.DisconnectVisitor(firstID)

	reloaded := newFakeConn()
	secondID, secondSession := c.VisitorConnect(reloaded, VisitorInfo{DisplayName: "Ali"})
	if secondID == firstID {
		t.Fatal("every connect must mint a fresh visitor identity")
	}
	if secondSession == firstSession {
		t.Fatal("a reload starts a brand-new session")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		old, _ := c.store.Get(firstSession)
		active := old.Active
		c.mu.Unlock()
		if !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("orphaned session never went inactive")
		}
		time.Sleep(2 * time.Millisecond)
	}

	c.mu.Lock()
	fresh, _ := c.store.Get(secondSession)
	active := fresh.Active
	c.mu.Unlock()
	if !active {
		t.Fatal("the reloaded visitor's session must stay active")
	}
}

type fakeUploader struct {
	lastKey string
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.lastKey = key
	return "https://files.example.com/" + key, nil
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("storage offline")
}

func TestUploadFile(t *testing.T) {
	up := &fakeUploader{}
	c, err := NewCoordinator(Options{WelcomeText: testWelcome, BotDelay: time.Millisecond, GracePeriod: time.Minute}, up)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	t.Cleanup(c.Shutdown)

	visitor := newFakeConn()
	visitorID, _ := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.UploadFile(visitor, visitorID, "screenshot.png", []byte{0x89, 0x50}, "image/png")

	uploaded := visitor.named(EvFileUploaded)
	if len(uploaded) != 1 {
		t.Fatalf("got %d file:uploaded events, want 1", len(uploaded))
	}
	payload := uploaded[0].Data.(FileUploaded)
	if payload.FileType != "image/png" || payload.FileURL != "https://files.example.com/"+up.lastKey {
		t.Fatalf("file:uploaded = %+v", payload)
	}

	// Unbound senders get an error, nothing is stored.
	stranger := newFakeConn()
	c.UploadFile(stranger, "ghost", "x.bin", nil, "application/octet-stream")
	if len(stranger.named(EvError)) != 1 {
		t.Fatal("upload from an unbound sender must error")
	}
}

func TestUploadFailureIsReportedToSenderOnly(t *testing.T) {
	c, err := NewCoordinator(Options{WelcomeText: testWelcome, BotDelay: time.Millisecond, GracePeriod: time.Minute}, failingUploader{})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	t.Cleanup(c.Shutdown)

	admin := newFakeConn()
	c.AdminConnect("op-1", admin)
	visitor := newFakeConn()
	visitorID, _ := c.VisitorConnect(visitor, VisitorInfo{DisplayName: "Ali"})

	c.UploadFile(visitor, visitorID, "x.bin", nil, "application/octet-stream")
	if len(visitor.named(EvError)) != 1 {
		t.Fatal("sender must get exactly one error event")
	}
	if len(admin.named(EvError)) != 0 {
		t.Fatal("failures never propagate to other connections")
	}
}
