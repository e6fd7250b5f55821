package chat

// Registry is a plain id -> connection lookup table. Two independent
// instances exist, one for visitors and one for operators; neither owns any
// session or message data, entries are purged on disconnect.
//
// A later Bind for the same id silently replaces the earlier mapping
// (reconnect wins). Not safe for concurrent use on its own; the Coordinator
// serializes all access under its lock.
type Registry struct {
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Bind(id string, c Conn) {
	r.conns[id] = c
}

func (r *Registry) Lookup(id string) (Conn, bool) {
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Unbind(id string) {
	delete(r.conns, id)
}
