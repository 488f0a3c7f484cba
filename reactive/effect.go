package reactive

// Queue receives notifications addressed to the owner of an effect. Tokens
// are opaque to the graph and must be comparable.
type Queue interface {
	Enqueue(token any)
}

// QueueFunc adapts plain function to Queue.
type QueueFunc func(token any)

func (f QueueFunc) Enqueue(token any) { f(token) }

// UpdateQueue collects tokens until the owner drains them, every token is
// kept once.
type UpdateQueue struct {
	tokens []any
	seen   map[any]struct{}
}

// NewUpdateQueue creates empty queue.
func NewUpdateQueue() *UpdateQueue {
	return &UpdateQueue{seen: make(map[any]struct{})}
}

func (q *UpdateQueue) Enqueue(token any) {
	if _, ok := q.seen[token]; ok {
		return
	}
	q.seen[token] = struct{}{}
	q.tokens = append(q.tokens, token)
}

// Len returns number of pending tokens.
func (q *UpdateQueue) Len() int {
	return len(q.tokens)
}

// Drain returns pending tokens in arrival order and empties the queue.
func (q *UpdateQueue) Drain() []any {
	tokens := q.tokens
	q.tokens = nil
	clear(q.seen)
	return tokens
}

// Effect is a unit of recomputation: the set of cells read by the last
// tracked pass and a token identifying what has to be recomputed when any
// of them changes. The graph never calls back into the owner, it posts the
// token to the owner's queue and marks the effect stale.
type Effect struct {
	g     *Graph
	id    uint64
	token any
	queue Queue

	deps     map[*node]struct{}
	stale    bool
	detached bool
}

// NewEffect creates effect posting token to queue on invalidation. Token
// is kept for the lifetime of the effect: when it references a key of a
// WeakFamily the key is never collected.
func (g *Graph) NewEffect(token any, queue Queue) *Effect {
	g.sweep()
	return &Effect{
		g:     g,
		id:    g.next(),
		token: token,
		queue: queue,
		deps:  make(map[*node]struct{}),
	}
}

// Token returns token the effect was created with.
func (e *Effect) Token() any {
	return e.token
}

// Stale reports whether any dependency changed since the last Track.
func (e *Effect) Stale() bool {
	return e.stale
}

// Detached reports whether Cleanup was called.
func (e *Effect) Detached() bool {
	return e.detached
}

// Len returns number of cells the effect depends on.
func (e *Effect) Len() int {
	return len(e.deps)
}

func (e *Effect) track(src *node) {
	if _, ok := e.deps[src]; ok {
		return
	}
	e.deps[src] = struct{}{}
	src.effects[e] = struct{}{}
}

// Track runs fn registering every cell it reads as dependency of the
// effect. Dependencies of a previous Track which were not read again are
// dropped and the effect becomes fresh.
func (e *Effect) Track(fn func()) {
	if e.detached {
		e.g.Untracked(fn)
		return
	}
	old := e.deps
	e.deps = make(map[*node]struct{}, len(old))
	e.stale = false

	prev := e.g.current
	e.g.current = e
	defer func() {
		e.g.current = prev
		for dep := range old {
			if _, ok := e.deps[dep]; !ok {
				dep.removeEffect(e)
			}
		}
	}()
	fn()
}

// Cleanup unsubscribes effect from every dependency. Detached effect is
// never notified again.
func (e *Effect) Cleanup() {
	if e.detached {
		return
	}
	e.detached = true
	deps := e.deps
	e.deps = nil
	delete(e.g.pending, e)
	for dep := range deps {
		dep.removeEffect(e)
	}
}

func (e *Effect) notify() bool {
	if e.stale || e.detached {
		return false
	}
	e.stale = true
	if e.queue != nil {
		e.queue.Enqueue(e.token)
	}
	return true
}
