// Package reactive implements the observable cell graph driving style
// invalidation.
//
// The graph is single threaded: cells are read and written from the host's
// render loop only. Reading a cell while an effect or a derived cell is
// tracking registers a dependency edge in both directions. Writing a cell
// recomputes dependent derived cells in depth order and then notifies the
// union of affected effects once.
package reactive

import (
	"cmp"
	"container/heap"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Graph owns tracking state and pending notifications of a set of cells.
type Graph struct {
	log *zap.Logger

	seq     uint64
	current observer
	batch   int
	pending map[*Effect]struct{}

	// effects released by owners which were garbage collected, guarded by
	// mu as Release is called from runtime cleanup goroutine
	mu       sync.Mutex
	released []*Effect

	// statistics, mostly for tests and debug logging
	recomputed int
	notified   int
}

// New creates empty graph.
func New(log *zap.Logger) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{
		log:     log.Named("reactive"),
		pending: make(map[*Effect]struct{}),
	}
}

// Stats returns number of derived recomputations and effect notifications
// performed so far.
func (g *Graph) Stats() (recomputed, notified int) {
	return g.recomputed, g.notified
}

func (g *Graph) next() uint64 {
	g.seq++
	return g.seq
}

// observer is whoever is tracking reads right now: derived cell or effect.
type observer interface {
	track(src *node)
}

// Untracked runs fn without registering dependencies of reads it performs.
func (g *Graph) Untracked(fn func()) {
	prev := g.current
	g.current = nil
	defer func() { g.current = prev }()
	fn()
}

// Tracking reports whether reads register dependencies at the moment.
func (g *Graph) Tracking() bool {
	return g.current != nil
}

// Release schedules effect for detaching. Unlike Cleanup it may be called
// from any goroutine, detaching happens on the next Batch or NewEffect.
func (g *Graph) Release(e *Effect) {
	if e == nil {
		return
	}
	g.mu.Lock()
	g.released = append(g.released, e)
	g.mu.Unlock()
}

func (g *Graph) sweep() {
	g.mu.Lock()
	released := g.released
	g.released = nil
	g.mu.Unlock()

	for _, e := range released {
		e.Cleanup()
	}
	if len(released) > 0 {
		g.log.Debug("Released effects detached", zap.Int("count", len(released)))
	}
}

// Batch runs fn delaying effect notifications until the outermost batch
// completes. Every affected effect is notified once no matter how many of
// its dependencies changed.
func (g *Graph) Batch(fn func()) {
	if g.batch == 0 {
		g.sweep()
	}
	g.batch++
	defer func() {
		g.batch--
		if g.batch == 0 {
			g.flush()
		}
	}()
	fn()
}

// node is the graph vertex shared by settable and derived cells.
type node struct {
	g     *Graph
	id    uint64
	depth int

	subs    map[*node]struct{}
	effects map[*Effect]struct{}

	// derived cells only
	deps       map[*node]struct{}
	refresh    func() bool
	invalidate func()
}

func newNode(g *Graph) node {
	return node{
		g:       g,
		id:      g.next(),
		subs:    make(map[*node]struct{}),
		effects: make(map[*Effect]struct{}),
	}
}

func (n *node) derived() bool {
	return n.refresh != nil
}

func (n *node) observed() bool {
	return len(n.subs) > 0 || len(n.effects) > 0
}

// read registers n as dependency of the current observer.
func (n *node) read() {
	if n.g.current != nil {
		n.g.current.track(n)
	}
}

func (n *node) track(src *node) {
	if _, ok := n.deps[src]; ok {
		return
	}
	n.deps[src] = struct{}{}
	src.subs[n] = struct{}{}
}

// run executes fn collecting a fresh dependency set, edges which were not
// re-established are removed afterwards.
func (n *node) run(fn func()) {
	old := n.deps
	n.deps = make(map[*node]struct{}, len(old))

	prev := n.g.current
	n.g.current = n
	defer func() {
		n.g.current = prev
		depth := 0
		for dep := range n.deps {
			depth = max(depth, dep.depth+1)
		}
		n.depth = depth
		for dep := range old {
			if _, ok := n.deps[dep]; !ok {
				dep.removeSub(n)
			}
		}
	}()
	fn()
}

func (n *node) removeSub(sub *node) {
	delete(n.subs, sub)
	n.release()
}

func (n *node) removeEffect(e *Effect) {
	delete(n.effects, e)
	n.release()
}

// release detaches derived cell nobody observes from its sources. It keeps
// its last value but stops taking part in propagation, next read recomputes
// it.
func (n *node) release() {
	if !n.derived() || n.observed() {
		return
	}
	deps := n.deps
	n.deps = make(map[*node]struct{})
	n.invalidate()
	for dep := range deps {
		dep.removeSub(n)
	}
}

// propagate recomputes derived dependents of changed node to a fixed point
// and schedules affected effects.
func (g *Graph) propagate(changed *node) {
	queue := &nodeQueue{}
	queued := make(map[*node]bool)
	enqueue := func(src *node) {
		for sub := range src.subs {
			if !queued[sub] {
				queued[sub] = true
				heap.Push(queue, sub)
			}
		}
		for e := range src.effects {
			g.pending[e] = struct{}{}
		}
	}

	enqueue(changed)
	for queue.Len() > 0 {
		d := heap.Pop(queue).(*node)
		delete(queued, d)
		if !d.observed() {
			continue
		}
		g.recomputed++
		if d.refresh() {
			enqueue(d)
		}
	}
	if g.batch == 0 {
		g.flush()
	}
}

func (g *Graph) flush() {
	if len(g.pending) == 0 {
		return
	}
	effects := make([]*Effect, 0, len(g.pending))
	for e := range g.pending {
		effects = append(effects, e)
	}
	clear(g.pending)
	slices.SortFunc(effects, func(a, b *Effect) int { return cmp.Compare(a.id, b.id) })

	n := 0
	for _, e := range effects {
		if e.notify() {
			n++
		}
	}
	g.notified += n
	g.log.Debug("Effects notified", zap.Int("scheduled", len(effects)), zap.Int("notified", n))
}

// nodeQueue orders derived cells by depth so that every cell is recomputed
// after all of its sources.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].depth != q[j].depth {
		return q[i].depth < q[j].depth
	}
	return q[i].id < q[j].id
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
