package pool

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrExhausted reports that a kind had no idle handle left. It is never
	// returned from the hot path; Acquire signals it with ok=false and the
	// caller skips the spawn.
	ErrExhausted = errors.New("pool exhausted")

	ErrInvalidCapacity = errors.New("invalid pool capacity")
	ErrDuplicateKind   = errors.New("duplicate pool kind")
	ErrUnknownKind     = errors.New("unknown pool kind")
)

// Options tunes a Pool. The zero value is a production pool with unit scale.
type Options struct {
	// Strict turns programmer errors (double release, foreign handle) into
	// panics. Production builds leave it off and only log.
	Strict bool
	// Scale is the prototype's base scale, restored on every release.
	Scale Vec3
	Log   *zap.Logger
}

// Pool is a fixed-capacity recycler for one prototype kind. All handles are
// allocated in New; Acquire and Release never allocate.
// Single-goroutine access only (game loop).
type Pool struct {
	kind    Kind
	handles []Handle
	free    []uint32 // LIFO stack of idle slot indices
	strict  bool
	log     *zap.Logger
}

// New pre-allocates capacity idle handles of the given kind. A capacity of
// zero is allowed and yields a pool that is always empty.
func New(kind Kind, capacity int, opts Options) (*Pool, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: kind %d capacity %d", ErrInvalidCapacity, kind, capacity)
	}
	scale := opts.Scale
	if scale == (Vec3{}) {
		scale = Vec3{X: 1, Y: 1, Z: 1}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pool{
		kind:    kind,
		handles: make([]Handle, capacity),
		free:    make([]uint32, capacity),
		strict:  opts.Strict,
		log:     log,
	}
	for i := range p.handles {
		h := &p.handles[i]
		h.ID = NewHandleID(kind, uint32(i))
		h.baseScale = scale
		h.park()
		// Stack top is the last element, so slot 0 is handed out first.
		p.free[capacity-1-i] = uint32(i)
	}
	return p, nil
}

func (p *Pool) Kind() Kind    { return p.kind }
func (p *Pool) Capacity() int { return len(p.handles) }
func (p *Pool) Idle() int     { return len(p.free) }
func (p *Pool) Active() int   { return len(p.handles) - len(p.free) }

// Acquire hands out an idle handle. ok is false when the pool is empty.
func (p *Pool) Acquire() (h *Handle, ok bool) {
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]
	h = &p.handles[idx]
	h.active = true
	return h, true
}

// Release parks h at the inert position and returns it to the idle set.
func (p *Pool) Release(h *Handle) {
	if !p.owns(h) {
		p.misuse("release of foreign handle", h)
		return
	}
	if !h.active {
		p.misuse("double release", h)
		return
	}
	h.park()
	p.free = append(p.free, h.ID.Index())
}

// Get returns the handle with the given ID regardless of its state.
func (p *Pool) Get(id HandleID) (*Handle, bool) {
	if id.Kind() != p.kind || int(id.Index()) >= len(p.handles) {
		return nil, false
	}
	return &p.handles[id.Index()], true
}

// Each visits every handle, idle and active, in slot order.
func (p *Pool) Each(fn func(*Handle)) {
	for i := range p.handles {
		fn(&p.handles[i])
	}
}

func (p *Pool) owns(h *Handle) bool {
	if h == nil || h.ID.Kind() != p.kind {
		return false
	}
	idx := int(h.ID.Index())
	return idx < len(p.handles) && &p.handles[idx] == h
}

func (p *Pool) misuse(what string, h *Handle) {
	id := "nil"
	if h != nil {
		id = h.ID.String()
	}
	if p.strict {
		panic(fmt.Sprintf("pool: %s (kind %d, handle %s)", what, p.kind, id))
	}
	p.log.Warn("pool misuse ignored",
		zap.String("reason", what),
		zap.Uint16("kind", uint16(p.kind)),
		zap.String("handle", id),
	)
}
