package pool

import "fmt"

// Set tracks one Pool per kind and routes Acquire/Release by exact kind
// identity. Kinds are dense small integers, so lookup is a slice index.
type Set struct {
	pools []*Pool
}

func NewSet() *Set {
	return &Set{
		pools: make([]*Pool, 0, 8),
	}
}

// Add registers p under its kind.
func (s *Set) Add(p *Pool) error {
	k := int(p.Kind())
	for len(s.pools) <= k {
		s.pools = append(s.pools, nil)
	}
	if s.pools[k] != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateKind, k)
	}
	s.pools[k] = p
	return nil
}

// Pool returns the pool registered for kind, or nil.
func (s *Set) Pool(kind Kind) *Pool {
	if int(kind) >= len(s.pools) {
		return nil
	}
	return s.pools[kind]
}

// Acquire takes an idle handle of the given kind. An unregistered kind
// behaves like an empty pool.
func (s *Set) Acquire(kind Kind) (*Handle, bool) {
	p := s.Pool(kind)
	if p == nil {
		return nil, false
	}
	return p.Acquire()
}

// Release returns h to the pool of its own kind.
func (s *Set) Release(h *Handle) {
	if h == nil {
		return
	}
	if p := s.Pool(h.Kind()); p != nil {
		p.Release(h)
	}
}

// Each visits registered pools in kind order.
func (s *Set) Each(fn func(*Pool)) {
	for _, p := range s.pools {
		if p != nil {
			fn(p)
		}
	}
}
