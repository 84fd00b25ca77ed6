package world

import "github.com/lanerunner/lanerunner/internal/core/pool"

// Segment is one fixed-length unit of track. Segments live in the
// streamer's ring; a *Segment is valid until that segment retires.
type Segment struct {
	Handle *pool.Handle
	StartZ float64 // leading edge along the travel axis
	Length float64

	hazard    Hazard
	hasHazard bool
}

// EndZ is the trailing edge.
func (s *Segment) EndZ() float64 { return s.StartZ + s.Length }

// Hazard returns the attached hazard, if any.
func (s *Segment) Hazard() (*Hazard, bool) {
	if !s.hasHazard {
		return nil, false
	}
	return &s.hazard, true
}

// Hazard is an obstacle attached to a segment. Its lifetime is exactly its
// owning segment's lifetime.
type Hazard struct {
	Handle  *pool.Handle
	Lane    int
	Offset  float64 // from the owning segment's StartZ
	Variant pool.Kind
	Segment pool.HandleID // owner, by ID only
}

// segmentRing is a fixed-size FIFO of segments ordered by StartZ.
type segmentRing struct {
	buf  []Segment
	head int
	n    int
}

func newSegmentRing(capacity int) segmentRing {
	return segmentRing{buf: make([]Segment, capacity)}
}

func (r *segmentRing) len() int   { return r.n }
func (r *segmentRing) full() bool { return r.n == len(r.buf) }

// at returns the i-th segment counting from the head.
func (r *segmentRing) at(i int) *Segment {
	return &r.buf[(r.head+i)%len(r.buf)]
}

// push reserves the slot after the tail. The caller fills it.
func (r *segmentRing) push() *Segment {
	s := r.at(r.n)
	r.n++
	return s
}

func (r *segmentRing) popHead() {
	*r.at(0) = Segment{}
	r.head = (r.head + 1) % len(r.buf)
	r.n--
}

func (r *segmentRing) popTail() {
	*r.at(r.n - 1) = Segment{}
	r.n--
}
