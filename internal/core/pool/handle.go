package pool

import "fmt"

// Kind identifies one prototype (track segment or a hazard variant).
// Kinds are small integers assigned once at configuration time.
type Kind uint16

// KindTrack is the prototype kind of track segments. Hazard variants are
// numbered from 1 in catalog order.
const KindTrack Kind = 0

// HandleID encodes a 32-bit slot index in the lower bits and the owning kind
// in the upper bits. IDs are stable for the life of the pool.
type HandleID uint64

func NewHandleID(kind Kind, index uint32) HandleID {
	return HandleID(uint64(kind)<<32 | uint64(index))
}

func (id HandleID) Index() uint32 { return uint32(id) }
func (id HandleID) Kind() Kind    { return Kind(id >> 32) }

func (id HandleID) String() string {
	return fmt.Sprintf("%d:%d", id.Kind(), id.Index())
}

// Vec3 is a position, rotation (Euler degrees) or scale.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Transform is the spatial state read by rendering and physics.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// InertPosition is where idle handles are parked, well away from the track.
var InertPosition = Vec3{X: -2000, Y: -2000, Z: -2000}

// Handle is one pre-allocated, recyclable instance of a prototype kind.
// Handles are owned by their Pool; callers only mutate Transform while the
// handle is active.
type Handle struct {
	ID        HandleID
	Transform Transform
	active    bool
	baseScale Vec3
}

func (h *Handle) Kind() Kind      { return h.ID.Kind() }
func (h *Handle) Active() bool    { return h.active }
func (h *Handle) BaseScale() Vec3 { return h.baseScale }

func (h *Handle) park() {
	h.Transform = Transform{Position: InertPosition, Scale: h.baseScale}
	h.active = false
}
