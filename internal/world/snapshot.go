package world

import "github.com/lanerunner/lanerunner/internal/core/pool"

// SegmentView is the read-only per-tick view of one active segment.
type SegmentView struct {
	ID        pool.HandleID
	StartZ    float64
	Length    float64
	Transform pool.Transform
}

// HazardView is the read-only per-tick view of one active hazard.
type HazardView struct {
	ID        pool.HandleID
	Segment   pool.HandleID
	Variant   pool.Kind
	Lane      int
	Offset    float64
	Transform pool.Transform
}

// Snapshot is what rendering and physics read each frame. Segments are in
// StartZ order; hazards follow their owners' order.
type Snapshot struct {
	Segments  []SegmentView
	Hazards   []HazardView
	FrontierZ float64
}

// Snapshot fills dst, reusing its slices. Keep one Snapshot per consumer and
// the steady state does not allocate.
func (s *Streamer) Snapshot(dst *Snapshot) {
	dst.Segments = dst.Segments[:0]
	dst.Hazards = dst.Hazards[:0]
	dst.FrontierZ = s.frontierZ
	for i := 0; i < s.segs.len(); i++ {
		seg := s.segs.at(i)
		dst.Segments = append(dst.Segments, SegmentView{
			ID:        seg.Handle.ID,
			StartZ:    seg.StartZ,
			Length:    seg.Length,
			Transform: seg.Handle.Transform,
		})
		if hz, ok := seg.Hazard(); ok {
			dst.Hazards = append(dst.Hazards, HazardView{
				ID:        hz.Handle.ID,
				Segment:   hz.Segment,
				Variant:   hz.Variant,
				Lane:      hz.Lane,
				Offset:    hz.Offset,
				Transform: hz.Handle.Transform,
			})
		}
	}
}
